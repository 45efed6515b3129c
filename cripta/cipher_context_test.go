package cripta

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

func randomBytes(rng *rand.Rand, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(rng.UintN(256))
	}
	return out
}

func mustContext(t testing.TB, key []uint8, mode CipherMode, iv []uint8, parallel bool) *CipherContext {
	t.Helper()
	ctx, err := NewDESContext(key, mode, iv, parallel)
	if err != nil {
		t.Fatalf("NewDESContext: %v", err)
	}
	return ctx
}

func TestCipherContextRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 22))

	for _, mode := range []CipherMode{CipherModeECB, CipherModeCBC} {
		for _, parallel := range []bool{false, true} {
			t.Run(fmt.Sprintf("%v/parallel=%v", mode, parallel), func(t *testing.T) {
				for _, blocks := range []int{0, 1, 2, 7, 64} {
					ctx := mustContext(t, randomBytes(rng, KeySize), mode, nil, parallel)
					plaintext := randomBytes(rng, blocks*BlockSize)

					ciphertext, err := ctx.Encrypt(plaintext)
					if err != nil {
						t.Fatalf("Encrypt: %v", err)
					}
					if len(ciphertext) != len(plaintext) {
						t.Fatalf("ciphertext length %d, want %d", len(ciphertext), len(plaintext))
					}

					decrypted, err := ctx.Decrypt(ciphertext)
					if err != nil {
						t.Fatalf("Decrypt: %v", err)
					}
					if !bytes.Equal(decrypted, plaintext) {
						t.Fatalf("%d blocks, parallel=%v: round trip mismatch", blocks, parallel)
					}
				}
			})
		}
	}
}

func TestCipherContextECBMatchesBlockCipher(t *testing.T) {
	key := []uint8("TestKeys")
	ctx := mustContext(t, key, CipherModeECB, nil, false)
	des, _ := NewDESCipher(key)

	plaintext := []uint8("Message!Message!")
	ciphertext, err := ctx.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	want := des.EncryptBlock(readBlock(plaintext, 0))
	if readBlock(ciphertext, 0) != want || readBlock(ciphertext, 1) != want {
		t.Errorf("ECB blocks %x, want both %016x", ciphertext, want)
	}
}

func TestCipherContextCBCChaining(t *testing.T) {
	key := []uint8("TestKeys")
	iv := []uint8{1, 2, 3, 4, 5, 6, 7, 8}
	ctx := mustContext(t, key, CipherModeCBC, iv, false)
	des, _ := NewDESCipher(key)

	plaintext := []uint8("Message!Message!")
	ciphertext, err := ctx.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	c0 := des.EncryptBlock(readBlock(plaintext, 0) ^ readBlock(iv, 0))
	c1 := des.EncryptBlock(readBlock(plaintext, 1) ^ c0)
	if readBlock(ciphertext, 0) != c0 || readBlock(ciphertext, 1) != c1 {
		t.Errorf("CBC ciphertext %x, want %016x%016x", ciphertext, c0, c1)
	}
	if c0 == c1 {
		t.Error("equal plaintext blocks gave equal CBC ciphertext blocks")
	}
}

func TestCBCErrorPropagation(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 24))
	ctx := mustContext(t, randomBytes(rng, KeySize), CipherModeCBC, nil, false)

	const blocks = 6
	plaintext := randomBytes(rng, blocks*BlockSize)
	ciphertext, err := ctx.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	for corrupt := 0; corrupt < blocks; corrupt++ {
		tampered := cloneBytes(ciphertext)
		tampered[corrupt*BlockSize+3] ^= 0x10

		decrypted, err := ctx.Decrypt(tampered)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}

		for i := 0; i < blocks; i++ {
			got := readBlock(decrypted, i)
			want := readBlock(plaintext, i)
			switch i {
			case corrupt:
				if got == want {
					t.Errorf("corrupt block %d: block %d decrypted unchanged", corrupt, i)
				}
			case corrupt + 1:
				// the flipped ciphertext bit flips the same plaintext bit
				if got^want != readBlock(tampered, corrupt)^readBlock(ciphertext, corrupt) {
					t.Errorf("corrupt block %d: block %d differs by %016x", corrupt, i, got^want)
				}
			default:
				if got != want {
					t.Errorf("corrupt block %d: block %d damaged", corrupt, i)
				}
			}
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewPCG(25, 26))
	key := randomBytes(rng, KeySize)
	iv := randomBytes(rng, BlockSize)
	plaintext := randomBytes(rng, 1021*BlockSize)

	for _, mode := range []CipherMode{CipherModeECB, CipherModeCBC} {
		seq := mustContext(t, key, mode, iv, false)
		par := mustContext(t, key, mode, iv, true)

		c1, err := seq.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("%v sequential Encrypt: %v", mode, err)
		}
		c2, err := par.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("%v parallel Encrypt: %v", mode, err)
		}
		if !bytes.Equal(c1, c2) {
			t.Fatalf("%v: parallel ciphertext differs", mode)
		}

		p2, err := par.Decrypt(c1)
		if err != nil {
			t.Fatalf("%v parallel Decrypt: %v", mode, err)
		}
		if !bytes.Equal(p2, plaintext) {
			t.Fatalf("%v: parallel decryption differs", mode)
		}
	}
}

func TestCipherContextErrors(t *testing.T) {
	ctx := mustContext(t, []uint8("TestKeys"), CipherModeCBC, nil, false)

	for _, n := range []int{1, 7, 9, 15} {
		if _, err := ctx.Encrypt(make([]uint8, n)); !errors.Is(err, ErrInvalidInputLength) {
			t.Errorf("Encrypt(%d bytes): err = %v, want ErrInvalidInputLength", n, err)
		}
		if _, err := ctx.Decrypt(make([]uint8, n)); !errors.Is(err, ErrInvalidInputLength) {
			t.Errorf("Decrypt(%d bytes): err = %v, want ErrInvalidInputLength", n, err)
		}
	}

	if _, err := NewDESContext([]uint8("TestKeys"), CipherMode(7), nil, false); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("CipherMode(7): err = %v, want ErrUnsupportedMode", err)
	}
	if _, err := NewDESContext([]uint8("TestKeys"), CipherModeCBC, []uint8{1, 2, 3}, false); !errors.Is(err, ErrInvalidIV) {
		t.Errorf("short IV: err = %v, want ErrInvalidIV", err)
	}
	if _, err := NewDESContext([]uint8("short"), CipherModeECB, nil, false); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("short key: err = %v, want ErrInvalidKeySize", err)
	}

	broken := &CipherContext{cipher: ctx.cipher, mode: CipherMode(3)}
	if _, err := broken.Encrypt(make([]uint8, 8)); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("Encrypt with CipherMode(3): err = %v", err)
	}
	if _, err := broken.Decrypt(make([]uint8, 8)); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("Decrypt with CipherMode(3): err = %v", err)
	}
}

func TestParseCipherMode(t *testing.T) {
	for name, want := range map[string]CipherMode{"ecb": CipherModeECB, "CBC": CipherModeCBC} {
		got, err := ParseCipherMode(name)
		if err != nil || got != want {
			t.Errorf("ParseCipherMode(%q) = %v, %v", name, got, err)
		}
	}
	for _, name := range []string{"cfb", "CTS", "ofb", ""} {
		if _, err := ParseCipherMode(name); !errors.Is(err, ErrUnsupportedMode) {
			t.Errorf("ParseCipherMode(%q): err = %v, want ErrUnsupportedMode", name, err)
		}
	}
}

func TestNewDESContextGeneratesKeyAndIV(t *testing.T) {
	a := mustContext(t, nil, CipherModeCBC, nil, false)
	b := mustContext(t, nil, CipherModeCBC, nil, false)

	if len(a.Key()) != KeySize || len(a.IV()) != BlockSize {
		t.Fatalf("key %x iv %x", a.Key(), a.IV())
	}
	if bytes.Equal(a.Key(), b.Key()) {
		t.Error("two generated keys are equal")
	}
	if bytes.Equal(a.IV(), b.IV()) {
		t.Error("two generated IVs are equal")
	}

	ecb := mustContext(t, nil, CipherModeECB, nil, false)
	if !bytes.Equal(ecb.IV(), make([]uint8, BlockSize)) {
		t.Errorf("ECB IV = %x, want zeros", ecb.IV())
	}

	// the same key and IV must decrypt on the receiving side
	plaintext := []uint8("Message!")
	ciphertext, err := a.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	receiver := mustContext(t, a.Key(), CipherModeCBC, a.IV(), false)
	decrypted, err := receiver.Decrypt(ciphertext)
	if err != nil || !bytes.Equal(decrypted, plaintext) {
		t.Errorf("receiver decrypted %q, %v", decrypted, err)
	}
}

func TestSealOpen(t *testing.T) {
	rng := rand.New(rand.NewPCG(27, 28))
	key := randomBytes(rng, KeySize)

	for _, mode := range []CipherMode{CipherModeECB, CipherModeCBC} {
		for _, padding := range []PaddingMode{PaddingModeCount, PaddingModePKCS7} {
			ctx := mustContext(t, key, mode, nil, false)
			plaintext := []uint8("attack at dawn")

			env, err := ctx.Seal(plaintext, padding)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			encoded, err := env.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary: %v", err)
			}

			var decoded Envelope
			if err := decoded.UnmarshalBinary(encoded); err != nil {
				t.Fatalf("UnmarshalBinary: %v", err)
			}

			// a fresh context with the same key but its own IV
			receiver := mustContext(t, key, CipherModeECB, nil, true)
			opened, err := receiver.Open(&decoded)
			if err != nil {
				t.Fatalf("%v/%v Open: %v", mode, padding, err)
			}
			if !bytes.Equal(opened, plaintext) {
				t.Errorf("%v/%v: opened %q", mode, padding, opened)
			}

			wrong := mustContext(t, randomBytes(rng, KeySize), mode, nil, false)
			if _, err := wrong.Open(&decoded); !errors.Is(err, ErrKeyMismatch) {
				t.Errorf("wrong key: err = %v, want ErrKeyMismatch", err)
			}
		}
	}
}

func TestEncryptDecryptFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	encrypted := filepath.Join(dir, "output.enc")
	decrypted := filepath.Join(dir, "output.txt")

	data := bytes.Repeat([]uint8("DES file test "), 100)
	if err := os.WriteFile(input, data, 0644); err != nil {
		t.Fatal(err)
	}

	ctx := mustContext(t, []uint8("TestKeys"), CipherModeCBC, nil, false)
	if err := ctx.EncryptFile(input, encrypted, PaddingModePKCS7, nil); err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}
	if err := ctx.DecryptFile(encrypted, decrypted); err != nil {
		t.Fatalf("DecryptFile: %v", err)
	}

	got, err := os.ReadFile(decrypted)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("file round trip mismatch")
	}

	if err := ctx.DecryptFile(filepath.Join(dir, "missing.enc"), decrypted); err == nil {
		t.Error("DecryptFile of a missing file succeeded")
	}
}

func BenchmarkCBCEncrypt(b *testing.B) {
	ctx := mustContext(b, []uint8("TestKeys"), CipherModeCBC, nil, false)
	data := make([]uint8, 64*1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ctx.Encrypt(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkECBDecryptParallel(b *testing.B) {
	ctx := mustContext(b, []uint8("TestKeys"), CipherModeECB, nil, true)
	data := make([]uint8, 64*1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ctx.Decrypt(data); err != nil {
			b.Fatal(err)
		}
	}
}
