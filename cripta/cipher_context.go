package cripta

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

type CipherMode int

const (
	CipherModeECB CipherMode = iota
	CipherModeCBC
)

func (cm CipherMode) String() string {
	switch cm {
	case CipherModeECB:
		return "ECB"
	case CipherModeCBC:
		return "CBC"
	default:
		return fmt.Sprintf("CipherMode(%d)", int(cm))
	}
}

// ParseCipherMode accepts "ecb" and "cbc" in any case. CFB and CTS are
// recognised and rejected with ErrUnsupportedMode.
func ParseCipherMode(name string) (CipherMode, error) {
	switch strings.ToLower(name) {
	case "ecb":
		return CipherModeECB, nil
	case "cbc":
		return CipherModeCBC, nil
	case "cfb", "cts":
		return 0, fmt.Errorf("%w: %s is not implemented", ErrUnsupportedMode, strings.ToUpper(name))
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMode, name)
	}
}

func (cm CipherMode) validate() error {
	switch cm {
	case CipherModeECB, CipherModeCBC:
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedMode, cm)
	}
}

// CipherContext chains a block cipher over 8-byte blocks. It is immutable
// once built and safe for concurrent use.
type CipherContext struct {
	cipher   ISymmetricCipher
	key      []uint8
	mode     CipherMode
	iv       uint64
	parallel bool
}

type keyHolder interface {
	Key() []uint8
}

// NewCipherContext wraps cipher in mode. A CBC context without an IV gets a
// random one. With parallel set, ECB and CBC decryption spread blocks over
// runtime.NumCPU() workers.
func NewCipherContext(
	cipher ISymmetricCipher,
	mode CipherMode,
	iv []uint8,
	parallel bool,
) (*CipherContext, error) {

	if cipher == nil {
		return nil, fmt.Errorf("cipher implementation cannot be nil")
	}
	if err := mode.validate(); err != nil {
		return nil, err
	}

	ctx := &CipherContext{
		cipher:   cipher,
		mode:     mode,
		parallel: parallel,
	}

	if kh, ok := cipher.(keyHolder); ok {
		ctx.key = kh.Key()
	}

	switch {
	case len(iv) == BlockSize:
		ctx.iv = binary.BigEndian.Uint64(iv)
	case len(iv) != 0:
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidIV, BlockSize, len(iv))
	case mode == CipherModeCBC:
		generated := make([]uint8, BlockSize)
		if _, err := GenerateRandomBytes(generated); err != nil {
			return nil, fmt.Errorf("failed to generate IV: %w", err)
		}
		ctx.iv = binary.BigEndian.Uint64(generated)
	}

	return ctx, nil
}

// NewDESContext builds a DES cipher context. An empty key is replaced by a
// random one, readable afterwards through Key.
func NewDESContext(key []uint8, mode CipherMode, iv []uint8, parallel bool) (*CipherContext, error) {
	if len(key) == 0 {
		key = make([]uint8, KeySize)
		if _, err := GenerateRandomBytes(key); err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
	}

	des, err := NewDESCipher(key)
	if err != nil {
		return nil, err
	}

	return NewCipherContext(des, mode, iv, parallel)
}

func (ctx *CipherContext) Mode() CipherMode {
	return ctx.mode
}

func (ctx *CipherContext) BlockSize() int {
	return BlockSize
}

func (ctx *CipherContext) Parallel() bool {
	return ctx.parallel
}

// Key returns a copy of the key, or nil if the cipher does not expose one.
func (ctx *CipherContext) Key() []uint8 {
	if ctx.key == nil {
		return nil
	}
	return cloneBytes(ctx.key)
}

// IV returns the initialization vector as 8 big-endian bytes. It is all
// zeros for ECB.
func (ctx *CipherContext) IV() []uint8 {
	return binary.BigEndian.AppendUint64(nil, ctx.iv)
}

func checkLength(data []uint8) error {
	if len(data)%BlockSize != 0 {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidInputLength, len(data))
	}
	return nil
}

func readBlock(data []uint8, i int) uint64 {
	return binary.BigEndian.Uint64(data[i*BlockSize:])
}

func writeBlock(data []uint8, i int, block uint64) {
	binary.BigEndian.PutUint64(data[i*BlockSize:], block)
}

// Encrypt encrypts block-aligned plaintext. The output has the same length.
func (ctx *CipherContext) Encrypt(plaintext []uint8) ([]uint8, error) {
	if err := checkLength(plaintext); err != nil {
		return nil, err
	}

	ciphertext := make([]uint8, len(plaintext))
	numBlocks := len(plaintext) / BlockSize

	switch ctx.mode {
	case CipherModeECB:
		if ctx.parallel {
			if err := ctx.processParallel(numBlocks, func(i int) {
				writeBlock(ciphertext, i, ctx.cipher.EncryptBlock(readBlock(plaintext, i)))
			}); err != nil {
				return nil, fmt.Errorf("ECB encryption failed: %w", err)
			}
			return ciphertext, nil
		}
		for i := 0; i < numBlocks; i++ {
			writeBlock(ciphertext, i, ctx.cipher.EncryptBlock(readBlock(plaintext, i)))
		}

	case CipherModeCBC:
		chain := ctx.iv
		for i := 0; i < numBlocks; i++ {
			chain = ctx.cipher.EncryptBlock(readBlock(plaintext, i) ^ chain)
			writeBlock(ciphertext, i, chain)
		}

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, ctx.mode)
	}

	return ciphertext, nil
}

// Decrypt decrypts block-aligned ciphertext. Padding is left in place.
func (ctx *CipherContext) Decrypt(ciphertext []uint8) ([]uint8, error) {
	if err := checkLength(ciphertext); err != nil {
		return nil, err
	}

	plaintext := make([]uint8, len(ciphertext))
	numBlocks := len(ciphertext) / BlockSize

	var decryptOne func(i int)

	switch ctx.mode {
	case CipherModeECB:
		decryptOne = func(i int) {
			writeBlock(plaintext, i, ctx.cipher.DecryptBlock(readBlock(ciphertext, i)))
		}

	case CipherModeCBC:
		// The chain value for block i is ciphertext block i-1, never the
		// decrypted output, so blocks do not depend on each other.
		decryptOne = func(i int) {
			chain := ctx.iv
			if i > 0 {
				chain = readBlock(ciphertext, i-1)
			}
			writeBlock(plaintext, i, ctx.cipher.DecryptBlock(readBlock(ciphertext, i))^chain)
		}

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, ctx.mode)
	}

	if ctx.parallel {
		if err := ctx.processParallel(numBlocks, decryptOne); err != nil {
			return nil, fmt.Errorf("%v decryption failed: %w", ctx.mode, err)
		}
		return plaintext, nil
	}

	for i := 0; i < numBlocks; i++ {
		decryptOne(i)
	}

	return plaintext, nil
}

// processParallel runs fn for every block index, in contiguous ranges of
// blocks, one range per worker.
func (ctx *CipherContext) processParallel(numBlocks int, fn func(i int)) error {
	if numBlocks == 0 {
		return nil
	}

	numThreads := runtime.NumCPU()
	if numThreads > numBlocks {
		numThreads = numBlocks
	}
	blocksPerThread := (numBlocks + numThreads - 1) / numThreads

	var g errgroup.Group
	g.SetLimit(numThreads)

	for start := 0; start < numBlocks; start += blocksPerThread {
		end := min(start+blocksPerThread, numBlocks)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}

	return g.Wait()
}

// Seal pads and encrypts plaintext and packs the result with everything but
// the key needed to open it.
func (ctx *CipherContext) Seal(plaintext []uint8, padding PaddingMode) (*Envelope, error) {
	padded, err := Pad(plaintext, padding)
	if err != nil {
		return nil, fmt.Errorf("padding failed: %w", err)
	}

	ciphertext, err := ctx.Encrypt(padded)
	if err != nil {
		return nil, fmt.Errorf("encryption failed: %w", err)
	}

	env := &Envelope{
		Mode:       ctx.mode,
		Padding:    padding,
		KCV:        KeyCheckValue(ctx.cipher),
		Ciphertext: ciphertext,
	}
	if ctx.mode == CipherModeCBC {
		binary.BigEndian.PutUint64(env.IV[:], ctx.iv)
	}

	return env, nil
}

// Open checks the key against the envelope's KCV, then decrypts with the
// envelope's mode and IV and strips the padding.
func (ctx *CipherContext) Open(env *Envelope) ([]uint8, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrInvalidEnvelope)
	}
	if KeyCheckValue(ctx.cipher) != env.KCV {
		return nil, ErrKeyMismatch
	}

	opener := ctx
	if env.Mode != ctx.mode || binary.BigEndian.Uint64(env.IV[:]) != ctx.iv {
		var err error
		opener, err = NewCipherContext(ctx.cipher, env.Mode, env.IV[:], ctx.parallel)
		if err != nil {
			return nil, err
		}
	}

	padded, err := opener.Decrypt(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	plaintext, err := Unpad(padded, env.Padding)
	if err != nil {
		return nil, fmt.Errorf("padding removal failed: %w", err)
	}

	return plaintext, nil
}

// EncryptFile seals the contents of inputPath and writes the marshalled
// envelope to outputPath. salt is recorded when the key came from DeriveKey.
func (ctx *CipherContext) EncryptFile(inputPath string, outputPath string, padding PaddingMode, salt []uint8) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	env, err := ctx.Seal(data, padding)
	if err != nil {
		return err
	}
	if len(salt) > 0 {
		env.Salt = cloneBytes(salt)
	}

	encoded, err := env.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	err = os.WriteFile(outputPath, encoded, 0644)
	if err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

func (ctx *CipherContext) DecryptFile(inputPath string, outputPath string) error {
	env, err := ReadEnvelopeFile(inputPath)
	if err != nil {
		return err
	}

	decrypted, err := ctx.Open(env)
	if err != nil {
		return err
	}

	err = os.WriteFile(outputPath, decrypted, 0644)
	if err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

func GenerateRandomBytes(data []byte) (int, error) {
	return rand.Read(data)
}
