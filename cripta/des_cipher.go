package cripta

import (
	"encoding/binary"
	"fmt"
)

const (
	BlockSize = 8
	KeySize   = 8
	DESRounds = 16
)

type DESCipher struct {
	feistel *FeistelNetwork
	key     uint64
}

// NewDESCipher builds a cipher from an 8-byte key read as a big-endian
// 64-bit word. Parity bits are ignored.
func NewDESCipher(key []uint8) (*DESCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: DES key must be %d bytes, got %d", ErrInvalidKeySize, KeySize, len(key))
	}

	return NewDESCipherFromUint64(binary.BigEndian.Uint64(key))
}

func NewDESCipherFromUint64(key uint64) (*DESCipher, error) {
	feistel, err := NewFeistelNetwork(
		&DESKeySchedule{},
		&DESRoundFunction{},
		DESRounds,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feistel network: %w", err)
	}

	return &DESCipher{
		feistel: feistel,
		key:     key,
	}, nil
}

// Key returns the key as 8 big-endian bytes.
func (des *DESCipher) Key() []uint8 {
	return binary.BigEndian.AppendUint64(nil, des.key)
}

func (des *DESCipher) RoundKeys() RoundKeys {
	return des.feistel.RoundKeys()
}

func (des *DESCipher) EncryptBlock(plainBlock uint64) uint64 {
	permuted := PermuteBits(plainBlock, 64, initialPermutation[:])
	return PermuteBits(des.feistel.EncryptBlock(permuted), 64, finalPermutation[:])
}

func (des *DESCipher) DecryptBlock(cipherBlock uint64) uint64 {
	permuted := PermuteBits(cipherBlock, 64, initialPermutation[:])
	return PermuteBits(des.feistel.DecryptBlock(permuted), 64, finalPermutation[:])
}
