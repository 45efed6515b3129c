package cripta

import "errors"

var (
	ErrInvalidKeySize     = errors.New("invalid key size")
	ErrInvalidIV          = errors.New("invalid IV")
	ErrInvalidInputLength = errors.New("input length is not a multiple of the block size")
	ErrUnsupportedMode    = errors.New("unsupported cipher mode")
	ErrUnsupportedPadding = errors.New("unsupported padding mode")
	ErrInvalidPadding     = errors.New("invalid padding")
	ErrInvalidEnvelope    = errors.New("invalid envelope")
	ErrKeyMismatch        = errors.New("key check value mismatch")
)

// RoundKeys is an ordered sequence of round subkeys.
type RoundKeys []uint64

// Reversed returns a copy of the sequence in reverse order.
func (rk RoundKeys) Reversed() RoundKeys {
	reversed := make(RoundKeys, len(rk))
	for i, k := range rk {
		reversed[len(rk)-1-i] = k
	}
	return reversed
}

type IKeySchedule interface {
	GenerateRoundKeys(masterKey uint64) RoundKeys
}

type IRoundFunction interface {
	Apply(half uint32, roundKey uint64) uint32
}

type ISymmetricCipher interface {
	EncryptBlock(plainBlock uint64) uint64
	DecryptBlock(cipherBlock uint64) uint64
}
