package cripta

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const SaltSize = 16

// Argon2id cost parameters for passphrase keys.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// DeriveKey stretches a passphrase into an 8-byte DES key with Argon2id.
func DeriveKey(passphrase []byte, salt []byte) ([]uint8, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeySize), nil
}

func NewSalt() ([]uint8, error) {
	salt := make([]uint8, SaltSize)
	if _, err := GenerateRandomBytes(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
