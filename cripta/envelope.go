package cripta

import (
	"fmt"
	"os"
)

// Envelope layout:
//
//	magic "DESL" | version | mode | padding | flags | KCV[3] | IV[8] | salt[16]? | ciphertext
//
// The salt is present only when flagSalt is set. The envelope carries no
// integrity protection.
const (
	envelopeVersion = 1
	flagSalt        = 1 << 0

	envelopeHeaderSize = 4 + 4 + KCVLength + BlockSize
)

var envelopeMagic = [4]uint8{'D', 'E', 'S', 'L'}

type Envelope struct {
	Mode       CipherMode
	Padding    PaddingMode
	KCV        [KCVLength]uint8
	IV         [BlockSize]uint8
	Salt       []uint8
	Ciphertext []uint8
}

func (e *Envelope) MarshalBinary() ([]byte, error) {
	if err := e.Mode.validate(); err != nil {
		return nil, err
	}
	if e.Padding < PaddingModeCount || e.Padding > PaddingModeNone {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPadding, e.Padding)
	}
	if len(e.Salt) != 0 && len(e.Salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidEnvelope, SaltSize, len(e.Salt))
	}
	if err := checkLength(e.Ciphertext); err != nil {
		return nil, err
	}

	var flags uint8
	if len(e.Salt) != 0 {
		flags |= flagSalt
	}

	out := make([]byte, 0, envelopeHeaderSize+len(e.Salt)+len(e.Ciphertext))
	out = append(out, envelopeMagic[:]...)
	out = append(out, envelopeVersion, uint8(e.Mode), uint8(e.Padding), flags)
	out = append(out, e.KCV[:]...)
	out = append(out, e.IV[:]...)
	out = append(out, e.Salt...)
	out = append(out, e.Ciphertext...)

	return out, nil
}

func (e *Envelope) UnmarshalBinary(data []byte) error {
	if len(data) < envelopeHeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidEnvelope, len(data))
	}
	if [4]uint8(data[:4]) != envelopeMagic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidEnvelope, data[:4])
	}
	if data[4] != envelopeVersion {
		return fmt.Errorf("%w: unknown version %d", ErrInvalidEnvelope, data[4])
	}

	mode := CipherMode(data[5])
	if err := mode.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	padding := PaddingMode(data[6])
	if padding < PaddingModeCount || padding > PaddingModeNone {
		return fmt.Errorf("%w: %w: %d", ErrInvalidEnvelope, ErrUnsupportedPadding, data[6])
	}
	flags := data[7]
	if flags&^flagSalt != 0 {
		return fmt.Errorf("%w: unknown flags %#x", ErrInvalidEnvelope, flags)
	}

	rest := data[envelopeHeaderSize:]
	var salt []uint8
	if flags&flagSalt != 0 {
		if len(rest) < SaltSize {
			return fmt.Errorf("%w: truncated salt", ErrInvalidEnvelope)
		}
		salt = cloneBytes(rest[:SaltSize])
		rest = rest[SaltSize:]
	}
	if len(rest)%BlockSize != 0 {
		return fmt.Errorf("%w: ciphertext length %d is not a multiple of %d", ErrInvalidEnvelope, len(rest), BlockSize)
	}

	e.Mode = mode
	e.Padding = padding
	copy(e.KCV[:], data[8:8+KCVLength])
	copy(e.IV[:], data[8+KCVLength:envelopeHeaderSize])
	e.Salt = salt
	e.Ciphertext = cloneBytes(rest)

	return nil
}

func ReadEnvelopeFile(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	env := &Envelope{}
	if err := env.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return env, nil
}
