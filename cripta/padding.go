package cripta

import (
	"fmt"
	"strings"
)

type PaddingMode int

const (
	// PaddingModeCount leaves aligned input untouched and otherwise appends
	// zero bytes closed by a byte holding the number of bytes added.
	PaddingModeCount PaddingMode = iota
	PaddingModePKCS7
	PaddingModeNone
)

func (pm PaddingMode) String() string {
	switch pm {
	case PaddingModeCount:
		return "count"
	case PaddingModePKCS7:
		return "pkcs7"
	case PaddingModeNone:
		return "none"
	default:
		return fmt.Sprintf("PaddingMode(%d)", int(pm))
	}
}

func ParsePaddingMode(name string) (PaddingMode, error) {
	switch strings.ToLower(name) {
	case "count":
		return PaddingModeCount, nil
	case "pkcs7":
		return PaddingModePKCS7, nil
	case "none":
		return PaddingModeNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedPadding, name)
	}
}

// Pad returns a copy of data extended to a multiple of BlockSize.
func Pad(data []uint8, mode PaddingMode) ([]uint8, error) {
	dataLength := len(data)
	remainder := dataLength % BlockSize

	switch mode {
	case PaddingModeCount:
		if remainder == 0 {
			return cloneBytes(data), nil
		}
		paddingLength := BlockSize - remainder
		padded := make([]uint8, dataLength+paddingLength)
		copy(padded, data)
		padded[len(padded)-1] = uint8(paddingLength)
		return padded, nil

	case PaddingModePKCS7:
		paddingLength := BlockSize - remainder
		padded := make([]uint8, dataLength+paddingLength)
		copy(padded, data)
		for i := dataLength; i < len(padded); i++ {
			padded[i] = uint8(paddingLength)
		}
		return padded, nil

	case PaddingModeNone:
		if remainder != 0 {
			return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidInputLength, dataLength)
		}
		return cloneBytes(data), nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPadding, mode)
	}
}

// Unpad reverses Pad. For PaddingModeCount a final byte in [1, BlockSize-1]
// is taken as the padding length without checking the fill bytes, so data
// that happens to end in such a byte loses its tail.
func Unpad(data []uint8, mode PaddingMode) ([]uint8, error) {
	switch mode {
	case PaddingModeCount:
		if len(data) == 0 {
			return data, nil
		}
		paddingLength := int(data[len(data)-1])
		if paddingLength < 1 || paddingLength >= BlockSize || paddingLength > len(data) {
			return data, nil
		}
		return data[:len(data)-paddingLength], nil

	case PaddingModePKCS7:
		if len(data) == 0 || len(data)%BlockSize != 0 {
			return nil, fmt.Errorf("%w: length %d", ErrInvalidPadding, len(data))
		}
		paddingLength := int(data[len(data)-1])
		if paddingLength < 1 || paddingLength > BlockSize {
			return nil, fmt.Errorf("%w: length byte %d", ErrInvalidPadding, paddingLength)
		}
		for i := len(data) - paddingLength; i < len(data); i++ {
			if data[i] != uint8(paddingLength) {
				return nil, fmt.Errorf("%w: byte %d is %d", ErrInvalidPadding, i, data[i])
			}
		}
		return data[:len(data)-paddingLength], nil

	case PaddingModeNone:
		return data, nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPadding, mode)
	}
}

func cloneBytes(data []uint8) []uint8 {
	out := make([]uint8, len(data))
	copy(out, data)
	return out
}
