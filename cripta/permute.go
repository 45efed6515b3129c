package cripta

import (
	"fmt"
	"strings"
)

// PermuteBits builds a len(rule)-bit word whose k-th bit (counting from the
// most significant end) is bit rule[k] of the srcWidth-bit source word.
// Positions are 1-indexed from the most significant bit. Rules may repeat or
// drop positions. An out-of-range position panics: rules are fixed tables.
func PermuteBits(value uint64, srcWidth int, rule []uint8) uint64 {
	if srcWidth < 1 || srcWidth > 64 {
		panic(fmt.Sprintf("cripta: source width %d out of range", srcWidth))
	}
	if len(rule) > 64 {
		panic(fmt.Sprintf("cripta: rule of %d entries does not fit in 64 bits", len(rule)))
	}

	outputBits := len(rule)
	var result uint64

	for i, pos := range rule {
		if pos < 1 || int(pos) > srcWidth {
			panic(fmt.Sprintf("cripta: position %d out of bounds for %d-bit source", pos, srcWidth))
		}

		bit := (value >> (srcWidth - int(pos))) & 1
		result |= bit << (outputBits - 1 - i)
	}

	return result
}

// bitAt returns bit pos (1-indexed from the MSB) of a width-bit word.
func bitAt(value uint64, width int, pos int) uint64 {
	return (value >> (width - pos)) & 1
}

// FormatBinary renders the low width bits of value in groups of group bits.
func FormatBinary(value uint64, width int, group int) string {
	var sb strings.Builder
	for i := 1; i <= width; i++ {
		if bitAt(value, width, i) == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
		if group > 0 && i%group == 0 && i != width {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
