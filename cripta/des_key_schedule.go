package cripta

const mask28 = uint32(0x0FFFFFFF)

type DESKeySchedule struct{}

// leftShift28 rotates the low 28 bits of value left by shifts.
func (dks *DESKeySchedule) leftShift28(value uint32, shifts uint8) uint32 {
	value &= mask28
	return ((value << shifts) | (value >> (28 - shifts))) & mask28
}

// GenerateRoundKeys derives the sixteen 48-bit subkeys K1..K16. The C and D
// halves rotate independently before they are joined for PC-2.
func (dks *DESKeySchedule) GenerateRoundKeys(masterKey uint64) RoundKeys {
	roundKeys := make(RoundKeys, 0, DESRounds)

	c := uint32(PermuteBits(masterKey, 64, permutedChoice1Left[:]))
	d := uint32(PermuteBits(masterKey, 64, permutedChoice1Right[:]))

	for round := 0; round < DESRounds; round++ {
		c = dks.leftShift28(c, shiftSchedule[round])
		d = dks.leftShift28(d, shiftSchedule[round])

		cd := uint64(c)<<28 | uint64(d)
		roundKeys = append(roundKeys, PermuteBits(cd, 56, permutedChoice2[:]))
	}

	return roundKeys
}
