package cripta

// DESRoundFunction is the DES f-function: E-expansion, subkey mixing,
// S-box substitution and the P permutation.
type DESRoundFunction struct{}

func (drf *DESRoundFunction) Apply(half uint32, roundKey uint64) uint32 {
	expanded := PermuteBits(uint64(half), 32, expansion[:])
	substituted := substituteAll(expanded ^ roundKey)
	return uint32(PermuteBits(uint64(substituted), 32, roundPermutation[:]))
}
