package cripta

import (
	"fmt"
)

// FeistelNetwork runs a balanced Feistel network over a 64-bit block split
// into two 32-bit halves. Encryption and decryption share one round loop and
// differ only in the order the round keys are supplied.
type FeistelNetwork struct {
	roundFunction IRoundFunction
	roundsCount   int

	roundKeys RoundKeys
	reversed  RoundKeys
}

func NewFeistelNetwork(
	keyScheduleImpl IKeySchedule,
	roundFunctionImpl IRoundFunction,
	roundsCount int,
	masterKey uint64,
) (*FeistelNetwork, error) {

	if keyScheduleImpl == nil {
		return nil, fmt.Errorf("key schedule implementation cannot be nil")
	}
	if roundFunctionImpl == nil {
		return nil, fmt.Errorf("round function implementation cannot be nil")
	}

	fRoundsCount := roundsCount
	if fRoundsCount == 0 {
		fRoundsCount = DESRounds
	}

	roundKeys := keyScheduleImpl.GenerateRoundKeys(masterKey)
	if len(roundKeys) < fRoundsCount {
		return nil, fmt.Errorf("key schedule generated insufficient round keys: got %d, need %d",
			len(roundKeys), fRoundsCount)
	}
	roundKeys = roundKeys[:fRoundsCount:fRoundsCount]

	return &FeistelNetwork{
		roundFunction: roundFunctionImpl,
		roundsCount:   fRoundsCount,
		roundKeys:     roundKeys,
		reversed:      roundKeys.Reversed(),
	}, nil
}

func (fn *FeistelNetwork) GetRoundsCount() int {
	return fn.roundsCount
}

// RoundKeys returns a copy of the round keys in encryption order.
func (fn *FeistelNetwork) RoundKeys() RoundKeys {
	keys := make(RoundKeys, len(fn.roundKeys))
	copy(keys, fn.roundKeys)
	return keys
}

func splitBlock(block uint64) (uint32, uint32) {
	return uint32(block >> 32), uint32(block)
}

func combineBlocks(left uint32, right uint32) uint64 {
	return uint64(left)<<32 | uint64(right)
}

// run applies one round per key and returns the swapped pre-output R‖L.
func (fn *FeistelNetwork) run(block uint64, roundKeys RoundKeys) uint64 {
	left, right := splitBlock(block)

	for _, roundKey := range roundKeys {
		left, right = right, left^fn.roundFunction.Apply(right, roundKey)
	}

	return combineBlocks(right, left)
}

func (fn *FeistelNetwork) EncryptBlock(plainBlock uint64) uint64 {
	return fn.run(plainBlock, fn.roundKeys)
}

func (fn *FeistelNetwork) DecryptBlock(cipherBlock uint64) uint64 {
	return fn.run(cipherBlock, fn.reversed)
}
