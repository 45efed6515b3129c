package cripta

// KCVLength is the number of bytes in a key check value.
const KCVLength = 3

// KeyCheckValue returns the leading bytes of the zero block encrypted under
// cipher. Two keys with equal KCVs are almost certainly the same key.
func KeyCheckValue(cipher ISymmetricCipher) [KCVLength]uint8 {
	block := cipher.EncryptBlock(0)

	var kcv [KCVLength]uint8
	for i := range kcv {
		kcv[i] = uint8(block >> (56 - 8*i))
	}
	return kcv
}

func KeyCheckValueForKey(key []uint8) ([KCVLength]uint8, error) {
	des, err := NewDESCipher(key)
	if err != nil {
		return [KCVLength]uint8{}, err
	}
	return KeyCheckValue(des), nil
}
