package cripta

// substitute maps a 6-bit chunk through S-box box (0..7). The outer bits pick
// the row and the middle four bits pick the column.
func substitute(box int, chunk uint8) uint8 {
	row := (chunk>>4)&0x02 | chunk&0x01
	col := (chunk >> 1) & 0x0f
	return sBoxes[box][int(row)*16+int(col)]
}

// substituteAll splits a 48-bit word into eight 6-bit chunks, most
// significant first, and packs the eight 4-bit outputs into 32 bits.
func substituteAll(value uint64) uint32 {
	var out uint32
	for j := 0; j < 8; j++ {
		chunk := uint8(value>>(42-6*j)) & 0x3f
		out |= uint32(substitute(j, chunk)) << (28 - 4*j)
	}
	return out
}
