package cpu

import "encoding/binary"

// fetch32 reads up to 4 little-endian bytes from raw, zero-padding past
// the end. Segments are always built from valid program bytes, so
// padding only matters for a malformed last instruction, which the
// decoder already flagged as BC_INVALID by the time anyone calls this.
func fetch32(raw []byte) uint32 {
	var buf [4]byte
	copy(buf[:], raw)
	return binary.LittleEndian.Uint32(buf[:])
}

func fetch16(raw []byte) uint16 {
	var buf [2]byte
	copy(buf[:], raw)
	return binary.LittleEndian.Uint16(buf[:])
}

// signed reinterprets the low `bits` bits of v as a two's-complement
// signed value, sign-extended to int64. RV32 XLEN=32 callers always
// pass a value already confined to 32 bits (T is uint32), so this is
// the one helper both address widths share for SLT/branch/shift
// comparisons.
func signed(v uint64, bits uint) int64 {
	if bits <= 32 {
		return int64(int32(uint32(v)))
	}
	return int64(v)
}
