package cpu

// asT converts a sign-extended 64-bit value into the CPU's native word
// width, truncating for RV32 the same way real hardware would.
func asT[T Word](v int64) T { return T(uint64(v)) }

// u64 widens a register value to 64 bits without sign extension, for
// code that needs to inspect raw bits regardless of XLEN.
func u64[T Word](v T) uint64 { return uint64(v) }
