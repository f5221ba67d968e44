// Package u128 implements the minimal 128-bit unsigned integer arithmetic
// needed to give RV128I a distinct address type. Go has no native 128-bit
// integer, so XLEN=128 cannot share the generic uint32/uint64 dispatch
// core the way RV32 and RV64 do (see DESIGN.md's "Open Questions" entry
// on width genericity) — this package exists so the rest of the module
// has something concrete to construct a reduced-fidelity RV128 CPU on.
package u128

// U128 is a 128-bit unsigned integer stored as two 64-bit halves,
// little-endian in the sense that Lo holds bits [0,64) and Hi holds bits
// [64,128).
type U128 struct {
	Lo, Hi uint64
}

// FromUint64 widens a 64-bit value.
func FromUint64(v uint64) U128 { return U128{Lo: v} }

// Uint64 narrows to the low 64 bits, discarding Hi. Used when an address
// is known by construction to fit (e.g. page numbers on modest RV128
// images).
func (a U128) Uint64() uint64 { return a.Lo }

// Add returns a+b with 128-bit wraparound.
func (a U128) Add(b U128) U128 {
	lo := a.Lo + b.Lo
	carry := uint64(0)
	if lo < a.Lo {
		carry = 1
	}
	return U128{Lo: lo, Hi: a.Hi + b.Hi + carry}
}

// Sub returns a-b with 128-bit wraparound.
func (a U128) Sub(b U128) U128 {
	lo := a.Lo - b.Lo
	borrow := uint64(0)
	if a.Lo < b.Lo {
		borrow = 1
	}
	return U128{Lo: lo, Hi: a.Hi - b.Hi - borrow}
}

// And returns the bitwise AND of a and b.
func (a U128) And(b U128) U128 { return U128{Lo: a.Lo & b.Lo, Hi: a.Hi & b.Hi} }

// Or returns the bitwise OR of a and b.
func (a U128) Or(b U128) U128 { return U128{Lo: a.Lo | b.Lo, Hi: a.Hi | b.Hi} }

// Xor returns the bitwise XOR of a and b.
func (a U128) Xor(b U128) U128 { return U128{Lo: a.Lo ^ b.Lo, Hi: a.Hi ^ b.Hi} }

// Not returns the bitwise complement of a.
func (a U128) Not() U128 { return U128{Lo: ^a.Lo, Hi: ^a.Hi} }

// Shl returns a shifted left by n bits, 0 <= n < 128.
func (a U128) Shl(n uint) U128 {
	switch {
	case n == 0:
		return a
	case n < 64:
		return U128{Lo: a.Lo << n, Hi: (a.Hi << n) | (a.Lo >> (64 - n))}
	default:
		return U128{Lo: 0, Hi: a.Lo << (n - 64)}
	}
}

// Shr returns a shifted right (logical) by n bits, 0 <= n < 128.
func (a U128) Shr(n uint) U128 {
	switch {
	case n == 0:
		return a
	case n < 64:
		return U128{Lo: (a.Lo >> n) | (a.Hi << (64 - n)), Hi: a.Hi >> n}
	default:
		return U128{Lo: a.Hi >> (n - 64), Hi: 0}
	}
}

// Equal reports whether a and b hold the same value.
func (a U128) Equal(b U128) bool { return a.Lo == b.Lo && a.Hi == b.Hi }

// Less reports whether a < b, treating both as unsigned.
func (a U128) Less(b U128) bool {
	if a.Hi != b.Hi {
		return a.Hi < b.Hi
	}
	return a.Lo < b.Lo
}

// IsZero reports whether a is the zero value.
func (a U128) IsZero() bool { return a.Lo == 0 && a.Hi == 0 }
