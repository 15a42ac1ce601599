// Package mathx has the integer helpers the register decoders need.
package mathx

import "golang.org/x/exp/constraints"

// Clamp pins v into the closed range spanned by a and b. The bounds may be given in either
// order.
func Clamp[T constraints.Integer](v, a, b T) T {
	lo, hi := a, b
	if lo > hi {
		lo, hi = b, a
	}
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// Between reports whether Clamp would leave v unchanged.
func Between[T constraints.Integer](v, a, b T) bool {
	return Clamp(v, a, b) == v
}
