// Copyright (c) 2026 Colin McRae

// Package matrix provides the dense column-major matrix type and the small
// set of BLAS/LAPACK-like primitives consumed by the lattice-reduction
// engine: column norms, axpy, general and triangular matrix-vector products,
// triangular solves, Householder reflector construction and column
// swaps/relocations. The engine is written once for real and complex
// coefficients; the Scalar constraint and the trait helpers in this file
// are the only places that distinguish the two fields.
package matrix

import "math"

// Scalar is the coefficient field of a basis matrix. The reduction engine
// tracks a floating-point QR factorization, so the field is float64 or
// complex128; the basis itself remains integer-valued (or Gaussian-integer
// valued) throughout a reduction.
type Scalar interface {
	float64 | complex128
}

// Re returns the real part of x.
func Re[F Scalar](x F) float64 {
	switch v := any(x).(type) {
	case float64:
		return v
	case complex128:
		return real(v)
	}
	return 0
}

// Im returns the imaginary part of x, which is 0 for a real field.
func Im[F Scalar](x F) float64 {
	if v, ok := any(x).(complex128); ok {
		return imag(v)
	}
	return 0
}

// FromReal embeds a real value into the field F.
func FromReal[F Scalar](r float64) F {
	var z F
	if _, ok := any(z).(float64); ok {
		return any(r).(F)
	}
	return any(complex(r, 0)).(F)
}

// FromParts builds a field element from real and imaginary parts. The
// imaginary part is discarded for a real field.
func FromParts[F Scalar](re, im float64) F {
	var z F
	if _, ok := any(z).(float64); ok {
		return any(re).(F)
	}
	return any(complex(re, im)).(F)
}

// Conj returns the complex conjugate of x (the identity for a real field).
func Conj[F Scalar](x F) F {
	if v, ok := any(x).(complex128); ok {
		return any(complex(real(v), -imag(v))).(F)
	}
	return x
}

// Abs returns the modulus of x.
func Abs[F Scalar](x F) float64 {
	switch v := any(x).(type) {
	case float64:
		return math.Abs(v)
	case complex128:
		return math.Hypot(real(v), imag(v))
	}
	return 0
}

// Round rounds x to the nearest lattice point of the field: the nearest
// integer for a real field, the nearest Gaussian integer (independently
// rounded real and imaginary components) for a complex field.
func Round[F Scalar](x F) F {
	switch v := any(x).(type) {
	case float64:
		return any(math.Round(v)).(F)
	case complex128:
		return any(complex(math.Round(real(v)), math.Round(imag(v)))).(F)
	}
	return x
}

// IsFinite reports whether every component of x is finite.
func IsFinite[F Scalar](x F) bool {
	re, im := Re(x), Im(x)
	return !math.IsInf(re, 0) && !math.IsNaN(re) &&
		!math.IsInf(im, 0) && !math.IsNaN(im)
}

// Eps returns the machine epsilon of the base (real) field underlying F.
func Eps[F Scalar]() float64 {
	return 0x1p-52
}

// Phi returns the size-reduction slack factor of the field: 1 for a real
// field and sqrt(2) for a complex field, reflecting the covering radius of
// the (Gaussian) integers.
func Phi[F Scalar]() float64 {
	var z F
	if _, ok := any(z).(complex128); ok {
		return math.Sqrt2
	}
	return 1
}
