// Copyright (c) 2026 Colin McRae

package lll

import (
	"fmt"
	"math"
	"time"

	"github.com/RaphaelK12/Elemental/matrix"
)

// Factor is the incrementally maintained block-Householder QR state of a
// (partially transformed) basis. QR holds R in its upper triangle with the
// reflector vectors below it; V is the unit-lower-triangular block factor
// (diagonal ones stored explicitly) and SInv the inverse of its S-factor,
// so the accumulated transform I - V inv(S) V^H can be applied to a new
// column with two triangular operations and two matrix-vector products
// instead of re-applying every reflector. T holds the reflector scalars and
// D the sign flips applied to keep R's diagonal non-negative.
//
// Only columns 0..k-1 of V and the leading k x k block of SInv are valid,
// where k is the number of columns processed into canonical form.
type Factor[F matrix.Scalar] struct {
	QR   *matrix.Dense[F]
	V    *matrix.Dense[F]
	SInv *matrix.Dense[F]
	T    []F
	D    []float64

	z []F // reflector-application scratch, length min(m,n)
}

// zeroColTau is the T entry marking a retired (zero) column. Any reflector
// scalar from a nonzero column satisfies |tau| <= 2 with equality
// unreachable in floating point, so 2 is a distinguishing sentinel.
const zeroColTau = 2.0

func newFactor[F matrix.Scalar](m, n int) *Factor[F] {
	minDim := m
	if n < minDim {
		minDim = n
	}
	qr, _ := matrix.NewDense[F](m, n)
	v, _ := matrix.NewDense[F](m, minDim)
	sInv, _ := matrix.NewDense[F](minDim, minDim)
	return &Factor[F]{
		QR:   qr,
		V:    v,
		SInv: sInv,
		T:    make([]F, minDim),
		D:    make([]float64, minDim),
		z:    make([]F, minDim),
	}
}

// expand copies column k of b into QR and applies the first k accumulated
// reflectors to it through V and SInv, then rescales by the sign vector D.
// Columns 0..k-1 must already be in canonical form. Cost is O(m*k).
func (f *Factor[F]) expand(k int, b *matrix.Dense[F], timing *Timing) {
	m, n := b.Rows(), b.Cols()
	minDim := m
	if n < minDim {
		minDim = n
	}
	bBuf, qrBuf := b.Data(), f.QR.Data()
	bLD, qrLD := b.LDim(), f.QR.LDim()

	for i := 0; i < m; i++ {
		qrBuf[i+k*qrLD] = bBuf[i+k*bLD]
	}

	numReflect := k
	if minDim < numReflect {
		numReflect = minDim
	}
	if numReflect == 0 {
		return
	}

	var start time.Time
	if timing != nil {
		start = time.Now()
	}

	// z = V^H b_k, exploiting the zero upper triangle of V: the top
	// numReflect rows go through a triangular multiply and the rest through
	// a general product.
	one := matrix.FromReal[F](1)
	z := f.z[:numReflect]
	for i := 0; i < numReflect; i++ {
		z[i] = bBuf[i+k*bLD]
	}
	vBuf, vLD := f.V.Data(), f.V.LDim()
	matrix.TrmvLowerC(numReflect, vBuf, vLD, z)
	matrix.GemvC(
		m-numReflect, numReflect,
		one, vBuf[numReflect:], vLD,
		bBuf[numReflect+k*bLD:],
		one, z, 1,
	)

	// z = inv(S) z, then qr_k -= V z.
	matrix.TrsvLowerN(numReflect, f.SInv.Data(), f.SInv.LDim(), z)
	matrix.GemvN(
		m-numReflect, numReflect,
		-one, vBuf[numReflect:], vLD,
		z,
		one, qrBuf[numReflect+k*qrLD:],
	)
	matrix.TrmvLowerN(numReflect, vBuf, vLD, z)
	for i := 0; i < numReflect; i++ {
		qrBuf[i+k*qrLD] -= z[i]
	}

	if timing != nil {
		timing.ApplyHouse += time.Since(start)
	}

	// Fix the scaling.
	for i := 0; i < numReflect; i++ {
		qrBuf[i+k*qrLD] *= matrix.FromReal[F](f.D[i])
	}
}

// householderStep forms the reflector that zeroes the sub-diagonal of
// column k, records its scalar, flips the sign of R(k,k) non-negative, and
// extends V and SInv by one column/row. Only V(:,k) and SInv(k,0:k) need
// computing to keep I - V inv(S) V^H applicable.
func (f *Factor[F]) householderStep(k int, timing *Timing) {
	m, n := f.QR.Rows(), f.QR.Cols()
	minDim := m
	if n < minDim {
		minDim = n
	}
	if k >= minDim {
		return
	}

	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	col := qrBuf[k*qrLD : k*qrLD+m]
	tau := matrix.Reflector(&col[k], col[k+1:])
	f.T[k] = tau
	if matrix.Re(col[k]) < 0 {
		f.D[k] = -1
		col[k] = -col[k]
	} else {
		f.D[k] = 1
	}

	// Form the k'th column of V.
	var zero F
	vBuf, vLD := f.V.Data(), f.V.LDim()
	vCol := vBuf[k*vLD : k*vLD+m]
	for i := 0; i < k; i++ {
		vCol[i] = zero
	}
	vCol[k] = matrix.FromReal[F](1)
	for i := k + 1; i < m; i++ {
		vCol[i] = col[i]
	}

	// Form the k'th row of SInv.
	var start time.Time
	if timing != nil {
		start = time.Now()
	}
	sBuf, sLD := f.SInv.Data(), f.SInv.LDim()
	matrix.GemvC(
		m-k, k,
		matrix.FromReal[F](1), vBuf[k:], vLD,
		vCol[k:],
		zero, sBuf[k:], sLD,
	)
	if tau == zero {
		// The reflector is the identity; an infinite diagonal entry makes
		// the forward substitution in expand produce the zero coefficient
		// this reflector contributes.
		sBuf[k+k*sLD] = matrix.FromReal[F](math.Inf(1))
	} else {
		sBuf[k+k*sLD] = matrix.FromReal[F](1) / tau
	}
	if timing != nil {
		timing.FormSInv += time.Since(start)
	}
}

// numProcessed returns how many leading reflectors are in canonical form:
// untouched slots have a zero sign entry, and retired zero columns carry the
// sentinel reflector scalar with no formed reflector behind it (their V
// column and SInv diagonal were never written, so substituting through them
// would divide by zero).
func (f *Factor[F]) numProcessed() int {
	for i, d := range f.D {
		if d == 0 || matrix.Re(f.T[i]) == zeroColTau {
			return i
		}
	}
	return len(f.D)
}

// ApplyQTrans overwrites y, of length m, with D Q^H y for the accumulated
// orthogonal factor Q, leaving it ready for a triangular solve against the
// stored R.
func (f *Factor[F]) ApplyQTrans(y []F) error {
	m := f.QR.Rows()
	if len(y) != m {
		return fmt.Errorf("ApplyQTrans: vector length %d does not match %d rows", len(y), m)
	}
	nr := f.numProcessed()
	if nr == 0 {
		return nil
	}
	one := matrix.FromReal[F](1)
	z := f.z[:nr]
	copy(z, y[:nr])
	vBuf, vLD := f.V.Data(), f.V.LDim()
	matrix.TrmvLowerC(nr, vBuf, vLD, z)
	matrix.GemvC(m-nr, nr, one, vBuf[nr:], vLD, y[nr:], one, z, 1)
	matrix.TrsvLowerN(nr, f.SInv.Data(), f.SInv.LDim(), z)
	matrix.GemvN(m-nr, nr, -one, vBuf[nr:], vLD, z, one, y[nr:])
	matrix.TrmvLowerN(nr, vBuf, vLD, z)
	for i := 0; i < nr; i++ {
		y[i] -= z[i]
	}
	for i := 0; i < nr; i++ {
		y[i] *= matrix.FromReal[F](f.D[i])
	}
	return nil
}

// ExtractR copies the leading dim x dim upper triangle of the maintained R
// into a fresh matrix.
func (f *Factor[F]) ExtractR(dim int) (*matrix.Dense[F], error) {
	if dim < 0 || dim > f.QR.Cols() || dim > f.QR.Rows() {
		return nil, fmt.Errorf(
			"ExtractR: dimension %d outside %d x %d factorization",
			dim, f.QR.Rows(), f.QR.Cols(),
		)
	}
	r, _ := matrix.NewDense[F](dim, dim)
	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	rBuf := r.Data()
	for j := 0; j < dim; j++ {
		for i := 0; i <= j; i++ {
			rBuf[i+j*dim] = qrBuf[i+j*qrLD]
		}
	}
	return r, nil
}

// Factorize computes the plain (unreduced) QR factorization of b through
// the same incremental engine the reduction uses. It rejects bases whose
// column norms are not representable at working precision.
func Factorize[F matrix.Scalar](b *matrix.Dense[F]) (*Factor[F], error) {
	m, n := b.Rows(), b.Cols()
	f := newFactor[F](m, n)
	eps := matrix.Eps[F]()
	for k := 0; k < n; k++ {
		f.expand(k, b, nil)
		norm := matrix.Nrm2(f.QR.Col(k))
		if math.IsInf(norm, 0) || math.IsNaN(norm) {
			return nil, fmt.Errorf("Factorize: column %d has unbounded norm: %w", k, ErrPrecision)
		}
		if norm > 1/eps {
			return nil, fmt.Errorf(
				"Factorize: column %d norm %e exceeds 1/eps: %w", k, norm, ErrPrecision,
			)
		}
		f.householderStep(k, nil)
	}
	return f, nil
}
