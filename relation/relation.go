// Copyright (c) 2026 Colin McRae

// Package relation applies lattice reduction to integer-relation problems:
// Z-dependence of a vector of reals, algebraic relations of a given number,
// integer coordinates of a vector within a lattice, and kernel bases. The
// embeddings follow Cohen, "A course in computational algebraic number
// theory", section 2.7.
package relation

import (
	"fmt"
	"math"

	"github.com/RaphaelK12/Elemental/lll"
	"github.com/RaphaelK12/Elemental/matrix"
)

// ZDependenceSearch searches for integer dependences of the entries of z
// via the quadratic form || a ||^2 + N | z^T a |^2, generated by the basis
//
//	B = [I; sqrt(N) z^T],
//
// where nSqrt is sqrt(N). Cohen has advice for choosing the (large)
// parameter N. On return b holds the reduced embedding basis, u the
// unimodular transform whose columns encode the candidate dependences, and
// the count of (nearly) exact dependences detected is returned: those
// columns whose embedded form value is negligible against sqrt(N).
func ZDependenceSearch[F matrix.Scalar](
	z []F,
	nSqrt float64,
	b, u *matrix.Dense[F],
	ctrl *lll.Ctrl,
) (int, error) {
	n := len(z)
	if n == 0 {
		return 0, fmt.Errorf("ZDependenceSearch: empty input vector")
	}
	if nSqrt <= 0 {
		return 0, fmt.Errorf("ZDependenceSearch: non-positive sqrt(N) = %v", nSqrt)
	}
	if b == nil || u == nil {
		return 0, fmt.Errorf("ZDependenceSearch: output matrices must be allocated")
	}
	if ctrl == nil {
		ctrl = lll.NewCtrl()
	}

	if err := b.Resize(n+1, n); err != nil {
		return 0, fmt.Errorf("ZDependenceSearch: %s", err.Error())
	}
	b.Zero()
	scale := matrix.FromReal[F](nSqrt)
	for j := 0; j < n; j++ {
		col := b.Col(j)
		col[j] = matrix.FromReal[F](1)
		col[n] = scale * z[j]
	}

	if _, err := lll.ReduceWithTransform(b, u, ctrl); err != nil {
		return 0, fmt.Errorf("ZDependenceSearch: %s", err.Error())
	}

	// A dependence is deemed (nearly) exact when the embedded form value
	// is negligible relative to the sqrt(N) inflation.
	tol := ctrl.ZeroTol * nSqrt
	if tol < ctrl.ZeroTol {
		tol = ctrl.ZeroTol
	}
	numExact := 0
	for j := 0; j < n; j++ {
		if matrix.Abs(b.Col(j)[n]) <= tol {
			numExact++
		}
	}
	return numExact, nil
}

// AlgebraicRelationSearch searches for the (Gaussian) integer coefficients
// of a degree n-1 polynomial of alpha that is nearly zero, by running
// ZDependenceSearch on the powers 1, alpha, ..., alpha^(n-1).
func AlgebraicRelationSearch[F matrix.Scalar](
	alpha F,
	n int,
	nSqrt float64,
	b, u *matrix.Dense[F],
	ctrl *lll.Ctrl,
) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("AlgebraicRelationSearch: degree bound %d below 1", n)
	}
	z := make([]F, n)
	z[0] = matrix.FromReal[F](1)
	for i := 1; i < n; i++ {
		z[i] = z[i-1] * alpha
	}
	return ZDependenceSearch(z, nSqrt, b, u, ctrl)
}

// Coordinates seeks the (Gaussian) integer coordinates x of y within the
// lattice generated by the columns of b, i.e. B x = y. It reports whether
// such coordinates exist, solving through the engine's QR state and
// verifying the rounded solution reproduces y at working precision. The
// returned coordinates are integral field values.
func Coordinates[F matrix.Scalar](b *matrix.Dense[F], y []F) ([]F, bool, error) {
	m, n := b.Rows(), b.Cols()
	if len(y) != m {
		return nil, false, fmt.Errorf(
			"Coordinates: vector length %d does not match %d rows", len(y), m,
		)
	}
	if n > m {
		return nil, false, fmt.Errorf(
			"Coordinates: %d columns exceed %d rows; the system is underdetermined", n, m,
		)
	}

	f, err := lll.Factorize(b)
	if err != nil {
		return nil, false, fmt.Errorf("Coordinates: %s", err.Error())
	}
	w := make([]F, m)
	copy(w, y)
	if err := f.ApplyQTrans(w); err != nil {
		return nil, false, fmt.Errorf("Coordinates: %s", err.Error())
	}

	// Back substitution against R with rounding to the nearest (Gaussian)
	// integer at each step; a negligible pivot demands a negligible
	// right-hand side.
	eps := matrix.Eps[F]()
	zeroTol := math.Pow(eps, 0.9)
	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	xF := make([]F, n)
	for i := n - 1; i >= 0; i-- {
		rhs := w[i]
		for j := i + 1; j < n; j++ {
			rhs -= qrBuf[i+j*qrLD] * xF[j]
		}
		pivot := qrBuf[i+i*qrLD]
		if matrix.Abs(pivot) <= zeroTol {
			if matrix.Abs(rhs) > zeroTol {
				return nil, false, nil
			}
			continue
		}
		xF[i] = matrix.Round(rhs / pivot)
	}

	// Verify B x = y.
	resid := make([]F, m)
	copy(resid, y)
	for j := 0; j < n; j++ {
		matrix.Axpy(-xF[j], b.Col(j), resid)
	}
	tol := math.Sqrt(eps) * (1 + matrix.Nrm2(y))
	if matrix.Nrm2(resid) > tol {
		return nil, false, nil
	}
	return xF, true, nil
}

// Kernel fills a fresh matrix with an LLL-reduced basis for the kernel of
// b: the trailing nullity columns of the unimodular transform of an MLLL
// reduction are integer vectors annihilated by b, and a second reduction
// tightens them. b itself is left untouched.
func Kernel[F matrix.Scalar](b *matrix.Dense[F], ctrl *lll.Ctrl) (*matrix.Dense[F], error) {
	if ctrl == nil {
		ctrl = lll.NewCtrl()
	}
	work := b.Clone()
	u, err := matrix.NewDense[F](0, 0)
	if err != nil {
		return nil, fmt.Errorf("Kernel: %s", err.Error())
	}
	info, err := lll.ReduceWithTransform(work, u, ctrl)
	if err != nil {
		return nil, fmt.Errorf("Kernel: %s", err.Error())
	}

	n := b.Cols()
	k, err := matrix.NewDense[F](n, info.Nullity)
	if err != nil {
		return nil, fmt.Errorf("Kernel: %s", err.Error())
	}
	for j := 0; j < info.Nullity; j++ {
		copy(k.Col(j), u.Col(n-info.Nullity+j))
	}
	if info.Nullity > 1 {
		if _, err := lll.Reduce(k, ctrl); err != nil {
			return nil, fmt.Errorf("Kernel: reducing kernel basis: %s", err.Error())
		}
	}
	return k, nil
}
