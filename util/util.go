// Copyright (c) 2026 Colin McRae

// Package util holds small helpers shared by the lattice packages and
// their tests.
package util

import (
	"fmt"
	"math"

	"github.com/RaphaelK12/Elemental/matrix"
)

// GaussianHeuristic returns the Gaussian estimate of the minimum vector
// length of a rank-n lattice,
//
//	GH(L) = (1/sqrt(pi)) Gamma(n/2+1)^{1/n} |det(L)|^{1/n},
//
// expressed through the log covolume logVol.
func GaussianHeuristic(n int, logVol float64) float64 {
	if n < 1 {
		return 0
	}
	lg, _ := math.Lgamma(float64(n)/2 + 1)
	return math.Exp((lg+logVol)/float64(n)) / math.Sqrt(math.Pi)
}

// Multiply returns the matrix product a * b.
func Multiply[F matrix.Scalar](a, b *matrix.Dense[F]) (*matrix.Dense[F], error) {
	if a.Cols() != b.Rows() {
		return nil, fmt.Errorf(
			"Multiply: inner dimensions %d and %d do not match", a.Cols(), b.Rows(),
		)
	}
	c, err := matrix.NewDense[F](a.Rows(), b.Cols())
	if err != nil {
		return nil, fmt.Errorf("Multiply: %s", err.Error())
	}
	one := matrix.FromReal[F](1)
	var zero F
	for j := 0; j < b.Cols(); j++ {
		matrix.GemvN(a.Rows(), a.Cols(), one, a.Data(), a.LDim(), b.Col(j), zero, c.Col(j))
	}
	return c, nil
}

// MaxAbsDiff returns the largest elementwise modulus of a-b, for matrices
// of identical shape.
func MaxAbsDiff[F matrix.Scalar](a, b *matrix.Dense[F]) (float64, error) {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return 0, fmt.Errorf(
			"MaxAbsDiff: dimension mismatch %d x %d vs %d x %d",
			a.Rows(), a.Cols(), b.Rows(), b.Cols(),
		)
	}
	maxDiff := 0.0
	for j := 0; j < a.Cols(); j++ {
		ca, cb := a.Col(j), b.Col(j)
		for i := range ca {
			if d := matrix.Abs(ca[i] - cb[i]); d > maxDiff {
				maxDiff = d
			}
		}
	}
	return maxDiff, nil
}
