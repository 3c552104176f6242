// Copyright (c) 2026 Colin McRae

package svp

import (
	"fmt"
	"math"

	"github.com/RaphaelK12/Elemental/matrix"
)

// ShortVector searches the lattice generated by the columns of b, whose
// Gaussian normal form is r, for a member with norm strictly below
// normUpperBound. On success the coordinates are written to v and the
// achieved norm returned; on failure the return value is greater than the
// bound. The probabilistic mode trades completeness for speed by pruning
// with a linearly rising bound profile. A positive maxNodes caps the
// search; exceeding it returns ErrBudget.
func ShortVector(
	b, r *matrix.Dense[float64],
	normUpperBound float64,
	v []int64,
	probabilistic bool,
	maxNodes int64,
) (float64, error) {
	n := r.Cols()
	if b.Cols() != n {
		return 0, fmt.Errorf(
			"ShortVector: basis has %d columns but R has %d", b.Cols(), n,
		)
	}
	if normUpperBound <= 0 {
		return 0, fmt.Errorf("ShortVector: non-positive norm bound %v", normUpperBound)
	}
	u := make([]float64, n)
	for j := 0; j < n; j++ {
		if probabilistic {
			u[j] = normUpperBound * math.Sqrt(float64(j+1)/float64(n))
		} else {
			u[j] = normUpperBound
		}
	}
	return BoundedEnumeration(r, u, v, maxNodes)
}

// ShortestVector repeatedly tightens the bound of ShortVector until the
// search fails, returning the norm of the (approximately) shortest nonzero
// lattice member and its coordinates in v. The initial bound is the norm of
// the first basis column, or normUpperBound when that is tighter and
// positive.
func ShortestVector(
	b, r *matrix.Dense[float64],
	normUpperBound float64,
	v []int64,
	probabilistic bool,
	maxNodes int64,
) (float64, error) {
	n := r.Cols()
	if n == 0 {
		return 0, fmt.Errorf("ShortestVector: empty basis")
	}
	bound := matrix.Nrm2(b.Col(0)) * (1 + matrix.Eps[float64]())
	if normUpperBound > 0 && normUpperBound < bound {
		bound = normUpperBound
	}

	best := math.Inf(1)
	bestV := make([]int64, n)
	cur := make([]int64, n)
	for {
		norm, err := ShortVector(b, r, bound, cur, probabilistic, maxNodes)
		if err != nil {
			if err == ErrBudget && !math.IsInf(best, 1) {
				break
			}
			return 0, fmt.Errorf("ShortestVector: %s", err.Error())
		}
		if norm >= bound {
			break
		}
		best = norm
		copy(bestV, cur)
		bound = norm
	}
	if math.IsInf(best, 1) {
		// Nothing beat the initial bound; the first basis column itself is
		// the witness.
		for i := range v {
			v[i] = 0
		}
		v[0] = 1
		return matrix.Nrm2(b.Col(0)), nil
	}
	copy(v, bestV)
	return best, nil
}
