// Copyright (c) 2026 Colin McRae

// Package svp performs exact shortest-vector search by Schnorr-Euchner
// branch-and-bound enumeration over the upper-triangular Gaussian normal
// form R of a reduced basis. Enumeration is real-valued; there is not
// currently a complex implementation. It is a single-threaded depth-first
// search by design: the whole state is a small integer coordinate stack.
package svp

import (
	"fmt"
	"math"

	"github.com/RaphaelK12/Elemental/matrix"
)

// ErrBudget reports that the enumeration-count budget was exhausted before
// the search space was.
var ErrBudget = fmt.Errorf("svp: enumeration budget exhausted")

// BoundedEnumeration searches depth-first over nonzero integer coordinate
// vectors v, from the last coordinate backward, for one whose norm profile
// stays strictly underneath the bound vector u: with n-j coordinates fixed,
// the projected partial norm ||(R v)(j:n)||_2 must be strictly below
// u(n-1-j), and u(n-1) therefore bounds the full norm ||R v||_2.
//
// The first feasible vector found is written to v and its norm returned.
// On exhaustion the return value is greater than u(n-1) and the contents of
// v should be ignored. A positive maxNodes bounds the number of search
// nodes visited; exceeding it returns ErrBudget.
func BoundedEnumeration(
	r *matrix.Dense[float64],
	u []float64,
	v []int64,
	maxNodes int64,
) (float64, error) {
	n := r.Cols()
	if r.Rows() < n {
		return 0, fmt.Errorf(
			"BoundedEnumeration: R is %d x %d, not upper trapezoidal of width %d",
			r.Rows(), r.Cols(), n,
		)
	}
	if len(u) != n {
		return 0, fmt.Errorf(
			"BoundedEnumeration: bound vector length %d does not match %d columns", len(u), n,
		)
	}
	if len(v) != n {
		return 0, fmt.Errorf(
			"BoundedEnumeration: coordinate vector length %d does not match %d columns", len(v), n,
		)
	}
	if n == 0 {
		return 1, nil
	}
	for j := 0; j < n; j++ {
		if d, _ := r.Get(j, j); d == 0 {
			return 0, fmt.Errorf("BoundedEnumeration: R(%d,%d) is zero; R must be nonsingular", j, j)
		}
	}

	e := &enumerator{
		r:        r,
		u:        u,
		v:        v,
		rho:      make([]float64, n+1),
		maxNodes: maxNodes,
	}
	for i := range v {
		v[i] = 0
	}
	found, err := e.descend(n - 1)
	if err != nil {
		return 0, err
	}
	if !found {
		return 2*u[n-1] + 1, nil
	}
	return math.Sqrt(e.rho[0]), nil
}

type enumerator struct {
	r        *matrix.Dense[float64]
	u        []float64
	v        []int64
	rho      []float64 // rho[j] = ||(R v)(j:n)||^2 for the fixed suffix
	nodes    int64
	maxNodes int64
}

// descend fixes coordinate j, trying candidate values in the zigzag order
// around the real minimizer so partial norms are non-decreasing and the
// first bound violation prunes the rest of the level.
func (e *enumerator) descend(j int) (bool, error) {
	n := e.r.Cols()
	rBuf, rLD := e.r.Data(), e.r.LDim()

	// Center of row j given the fixed coordinates v(j+1:n).
	sum := 0.0
	for l := j + 1; l < n; l++ {
		sum += rBuf[j+l*rLD] * float64(e.v[l])
	}
	rjj := rBuf[j+j*rLD]
	center := -sum / rjj

	bound := e.u[(n-1)-j]
	base := int64(math.Round(center))
	step := int64(1)
	if center < math.Round(center) {
		step = -1
	}

	for offset, dist := int64(0), int64(0); ; {
		e.nodes++
		if e.maxNodes > 0 && e.nodes > e.maxNodes {
			return false, ErrBudget
		}

		cand := base + offset
		diff := float64(cand)*rjj + sum
		partial := e.rho[j+1] + diff*diff
		if partial >= bound*bound {
			// Candidates are ordered by distance from the center, so the
			// first violation exhausts the level.
			return false, nil
		}
		e.v[j] = cand
		e.rho[j] = partial

		if j == 0 {
			if !e.allZero() {
				return true, nil
			}
		} else {
			found, err := e.descend(j - 1)
			if found || err != nil {
				return found, err
			}
		}

		// Zigzag: center, center+s, center-s, center+2s, ...
		dist++
		if dist%2 == 1 {
			offset += step * dist
		} else {
			offset -= step * dist
		}
	}
}

func (e *enumerator) allZero() bool {
	for _, vi := range e.v {
		if vi != 0 {
			return false
		}
	}
	return true
}
