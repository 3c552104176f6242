// Copyright (c) 2026 Colin McRae

package util

import (
	"fmt"
	"math/rand"

	"github.com/RaphaelK12/Elemental/matrix"
)

// RandomBasis returns an m x n basis with integer-valued entries drawn
// uniformly from [-maxEntry, maxEntry], for use in tests.
func RandomBasis(rnd *rand.Rand, m, n, maxEntry int) (*matrix.Dense[float64], error) {
	if maxEntry < 1 {
		return nil, fmt.Errorf("RandomBasis: maxEntry %d below 1", maxEntry)
	}
	b, err := matrix.NewDense[float64](m, n)
	if err != nil {
		return nil, fmt.Errorf("RandomBasis: %s", err.Error())
	}
	for j := 0; j < n; j++ {
		col := b.Col(j)
		for i := range col {
			col[i] = float64(rnd.Intn(2*maxEntry+1) - maxEntry)
		}
	}
	return b, nil
}

// ApplyRandomUnimodular post-multiplies b in place by a product of numOps
// elementary integer column operations (determinant +-1), scrambling the
// basis without changing the lattice it generates.
func ApplyRandomUnimodular[F matrix.Scalar](rnd *rand.Rand, b *matrix.Dense[F], numOps, maxMultiple int) {
	n := b.Cols()
	if n < 2 {
		return
	}
	for op := 0; op < numOps; op++ {
		src := rnd.Intn(n)
		dst := rnd.Intn(n)
		if src == dst {
			dst = (dst + 1) % n
		}
		// The inverse of adding c times column src to column dst is adding
		// -c times column src, so each op preserves unimodularity.
		c := rnd.Intn(2*maxMultiple+1) - maxMultiple
		if c == 0 {
			c = 1
		}
		matrix.Axpy(matrix.FromReal[F](float64(c)), b.Col(src), b.Col(dst))
	}
}
