// Copyright (c) 2026 Colin McRae

package relation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaphaelK12/Elemental/matrix"
	"github.com/RaphaelK12/Elemental/util"
)

func TestZDependenceSearchExactRelation(t *testing.T) {
	// 2*z0 - z1 = 0 exactly.
	z := []float64{1.5, 3.0, math.Sqrt2}
	b, err := matrix.NewDense[float64](0, 0)
	require.NoError(t, err)
	u, err := matrix.NewDense[float64](0, 0)
	require.NoError(t, err)

	numExact, err := ZDependenceSearch(z, 1e6, b, u, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, numExact, 1)

	// The first detected column of U encodes an integer relation of z.
	found := false
	for j := 0; j < 3 && !found; j++ {
		if matrix.Abs(b.Col(j)[3]) > 1 {
			continue
		}
		dot := 0.0
		nonzero := false
		for i := 0; i < 3; i++ {
			c := u.Col(j)[i]
			assert.InDelta(t, math.Round(c), c, 1e-9)
			dot += c * z[i]
			if c != 0 {
				nonzero = true
			}
		}
		if nonzero && math.Abs(dot) < 1e-6 {
			found = true
		}
	}
	assert.True(t, found, "no exact integer relation recovered")
}

func TestZDependenceSearchNoRelation(t *testing.T) {
	// 1, sqrt(2), sqrt(3) admit no small integer relation; at a moderate
	// inflation nothing collapses to an exact dependence.
	z := []float64{1, math.Sqrt2, math.Sqrt(3)}
	b, err := matrix.NewDense[float64](0, 0)
	require.NoError(t, err)
	u, err := matrix.NewDense[float64](0, 0)
	require.NoError(t, err)

	numExact, err := ZDependenceSearch(z, 1e10, b, u, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, numExact)
}

func TestZDependenceSearchValidation(t *testing.T) {
	b, _ := matrix.NewDense[float64](0, 0)
	u, _ := matrix.NewDense[float64](0, 0)
	_, err := ZDependenceSearch(nil, 1e6, b, u, nil)
	assert.Error(t, err)
	_, err = ZDependenceSearch([]float64{1}, 0, b, u, nil)
	assert.Error(t, err)
	_, err = ZDependenceSearch([]float64{1}, 1e6, nil, u, nil)
	assert.Error(t, err)
}

func TestAlgebraicRelationSearchGoldenRatio(t *testing.T) {
	// The golden ratio satisfies x^2 - x - 1 = 0.
	alpha := (1 + math.Sqrt(5)) / 2
	b, err := matrix.NewDense[float64](0, 0)
	require.NoError(t, err)
	u, err := matrix.NewDense[float64](0, 0)
	require.NoError(t, err)

	numExact, err := AlgebraicRelationSearch(alpha, 3, 1e8, b, u, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, numExact, 1)

	powers := []float64{1, alpha, alpha * alpha}
	found := false
	for j := 0; j < 3 && !found; j++ {
		val := 0.0
		nonzero := false
		for i := 0; i < 3; i++ {
			c := u.Col(j)[i]
			val += c * powers[i]
			if math.Round(c) != 0 {
				nonzero = true
			}
		}
		if nonzero && math.Abs(val) < 1e-5 {
			found = true
		}
	}
	assert.True(t, found, "minimal polynomial of the golden ratio not recovered")
}

func TestCoordinatesMember(t *testing.T) {
	const seed = 27182
	rnd := rand.New(rand.NewSource(seed))
	b, err := util.RandomBasis(rnd, 5, 3, 6)
	require.NoError(t, err)

	want := []float64{3, -2, 5}
	y := make([]float64, 5)
	for j := 0; j < 3; j++ {
		matrix.Axpy(want[j], b.Col(j), y)
	}

	x, ok, err := Coordinates(b, y)
	require.NoError(t, err)
	require.True(t, ok)
	// B x = y must hold for the returned coordinates.
	resid := append([]float64(nil), y...)
	for j := 0; j < 3; j++ {
		matrix.Axpy(-x[j], b.Col(j), resid)
	}
	assert.LessOrEqual(t, matrix.Nrm2(resid), 1e-8)
}

func TestCoordinatesNonMember(t *testing.T) {
	b, err := matrix.NewFromSlice([]float64{
		2, 0,
		0, 2,
		0, 0,
	}, 3, 2)
	require.NoError(t, err)

	_, ok, err := Coordinates(b, []float64{1, 0, 0})
	require.NoError(t, err)
	assert.False(t, ok, "(1,0,0) is not an even vector")

	_, ok, err = Coordinates(b, []float64{0, 0, 1})
	require.NoError(t, err)
	assert.False(t, ok, "(0,0,1) is outside the column span")

	_, _, err = Coordinates(b, []float64{1, 0})
	assert.Error(t, err)
}

func TestCoordinatesComplex(t *testing.T) {
	b, err := matrix.NewFromSlice([]complex128{
		1, complex(0, 1),
		0, 1,
	}, 2, 2)
	require.NoError(t, err)

	// y = (2+i) b0 + 3 b1.
	y := []complex128{
		complex(2, 1) + 3*complex(0, 1),
		3,
	}
	x, ok, err := Coordinates(b, y)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 2, real(x[0]), 1e-9)
	assert.InDelta(t, 1, imag(x[0]), 1e-9)
	assert.InDelta(t, 3, real(x[1]), 1e-9)
}

func TestKernel(t *testing.T) {
	// Columns: b2 = b0 + b1 and b3 = 2 b0, so the kernel has rank 2.
	b, err := matrix.NewFromSlice([]float64{
		1, 0, 1, 2,
		0, 1, 1, 0,
	}, 2, 4)
	require.NoError(t, err)
	orig := b.Clone()

	k, err := Kernel(b, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, k.Rows())
	assert.Equal(t, 2, k.Cols())

	// b is untouched and every kernel column is integral and annihilated.
	diff, err := util.MaxAbsDiff(b, orig)
	require.NoError(t, err)
	assert.Equal(t, 0.0, diff)
	for j := 0; j < k.Cols(); j++ {
		col := k.Col(j)
		assert.Greater(t, matrix.Nrm2(col), 0.0)
		resid := make([]float64, 2)
		for i := 0; i < 4; i++ {
			assert.InDelta(t, math.Round(col[i]), col[i], 1e-9)
			matrix.Axpy(col[i], b.Col(i), resid)
		}
		assert.LessOrEqual(t, matrix.Nrm2(resid), 1e-8, "kernel column %d", j)
	}
}

func TestKernelFullRank(t *testing.T) {
	b, err := matrix.NewIdentity[float64](3)
	require.NoError(t, err)
	k, err := Kernel(b, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, k.Cols())
}
