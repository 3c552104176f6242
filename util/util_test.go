// Copyright (c) 2026 Colin McRae

package util

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaphaelK12/Elemental/matrix"
)

func TestGaussianHeuristic(t *testing.T) {
	// n=2, unit covolume: Gamma(2)^{1/2}/sqrt(pi) = 1/sqrt(pi).
	assert.InDelta(t, 1/math.Sqrt(math.Pi), GaussianHeuristic(2, 0), 1e-12)
	// Scaling the covolume by c^n scales the estimate by c.
	n := 5
	c := 3.0
	assert.InDelta(
		t,
		c*GaussianHeuristic(n, 0),
		GaussianHeuristic(n, float64(n)*math.Log(c)),
		1e-9,
	)
	assert.Equal(t, 0.0, GaussianHeuristic(0, 0))
}

func TestMultiply(t *testing.T) {
	a, err := matrix.NewFromSlice([]float64{
		1, 2,
		3, 4,
	}, 2, 2)
	require.NoError(t, err)
	b, err := matrix.NewFromSlice([]float64{
		5, 6,
		7, 8,
	}, 2, 2)
	require.NoError(t, err)

	c, err := Multiply(a, b)
	require.NoError(t, err)
	want, err := matrix.NewFromSlice([]float64{
		19, 22,
		43, 50,
	}, 2, 2)
	require.NoError(t, err)
	diff, err := MaxAbsDiff(c, want)
	require.NoError(t, err)
	assert.Equal(t, 0.0, diff)

	tall, err := matrix.NewDense[float64](3, 2)
	require.NoError(t, err)
	_, err = Multiply(tall, tall)
	assert.Error(t, err)
}

func TestMaxAbsDiff(t *testing.T) {
	a, err := matrix.NewFromSlice([]float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	b, err := matrix.NewFromSlice([]float64{1, 2.5, 3, 3}, 2, 2)
	require.NoError(t, err)
	diff, err := MaxAbsDiff(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, diff)

	c, err := matrix.NewDense[float64](3, 3)
	require.NoError(t, err)
	_, err = MaxAbsDiff(a, c)
	assert.Error(t, err)
}

func TestRandomBasis(t *testing.T) {
	const seed = 36912
	rnd := rand.New(rand.NewSource(seed))
	b, err := RandomBasis(rnd, 4, 6, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Rows())
	assert.Equal(t, 6, b.Cols())
	for j := 0; j < 6; j++ {
		for _, bij := range b.Col(j) {
			assert.Equal(t, math.Round(bij), bij)
			assert.LessOrEqual(t, math.Abs(bij), 7.0)
		}
	}
	_, err = RandomBasis(rnd, 2, 2, 0)
	assert.Error(t, err)
}

func TestApplyRandomUnimodularPreservesDeterminant(t *testing.T) {
	const seed = 71828
	rnd := rand.New(rand.NewSource(seed))
	b, err := matrix.NewIdentity[float64](2)
	require.NoError(t, err)
	ApplyRandomUnimodular(rnd, b, 15, 3)

	det := b.Col(0)[0]*b.Col(1)[1] - b.Col(1)[0]*b.Col(0)[1]
	assert.Equal(t, 1.0, math.Abs(det))
}
