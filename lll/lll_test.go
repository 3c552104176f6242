// Copyright (c) 2026 Colin McRae

package lll

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaphaelK12/Elemental/matrix"
	"github.com/RaphaelK12/Elemental/util"
)

// scrambledIdentity returns a unimodular image of the n x n identity, whose
// columns therefore generate the integer lattice and whose covolume is 1.
func scrambledIdentity(t *testing.T, rnd *rand.Rand, n int) *matrix.Dense[float64] {
	b, err := matrix.NewIdentity[float64](n)
	require.NoError(t, err)
	util.ApplyRandomUnimodular(rnd, b, 20, 3)
	return b
}

func TestReduceUnimodularBasis(t *testing.T) {
	b, err := matrix.NewFromSlice([]float64{
		1, 1,
		0, 1,
	}, 2, 2)
	require.NoError(t, err)

	info, err := Reduce(b, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, info.NumSwaps)
	assert.Equal(t, 2, info.Rank)
	assert.Equal(t, 0, info.Nullity)
	assert.InDelta(t, 0, info.LogVol, 1e-14)
	// Already Lovasz reduced; the single size reduction leaves the identity.
	assert.Equal(t, []float64{1, 0}, b.Col(0))
	assert.Equal(t, []float64{0, 1}, b.Col(1))
}

func TestReduceNearDegenerateBasis(t *testing.T) {
	b, err := matrix.NewFromSlice([]float64{
		1, 0,
		100, 1,
	}, 2, 2)
	require.NoError(t, err)

	info, err := Reduce(b, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.NumSwaps, 1)
	assert.Equal(t, 2, info.Rank)
	assert.LessOrEqual(t, matrix.Nrm2(b.Col(0)), math.Sqrt2+1e-12)
	assert.LessOrEqual(t, matrix.Nrm2(b.Col(1)), math.Sqrt2+1e-12)
	assert.InDelta(t, 0, info.LogVol, 1e-12)
}

func TestReduceDependentColumn(t *testing.T) {
	// Column 2 is exactly 3 times column 0.
	b, err := matrix.NewFromSlice([]float64{
		1, 0, 3,
		2, 1, 6,
	}, 2, 3)
	require.NoError(t, err)

	info, err := Reduce(b, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Rank)
	assert.Equal(t, 1, info.Nullity)
	assert.GreaterOrEqual(t, info.NumSwaps, 1)
	assert.Equal(t, []float64{0, 0}, b.Col(2))
	assert.Greater(t, matrix.Nrm2(b.Col(0)), 0.0)
	assert.Greater(t, matrix.Nrm2(b.Col(1)), 0.0)
}

func TestReduceAchievesRequestedParameters(t *testing.T) {
	const seed = 24680
	rnd := rand.New(rand.NewSource(seed))
	ctrl := NewCtrl()
	for trial := 0; trial < 10; trial++ {
		n := 3 + rnd.Intn(5)
		b := scrambledIdentity(t, rnd, n)

		f, info, err := ReduceWithFactor[float64](b, nil, ctrl)
		require.NoError(t, err)
		assert.Equal(t, n, info.Rank, "trial %d", trial)
		assert.GreaterOrEqual(t, info.Delta, ctrl.Delta, "trial %d", trial)
		assert.LessOrEqual(t, info.Eta, ctrl.Eta, "trial %d", trial)
		assert.InDelta(t, 0, info.LogVol, 1e-8, "trial %d", trial)

		// Q is orthogonal, so each basis column and its R column agree in
		// norm, and the R diagonal is non-negative by construction.
		r, err := f.ExtractR(n)
		require.NoError(t, err)
		for j := 0; j < n; j++ {
			assert.InDelta(
				t, matrix.Nrm2(b.Col(j)), matrix.Nrm2(r.Col(j)[:j+1]),
				1e-8*(1+matrix.Nrm2(b.Col(j))), "trial %d column %d", trial, j,
			)
			d, err := r.Get(j, j)
			require.NoError(t, err)
			assert.Greater(t, d, 0.0, "trial %d column %d", trial, j)
		}

		// Entries stay integral: only integer column operations are applied.
		for j := 0; j < n; j++ {
			for _, bij := range b.Col(j) {
				assert.InDelta(t, math.Round(bij), bij, 1e-9)
			}
		}
	}
}

func TestReduceWithTransformReconstructs(t *testing.T) {
	const seed = 13579
	rnd := rand.New(rand.NewSource(seed))
	for trial := 0; trial < 8; trial++ {
		n := 2 + rnd.Intn(5)
		b := scrambledIdentity(t, rnd, n)
		orig := b.Clone()

		u, err := matrix.NewDense[float64](0, 0)
		require.NoError(t, err)
		info, err := ReduceWithTransform(b, u, nil)
		require.NoError(t, err)
		assert.Equal(t, n, info.Rank)

		// B_original * U must reproduce the reduced basis, and U must be
		// integer valued to be unimodular.
		prod, err := util.Multiply(orig, u)
		require.NoError(t, err)
		diff, err := util.MaxAbsDiff(prod, b)
		require.NoError(t, err)
		assert.LessOrEqual(t, diff, 1e-8, "trial %d", trial)
		for j := 0; j < n; j++ {
			for _, uij := range u.Col(j) {
				assert.InDelta(t, math.Round(uij), uij, 1e-9)
			}
		}
	}
}

func TestReduceIdempotent(t *testing.T) {
	const seed = 8642
	rnd := rand.New(rand.NewSource(seed))
	b := scrambledIdentity(t, rnd, 6)

	_, err := Reduce(b, nil)
	require.NoError(t, err)
	again := b.Clone()
	info, err := Reduce(again, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, info.NumSwaps)
	diff, err := util.MaxAbsDiff(b, again)
	require.NoError(t, err)
	assert.Equal(t, 0.0, diff)
}

func TestReduceWideBasisRankNullity(t *testing.T) {
	const seed = 97531
	rnd := rand.New(rand.NewSource(seed))
	m, n := 3, 6
	b, err := util.RandomBasis(rnd, m, n, 5)
	require.NoError(t, err)

	info, err := Reduce(b, nil)
	require.NoError(t, err)
	assert.Equal(t, n, info.Rank+info.Nullity)
	assert.LessOrEqual(t, info.Rank, m)
	assert.GreaterOrEqual(t, info.Nullity, n-m)
	for j := info.Rank; j < n; j++ {
		assert.Equal(t, 0.0, matrix.Nrm2(b.Col(j)), "column %d should be retired", j)
	}
}

func TestReduceComplexBasis(t *testing.T) {
	const seed = 31415
	rnd := rand.New(rand.NewSource(seed))
	b, err := matrix.NewIdentity[complex128](4)
	require.NoError(t, err)
	// Scramble with Gaussian-integer column operations.
	for op := 0; op < 15; op++ {
		src := rnd.Intn(4)
		dst := rnd.Intn(4)
		if src == dst {
			dst = (dst + 1) % 4
		}
		c := complex(float64(rnd.Intn(5)-2), float64(rnd.Intn(5)-2))
		if c == 0 {
			c = 1
		}
		matrix.Axpy(c, b.Col(src), b.Col(dst))
	}

	ctrl := NewCtrl()
	info, err := Reduce(b, ctrl)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Rank)
	assert.Equal(t, 0, info.Nullity)
	assert.GreaterOrEqual(t, info.Delta, ctrl.Delta)
	assert.LessOrEqual(t, info.Eta, ctrl.Eta)
	assert.InDelta(t, 0, info.LogVol, 1e-8)
	for j := 0; j < 4; j++ {
		for _, bij := range b.Col(j) {
			assert.InDelta(t, math.Round(real(bij)), real(bij), 1e-9)
			assert.InDelta(t, math.Round(imag(bij)), imag(bij), 1e-9)
		}
	}
}

func TestReduceVariants(t *testing.T) {
	const seed = 11235
	for _, variant := range []Variant{VariantWeak, VariantNormal, VariantDeep, VariantDeepReduce} {
		rnd := rand.New(rand.NewSource(seed))
		b := scrambledIdentity(t, rnd, 6)
		ctrl := NewCtrl()
		ctrl.Variant = variant

		info, err := Reduce(b, ctrl)
		require.NoError(t, err, "variant %s", variant)
		assert.Equal(t, 6, info.Rank, "variant %s", variant)
		assert.InDelta(t, 0, info.LogVol, 1e-8, "variant %s", variant)
		if variant != VariantWeak {
			assert.LessOrEqual(t, info.Eta, ctrl.Eta, "variant %s", variant)
		}
	}
}

func TestDeepVariantFirstVectorProperty(t *testing.T) {
	// At termination no deep insertion applies at position 0, so every
	// column is at least sqrt(delta) times as long as the first one.
	const seed = 26014
	rnd := rand.New(rand.NewSource(seed))
	b, err := util.RandomBasis(rnd, 6, 6, 20)
	require.NoError(t, err)

	ctrl := NewCtrl()
	ctrl.Variant = VariantDeep
	info, err := Reduce(b, ctrl)
	require.NoError(t, err)

	first := matrix.Nrm2(b.Col(0))
	for j := 1; j < info.Rank; j++ {
		assert.GreaterOrEqual(
			t, matrix.Nrm2(b.Col(j))+1e-9, math.Sqrt(ctrl.Delta)*first,
			"column %d", j,
		)
	}
}

func TestReducePresort(t *testing.T) {
	const seed = 55221
	rnd := rand.New(rand.NewSource(seed))
	b := scrambledIdentity(t, rnd, 6)
	ctrl := NewCtrl()
	ctrl.Presort = true

	info, err := Reduce(b, ctrl)
	require.NoError(t, err)
	assert.Equal(t, 6, info.Rank)
	assert.InDelta(t, 0, info.LogVol, 1e-8)
}

func TestReduceNumOrthog(t *testing.T) {
	const seed = 60221
	rnd := rand.New(rand.NewSource(seed))
	b := scrambledIdentity(t, rnd, 5)
	ctrl := NewCtrl()
	ctrl.NumOrthog = 3
	ctrl.ReorthogTol = 0.1

	info, err := Reduce(b, ctrl)
	require.NoError(t, err)
	assert.Equal(t, 5, info.Rank)
	assert.LessOrEqual(t, info.Eta, ctrl.Eta)
}

func TestReduceRejectsBadCtrl(t *testing.T) {
	b, err := matrix.NewIdentity[float64](2)
	require.NoError(t, err)

	ctrl := NewCtrl()
	ctrl.Delta = 1.5
	_, err = Reduce(b, ctrl)
	assert.Error(t, err)

	ctrl = NewCtrl()
	ctrl.Eta = 0.25
	_, err = Reduce(b, ctrl)
	assert.Error(t, err)

	ctrl = NewCtrl()
	ctrl.Jumpstart = true
	_, err = Reduce(b, ctrl)
	assert.Error(t, err)
	// The rejection must happen before any mutation.
	assert.Equal(t, []float64{1, 0}, b.Col(0))
	assert.Equal(t, []float64{0, 1}, b.Col(1))
}

func TestReduceDegenerateShapes(t *testing.T) {
	empty, err := matrix.NewDense[float64](3, 0)
	require.NoError(t, err)
	info, err := Reduce(empty, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Rank)
	assert.Equal(t, 0, info.Nullity)

	flat, err := matrix.NewDense[float64](0, 4)
	require.NoError(t, err)
	info, err = Reduce(flat, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Rank)
	assert.Equal(t, 4, info.Nullity)

	single, err := matrix.NewFromSlice([]float64{3, 4}, 2, 1)
	require.NoError(t, err)
	info, err = Reduce(single, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Rank)
	assert.InDelta(t, math.Log(5), info.LogVol, 1e-12)
}

func TestReduceAllZeroColumns(t *testing.T) {
	b, err := matrix.NewDense[float64](3, 3)
	require.NoError(t, err)
	info, err := Reduce(b, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Rank)
	assert.Equal(t, 3, info.Nullity)
}

func TestReduceTiming(t *testing.T) {
	const seed = 70707
	rnd := rand.New(rand.NewSource(seed))
	b := scrambledIdentity(t, rnd, 8)
	ctrl := NewCtrl()
	ctrl.Time = true

	info, err := Reduce(b, ctrl)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int64(info.Timing.ApplyHouse), int64(0))
	assert.GreaterOrEqual(t, int64(info.Timing.Round), int64(0))
}

func TestReducePrecisionFailure(t *testing.T) {
	b, err := matrix.NewFromSlice([]float64{
		1, math.Inf(1),
		0, 1,
	}, 2, 2)
	require.NoError(t, err)
	_, err = Reduce(b, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecision)
}

func TestFactorizeAndApplyQTrans(t *testing.T) {
	const seed = 41421
	rnd := rand.New(rand.NewSource(seed))
	b, err := util.RandomBasis(rnd, 5, 3, 4)
	require.NoError(t, err)

	f, err := Factorize(b)
	require.NoError(t, err)
	r, err := f.ExtractR(3)
	require.NoError(t, err)

	// y = B x for a known x; D Q^H y must equal R x padded with zeros.
	x := []float64{2, -1, 3}
	y := make([]float64, 5)
	for j := 0; j < 3; j++ {
		matrix.Axpy(x[j], b.Col(j), y)
	}
	require.NoError(t, f.ApplyQTrans(y))
	for i := 0; i < 3; i++ {
		want := 0.0
		for j := i; j < 3; j++ {
			rij, err := r.Get(i, j)
			require.NoError(t, err)
			want += rij * x[j]
		}
		assert.InDelta(t, want, y[i], 1e-9, "entry %d", i)
	}
	for i := 3; i < 5; i++ {
		assert.InDelta(t, 0, y[i], 1e-9, "entry %d", i)
	}
}

func TestApplyQTransRankDeficient(t *testing.T) {
	// Column 2 is exactly 3 times column 0, so one slot of the factor holds
	// the retired-column sentinel instead of a formed reflector. Applying
	// the orthogonal factor must ignore that slot rather than substitute
	// through its empty SInv diagonal.
	b, err := matrix.NewFromSlice([]float64{
		1, 0, 3,
		2, 1, 6,
		0, 0, 0,
	}, 3, 3)
	require.NoError(t, err)

	f, info, err := ReduceWithFactor[float64](b, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, info.Rank)
	require.Equal(t, 1, info.Nullity)

	// D Q^H maps each surviving basis column onto its R column.
	for j := 0; j < info.Rank; j++ {
		y := append([]float64(nil), b.Col(j)...)
		require.NoError(t, f.ApplyQTrans(y))
		for i := 0; i < 3; i++ {
			want := 0.0
			if i <= j {
				want, err = f.QR.Get(i, j)
				require.NoError(t, err)
			}
			assert.InDelta(t, want, y[i], 1e-9, "column %d entry %d", j, i)
		}
	}

	y := []float64{1, 1, 1}
	require.NoError(t, f.ApplyQTrans(y))
	for i, yi := range y {
		assert.False(t, math.IsNaN(yi), "entry %d", i)
	}
	// The two formed reflectors preserve the norm up to the sign flips.
	assert.InDelta(t, matrix.Nrm2([]float64{1, 1, 1}), matrix.Nrm2(y), 1e-12)
}

func TestFactorizeRejectsUnboundedNorm(t *testing.T) {
	b, err := matrix.NewFromSlice([]float64{math.NaN(), 1}, 2, 1)
	require.NoError(t, err)
	_, err = Factorize(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecision)
}

func TestReduceRecursive(t *testing.T) {
	const seed = 16180
	rnd := rand.New(rand.NewSource(seed))
	b := scrambledIdentity(t, rnd, 8)

	info, err := ReduceRecursive(b, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, info.Rank)
	assert.InDelta(t, 0, info.LogVol, 1e-8)

	// The merge pass ends with a fully reduced basis.
	again, err := Reduce(b.Clone(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.NumSwaps)

	_, err = ReduceRecursive(b, 0, nil)
	assert.Error(t, err)
}
