// Copyright (c) 2026 Colin McRae

// Package bkz strengthens LLL reduction to block Korkin-Zolotarev form:
// after each LLL pass a window of blocksize columns slides over the basis,
// the shortest vector reachable within the window's local QR is enumerated
// exactly, and any strictly shorter vector found is fed back into the basis
// as an extra generator before the affected suffix is re-reduced. The
// linear dependency this introduces is retired by the MLLL rank-deficiency
// handling of the lll package.
package bkz

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RaphaelK12/Elemental/lll"
	"github.com/RaphaelK12/Elemental/matrix"
	"github.com/RaphaelK12/Elemental/svp"
)

// Ctrl configures a BKZ reduction.
type Ctrl struct {
	// Blocksize is the width of the sliding enumeration window.
	Blocksize int
	// Probabilistic prunes each enumeration with a rising bound profile.
	Probabilistic bool

	// EarlyAbort stops after NumEnumsBeforeAbort enumerations rather than
	// waiting for a full pass without insertions.
	EarlyAbort          bool
	NumEnumsBeforeAbort int

	// MaxEnumNodes caps the nodes visited by any single enumeration;
	// zero means unbounded. A capped enumeration that runs out of budget
	// counts as a failed enumeration.
	MaxEnumNodes int64

	// LLL carries the control parameters of the inner reduction passes.
	LLL *lll.Ctrl
}

// NewCtrl returns the default control parameters.
func NewCtrl() *Ctrl {
	return &Ctrl{
		Blocksize:           20,
		NumEnumsBeforeAbort: 1000,
		LLL:                 lll.NewCtrl(),
	}
}

// Info summarizes a completed BKZ reduction.
type Info struct {
	Delta           float64
	Eta             float64
	Rank            int
	Nullity         int
	NumSwaps        int
	NumEnums        int
	NumEnumFailures int
	LogVol          float64
}

func (c *Ctrl) validate() error {
	if c.Blocksize < 2 {
		return fmt.Errorf("bkz: blocksize %d below 2", c.Blocksize)
	}
	if c.EarlyAbort && c.NumEnumsBeforeAbort < 1 {
		return fmt.Errorf("bkz: early abort after %d enumerations", c.NumEnumsBeforeAbort)
	}
	return nil
}

func (c *Ctrl) logger() *zerolog.Logger {
	if c.LLL != nil && c.LLL.Progress && c.LLL.Log != nil {
		return c.LLL.Log
	}
	nop := zerolog.Nop()
	return &nop
}

// Reduce BKZ-reduces the columns of b in place. The first basis vector of
// the result is never longer than the one plain LLL produces on the same
// input, since insertions only ever replace window heads with strictly
// shorter lattice members.
func Reduce(b *matrix.Dense[float64], ctrl *Ctrl) (Info, error) {
	if ctrl == nil {
		ctrl = NewCtrl()
	}
	if err := ctrl.validate(); err != nil {
		return Info{}, err
	}
	lllCtrl := ctrl.LLL
	if lllCtrl == nil {
		lllCtrl = lll.NewCtrl()
	}
	log := ctrl.logger()

	info := Info{}
	f, lllInfo, err := lll.ReduceWithFactor[float64](b, nil, lllCtrl)
	if err != nil {
		return info, err
	}
	accumulate(&info, lllInfo)

	m, n := b.Rows(), b.Cols()
	aborted := false
	for !aborted {
		inserted := false
		rank := lllInfo.Rank
		for j := 0; j+1 < rank; j++ {
			bs := ctrl.Blocksize
			if rank-j < bs {
				bs = rank - j
			}
			if bs < 2 {
				break
			}

			local, err := extractBlock(f, j, bs)
			if err != nil {
				return info, fmt.Errorf("Reduce: %s", err.Error())
			}
			bound, _ := local.Get(0, 0)
			if bound <= lllCtrl.ZeroTol {
				continue
			}

			v := make([]int64, bs)
			norm, err := svp.ShortVector(local, local, bound, v, ctrl.Probabilistic, ctrl.MaxEnumNodes)
			info.NumEnums++
			if err != nil && err != svp.ErrBudget {
				return info, fmt.Errorf("Reduce: enumeration at window %d: %s", j, err.Error())
			}
			failed := err == svp.ErrBudget || norm >= bound
			if failed {
				info.NumEnumFailures++
			} else {
				log.Debug().
					Int("window", j).
					Float64("norm", norm).
					Float64("bound", bound).
					Msg("inserting enumerated vector")
				if err := insertVector(b, j, bs, v, m, n, lllCtrl); err != nil {
					return info, err
				}
				inserted = true
				f, lllInfo, err = lll.ReduceWithFactor[float64](b, nil, lllCtrl)
				if err != nil {
					return info, err
				}
				accumulate(&info, lllInfo)
				rank = lllInfo.Rank
			}

			if ctrl.EarlyAbort && info.NumEnums >= ctrl.NumEnumsBeforeAbort {
				aborted = true
				break
			}
		}
		if !inserted {
			break
		}
	}

	info.Delta = lllInfo.Delta
	info.Eta = lllInfo.Eta
	info.Rank = lllInfo.Rank
	info.Nullity = lllInfo.Nullity
	info.LogVol = lllInfo.LogVol
	return info, nil
}

func accumulate(info *Info, lllInfo lll.Info) {
	info.NumSwaps += lllInfo.NumSwaps
}

// extractBlock copies the bs x bs diagonal block of the maintained R
// starting at column j; this is the Gaussian normal form of the window's
// projected local lattice.
func extractBlock(f *lll.Factor[float64], j, bs int) (*matrix.Dense[float64], error) {
	local, err := matrix.NewDense[float64](bs, bs)
	if err != nil {
		return nil, err
	}
	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	buf := local.Data()
	for c := 0; c < bs; c++ {
		for r := 0; r <= c; r++ {
			buf[r+c*bs] = qrBuf[(j+r)+(j+c)*qrLD]
		}
	}
	// The engine keeps the diagonal non-negative; a strictly positive
	// diagonal is required for enumeration.
	return local, nil
}

// insertVector augments the basis with the window combination sum v_l *
// b_{j+l} placed at position j and lets an MLLL pass retire the dependent
// column it introduces, then copies the surviving n columns back.
func insertVector(
	b *matrix.Dense[float64],
	j, bs int,
	v []int64,
	m, n int,
	lllCtrl *lll.Ctrl,
) error {
	aug, err := matrix.NewDense[float64](m, n+1)
	if err != nil {
		return fmt.Errorf("insertVector: %s", err.Error())
	}
	for c := 0; c < j; c++ {
		copy(aug.Col(c), b.Col(c))
	}
	w := aug.Col(j)
	for l := 0; l < bs; l++ {
		if v[l] == 0 {
			continue
		}
		matrix.Axpy(float64(v[l]), b.Col(j+l), w)
	}
	for c := j; c < n; c++ {
		copy(aug.Col(c+1), b.Col(c))
	}

	augInfo, err := lll.Reduce(aug, lllCtrl)
	if err != nil {
		return fmt.Errorf("insertVector: re-reduction: %s", err.Error())
	}
	if augInfo.Nullity < 1 {
		// The inserted combination should be dependent by construction;
		// anything else means the enumeration fed back a vector outside
		// the lattice.
		return fmt.Errorf("insertVector: augmented basis kept full rank %d", augInfo.Rank)
	}
	for c := 0; c < n; c++ {
		copy(b.Col(c), aug.Col(c))
	}
	return nil
}
