// Copyright (c) 2026 Colin McRae

package lll

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/RaphaelK12/Elemental/matrix"
)

func checkColumnNorm(norm, eps float64, k int) error {
	if math.IsInf(norm, 0) || math.IsNaN(norm) {
		return fmt.Errorf("blockStep: column %d has unbounded norm: %w", k, ErrPrecision)
	}
	if norm > 1/eps {
		return fmt.Errorf(
			"blockStep: column %d norm %e exceeds 1/eps, where eps=%e: %w",
			k, norm, eps, ErrPrecision,
		)
	}
	return nil
}

// blockStep brings column k into canonical form: extend the QR
// factorization, size-reduce, re-run the reduction while cancellation is
// severe, and finish with the Householder step. It reports true when the
// column degenerates to the zero vector, in which case the caller retires
// it; the basis and QR columns are already zeroed and the sentinel reflector
// scalar recorded.
func blockStep[F matrix.Scalar](
	k int,
	b, u *matrix.Dense[F],
	f *Factor[F],
	formU bool,
	ctrl *Ctrl,
	timing *Timing,
	log *zerolog.Logger,
) (bool, error) {
	m, n := b.Rows(), b.Cols()
	minDim := m
	if n < minDim {
		minDim = n
	}
	eps := matrix.Eps[F]()

	orthogPasses := ctrl.NumOrthog
	if ctrl.Variant == VariantDeepReduce && orthogPasses < 2 {
		orthogPasses = 2
	}
	if orthogPasses < 1 {
		orthogPasses = 1
	}

	for pass := 0; ; pass++ {
		f.expand(k, b, timing)

		oldNorm := matrix.Nrm2(b.Col(k))
		if err := checkColumnNorm(oldNorm, eps, k); err != nil {
			return false, err
		}
		if oldNorm <= ctrl.ZeroTol {
			b.ZeroCol(k)
			f.QR.ZeroCol(k)
			if k < minDim {
				f.T[k] = matrix.FromReal[F](zeroColTau)
				f.D[k] = 1
			}
			return true, nil
		}

		var start time.Time
		if timing != nil {
			start = time.Now()
		}
		sizeReduce(k, b, u, f, formU, ctrl)
		newNorm := matrix.Nrm2(b.Col(k))
		if timing != nil {
			timing.Round += time.Since(start)
		}
		if err := checkColumnNorm(newNorm, eps, k); err != nil {
			return false, err
		}

		if pass+1 < orthogPasses {
			continue
		}
		if newNorm > ctrl.ReorthogTol*oldNorm {
			break
		}
		log.Debug().
			Int("k", k).
			Float64("oldNorm", oldNorm).
			Float64("newNorm", newNorm).
			Msg("reorthogonalizing after severe cancellation")
	}

	f.householderStep(k, timing)
	return false, nil
}
