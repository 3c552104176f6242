// Copyright (c) 2026 Colin McRae

package lll

import (
	"fmt"
	"math"

	"github.com/RaphaelK12/Elemental/matrix"
)

// Reduce LLL-reduces the columns of b in place and returns the achieved
// parameters and pass statistics. The row count of b is never reallocated;
// the caller owns the matrix exclusively for the duration of the call.
func Reduce[F matrix.Scalar](b *matrix.Dense[F], ctrl *Ctrl) (Info, error) {
	_, info, err := reduce(b, nil, false, ctrl)
	return info, err
}

// ReduceWithTransform reduces b while accumulating the unimodular transform
// into u, so that B_original * U equals the reduced basis at return. u is
// resized to n x n and initialized to the identity.
func ReduceWithTransform[F matrix.Scalar](b, u *matrix.Dense[F], ctrl *Ctrl) (Info, error) {
	if u == nil {
		return Info{}, fmt.Errorf("ReduceWithTransform: transform matrix is nil")
	}
	_, info, err := reduce(b, u, true, ctrl)
	return info, err
}

// ReduceWithFactor reduces b and additionally returns the maintained QR
// factorization state (R in the upper triangle of Factor.QR, Q held
// implicitly by V, SInv, T and D). A nil u skips transform tracking.
func ReduceWithFactor[F matrix.Scalar](b, u *matrix.Dense[F], ctrl *Ctrl) (*Factor[F], Info, error) {
	return reduce(b, u, u != nil, ctrl)
}

func reduce[F matrix.Scalar](b, u *matrix.Dense[F], formU bool, ctrl *Ctrl) (*Factor[F], Info, error) {
	if ctrl == nil {
		ctrl = NewCtrl()
	}
	if err := ctrl.validate(); err != nil {
		return nil, Info{}, err
	}
	log := ctrl.logger()

	m, n := b.Rows(), b.Cols()
	minDim := m
	if n < minDim {
		minDim = n
	}

	if formU {
		if err := u.Resize(n, n); err != nil {
			return nil, Info{}, fmt.Errorf("reduce: could not shape transform: %s", err.Error())
		}
		u.Zero()
		for j := 0; j < n; j++ {
			u.Col(j)[j] = matrix.FromReal[F](1)
		}
	}

	var timing *Timing
	if ctrl.Time {
		timing = &Timing{}
	}

	info := Info{Delta: 1}
	if n == 0 {
		return newFactor[F](m, n), info, nil
	}
	if m == 0 {
		// Every column is the zero vector of a zero-height space.
		info.Nullity = n
		return newFactor[F](m, n), info, nil
	}

	if ctrl.Presort {
		presort(b, u, formU, ctrl)
	}

	f := newFactor[F](m, n)
	nullity := 0
	numSwaps := 0

	// retireLeading (re)derives the canonical form of column 0, retiring
	// zero columns to the trailing free position until a nonzero leading
	// column remains. It is the explicit "re-run from column 0" transition
	// taken at the start and whenever a swap lands on the first column.
	retireLeading := func() {
		for nullity < n {
			f.expand(0, b, timing)
			f.householderStep(0, timing)
			if matrix.Re(f.QR.Data()[0]) > ctrl.ZeroTol {
				return
			}
			b.ZeroCol(0)
			f.QR.ZeroCol(0)
			if minDim > 0 {
				f.T[0] = matrix.FromReal[F](zeroColTau)
				f.D[0] = 1
			}
			b.ColSwap(0, (n-1)-nullity)
			if formU {
				u.ColSwap(0, (n-1)-nullity)
			}
			nullity++
			numSwaps++
		}
	}
	retireLeading()

	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	deep := ctrl.Variant == VariantDeep || ctrl.Variant == VariantDeepReduce

	k := 1
	for k < n-nullity {
		zeroVector, err := blockStep(k, b, u, f, formU, ctrl, timing, log)
		if err != nil {
			return nil, info, err
		}
		if zeroVector {
			b.ColSwap(k, (n-1)-nullity)
			if formU {
				u.ColSwap(k, (n-1)-nullity)
			}
			nullity++
			numSwaps++
			continue
		}

		// Beyond min(m,n) there is no diagonal row left, so R(k,k) is
		// identically zero and the forced pivot below walks the dependent
		// column down until it cancels and retires.
		rhoKK := 0.0
		if k < minDim {
			rhoKK = matrix.Re(qrBuf[k+k*qrLD])
		}

		if deep {
			if i, ok := deepInsertionIndex(f, k, m, ctrl); ok && rhoKK > ctrl.ZeroTol {
				numSwaps++
				log.Debug().
					Int("from", k).
					Int("to", i).
					Msg("deep insertion")
				b.DeepColSwap(i, k)
				if formU {
					u.DeepColSwap(i, k)
				}
				if i == 0 {
					retireLeading()
				}
				k = i
				if k < 1 {
					k = 1
				}
				continue
			}
		}

		rhoPrev := matrix.Re(qrBuf[(k-1)+(k-1)*qrLD])
		rhoPrevK := qrBuf[(k-1)+k*qrLD]
		leftTerm := math.Sqrt(ctrl.Delta) * rhoPrev
		rightTerm := math.Hypot(rhoKK, matrix.Abs(rhoPrevK))
		// If delta < 1/2, rho_k_k can be zero while the usual Lovasz
		// condition nominally holds, so a pivot is forced whenever R(k,k)
		// is numerically zero.
		if leftTerm <= rightTerm && rhoKK > ctrl.ZeroTol {
			k++
			continue
		}

		numSwaps++
		if rhoKK <= ctrl.ZeroTol {
			log.Debug().Int("k", k).Msg("dropping back because R(k,k) ~= 0")
		} else {
			log.Debug().
				Int("k", k).
				Float64("leftTerm", leftTerm).
				Float64("rightTerm", rightTerm).
				Msg("dropping back on failed Lovasz condition")
		}

		b.ColSwap(k-1, k)
		if formU {
			u.ColSwap(k-1, k)
		}
		if k == 1 {
			retireLeading()
		} else {
			k--
		}
	}

	rank := n - nullity
	achievedDelta, achievedEta := achieved(f, rank, ctrl)
	info.Delta = achievedDelta
	info.Eta = achievedEta
	info.Rank = rank
	info.Nullity = nullity
	info.NumSwaps = numSwaps
	info.LogVol = logVolume(f, rank)
	if timing != nil {
		info.Timing = *timing
		log.Debug().
			Dur("applyHouse", timing.ApplyHouse).
			Dur("formSInv", timing.FormSInv).
			Dur("round", timing.Round).
			Msg("reduction timings")
	}
	return f, info, nil
}

// deepInsertionIndex scans for the earliest position i < k at which
// inserting column k would shrink R(i,i) past the delta margin. The running
// tail c starts as the squared norm of the column and sheds |R(i,k)|^2 as
// the scan passes each i, so the test at i = k-1 coincides with the
// adjacent Lovasz condition.
func deepInsertionIndex[F matrix.Scalar](f *Factor[F], k, m int, ctrl *Ctrl) (int, bool) {
	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	top := k
	if m-1 < top {
		top = m - 1
	}
	c := 0.0
	for i := 0; i <= top; i++ {
		a := matrix.Abs(qrBuf[i+k*qrLD])
		c += a * a
	}
	for i := 0; i < k; i++ {
		rho := matrix.Re(qrBuf[i+i*qrLD])
		if ctrl.Delta*rho*rho > c {
			return i, true
		}
		a := matrix.Abs(qrBuf[i+k*qrLD])
		c -= a * a
	}
	return 0, false
}

// achieved computes the tightest delta and eta the final factorization
// satisfies over the rank-many leading columns.
func achieved[F matrix.Scalar](f *Factor[F], rank int, ctrl *Ctrl) (float64, float64) {
	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	phi := matrix.Phi[F]()

	delta := 1.0
	for i := 0; i+1 < rank; i++ {
		rho := matrix.Re(qrBuf[i+i*qrLD])
		if rho <= 0 {
			continue
		}
		rhoNext := matrix.Re(qrBuf[(i+1)+(i+1)*qrLD])
		off := matrix.Abs(qrBuf[i+(i+1)*qrLD])
		ratio := (rhoNext*rhoNext + off*off) / (rho * rho)
		if ratio < delta {
			delta = ratio
		}
	}

	eta := 0.5
	for j := 1; j < rank; j++ {
		for i := 0; i < j; i++ {
			rho := matrix.Re(qrBuf[i+i*qrLD])
			if rho <= ctrl.ZeroTol {
				continue
			}
			ratio := matrix.Abs(qrBuf[i+j*qrLD]) / (phi * rho)
			if ratio > eta {
				eta = ratio
			}
		}
	}
	return delta, eta
}

// logVolume returns the log of the covolume: sum of log R(i,i) over the
// leading rank columns.
func logVolume[F matrix.Scalar](f *Factor[F], rank int) float64 {
	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	sum := 0.0
	for i := 0; i < rank; i++ {
		rho := matrix.Re(qrBuf[i+i*qrLD])
		if rho > 0 {
			sum += math.Log(rho)
		}
	}
	return sum
}

// presort pre-orders the columns by Euclidean norm (ascending when
// SmallestFirst), mirroring the swaps into the transform so the unimodular
// bookkeeping stays intact.
func presort[F matrix.Scalar](b, u *matrix.Dense[F], formU bool, ctrl *Ctrl) {
	n := b.Cols()
	norms := make([]float64, n)
	for j := 0; j < n; j++ {
		norms[j] = matrix.Nrm2(b.Col(j))
	}
	for j := 0; j < n-1; j++ {
		best := j
		for l := j + 1; l < n; l++ {
			if ctrl.SmallestFirst {
				if norms[l] < norms[best] {
					best = l
				}
			} else if norms[l] > norms[best] {
				best = l
			}
		}
		if best != j {
			b.ColSwap(j, best)
			if formU {
				u.ColSwap(j, best)
			}
			norms[j], norms[best] = norms[best], norms[j]
		}
	}
}
