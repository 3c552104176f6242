// Copyright (c) 2026 Colin McRae

package lll

import (
	"math"

	"github.com/RaphaelK12/Elemental/matrix"
)

// sizeReduce rounds the off-diagonal QR coefficients of column k against
// the previously reduced columns, applying the same integer combinations to
// the basis (and the transform when tracked). The weak variant only reduces
// against column k-1; the others walk i = k-1 down to 0 and apply the
// accumulated combination to B and U with a single matrix-vector product.
func sizeReduce[F matrix.Scalar](
	k int,
	b, u *matrix.Dense[F],
	f *Factor[F],
	formU bool,
	ctrl *Ctrl,
) {
	m, n := b.Rows(), b.Cols()
	qrBuf, qrLD := f.QR.Data(), f.QR.LDim()
	bBuf, bLD := b.Data(), b.LDim()

	if ctrl.Variant == VariantWeak {
		rho := matrix.Re(qrBuf[(k-1)+(k-1)*qrLD])
		if math.Abs(rho) <= ctrl.ZeroTol {
			return
		}
		chi := qrBuf[(k-1)+k*qrLD] / matrix.FromReal[F](rho)
		if math.Abs(matrix.Re(chi)) <= ctrl.Eta && math.Abs(matrix.Im(chi)) <= ctrl.Eta {
			return
		}
		chi = matrix.Round(chi)
		matrix.Axpy(-chi, qrBuf[(k-1)*qrLD:(k-1)*qrLD+k], qrBuf[k*qrLD:k*qrLD+k])
		matrix.Axpy(-chi, bBuf[(k-1)*bLD:(k-1)*bLD+m], bBuf[k*bLD:k*bLD+m])
		if formU {
			uBuf, uLD := u.Data(), u.LDim()
			matrix.Axpy(-chi, uBuf[(k-1)*uLD:(k-1)*uLD+n], uBuf[k*uLD:k*uLD+n])
		}
		return
	}

	var zero F
	x := make([]F, k)
	for i := k - 1; i >= 0; i-- {
		chi := qrBuf[i+k*qrLD] / qrBuf[i+i*qrLD]
		if math.Abs(matrix.Re(chi)) > ctrl.Eta || math.Abs(matrix.Im(chi)) > ctrl.Eta {
			chi = matrix.Round(chi)
			matrix.Axpy(-chi, qrBuf[i*qrLD:i*qrLD+i+1], qrBuf[k*qrLD:k*qrLD+i+1])
		} else {
			chi = zero
		}
		x[i] = chi
	}

	minusOne := matrix.FromReal[F](-1)
	one := matrix.FromReal[F](1)
	matrix.GemvN(m, k, minusOne, bBuf, bLD, x, one, bBuf[k*bLD:])
	if formU {
		uBuf, uLD := u.Data(), u.LDim()
		matrix.GemvN(n, k, minusOne, uBuf, uLD, x, one, uBuf[k*uLD:])
	}
}
