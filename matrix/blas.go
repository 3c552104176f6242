// Copyright (c) 2026 Colin McRae

package matrix

import "math"

// The kernels below are the primitive set the reduction engine consumes.
// They follow BLAS/LAPACK reference semantics on column-major buffers with
// an explicit leading dimension, unit stride unless noted. Bounds are the
// caller's responsibility, as in the reference BLAS.

// Nrm2 returns the Euclidean norm of x, accumulated with scaling to avoid
// overflow and underflow.
func Nrm2[F Scalar](x []F) float64 {
	scale := 0.0
	ssq := 1.0
	accum := func(a float64) {
		if a == 0 {
			return
		}
		a = math.Abs(a)
		if scale < a {
			ssq = 1 + ssq*(scale/a)*(scale/a)
			scale = a
		} else {
			ssq += (a / scale) * (a / scale)
		}
	}
	for _, v := range x {
		accum(Re(v))
		accum(Im(v))
	}
	return scale * math.Sqrt(ssq)
}

// Axpy computes y += alpha*x over the overlapping length of x and y.
func Axpy[F Scalar](alpha F, x, y []F) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	for i := 0; i < n; i++ {
		y[i] += alpha * x[i]
	}
}

// GemvN computes y = alpha*A*x + beta*y for an m x n matrix A stored
// column-major in a with leading dimension lda.
func GemvN[F Scalar](m, n int, alpha F, a []F, lda int, x []F, beta F, y []F) {
	if beta != FromReal[F](1) {
		for i := 0; i < m; i++ {
			y[i] *= beta
		}
	}
	for j := 0; j < n; j++ {
		axj := alpha * x[j]
		col := a[j*lda : j*lda+m]
		for i := 0; i < m; i++ {
			y[i] += axj * col[i]
		}
	}
}

// GemvC computes y = alpha*conj(A)^T*x + beta*y for an m x n matrix A
// stored column-major in a with leading dimension lda. y has stride incY,
// which lets a caller accumulate directly into a matrix row.
func GemvC[F Scalar](m, n int, alpha F, a []F, lda int, x []F, beta F, y []F, incY int) {
	for j := 0; j < n; j++ {
		var sum F
		col := a[j*lda : j*lda+m]
		for i := 0; i < m; i++ {
			sum += Conj(col[i]) * x[i]
		}
		y[j*incY] = alpha*sum + beta*y[j*incY]
	}
}

// TrmvLowerN computes x = L*x for the lower-triangular n x n matrix L
// stored in a (diagonal included) with leading dimension lda.
func TrmvLowerN[F Scalar](n int, a []F, lda int, x []F) {
	for i := n - 1; i >= 0; i-- {
		var sum F
		for j := 0; j <= i; j++ {
			sum += a[i+j*lda] * x[j]
		}
		x[i] = sum
	}
}

// TrmvLowerC computes x = conj(L)^T*x for the lower-triangular n x n
// matrix L stored in a with leading dimension lda.
func TrmvLowerC[F Scalar](n int, a []F, lda int, x []F) {
	for i := 0; i < n; i++ {
		var sum F
		for j := i; j < n; j++ {
			sum += Conj(a[j+i*lda]) * x[j]
		}
		x[i] = sum
	}
}

// TrsvLowerN solves L*z = x in place by forward substitution, for the
// lower-triangular n x n matrix L stored in a with leading dimension lda.
func TrsvLowerN[F Scalar](n int, a []F, lda int, x []F) {
	for i := 0; i < n; i++ {
		sum := x[i]
		for j := 0; j < i; j++ {
			sum -= a[i+j*lda] * x[j]
		}
		x[i] = sum / a[i+i*lda]
	}
}

// Reflector generates the Householder reflector H = I - tau*[1; v]*[1; v]^H
// such that H^H*[alpha; x] = [beta; 0] with beta real. On return alpha is
// overwritten with beta and x with v; the reflector scalar tau is returned.
// When x is zero and alpha is real, tau is zero and H is the identity.
// This follows the LAPACK dlarfg/zlarfg convention, including the rescaling
// of pathologically small intermediate values.
func Reflector[F Scalar](alpha *F, x []F) F {
	const (
		safmin  = 0x1p-1022 / 0x1p-52
		rsafmin = 1 / safmin
	)

	xnorm := Nrm2(x)
	alphr, alphi := Re(*alpha), Im(*alpha)
	if xnorm == 0 && alphi == 0 {
		return FromReal[F](0)
	}

	beta := -math.Copysign(lapy3(alphr, alphi, xnorm), alphr)
	knt := 0
	if math.Abs(beta) < safmin {
		for math.Abs(beta) < safmin && knt < 53 {
			knt++
			for i := range x {
				x[i] *= FromReal[F](rsafmin)
			}
			beta *= rsafmin
			alphr *= rsafmin
			alphi *= rsafmin
		}
		xnorm = Nrm2(x)
		beta = -math.Copysign(lapy3(alphr, alphi, xnorm), alphr)
	}

	tau := FromParts[F]((beta-alphr)/beta, -alphi/beta)
	scal := FromReal[F](1) / (FromParts[F](alphr, alphi) - FromReal[F](beta))
	for i := range x {
		x[i] *= scal
	}
	for j := 0; j < knt; j++ {
		beta *= safmin
	}
	*alpha = FromReal[F](beta)
	return tau
}

// lapy3 returns sqrt(x^2+y^2+z^2) without unnecessary overflow.
func lapy3(x, y, z float64) float64 {
	x, y, z = math.Abs(x), math.Abs(y), math.Abs(z)
	w := math.Max(x, math.Max(y, z))
	if w == 0 {
		return 0
	}
	x, y, z = x/w, y/w, z/w
	return w * math.Sqrt(x*x+y*y+z*z)
}
