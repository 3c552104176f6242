// Copyright (c) 2026 Colin McRae

// Package lll computes LLL-reduced bases of integer, real, and complex
// lattices given as the columns of a dense basis matrix.
//
// A reduced basis, say D, is an LLL(delta) reduction of an m x n matrix B if
//
//	B U = D = Q R,
//
// where U is unimodular (integer-valued with absolute determinant of 1) and
// Q R is a floating-point QR factorization of D that satisfies the three
// properties:
//
//  1. R has non-negative diagonal.
//
//  2. R is (eta) size-reduced:
//     | R(i,j) / R(i,i) | < phi(F) eta for all i < j,
//     where phi(F) is 1 for a real field F and sqrt(2) for a complex one.
//
//  3. R is (delta) Lovasz reduced:
//     delta R(i,i)^2 <= R(i+1,i+1)^2 + |R(i,i+1)|^2 for all i.
//
// Linearly dependent columns are handled in the manner of the "MLLL"
// generalization (see Cohen, "A course in computational algebraic number
// theory"): a column whose size-reduced norm falls at or below ZeroTol is
// zeroed and retired to the trailing position, and the nullity count grows.
package lll

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// ErrPrecision reports that the working precision is insufficient for the
// requested reduction. There is no local recovery; the documented remedy is
// retrying in higher precision.
var ErrPrecision = errors.New("lll: insufficient working precision")

// Variant selects the strength of the reduction.
type Variant int

const (
	// VariantWeak only bounds |R(k-1,k) / R(k-1,k-1)|. It is cheaper but
	// often produces much lower-quality basis vectors.
	VariantWeak Variant = iota
	// VariantNormal is the standard LLL size reduction.
	VariantNormal
	// VariantDeep enables deep insertion in the manner of Schnorr and
	// Euchner's "Lattice Basis Reduction: Improved Practical Algorithms and
	// Solving Subset Sum Problems". No longer guaranteed polynomial time,
	// but produces significantly higher-quality bases.
	VariantDeep
	// VariantDeepReduce additionally re-runs size reduction before testing
	// deep insertion conditions. See Schnorr's "Progress on LLL and Lattice
	// Reduction" in the book "The LLL Algorithm".
	VariantDeepReduce
)

func (v Variant) String() string {
	switch v {
	case VariantWeak:
		return "weak"
	case VariantNormal:
		return "normal"
	case VariantDeep:
		return "deep"
	case VariantDeepReduce:
		return "deep-reduce"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Ctrl configures a reduction. NewCtrl returns the defaults; a zero Ctrl is
// not valid.
type Ctrl struct {
	// Delta is the Lovasz strictness, in (1/4, 1).
	Delta float64
	// Eta is the size-reduction looseness, at least 1/2. The default sits
	// slightly above 1/2 to keep rounding decisions stable.
	Eta float64

	Variant Variant

	// Presort pre-orders the columns by norm before reduction, which can
	// greatly decrease the number of swaps in some circumstances.
	// SmallestFirst picks ascending order.
	Presort       bool
	SmallestFirst bool

	// ReorthogTol re-runs the size reduction of a column whenever the
	// reduced two-norm is at most ReorthogTol times the original two-norm,
	// guarding against catastrophic cancellation. Zero disables the retry.
	ReorthogTol float64

	// NumOrthog is the number of size-reduction passes per column.
	NumOrthog int

	// ZeroTol is the norm at or below which a size-reduced column is
	// interpreted as the zero vector (and forced to zero).
	ZeroTol float64

	// Progress emits diagnostic events on Log while reducing.
	Progress bool
	// Time accumulates per-phase timings into Info.Timing.
	Time bool

	// Jumpstart assumes the first StartCol columns are already processed.
	// The blocked engine in this package does not support it and rejects a
	// ctrl with Jumpstart set before mutating anything.
	Jumpstart bool
	StartCol  int

	// Log receives progress events when Progress is set. Nil means no
	// logging; the engine never touches a process-global logger.
	Log *zerolog.Logger
}

// NewCtrl returns the default control parameters: delta=3/4, eta and
// zeroTol derived from the machine epsilon of the working field.
func NewCtrl() *Ctrl {
	epsPow := math.Pow(0x1p-52, 0.9)
	return &Ctrl{
		Delta:         0.75,
		Eta:           0.5 + epsPow,
		Variant:       VariantNormal,
		SmallestFirst: true,
		NumOrthog:     1,
		ZeroTol:       epsPow,
	}
}

func (c *Ctrl) validate() error {
	if !(c.Delta > 0.25 && c.Delta < 1) {
		return fmt.Errorf("lll: delta = %v outside (1/4, 1)", c.Delta)
	}
	if c.Eta < 0.5 {
		return fmt.Errorf("lll: eta = %v below 1/2", c.Eta)
	}
	if c.ZeroTol < 0 {
		return fmt.Errorf("lll: negative zeroTol %v", c.ZeroTol)
	}
	if c.Jumpstart {
		return errors.New("lll: the blocked algorithm does not support jumpstarting")
	}
	return nil
}

func (c *Ctrl) logger() *zerolog.Logger {
	if c.Progress && c.Log != nil {
		return c.Log
	}
	nop := zerolog.Nop()
	return &nop
}

// Timing holds the per-phase durations of a reduction, collected when
// Ctrl.Time is set. It replaces any notion of global timers: each call owns
// its own instance.
type Timing struct {
	ApplyHouse time.Duration
	FormSInv   time.Duration
	Round      time.Duration
}

// Info summarizes a completed reduction.
type Info struct {
	// Delta and Eta are the tightest parameters the returned basis actually
	// satisfies, which are at least as strong as the requested ones.
	Delta float64
	Eta   float64
	// Rank and Nullity partition the columns; the Nullity detected
	// zero/dependent columns occupy the trailing positions of the basis.
	Rank    int
	Nullity int
	// NumSwaps counts column swaps, including zero-column retirements.
	NumSwaps int
	// LogVol is the log of the covolume: the sum of log R(i,i) over the
	// Rank leading diagonal entries.
	LogVol float64

	Timing Timing
}
