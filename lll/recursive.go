// Copyright (c) 2026 Colin McRae

package lll

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/RaphaelK12/Elemental/matrix"
)

// ReduceRecursive performs a tree reduction: the columns are split into
// halves below the cutoff, each half is reduced independently (the halves
// share no state until the merge, so they run in parallel), and the
// concatenation is reduced last. Purely a work-scheduling wrapper; the
// termination and acceptance criteria are those of Reduce.
func ReduceRecursive[F matrix.Scalar](b *matrix.Dense[F], cutoff int, ctrl *Ctrl) (Info, error) {
	if ctrl == nil {
		ctrl = NewCtrl()
	}
	if err := ctrl.validate(); err != nil {
		return Info{}, err
	}
	if cutoff < 1 {
		return Info{}, fmt.Errorf("ReduceRecursive: cutoff %d below 1", cutoff)
	}
	return reduceRecursive(b, cutoff, ctrl)
}

func reduceRecursive[F matrix.Scalar](b *matrix.Dense[F], cutoff int, ctrl *Ctrl) (Info, error) {
	n := b.Cols()
	if n <= cutoff {
		return Reduce(b, ctrl)
	}

	half := n / 2
	left, err := b.ColRange(0, half)
	if err != nil {
		return Info{}, fmt.Errorf("reduceRecursive: %s", err.Error())
	}
	right, err := b.ColRange(half, n)
	if err != nil {
		return Info{}, fmt.Errorf("reduceRecursive: %s", err.Error())
	}

	var leftInfo, rightInfo Info
	var g errgroup.Group
	g.Go(func() error {
		var err error
		leftInfo, err = reduceRecursive(left, cutoff, ctrl)
		return err
	})
	g.Go(func() error {
		var err error
		rightInfo, err = reduceRecursive(right, cutoff, ctrl)
		return err
	})
	if err := g.Wait(); err != nil {
		return Info{}, err
	}

	info, err := Reduce(b, ctrl)
	info.NumSwaps += leftInfo.NumSwaps + rightInfo.NumSwaps
	return info, err
}
