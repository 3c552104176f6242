// Copyright (c) 2026 Colin McRae

package bkz

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/RaphaelK12/Elemental/matrix"
)

// ReduceRecursive tree-reduces the basis: column halves above the cutoff
// are BKZ-reduced independently in parallel and the concatenation reduced
// last. The halves share no state until the merge.
func ReduceRecursive(b *matrix.Dense[float64], cutoff int, ctrl *Ctrl) (Info, error) {
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

func reduceRecursive(b *matrix.Dense[float64], cutoff int, ctrl *Ctrl) (Info, error) {
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
	info.NumEnums += leftInfo.NumEnums + rightInfo.NumEnums
	info.NumEnumFailures += leftInfo.NumEnumFailures + rightInfo.NumEnumFailures
	return info, err
}
