// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package border replicates edge samples outward, so filter loops
// never need to special-case pixels near the image boundary.
package border

import (
	"fmt"

	"github.com/mlnoga/boxfilter/internal/grid"
)

// Extends a sequence by margin copies of its first element on the left,
// and margin copies of its last element on the right. Returns a new slice
func Extend1D[T grid.Sample](seq []T, margin int) ([]T, error) {
	if err := check(len(seq), margin); err != nil {
		return nil, err
	}
	out := make([]T, len(seq)+2*margin)
	Extend1DInto(out, seq, margin)
	return out, nil
}

// Like Extend1D, but writes into dst, which must have length len(seq)+2*margin.
// Does not allocate. Panics on a length mismatch
func Extend1DInto[T grid.Sample](dst, seq []T, margin int) {
	if len(dst) != len(seq)+2*margin {
		panic(fmt.Sprintf("border: dst has length %d, want %d", len(dst), len(seq)+2*margin))
	}
	first, last := seq[0], seq[len(seq)-1]
	for i := 0; i < margin; i++ {
		dst[i] = first
	}
	copy(dst[margin:], seq)
	right := dst[margin+len(seq):]
	for i := range right {
		right[i] = last
	}
}

// Extends every row by hMargin, then the sequence of rows by vMargin.
// Replicated edge rows are copies, not aliases of the edge row
func Extend2D[T grid.Sample](g grid.Grid[T], hMargin, vMargin int) (grid.Grid[T], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := check(g.Width(), hMargin); err != nil {
		return nil, err
	}
	if err := check(g.Height(), vMargin); err != nil {
		return nil, err
	}

	w, h := g.Width()+2*hMargin, g.Height()+2*vMargin
	out := grid.New[T](w, h)
	for y := 0; y < h; y++ {
		src := grid.Clamp(y-vMargin, 0, g.Height()-1)
		Extend1DInto(out[y], g[src], hMargin)
	}
	return out, nil
}

// Flat layout version of Extend2D
func ExtendFlat[T grid.Sample](f grid.Flat[T], hMargin, vMargin int) (grid.Flat[T], error) {
	if err := f.Validate(); err != nil {
		return grid.Flat[T]{}, err
	}
	if err := check(f.Width, hMargin); err != nil {
		return grid.Flat[T]{}, err
	}
	if err := check(f.Height, vMargin); err != nil {
		return grid.Flat[T]{}, err
	}

	out := grid.NewFlat[T](f.Width+2*hMargin, f.Height+2*vMargin)
	for y := 0; y < out.Height; y++ {
		src := grid.Clamp(y-vMargin, 0, f.Height-1)
		Extend1DInto(out.Row(y), f.Row(src), hMargin)
	}
	return out, nil
}

func check(length, margin int) error {
	if margin < 0 {
		return fmt.Errorf("margin %d is negative: %w", margin, grid.ErrInvalidInput)
	}
	if length < 1 {
		return fmt.Errorf("cannot extend empty sequence: %w", grid.ErrInvalidInput)
	}
	return nil
}
