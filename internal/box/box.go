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

// Package box implements the box (mean) filter over 8-bit grayscale grids
// with several strategies: a naive 2D convolution as reference, a separable
// sliding-window filter, and a lane-parallel version of the latter. Each
// strategy comes in a nested-rows and a flat-buffer memory layout.
//
// All variants are pure functions and produce bit-identical results.
// Sums are accumulated in uint16: with radius at most 7 the largest
// possible sum is 15*15*255 = 57375.
package box

import (
	"fmt"

	"github.com/mlnoga/boxfilter/internal/grid"
)

// Largest supported radius. A larger window could overflow the uint16 accumulator
const MaxRadius = 7

// Checks the radius precondition
func ValidateRadius(radius int) error {
	if radius < 0 || radius > MaxRadius {
		return fmt.Errorf("radius %d outside [0,%d]: %w", radius, MaxRadius, grid.ErrInvalidRadius)
	}
	return nil
}

// Checks all preconditions of a filter call on a nested grid
func validate(img grid.Grid[uint8], radius int) error {
	if err := ValidateRadius(radius); err != nil {
		return err
	}
	return img.Validate()
}

// Checks all preconditions of a filter call on a flat grid
func validateFlat(img grid.Flat[uint8], radius int) error {
	if err := ValidateRadius(radius); err != nil {
		return err
	}
	return img.Validate()
}

// Side length L=2r+1 and weight L*L of the box window
func window(radius int) (size int, weight uint16) {
	size = 2*radius + 1
	return size, uint16(size * size)
}

// Horizontal pass, scalar. Sums size consecutive column sums starting at each
// output position, divides by the weight and stores the mean
func horizontalScalar(out []uint8, colSums []uint16, size int, weight uint16) {
	for x := range out {
		sum := uint16(0)
		for _, v := range colSums[x : x+size] {
			sum += v
		}
		out[x] = uint8(sum / weight)
	}
}

// Vertical pass, scalar. Sums the rows of the window column by column
func verticalScalar(colSums []uint16, rows [][]uint16) {
	copy(colSums, rows[0])
	for _, row := range rows[1:] {
		row = row[:len(colSums)]
		for x, v := range row {
			colSums[x] += v
		}
	}
}
