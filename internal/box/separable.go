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

package box

import (
	"github.com/mlnoga/boxfilter/internal/grid"
)

// Row kernels of a two-pass separable filter. The vertical pass sums the
// window rows into column sums of extended width, the horizontal pass turns
// column sums into one output row
type passes struct {
	vertical   func(colSums []uint16, rows [][]uint16)
	horizontal func(out []uint8, colSums []uint16, size int, weight uint16)
}

var scalarPasses = passes{vertical: verticalScalar, horizontal: horizontalScalar}

// Applies a box filter of given radius as a vertical pass followed by a
// horizontal pass over a sliding window of extended rows. O(W*H*L)
func Separable(img grid.Grid[uint8], radius int) (grid.Grid[uint8], error) {
	return separableNested(img, radius, scalarPasses)
}

// Flat layout version of Separable
func SeparableFlat(img grid.Flat[uint8], radius int) (grid.Flat[uint8], error) {
	return separableFlat(img, radius, scalarPasses)
}

func separableNested(img grid.Grid[uint8], radius int, p passes) (grid.Grid[uint8], error) {
	if err := validate(img, radius); err != nil {
		return nil, err
	}
	wide := grid.Widen(img)
	width, height := img.Width(), img.Height()
	rw := newRingWindow(func(y int) []uint16 { return wide[y] }, width, height, radius)

	out := grid.New[uint8](width, height)
	colSums := make([]uint16, width+2*radius)
	size, weight := window(radius)
	for y := 0; y < height; y++ {
		rw.push(y)
		p.vertical(colSums, rw.slots)
		p.horizontal(out[y], colSums, size, weight)
		rw.rotate()
	}
	return out, nil
}

func separableFlat(img grid.Flat[uint8], radius int, p passes) (grid.Flat[uint8], error) {
	if err := validateFlat(img, radius); err != nil {
		return grid.Flat[uint8]{}, err
	}
	wide := grid.WidenFlat(img)
	width, height := img.Width, img.Height
	rowAt := func(y int) []uint16 { return wide.Data[y*width : (y+1)*width] }
	rw := newFlatRingWindow(rowAt, width, height, radius)

	out := grid.NewFlat[uint8](width, height)
	colSums := make([]uint16, width+2*radius)
	size, weight := window(radius)
	for y := 0; y < height; y++ {
		rw.push(y)
		p.vertical(colSums, rw.slots)
		p.horizontal(out.Data[y*width:(y+1)*width], colSums, size, weight)
		rw.rotate()
	}
	return out, nil
}
