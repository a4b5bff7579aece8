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
	"github.com/mlnoga/boxfilter/internal/border"
	"github.com/mlnoga/boxfilter/internal/grid"
)

// Applies a box filter of given radius by summing the full LxL window for
// every output pixel. O(W*H*L^2). Serves as reference for the faster variants
func Naive(img grid.Grid[uint8], radius int) (grid.Grid[uint8], error) {
	if err := validate(img, radius); err != nil {
		return nil, err
	}
	ext, err := border.Extend2D(grid.Widen(img), radius, radius)
	if err != nil {
		return nil, err
	}

	size, weight := window(radius)
	width, height := img.Width(), img.Height()
	out := grid.New[uint8](width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum := uint16(0)
			for _, row := range ext[y : y+size] {
				for _, v := range row[x : x+size] {
					sum += v
				}
			}
			out[y][x] = uint8(sum / weight)
		}
	}
	return out, nil
}

// Flat layout version of Naive
func NaiveFlat(img grid.Flat[uint8], radius int) (grid.Flat[uint8], error) {
	if err := validateFlat(img, radius); err != nil {
		return grid.Flat[uint8]{}, err
	}
	ext, err := border.ExtendFlat(grid.WidenFlat(img), radius, radius)
	if err != nil {
		return grid.Flat[uint8]{}, err
	}

	size, weight := window(radius)
	out := grid.NewFlat[uint8](img.Width, img.Height)
	stride := ext.Width
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			sum := uint16(0)
			for dy := 0; dy < size; dy++ {
				offset := (y+dy)*stride + x
				for _, v := range ext.Data[offset : offset+size] {
					sum += v
				}
			}
			out.Data[y*img.Width+x] = uint8(sum / weight)
		}
	}
	return out, nil
}
