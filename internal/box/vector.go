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

// Number of columns processed per step by the lane-parallel passes.
// 16 uint16 lanes fill one 256-bit AVX2 register
const Lanes = 16

// A group of Lanes accumulators, operated on lane-wise.
// Fixed array size lets the compiler drop bounds checks and unroll
type vec [Lanes]uint16

// Loads Lanes contiguous samples starting at s[0]
func load(s []uint16) vec {
	return *(*vec)(s[:Lanes])
}

// Lane-wise addition of Lanes contiguous samples starting at s[0]
func (v *vec) add(s []uint16) {
	w := (*vec)(s[:Lanes])
	for i := range v {
		v[i] += w[i]
	}
}

// Stores all lanes to dst[0:Lanes]
func (v *vec) store(dst []uint16) {
	*(*vec)(dst[:Lanes]) = *v
}

// Divides every lane by weight, truncating like scalar division, and stores
// the narrowed result to dst[0:Lanes]
func (v *vec) divStore(dst []uint8, weight uint16) {
	d := (*[Lanes]uint8)(dst[:Lanes])
	for i := range v {
		d[i] = uint8(v[i] / weight)
	}
}

// Calls group for each aligned group of Lanes positions in [0,n), then once
// more for a final group anchored at n-Lanes if n is not a multiple of Lanes.
// That group overlaps its predecessor and recomputes identical values.
// Returns false without calling group if n<Lanes
func forEachGroup(n int, group func(offset int)) bool {
	if n < Lanes {
		return false
	}
	offset := 0
	for ; offset+Lanes <= n; offset += Lanes {
		group(offset)
	}
	if offset < n {
		group(n - Lanes)
	}
	return true
}

// Vertical pass, lane-parallel. Falls back to scalar for rows narrower than Lanes
func verticalVector(colSums []uint16, rows [][]uint16) {
	ok := forEachGroup(len(colSums), func(offset int) {
		acc := load(rows[0][offset:])
		for _, row := range rows[1:] {
			acc.add(row[offset:])
		}
		acc.store(colSums[offset:])
	})
	if !ok {
		verticalScalar(colSums, rows)
	}
}

// Horizontal pass, lane-parallel. Each group sums size shifted loads of the
// column sums. Falls back to scalar for output rows narrower than Lanes
func horizontalVector(out []uint8, colSums []uint16, size int, weight uint16) {
	ok := forEachGroup(len(out), func(offset int) {
		acc := load(colSums[offset:])
		for k := 1; k < size; k++ {
			acc.add(colSums[offset+k:])
		}
		acc.divStore(out[offset:], weight)
	})
	if !ok {
		horizontalScalar(out, colSums, size, weight)
	}
}

var vectorPasses = passes{vertical: verticalVector, horizontal: horizontalVector}

// Applies a box filter of given radius with the separable algorithm, computing
// both passes on groups of Lanes columns at a time. Bit-identical to Separable
func Vectorized(img grid.Grid[uint8], radius int) (grid.Grid[uint8], error) {
	return separableNested(img, radius, vectorPasses)
}

// Flat layout version of Vectorized
func VectorizedFlat(img grid.Flat[uint8], radius int) (grid.Flat[uint8], error) {
	return separableFlat(img, radius, vectorPasses)
}
