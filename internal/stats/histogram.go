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

package stats

import (
	"math"

	"github.com/mlnoga/boxfilter/internal/grid"
)

// Calculate histogram of 8-bit samples, one bin per value
func Histogram(g grid.Grid[uint8]) (bins [256]int32) {
	for _, row := range g {
		for _, v := range row {
			bins[v]++
		}
	}
	return bins
}

// Returns the location and the value of the histogram peak. Ties go to the lower value
func GetPeak(bins [256]int32) (x uint8, y int32) {
	maxIndex, maxValue := 0, int32(math.MinInt32)
	for i, v := range bins {
		if v > maxValue {
			maxIndex, maxValue = i, v
		}
	}
	return uint8(maxIndex), maxValue
}
