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
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mlnoga/boxfilter/internal/grid"
)

// Basic statistics on 8-bit grayscale grids
type Stats struct {
	Width  int
	Height int
	Min    float64 // Minimum
	Max    float64 // Maximum
	Mean   float64 // Mean (average)
	StdDev float64 // Standard deviation (sigma)
	Peak   uint8   // Most frequent sample value
}

// Pretty print stats to string
func (s *Stats) String() string {
	return fmt.Sprintf("%dx%d Min %.0f Max %.0f Mean %.4g StdDev %.4g Peak %d",
		s.Width, s.Height, s.Min, s.Max, s.Mean, s.StdDev, s.Peak)
}

// Calculate basic statistics for a validated grid
func Calc(g grid.Grid[uint8]) *Stats {
	data := make([]float64, 0, g.Width()*g.Height())
	for _, row := range g {
		for _, v := range row {
			data = append(data, float64(v))
		}
	}
	s := &Stats{Width: g.Width(), Height: g.Height()}
	s.Min, s.Max = floats.Min(data), floats.Max(data)
	s.Mean, s.StdDev = stat.PopMeanStdDev(data, nil)
	s.Peak, _ = GetPeak(Histogram(g))
	return s
}
