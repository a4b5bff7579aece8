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

// A sliding window of the L=2r+1 horizontally extended source rows around
// the output row being produced. Slots are reused in place: advancing the
// window extends the next source row into the logically oldest slot and
// rotates the start index. No source row is extended more than once.
type ringWindow struct {
	slots  [][]uint16           // L extended rows of width W+2r
	start  int                  // slot index of the logically oldest row
	radius int                  // horizontal and vertical margin
	height int                  // number of source rows
	rowAt  func(y int) []uint16 // source row accessor
}

// Creates a window with one separately allocated buffer per slot
func newRingWindow(rowAt func(int) []uint16, width, height, radius int) *ringWindow {
	size := 2*radius + 1
	slots := make([][]uint16, size)
	for i := range slots {
		slots[i] = make([]uint16, width+2*radius)
	}
	return initRingWindow(slots, rowAt, height, radius)
}

// Creates a window whose slots are views into one contiguous buffer
func newFlatRingWindow(rowAt func(int) []uint16, width, height, radius int) *ringWindow {
	size, extWidth := 2*radius+1, width+2*radius
	backing := make([]uint16, size*extWidth)
	slots := make([][]uint16, size)
	for i := range slots {
		slots[i] = backing[i*extWidth : (i+1)*extWidth : (i+1)*extWidth]
	}
	return initRingWindow(slots, rowAt, height, radius)
}

// Fills the first L-1 slots with the rows above output row 0, replicating
// row 0 for positions above the image. The last slot is filled by the first advance
func initRingWindow(slots [][]uint16, rowAt func(int) []uint16, height, radius int) *ringWindow {
	rw := &ringWindow{slots: slots, radius: radius, height: height, rowAt: rowAt}
	for k := 0; k < len(slots)-1; k++ {
		src := grid.Clamp(k-radius, 0, height-1)
		border.Extend1DInto(slots[k], rowAt(src), radius)
	}
	return rw
}

// Moves the window to be centered on output row y, by extending source row
// y+r into the slot past the newest one. That slot holds the logically oldest
// row, which dropped out of the window on the previous rotate. Must be
// called for y=0,1,2,... in order, alternating with rotate
func (rw *ringWindow) push(y int) {
	size := len(rw.slots)
	last := (rw.start + size - 1) % size
	src := grid.Clamp(y+rw.radius, 0, rw.height-1)
	border.Extend1DInto(rw.slots[last], rw.rowAt(src), rw.radius)
}

// Advances the start index. The oldest row becomes the slot the next push replaces
func (rw *ringWindow) rotate() {
	rw.start = (rw.start + 1) % len(rw.slots)
}

// Returns logical row i of the window after a push, with 0 the topmost
// (source row y-r) and L-1 the bottommost (source row y+r)
func (rw *ringWindow) row(i int) []uint16 {
	return rw.slots[(rw.start+i)%len(rw.slots)]
}
