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

// Package grid holds the in-memory sample grids the box filters operate on,
// in a nested row-per-slice layout and a flat contiguous layout.
package grid

import (
	"errors"
	"fmt"
)

// Validation errors. Callers match them with errors.Is
var (
	ErrInvalidRadius = errors.New("invalid radius")
	ErrEmptyImage    = errors.New("empty image")
	ErrRaggedImage   = errors.New("ragged image")
	ErrInvalidInput  = errors.New("invalid input")
)

// Sample types the filters work with. uint8 for images, uint16 as accumulator
type Sample interface {
	~uint8 | ~uint16
}

// A row-major 2D grid, one slice per row
type Grid[T Sample] [][]T

// A row-major 2D grid in a single contiguous buffer of Width*Height samples
type Flat[T Sample] struct {
	Width  int
	Height int
	Data   []T
}

// Allocates a zeroed grid with the given dimensions. Rows share one backing array
func New[T Sample](width, height int) Grid[T] {
	backing := make([]T, width*height)
	g := make(Grid[T], height)
	for y := range g {
		g[y] = backing[y*width : (y+1)*width : (y+1)*width]
	}
	return g
}

// Allocates a zeroed flat grid with the given dimensions
func NewFlat[T Sample](width, height int) Flat[T] {
	return Flat[T]{Width: width, Height: height, Data: make([]T, width*height)}
}

// Width of the grid, 0 if it has no rows
func (g Grid[T]) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height of the grid
func (g Grid[T]) Height() int { return len(g) }

// Checks the grid is non-empty and rectangular
func (g Grid[T]) Validate() error {
	if len(g) == 0 || len(g[0]) == 0 {
		return fmt.Errorf("%dx%d grid: %w", g.Width(), len(g), ErrEmptyImage)
	}
	w := len(g[0])
	for y, row := range g {
		if len(row) != w {
			return fmt.Errorf("row %d has %d samples, want %d: %w", y, len(row), w, ErrRaggedImage)
		}
	}
	return nil
}

// Returns a deep copy of the grid
func (g Grid[T]) Clone() Grid[T] {
	c := make(Grid[T], len(g))
	for y, row := range g {
		c[y] = append([]T(nil), row...)
	}
	return c
}

// Returns true if both grids have identical shape and samples
func (g Grid[T]) Equal(o Grid[T]) bool {
	if len(g) != len(o) {
		return false
	}
	for y := range g {
		if len(g[y]) != len(o[y]) {
			return false
		}
		for x := range g[y] {
			if g[y][x] != o[y][x] {
				return false
			}
		}
	}
	return true
}

// Returns the first differing coordinate, or ok=false if the grids are equal.
// Grids of different shape report (-1,-1)
func (g Grid[T]) FirstDiff(o Grid[T]) (x, y int, ok bool) {
	if len(g) != len(o) {
		return -1, -1, true
	}
	for y := range g {
		if len(g[y]) != len(o[y]) {
			return -1, -1, true
		}
		for x := range g[y] {
			if g[y][x] != o[y][x] {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// Copies a validated grid into a flat contiguous buffer
func (g Grid[T]) Flatten() Flat[T] {
	w, h := g.Width(), g.Height()
	f := NewFlat[T](w, h)
	for y, row := range g {
		copy(f.Data[y*w:(y+1)*w], row)
	}
	return f
}

// Checks the flat grid is non-empty and its buffer matches its dimensions
func (f Flat[T]) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%dx%d grid: %w", f.Width, f.Height, ErrEmptyImage)
	}
	if len(f.Data) != f.Width*f.Height {
		return fmt.Errorf("buffer has %d samples, want %dx%d: %w", len(f.Data), f.Width, f.Height, ErrRaggedImage)
	}
	return nil
}

// Returns row y as a view into the flat buffer
func (f Flat[T]) Row(y int) []T {
	return f.Data[y*f.Width : (y+1)*f.Width : (y+1)*f.Width]
}

// Returns a nested grid whose rows are views into the flat buffer. No copy
func (f Flat[T]) Rows() Grid[T] {
	g := make(Grid[T], f.Height)
	for y := range g {
		g[y] = f.Row(y)
	}
	return g
}

// Widens an 8-bit grid into the 16-bit accumulator type
func Widen(g Grid[uint8]) Grid[uint16] {
	w := New[uint16](g.Width(), g.Height())
	for y, row := range g {
		wrow := w[y]
		for x, v := range row {
			wrow[x] = uint16(v)
		}
	}
	return w
}

// Widens an 8-bit flat grid into the 16-bit accumulator type
func WidenFlat(f Flat[uint8]) Flat[uint16] {
	w := NewFlat[uint16](f.Width, f.Height)
	for i, v := range f.Data {
		w.Data[i] = uint16(v)
	}
	return w
}

// Clamps x into [lo, hi]
func Clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
