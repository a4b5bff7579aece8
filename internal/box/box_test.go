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
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"

	"github.com/mlnoga/boxfilter/internal/grid"
)

// Fills a grid of given size with random samples
func randomImage(rng *fastrand.RNG, width, height int) grid.Grid[uint8] {
	img := grid.New[uint8](width, height)
	for y := range img {
		for x := range img[y] {
			img[y][x] = uint8(rng.Uint32n(256))
		}
	}
	return img
}

func constantImage(width, height int, v uint8) grid.Grid[uint8] {
	img := grid.New[uint8](width, height)
	for y := range img {
		for x := range img[y] {
			img[y][x] = v
		}
	}
	return img
}

func TestGoldenCenterPeak(t *testing.T) {
	img := grid.Grid[uint8]{
		{0, 0, 0},
		{0, 255, 0},
		{0, 0, 0},
	}
	// every 3x3 window of the replicated image contains the peak exactly once
	want := grid.Grid[uint8]{
		{28, 28, 28},
		{28, 28, 28},
		{28, 28, 28},
	}
	for _, v := range Variants() {
		got, err := v.Filter(img, 1)
		require.NoError(t, err, v.Name)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", v.Name, diff)
		}
	}
}

func TestGoldenSingleRow(t *testing.T) {
	img := grid.Grid[uint8]{{0, 90, 180, 255}}
	want := grid.Grid[uint8]{{30, 90, 175, 230}}
	for _, v := range Variants() {
		got, err := v.Filter(img, 1)
		require.NoError(t, err, v.Name)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", v.Name, diff)
		}
	}
}

func TestRadiusZeroIsIdentity(t *testing.T) {
	rng := fastrand.RNG{}
	img := randomImage(&rng, 37, 11)
	for _, v := range Variants() {
		got, err := v.Filter(img, 0)
		require.NoError(t, err, v.Name)
		if diff := cmp.Diff(img, got); diff != "" {
			t.Errorf("%s r=0 changed the image (-want +got):\n%s", v.Name, diff)
		}
	}
}

func TestConstantImageIsInvariant(t *testing.T) {
	values := []uint8{0, 1, 127, 254, 255}
	for _, v := range Variants() {
		for _, value := range values {
			for radius := 0; radius <= MaxRadius; radius++ {
				img := constantImage(19, 5, value)
				got, err := v.Filter(img, radius)
				require.NoError(t, err)
				if !got.Equal(img) {
					t.Errorf("%s value=%d r=%d: constant image not preserved", v.Name, value, radius)
				}
			}
		}
	}
}

// All variants agree with the naive reference, for widths below, at and
// above multiples of the lane count, and for images smaller than the window
func TestVariantsMatchNaive(t *testing.T) {
	rng := fastrand.RNG{}
	widths := []int{1, 2, 3, Lanes - 1, Lanes, Lanes + 1, 2*Lanes - 3, 2 * Lanes, 2*Lanes + 5, 100}
	heights := []int{1, 2, 7, Lanes, 23}

	for _, width := range widths {
		for _, height := range heights {
			img := randomImage(&rng, width, height)
			for radius := 0; radius <= MaxRadius; radius++ {
				want, err := Naive(img, radius)
				require.NoError(t, err)
				for _, v := range Variants() {
					got, err := v.Filter(img, radius)
					require.NoError(t, err)
					if x, y, diff := want.FirstDiff(got); diff {
						t.Errorf("%s %dx%d r=%d: first difference at (%d,%d)", v.Name, width, height, radius, x, y)
					}
				}
			}
		}
	}
}

func TestFlatMatchesNested(t *testing.T) {
	rng := fastrand.RNG{}
	img := randomImage(&rng, 45, 17)
	flat := img.Flatten()

	type pair struct {
		nested func(grid.Grid[uint8], int) (grid.Grid[uint8], error)
		flat   func(grid.Flat[uint8], int) (grid.Flat[uint8], error)
	}
	pairs := map[string]pair{
		"naive":     {Naive, NaiveFlat},
		"separable": {Separable, SeparableFlat},
		"vector":    {Vectorized, VectorizedFlat},
	}
	for name, p := range pairs {
		for radius := 0; radius <= MaxRadius; radius++ {
			n, err := p.nested(img, radius)
			require.NoError(t, err)
			f, err := p.flat(flat, radius)
			require.NoError(t, err)
			assert.Equal(t, img.Width(), f.Width)
			assert.Equal(t, img.Height(), f.Height)
			if diff := cmp.Diff(n, f.Rows()); diff != "" {
				t.Errorf("%s r=%d flat differs from nested (-nested +flat):\n%s", name, radius, diff)
			}
		}
	}
}

func TestRejectsInvalidInput(t *testing.T) {
	valid := constantImage(4, 4, 9)
	ragged := constantImage(4, 4, 9)
	ragged[2] = ragged[2][:3]

	tcs := []struct {
		name   string
		img    grid.Grid[uint8]
		radius int
		want   error
	}{
		{"radius 8", valid, 8, grid.ErrInvalidRadius},
		{"radius -1", valid, -1, grid.ErrInvalidRadius},
		{"no rows", grid.Grid[uint8]{}, 1, grid.ErrEmptyImage},
		{"nil", nil, 1, grid.ErrEmptyImage},
		{"zero width", grid.Grid[uint8]{{}, {}}, 1, grid.ErrEmptyImage},
		{"ragged", ragged, 1, grid.ErrRaggedImage},
	}
	for _, v := range Variants() {
		for _, tc := range tcs {
			got, err := v.Filter(tc.img, tc.radius)
			if !errors.Is(err, tc.want) {
				t.Errorf("%s %s: err=%v; want %v", v.Name, tc.name, err, tc.want)
			}
			if got != nil {
				t.Errorf("%s %s: returned partial output", v.Name, tc.name)
			}
		}
	}
}

func TestFlatRejectsInvalidInput(t *testing.T) {
	short := grid.Flat[uint8]{Width: 4, Height: 4, Data: make([]uint8, 15)}
	empty := grid.Flat[uint8]{Width: 0, Height: 4}
	fs := []func(grid.Flat[uint8], int) (grid.Flat[uint8], error){NaiveFlat, SeparableFlat, VectorizedFlat}
	for i, f := range fs {
		_, err := f(short, 1)
		assert.ErrorIs(t, err, grid.ErrRaggedImage, "filter %d", i)
		_, err = f(empty, 1)
		assert.ErrorIs(t, err, grid.ErrEmptyImage, "filter %d", i)
		_, err = f(grid.NewFlat[uint8](3, 3), MaxRadius+1)
		assert.ErrorIs(t, err, grid.ErrInvalidRadius, "filter %d", i)
	}
}

func TestInputIsNotModified(t *testing.T) {
	rng := fastrand.RNG{}
	img := randomImage(&rng, 33, 9)
	orig := img.Clone()
	for _, v := range Variants() {
		_, err := v.Filter(img, 3)
		require.NoError(t, err)
		require.True(t, img.Equal(orig), "%s modified its input", v.Name)
	}
}

func TestRepeatedCallsAreIdentical(t *testing.T) {
	rng := fastrand.RNG{}
	img := randomImage(&rng, 40, 13)
	for _, v := range Variants() {
		first, err := v.Filter(img, 2)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := v.Filter(img, 2)
			require.NoError(t, err)
			require.True(t, first.Equal(again), "%s call %d differs", v.Name, i)
		}
	}
}

func TestRingWindowRows(t *testing.T) {
	height, width := 6, 4
	src := grid.New[uint16](width, height)
	for y := range src {
		for x := range src[y] {
			src[y][x] = uint16(10*y + x)
		}
	}
	for radius := 0; radius <= 3; radius++ {
		for _, flat := range []bool{false, true} {
			mk := newRingWindow
			if flat {
				mk = newFlatRingWindow
			}
			rw := mk(func(y int) []uint16 { return src[y] }, width, height, radius)
			for y := 0; y < height; y++ {
				rw.push(y)
				for i := 0; i < 2*radius+1; i++ {
					want := src[grid.Clamp(y-radius+i, 0, height-1)]
					row := rw.row(i)
					require.Len(t, row, width+2*radius)
					assert.Equal(t, want, row[radius:radius+width], "r=%d y=%d i=%d flat=%v", radius, y, i, flat)
				}
				rw.rotate()
			}
		}
	}
}

func TestForEachGroup(t *testing.T) {
	tcs := []struct {
		n    int
		want []int
	}{
		{Lanes - 1, nil},
		{Lanes, []int{0}},
		{Lanes + 1, []int{0, 1}},
		{2 * Lanes, []int{0, Lanes}},
		{2*Lanes + 3, []int{0, Lanes, Lanes + 3}},
	}
	for _, tc := range tcs {
		var got []int
		ok := forEachGroup(tc.n, func(offset int) { got = append(got, offset) })
		assert.Equal(t, tc.want != nil, ok, "n=%d", tc.n)
		assert.Equal(t, tc.want, got, "n=%d", tc.n)
	}
}

func TestRegistry(t *testing.T) {
	vs := Variants()
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	assert.Equal(t, []string{NameNaive, NameSeparable, NameSeparableFlat, NameVector, NameVectorFlat}, names)

	_, err := Lookup("gaussian")
	assert.Error(t, err)
	assert.Panics(t, func() { Register(Variant{Name: NameNaive}) })

	best := Best()
	assert.Contains(t, []string{NameSeparableFlat, NameVectorFlat}, best.Name)
}

func BenchmarkVariants(b *testing.B) {
	rng := fastrand.RNG{}
	img := randomImage(&rng, 640, 480)
	for _, v := range Variants() {
		for _, radius := range []int{1, 3, 7} {
			b.Run(fmt.Sprintf("%s/r=%d", v.Name, radius), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					if _, err := v.Filter(img, radius); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
