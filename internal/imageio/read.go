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

// Package imageio reads image files into 8-bit grayscale grids and writes
// grids back out, choosing the codec by file name suffix.
package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mlnoga/boxfilter/internal/grid"
)

// Enumerated type for grayscale conversion modes
type GrayMode int

const (
	GrayLuma GrayMode = iota // ITU-R 601 luma, as image/color.GrayModel
	GrayLab                  // CIE L* lightness, perceptually uniform
)

// Parses a grayscale mode name, one of "luma" or "lab"
func ParseGrayMode(s string) (GrayMode, error) {
	switch s {
	case "luma":
		return GrayLuma, nil
	case "lab":
		return GrayLab, nil
	}
	return GrayLuma, fmt.Errorf("unknown grayscale mode '%s', want luma or lab", s)
}

func (m GrayMode) String() string {
	if m == GrayLab {
		return "lab"
	}
	return "luma"
}

// Reads and decodes an image file, converting it to 8-bit grayscale
func ReadFile(fileName string, mode GrayMode) (grid.Grid[uint8], error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := Read(bufio.NewReader(f), mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return g, nil
}

// Decodes an image in any registered format, converting it to 8-bit grayscale
func Read(r io.Reader, mode GrayMode) (grid.Grid[uint8], error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return ToGray(img, mode), nil
}

// Converts an image to an 8-bit grayscale grid with the given mode
func ToGray(img image.Image, mode GrayMode) grid.Grid[uint8] {
	b := img.Bounds()
	g := grid.New[uint8](b.Dx(), b.Dy())

	if gray, ok := img.(*image.Gray); ok && mode == GrayLuma {
		for y := range g {
			start := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(g[y], gray.Pix[start:start+b.Dx()])
		}
		return g
	}

	for y := range g {
		row := g[y]
		for x := range row {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if mode == GrayLab {
				row[x] = labLightness(c)
			} else {
				row[x] = color.GrayModel.Convert(c).(color.Gray).Y
			}
		}
	}
	return g
}

// CIE L* of a color scaled to [0,255]. Fully transparent pixels map to black
func labLightness(c color.Color) uint8 {
	col, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}
	l, _, _ := col.Lab()
	v := math.Round(l * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
