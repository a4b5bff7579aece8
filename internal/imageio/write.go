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

package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/mlnoga/boxfilter/internal/grid"
)

// Output formats
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatTIFF
	FormatBMP
)

// Determines the output format from the file name suffix
func FormatFromFileName(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".bmp":
		return FormatBMP, nil
	}
	return FormatPNG, fmt.Errorf("unsupported output suffix for '%s', want .png, .jpg, .tif or .bmp", fileName)
}

// Converts a validated grid into a Golang grayscale image
func ToImage(g grid.Grid[uint8]) *image.Gray {
	width, height := g.Width(), g.Height()
	img := image.NewGray(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	for y, row := range g {
		copy(img.Pix[y*img.Stride:y*img.Stride+width], row)
	}
	return img
}

// Write a grid to a file, choosing the format by suffix. JPEG uses the given quality
func WriteFile(fileName string, g grid.Grid[uint8], quality int) error {
	format, err := FormatFromFileName(fileName)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := Write(writer, g, format, quality); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// Write a grid in the given format
func Write(writer io.Writer, g grid.Grid[uint8], format Format, quality int) error {
	img := ToImage(g)
	switch format {
	case FormatJPEG:
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
	case FormatTIFF:
		return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(writer, img)
	default:
		return png.Encode(writer, img)
	}
}
