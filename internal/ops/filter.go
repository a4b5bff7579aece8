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

package ops

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mlnoga/boxfilter/internal/box"
	"github.com/mlnoga/boxfilter/internal/imageio"
	"github.com/mlnoga/boxfilter/internal/stats"
)

// Common fields of all operators. The type is serialized to show settings in the log
type OpBase struct {
	Type string `json:"type"`
}

func (op *OpBase) Name() string { return op.Type }

// Load a single image from a file and convert it to grayscale
type OpLoad struct {
	OpBase
	ID       int              `json:"id"`
	FileName string           `json:"fileName"`
	Gray     imageio.GrayMode `json:"gray"`
}

func NewOpLoad(id int, fileName string, gray imageio.GrayMode) *OpLoad {
	return &OpLoad{OpBase: OpBase{Type: "load"}, ID: id, FileName: fileName, Gray: gray}
}

// Ignores any img argument provided
func (op *OpLoad) Apply(img *Image, c *Context) (*Image, error) {
	data, err := imageio.ReadFile(op.FileName, op.Gray)
	if err != nil {
		return nil, err
	}
	// some decoders accept images without pixels
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op.FileName, err)
	}
	if err := c.CheckMemory(data.Width(), data.Height()); err != nil {
		return nil, fmt.Errorf("%s: %w", op.FileName, err)
	}
	fmt.Fprintf(c.Log, "%d: Loaded %s with %v\n", op.ID, op.FileName, stats.Calc(data))
	return &Image{ID: op.ID, FileName: op.FileName, Data: data}, nil
}

// Creates promises which load the given files
func LoadPromises(fileNames []string, gray imageio.GrayMode, c *Context) []Promise {
	ps := make([]Promise, len(fileNames))
	for i, fileName := range fileNames {
		op := NewOpLoad(i, fileName, gray)
		ps[i] = func() (*Image, error) { return op.Apply(nil, c) }
	}
	return ps
}

// Apply a box filter variant with given radius
type OpBox struct {
	OpBase
	VariantName string      `json:"variant"`
	Radius      int         `json:"radius"`
	Variant     box.Variant `json:"-"`
}

func NewOpBox(v box.Variant, radius int) *OpBox {
	return &OpBox{OpBase: OpBase{Type: "box"}, VariantName: v.Name, Radius: radius, Variant: v}
}

func (op *OpBox) Apply(img *Image, c *Context) (*Image, error) {
	start := time.Now()
	data, err := op.Variant.Filter(img.Data, op.Radius)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", img.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Applied %s box filter with radius %d in %v\n", img.ID, op.Variant.Name, op.Radius, time.Since(start))
	return &Image{ID: img.ID, FileName: img.FileName, Data: data}, nil
}

// Save an image to a file. The pattern may contain %s, which is replaced
// with the base name of the input file without suffix
type OpSave struct {
	OpBase
	Pattern string `json:"pattern"`
	Quality int    `json:"quality"`
}

func NewOpSave(pattern string, quality int) *OpSave {
	return &OpSave{OpBase: OpBase{Type: "save"}, Pattern: pattern, Quality: quality}
}

// Returns the output file name for the given input file name
func (op *OpSave) FileName(input string) string {
	if !strings.Contains(op.Pattern, "%s") {
		return op.Pattern
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return strings.ReplaceAll(op.Pattern, "%s", base)
}

func (op *OpSave) Apply(img *Image, c *Context) (*Image, error) {
	fileName := op.FileName(img.FileName)
	if err := imageio.WriteFile(fileName, img.Data, op.Quality); err != nil {
		return nil, fmt.Errorf("%d: %w", img.ID, err)
	}
	fmt.Fprintf(c.Log, "%d: Wrote %s\n", img.ID, fileName)
	return img, nil
}
