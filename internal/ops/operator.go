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
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/pbnjay/memory"

	"github.com/mlnoga/boxfilter/internal/box"
	"github.com/mlnoga/boxfilter/internal/grid"
)

// An execution context for operators
type Context struct {
	Log          io.Writer
	MemoryMB     int // memory.TotalMemory()/1024/1024
	WorkMemoryMB int // MemoryMB*7/10
	MaxThreads   int `json:"maxThreads"`
}

func NewContext(log io.Writer) *Context {
	memoryMB := int(memory.TotalMemory() / 1024 / 1024)
	return &Context{
		Log:          log,
		MemoryMB:     memoryMB,
		WorkMemoryMB: memoryMB * 7 / 10,
		MaxThreads:   runtime.GOMAXPROCS(0),
	}
}

// Bytes of working memory one filter call needs per pixel: the 8-bit input,
// its 16-bit widened copy and the 8-bit output
const BytesPerPixel = 4

// Bytes of working memory for filtering an image of given size. On top of
// BytesPerPixel, the naive filter holds a 16-bit copy extended by the radius
// on every side. Sized for the largest radius, so it holds for every variant
func WorkingSetBytes(width, height int) int {
	extWidth, extHeight := width+2*box.MaxRadius, height+2*box.MaxRadius
	return width*height*BytesPerPixel + 2*extWidth*extHeight
}

// Checks the working set for filtering an image of given size fits into the
// memory budget. Images are processed whole, never in tiles
func (c *Context) CheckMemory(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%dx%d image: %w", width, height, grid.ErrEmptyImage)
	}
	if c.WorkMemoryMB <= 0 {
		return nil
	}
	neededMB := (WorkingSetBytes(width, height) + 1024*1024 - 1) / (1024 * 1024)
	if neededMB*c.MaxThreads > c.WorkMemoryMB {
		return fmt.Errorf("%dx%d image needs %d MB per thread, %d threads exceed the %d MB budget",
			width, height, neededMB, c.MaxThreads, c.WorkMemoryMB)
	}
	return nil
}

// An image moving through a pipeline, with its sequential ID and file name for log output
type Image struct {
	ID       int
	FileName string
	Data     grid.Grid[uint8]
}

// A promise for an image. Returns a materialized image, or an error
type Promise func() (img *Image, err error)

// Materializes all promises with given concurrency limit. Failed promises
// are dropped from the output, and their errors joined into one
func MaterializeAll(ins []Promise, maxThreads int, forget bool) (outs []*Image, err error) {
	if len(ins) == 0 {
		return nil, nil
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	if !forget {
		outs = make([]*Image, len(ins))
	}
	limiter := make(chan bool, maxThreads)
	errs := make(chan error, len(ins))
	for i, in := range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			img, err := theIn() // materialize the promise
			if err != nil {
				errs <- err
				return
			}
			if !forget {
				outs[i] = img
			}
			errs <- nil
		}(i, in)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}
	for i := 0; i < len(ins); i++ { // collect errors
		e := <-errs
		if e != nil {
			if err == nil {
				err = e
			} else {
				err = errors.New(fmt.Sprintf("%s; %s", err.Error(), e.Error()))
			}
		}
	}
	return RemoveNils(outs), err
}

// Remove nils from an array of images, editing the underlying array in place
func RemoveNils(imgs []*Image) []*Image {
	o := 0
	for i := 0; i < len(imgs); i++ {
		if imgs[i] != nil {
			imgs[o] = imgs[i]
			o++
		}
	}
	for i := o; i < len(imgs); i++ {
		imgs[i] = nil
	}
	return imgs[:o]
}

// An image processing operator: given a materialized image, produces a new
// image or an error. Returning nil, nil drops the image
type Operator interface {
	Name() string
	Apply(img *Image, c *Context) (*Image, error)
}

// Wraps a promise with an operator
func MakePromise(in Promise, op Operator, c *Context) Promise {
	return func() (*Image, error) {
		img, err := in() // materialize input promise
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, nil
		}
		return op.Apply(img, c) // apply operator
	}
}

// Chains operators onto each of the input promises
func MakePromises(ins []Promise, c *Context, operators ...Operator) []Promise {
	outs := make([]Promise, len(ins))
	for i, in := range ins {
		out := in
		for _, op := range operators {
			out = MakePromise(out, op, c)
		}
		outs[i] = out
	}
	return outs
}
