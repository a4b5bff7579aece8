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

// Package bench times box filter variants. Each sample calls the filter a
// fixed number of times; the per-call duration of the fastest sample is the
// headline figure, as it is least disturbed by the rest of the system.
package bench

import (
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mlnoga/boxfilter/internal/box"
	"github.com/mlnoga/boxfilter/internal/grid"
)

// Number of samples, and filter calls per sample
type Config struct {
	Samples    int `json:"samples"`
	Iterations int `json:"iterations"`
}

func (c Config) validate() error {
	if c.Samples < 1 || c.Iterations < 1 {
		return fmt.Errorf("need at least one sample and one iteration, have %d and %d", c.Samples, c.Iterations)
	}
	return nil
}

// Timing of one variant. Durations are per filter call
type Result struct {
	Name   string
	Radius int
	Min    time.Duration
	Mean   time.Duration
	StdDev time.Duration
	Output grid.Grid[uint8] // Result of the first call, all others are equal
}

func (r *Result) String() string {
	return fmt.Sprintf("%-16s r=%d min %v mean %v stddev %v", r.Name, r.Radius, r.Min, r.Mean, r.StdDev)
}

// Returned when a filter yields different output for the same input
var ErrNondeterministic = errors.New("filter output differs between calls")

// Times a filter function. Every call must produce the same output,
// else returns ErrNondeterministic
func Run(name string, f box.Func, img grid.Grid[uint8], radius int, c Config) (*Result, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	perCall := make([]float64, c.Samples)
	var first grid.Grid[uint8]
	for s := 0; s < c.Samples; s++ {
		var elapsed time.Duration
		for i := 0; i < c.Iterations; i++ {
			start := time.Now()
			out, err := f(img, radius)
			elapsed += time.Since(start)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}

			// compare outside the timed section
			if first == nil {
				first = out
			} else if x, y, diff := first.FirstDiff(out); diff {
				return nil, fmt.Errorf("%s sample %d call %d at (%d,%d): %w", name, s, i, x, y, ErrNondeterministic)
			}
		}
		perCall[s] = float64(elapsed) / float64(c.Iterations)
	}

	mean, stdDev := stat.PopMeanStdDev(perCall, nil)
	return &Result{
		Name:   name,
		Radius: radius,
		Min:    time.Duration(floats.Min(perCall)),
		Mean:   time.Duration(mean),
		StdDev: time.Duration(stdDev),
		Output: first,
	}, nil
}

// Times all given variants on the same input, and checks their outputs
// agree with the first variant's
func RunAll(vs []box.Variant, img grid.Grid[uint8], radius int, c Config) ([]*Result, error) {
	results := make([]*Result, 0, len(vs))
	for _, v := range vs {
		r, err := Run(v.Name, v.Filter, img, radius, c)
		if err != nil {
			return results, err
		}
		if len(results) > 0 {
			if x, y, diff := results[0].Output.FirstDiff(r.Output); diff {
				return results, fmt.Errorf("%s differs from %s at (%d,%d)", v.Name, results[0].Name, x, y)
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// Returns how many times faster r is than the baseline, by minimum duration
func Speedup(baseline, r *Result) float64 {
	if r.Min <= 0 {
		return 0
	}
	return float64(baseline.Min) / float64(r.Min)
}

// Generates a random test image with the given dimensions. A zero seed picks a random one
func RandomImage(width, height int, seed uint32) grid.Grid[uint8] {
	rng := fastrand.RNG{}
	rng.Seed(seed)
	img := grid.New[uint8](width, height)
	for y := range img {
		for x := range img[y] {
			img[y][x] = uint8(rng.Uint32n(256))
		}
	}
	return img
}
