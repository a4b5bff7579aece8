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
	"fmt"
	"sort"

	"github.com/mlnoga/boxfilter/internal/grid"
)

// A box filter entry point on nested grids
type Func func(img grid.Grid[uint8], radius int) (grid.Grid[uint8], error)

// A named filter strategy, for selection on the command line and benchmarking
type Variant struct {
	Name        string
	Description string
	Filter      Func
}

// Names of the built-in variants
const (
	NameNaive         = "naive"
	NameSeparable     = "separable"
	NameSeparableFlat = "separable-flat"
	NameVector        = "vector"
	NameVectorFlat    = "vector-flat"
)

// Mapping from variant names to variants
var variants = map[string]Variant{}

// Registers a variant under its name. Panics on duplicate names
func Register(v Variant) {
	if _, ok := variants[v.Name]; ok {
		panic(fmt.Sprintf("error: re-registering box filter variant %s\n", v.Name))
	}
	variants[v.Name] = v
}

// Returns the variant with the given name
func Lookup(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown box filter variant '%s'", name)
	}
	return v, nil
}

// Returns all registered variants, sorted by name
func Variants() []Variant {
	vs := make([]Variant, 0, len(variants))
	for _, v := range variants {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].Name < vs[j].Name })
	return vs
}

// Returns the variant expected to be fastest on this CPU
func Best() Variant {
	v, err := Lookup(bestName())
	if err != nil {
		panic(err)
	}
	return v
}

// Adapts a flat layout filter to the nested grid signature. Validates before
// flattening, as a ragged grid cannot be flattened
func nestedFromFlat(f func(grid.Flat[uint8], int) (grid.Flat[uint8], error)) Func {
	return func(img grid.Grid[uint8], radius int) (grid.Grid[uint8], error) {
		if err := validate(img, radius); err != nil {
			return nil, err
		}
		out, err := f(img.Flatten(), radius)
		if err != nil {
			return nil, err
		}
		return out.Rows(), nil
	}
}

func init() {
	Register(Variant{NameNaive, "reference 2D convolution, O(W*H*L^2)", Naive})
	Register(Variant{NameSeparable, "separable sliding window, nested rows", Separable})
	Register(Variant{NameSeparableFlat, "separable sliding window, flat buffers", nestedFromFlat(SeparableFlat)})
	Register(Variant{NameVector, fmt.Sprintf("separable, %d lanes per step, nested rows", Lanes), Vectorized})
	Register(Variant{NameVectorFlat, fmt.Sprintf("separable, %d lanes per step, flat buffers", Lanes), nestedFromFlat(VectorizedFlat)})
}
