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

//go:build amd64

package box

import (
	"github.com/klauspost/cpuid"
)

// Picks the lane-parallel variant if the CPU has 256-bit integer vectors,
// else the scalar separable filter
func bestName() string {
	if cpuid.CPU.AVX2() {
		return NameVectorFlat
	}
	return NameSeparableFlat
}

// Describes the CPU for log output
func CPUInfo() string {
	features := "no AVX2"
	if cpuid.CPU.AVX2() {
		features = "AVX2"
	}
	return cpuid.CPU.BrandName + ", " + features
}
