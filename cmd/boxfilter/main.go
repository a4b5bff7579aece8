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

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	nl "github.com/mlnoga/boxfilter/internal"
	"github.com/mlnoga/boxfilter/internal/bench"
	"github.com/mlnoga/boxfilter/internal/box"
	"github.com/mlnoga/boxfilter/internal/grid"
	"github.com/mlnoga/boxfilter/internal/imageio"
	"github.com/mlnoga/boxfilter/internal/ops"
	"github.com/mlnoga/boxfilter/internal/stats"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var log = flag.String("log", "", "save log output to `file` in addition to stdout")
var out = flag.String("out", "%auto", "save filtered images to `file`. %s is replaced with the input base name. `%auto` uses %s_box<radius>.png")

var radius = flag.Int("radius", 3, "box filter radius in [0,7], window side is 2*radius+1")
var variant = flag.String("variant", "auto", "filter variant, see `variants` command. auto selects the fastest on this CPU")
var gray = flag.String("gray", "luma", "grayscale conversion for color inputs, luma (ITU-R 601) or lab (CIE L*)")
var quality = flag.Int("quality", 95, "JPEG output quality in [1,100]")
var threads = flag.Int("threads", runtime.GOMAXPROCS(0), "number of files to filter concurrently")

var samples = flag.Int("samples", 5, "benchmark samples per variant")
var iterations = flag.Int("iterations", 10, "benchmark filter calls per sample")
var width = flag.Int("width", 1920, "width of the random benchmark image, if no input files are given")
var height = flag.Int("height", 1080, "height of the random benchmark image, if no input files are given")
var seed = flag.Uint("seed", 0, "seed for the random benchmark image, 0=random")

func main() {
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(os.Stdout, `Boxfilter Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (filter|bench|verify|stats|variants|legal|version) (img0.png ... imgn.png)

Commands:
  filter   Apply box filter to input images and save the results
  bench    Time all filter variants on input images, or on a random image
  verify   Check all variants against the naive reference for every radius
  stats    Show image statistics before and after filtering
  variants List available filter variants
  legal    Show license and attribution information
  version  Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log != "" {
		if err := nl.LogAlsoToFile(*log); err != nil {
			nl.LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	if *out == "%auto" {
		*out = fmt.Sprintf("%%s_box%d.png", *radius)
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			nl.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			nl.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	var err error
	switch args[0] {
	case "filter":
		err = cmdFilter(args[1:])

	case "bench":
		err = cmdBench(args[1:])

	case "verify":
		err = cmdVerify(args[1:])

	case "stats":
		err = cmdStats(args[1:])

	case "variants":
		cmdVariants()

	case "legal":
		cmdLegal()

	case "version":
		nl.LogPrintf("Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		nl.LogPrintf("Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	nl.LogPrintf("\nDone after %v\n", time.Since(start))

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			nl.LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			nl.LogFatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		nl.LogPrintf("Error: %s\n", err.Error())
		nl.LogSync()
		pprof.StopCPUProfile()
		os.Exit(-1)
	}
	nl.LogSync()
}

// Returns the variant selected on the command line
func selectedVariant() (box.Variant, error) {
	if *variant == "auto" {
		return box.Best(), nil
	}
	return box.Lookup(*variant)
}

// Filter all input files concurrently, and save the results
func cmdFilter(args []string) error {
	if len(args) == 0 {
		return errors.New("no input files given")
	}
	if err := box.ValidateRadius(*radius); err != nil {
		return err
	}
	v, err := selectedVariant()
	if err != nil {
		return err
	}
	mode, err := imageio.ParseGrayMode(*gray)
	if err != nil {
		return err
	}

	c := ops.NewContext(nl.LogWriter{})
	c.MaxThreads = *threads
	opBox := ops.NewOpBox(v, *radius)
	opSave := ops.NewOpSave(*out, *quality)

	m, err := json.MarshalIndent([]ops.Operator{opBox, opSave}, "", "  ")
	if err != nil {
		return err
	}
	nl.LogPrintf("Filtering %d files with variant %s and these settings:\n%s\n", len(args), v.Name, string(m))

	ins := ops.LoadPromises(args, mode, c)
	outs := ops.MakePromises(ins, c, opBox, opSave)
	_, err = ops.MaterializeAll(outs, c.MaxThreads, true)
	return err
}

// A named input image for the single-threaded commands
type input struct {
	name string
	data grid.Grid[uint8]
}

// Loads all input files, or generates a random image if none are given
func loadInputs(args []string) ([]input, error) {
	c := ops.NewContext(nl.LogWriter{})
	c.MaxThreads = 1
	if len(args) == 0 {
		if *width < 1 || *height < 1 {
			return nil, fmt.Errorf("random image of %dx%d: %w", *width, *height, grid.ErrEmptyImage)
		}
		if err := c.CheckMemory(*width, *height); err != nil {
			return nil, err
		}
		img := bench.RandomImage(*width, *height, uint32(*seed))
		return []input{{fmt.Sprintf("random %dx%d", *width, *height), img}}, nil
	}

	mode, err := imageio.ParseGrayMode(*gray)
	if err != nil {
		return nil, err
	}
	inputs := make([]input, len(args))
	for i, fileName := range args {
		img, err := ops.NewOpLoad(i, fileName, mode).Apply(nil, c)
		if err != nil {
			return nil, err
		}
		inputs[i] = input{fileName, img.Data}
	}
	return inputs, nil
}

// Time filter variants on each input. Compares the selected variant against
// the naive reference, or all variants if auto is selected
func cmdBench(args []string) error {
	if err := box.ValidateRadius(*radius); err != nil {
		return err
	}
	vs := box.Variants()
	if *variant != "auto" {
		v, err := box.Lookup(*variant)
		if err != nil {
			return err
		}
		naive, _ := box.Lookup(box.NameNaive)
		vs = []box.Variant{naive}
		if v.Name != naive.Name {
			vs = append(vs, v)
		}
	}
	inputs, err := loadInputs(args)
	if err != nil {
		return err
	}

	cfg := bench.Config{Samples: *samples, Iterations: *iterations}
	nl.LogPrintf("CPU: %s\n", box.CPUInfo())
	for _, in := range inputs {
		nl.LogPrintf("\n%s, %d samples of %d calls each:\n", in.name, cfg.Samples, cfg.Iterations)
		results, err := bench.RunAll(vs, in.data, *radius, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
		for _, r := range results {
			nl.LogPrintf("%v speedup %.2fx\n", r, bench.Speedup(results[0], r))
		}
	}
	return nil
}

// Check every variant against the naive reference for every valid radius
func cmdVerify(args []string) error {
	inputs, err := loadInputs(args)
	if err != nil {
		return err
	}

	mismatches := 0
	for _, in := range inputs {
		for r := 0; r <= box.MaxRadius; r++ {
			want, err := box.Naive(in.data, r)
			if err != nil {
				return fmt.Errorf("%s: %w", in.name, err)
			}
			for _, v := range box.Variants() {
				if v.Name == box.NameNaive {
					continue
				}
				got, err := v.Filter(in.data, r)
				if err != nil {
					return fmt.Errorf("%s: %s: %w", in.name, v.Name, err)
				}
				if x, y, diff := want.FirstDiff(got); diff {
					nl.LogPrintf("%s: %s radius %d differs at (%d,%d)\n", in.name, v.Name, r, x, y)
					mismatches++
				}
			}
		}
		nl.LogPrintf("%s: checked %d variants for radius 0..%d\n", in.name, len(box.Variants())-1, box.MaxRadius)
	}
	if mismatches > 0 {
		return fmt.Errorf("%d mismatches against the naive reference", mismatches)
	}
	return nil
}

// Show statistics of each input before and after filtering
func cmdStats(args []string) error {
	if err := box.ValidateRadius(*radius); err != nil {
		return err
	}
	v, err := selectedVariant()
	if err != nil {
		return err
	}
	inputs, err := loadInputs(args)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		filtered, err := v.Filter(in.data, *radius)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
		nl.LogPrintf("%s\n  before %v\n  after  %v\n", in.name, stats.Calc(in.data), stats.Calc(filtered))
	}
	return nil
}

// List registered variants, marking the one auto selects
func cmdVariants() {
	nl.LogPrintf("CPU: %s\n", box.CPUInfo())
	best := box.Best()
	for _, v := range box.Variants() {
		mark := " "
		if v.Name == best.Name {
			mark = "*"
		}
		nl.LogPrintf("%s %-16s %s\n", mark, v.Name, v.Description)
	}
}
