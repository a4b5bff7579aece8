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
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/mlnoga/boxfilter/internal/box"
	"github.com/mlnoga/boxfilter/internal/grid"
	"github.com/mlnoga/boxfilter/internal/imageio"
)

func TestMaterializeAllLimitsConcurrency(t *testing.T) {
	var running, peak int32
	ins := make([]Promise, 20)
	for i := range ins {
		id := i
		ins[i] = func() (*Image, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			defer atomic.AddInt32(&running, -1)
			return &Image{ID: id}, nil
		}
	}
	outs, err := MaterializeAll(ins, 3, false)
	require.NoError(t, err)
	require.Len(t, outs, 20)
	for i, o := range outs {
		assert.Equal(t, i, o.ID)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestMaterializeAllJoinsErrors(t *testing.T) {
	ins := []Promise{
		func() (*Image, error) { return &Image{ID: 0}, nil },
		func() (*Image, error) { return nil, errors.New("first") },
		func() (*Image, error) { return nil, errors.New("second") },
		func() (*Image, error) { return &Image{ID: 3}, nil },
	}
	outs, err := MaterializeAll(ins, 2, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
	assert.Contains(t, err.Error(), "; ")
	require.Len(t, outs, 2)
	assert.Equal(t, 0, outs[0].ID)
	assert.Equal(t, 3, outs[1].ID)

	outs, err = MaterializeAll(ins[:1], 1, true)
	assert.NoError(t, err)
	assert.Empty(t, outs)
}

func TestRemoveNils(t *testing.T) {
	a, b := &Image{ID: 1}, &Image{ID: 2}
	imgs := []*Image{nil, a, nil, b}
	assert.Equal(t, []*Image{a, b}, RemoveNils(imgs))
	assert.Nil(t, imgs[2])
}

func TestCheckMemory(t *testing.T) {
	c := &Context{Log: io.Discard, WorkMemoryMB: 20, MaxThreads: 2}
	assert.NoError(t, c.CheckMemory(1000, 1000))
	assert.Error(t, c.CheckMemory(2000, 1000))
	assert.ErrorIs(t, c.CheckMemory(-5, 10), grid.ErrEmptyImage)

	// the extended copy of the naive filter dominates for thin images
	c.MaxThreads = 1
	assert.Error(t, c.CheckMemory(1, 1000000))
	assert.Equal(t, 1000000*BytesPerPixel+2*(1+2*box.MaxRadius)*(1000000+2*box.MaxRadius), WorkingSetBytes(1, 1000000))

	c.WorkMemoryMB = 0
	assert.NoError(t, c.CheckMemory(100000, 100000))
}

func TestLoadRejectsEmptyImage(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "empty.bmp")
	f, err := os.Create(fileName)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, image.NewGray(image.Rect(0, 0, 0, 5))))
	require.NoError(t, f.Close())

	c := &Context{Log: io.Discard, MaxThreads: 1}
	img, err := NewOpLoad(0, fileName, imageio.GrayLuma).Apply(nil, c)
	assert.Nil(t, img)
	assert.True(t, errors.Is(err, grid.ErrEmptyImage), "err=%v", err)
	assert.Contains(t, err.Error(), fileName)
}

func TestOperatorSettingsJSON(t *testing.T) {
	v, err := box.Lookup(box.NameVector)
	require.NoError(t, err)
	m, err := json.Marshal([]Operator{NewOpBox(v, 2), NewOpSave("%s.png", 90)})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"box","variant":"vector","radius":2},{"type":"save","pattern":"%s.png","quality":90}]`, string(m))
	assert.Equal(t, "load", NewOpLoad(0, "a.png", imageio.GrayLuma).Name())
}

func TestOpSaveFileName(t *testing.T) {
	op := NewOpSave("out/%s_box.png", 95)
	assert.Equal(t, "out/moon_box.png", op.FileName("/data/moon.jpg"))
	op.Pattern = "fixed.tif"
	assert.Equal(t, "fixed.tif", op.FileName("moon.jpg"))
}

func TestFilterPipeline(t *testing.T) {
	dir := t.TempDir()
	var fileNames []string
	for i := 0; i < 3; i++ {
		g := grid.New[uint8](20+i, 10)
		g[5][5+i] = 255
		fileName := filepath.Join(dir, fmt.Sprintf("in%d.png", i))
		require.NoError(t, imageio.WriteFile(fileName, g, 95))
		fileNames = append(fileNames, fileName)
	}
	fileNames = append(fileNames, filepath.Join(dir, "missing.png"))

	var log strings.Builder
	c := &Context{Log: &log, MaxThreads: 1}
	v, err := box.Lookup(box.NameSeparable)
	require.NoError(t, err)
	ins := LoadPromises(fileNames, imageio.GrayLuma, c)
	outs := MakePromises(ins, c,
		NewOpBox(v, 1),
		NewOpSave(filepath.Join(dir, "%s_out.png"), 95),
	)

	imgs, err := MaterializeAll(outs, c.MaxThreads, false)
	require.Error(t, err, "missing file must be reported")
	require.Len(t, imgs, 3)
	for i, img := range imgs {
		assert.Equal(t, i, img.ID)
		assert.Equal(t, uint8(28), img.Data[5][5+i])

		saved, err := imageio.ReadFile(filepath.Join(dir, fmt.Sprintf("in%d_out.png", i)), imageio.GrayLuma)
		require.NoError(t, err)
		assert.True(t, saved.Equal(img.Data))
	}
	assert.Contains(t, log.String(), "Applied separable box filter with radius 1")
}
