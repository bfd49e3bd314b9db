/*
Copyright © 2018 the cfconvert authors.
This file is part of cfconvert.

cfconvert is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cfconvert is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cfconvert.  If not, see <http://www.gnu.org/licenses/>.
*/

package dataarray

import (
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/gonum/floats"
)

// testDataset returns a dataset shaped (time=2, height=3, lat=2, lon=2)
// with element values equal to their row-major index.
func testDataset() *Dataset {
	data := sparse.ZerosDense(2, 3, 2, 2)
	for i := range data.Elements {
		data.Elements[i] = float64(i)
	}
	attrs := NewAttributes()
	attrs.Set("units", "mm/s")
	coords := map[string]*Array{
		"time":   {Name: "time", Dims: []string{"time"}, Attrs: NewAttributes(), Data: coordData(0, 3600)},
		"height": {Name: "height", Dims: []string{"height"}, Attrs: NewAttributes(), Data: coordData(0, 100, 200)},
		"lat":    {Name: "lat", Dims: []string{"lat"}, Attrs: NewAttributes(), Data: coordData(10, 20)},
		"lon":    {Name: "lon", Dims: []string{"lon"}, Attrs: NewAttributes(), Data: coordData(100, 110)},
	}
	return &Dataset{
		Data: &Array{
			Name:  "IRRATE_no_level",
			Dims:  []string{"time", "height", "lat", "lon"},
			Attrs: attrs,
			Data:  data,
		},
		Coords: coords,
		Attrs:  NewAttributes(),
	}
}

func coordData(vals ...float64) *sparse.DenseArray {
	d := sparse.ZerosDense(len(vals))
	copy(d.Elements, vals)
	return d
}

func TestScale(t *testing.T) {
	ds := testDataset()
	ds.Scale(2)
	if got := ds.Data.Data.Elements[3]; got != 6 {
		t.Errorf("scaled element 3 = %v; want 6", got)
	}

	ds = testDataset()
	ds.Scale(0) // zero disables scaling
	if got := ds.Data.Data.Elements[3]; got != 3 {
		t.Errorf("element 3 after zero factor = %v; want 3", got)
	}
	if u, _ := ds.Data.Attrs.Get("units"); u != "mm/s" {
		t.Errorf("units changed by scaling: %v", u)
	}
}

func TestISel(t *testing.T) {
	ds := testDataset()
	sub, err := ds.ISel("height", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sub.Data.Dims, []string{"time", "lat", "lon"}) {
		t.Errorf("dims = %v; want [time lat lon]", sub.Data.Dims)
	}
	if _, ok := sub.Coords["height"]; ok {
		t.Error("height coordinate not removed")
	}
	// Elements at height index 1: rows 4..7 and 16..19 of the original.
	want := []float64{4, 5, 6, 7, 16, 17, 18, 19}
	if !floats.Equal(sub.Data.Data.Elements, want) {
		t.Errorf("elements = %v; want %v", sub.Data.Data.Elements, want)
	}
	// Original is untouched.
	if ds.DimLen("height") != 3 {
		t.Error("ISel modified its receiver")
	}

	if _, err := ds.ISel("nonesuch", 0); err == nil {
		t.Error("no error for missing dimension")
	}
	if _, err := ds.ISel("height", 3); err == nil {
		t.Error("no error for out-of-range index")
	}
}

func TestSqueeze(t *testing.T) {
	data := sparse.ZerosDense(1, 2, 1, 3)
	for i := range data.Elements {
		data.Elements[i] = float64(i)
	}
	ds := &Dataset{
		Data: &Array{
			Name:  "v",
			Dims:  []string{"time", "lat", "height", "lon"},
			Attrs: NewAttributes(),
			Data:  data,
		},
		Coords: map[string]*Array{
			"time": {Name: "time", Dims: []string{"time"}, Attrs: NewAttributes(), Data: coordData(0)},
		},
		Attrs: NewAttributes(),
	}
	out := ds.Squeeze()
	if !reflect.DeepEqual(out.Data.Dims, []string{"lat", "lon"}) {
		t.Errorf("dims = %v; want [lat lon]", out.Data.Dims)
	}
	if !reflect.DeepEqual(out.Data.Data.Shape, []int{2, 3}) {
		t.Errorf("shape = %v; want [2 3]", out.Data.Data.Shape)
	}
	if _, ok := out.Coords["time"]; ok {
		t.Error("length-1 coordinate not removed")
	}
	if !floats.Equal(out.Data.Data.Elements, data.Elements) {
		t.Errorf("elements changed: %v", out.Data.Data.Elements)
	}
}

func TestRename(t *testing.T) {
	ds := testDataset()
	ds.Rename(map[string]string{"IRRATE_no_level": "rainfall_flux", "height": "level"})
	if ds.Data.Name != "rainfall_flux" {
		t.Errorf("name = %q; want rainfall_flux", ds.Data.Name)
	}
	if !reflect.DeepEqual(ds.Data.Dims, []string{"time", "level", "lat", "lon"}) {
		t.Errorf("dims = %v; want [time level lat lon]", ds.Data.Dims)
	}
	c, ok := ds.Coords["level"]
	if !ok {
		t.Fatal("no coordinate for renamed dimension")
	}
	if c.Name != "level" || c.Dims[0] != "level" {
		t.Errorf("coordinate = %q over %v; want level over [level]", c.Name, c.Dims)
	}
}

func TestSplitBy(t *testing.T) {
	ds := testDataset()
	subs, err := ds.SplitBy("height")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 3 {
		t.Fatalf("got %d datasets; want 3", len(subs))
	}
	for i, sub := range subs {
		if sub.DimLen("height") != -1 {
			t.Errorf("split %d still has a height dimension", i)
		}
		if got := sub.Data.Data.Elements[0]; got != float64(i*4) {
			t.Errorf("split %d first element = %v; want %v", i, got, i*4)
		}
	}

	if _, err := ds.SplitBy("nonesuch"); err == nil {
		t.Error("no error for missing dimension")
	}
}

func TestDefaultOutfile(t *testing.T) {
	if got := DefaultOutfile("dir/file.nc"); got != "dir/file_cf1.nc" {
		t.Errorf("DefaultOutfile = %q; want dir/file_cf1.nc", got)
	}
}

func TestSplitFileName(t *testing.T) {
	if got := SplitFileName("out", "height", 2); got != "out_height0002.nc" {
		t.Errorf("SplitFileName = %q; want out_height0002.nc", got)
	}
}
