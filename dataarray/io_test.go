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
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/gonum/floats"

	"github.com/spatialmodel/cfconvert"
)

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "dataarray")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func attrMap(t *testing.T, keys []string, m map[string]interface{}) *util.OrderedMap {
	t.Helper()
	om, err := util.NewOrderedMap(keys, m)
	if err != nil {
		t.Fatal(err)
	}
	return om
}

// writeFixture writes a wgrib2-style file with a (time, lat, lon) variable.
func writeFixture(t *testing.T, path string) {
	t.Helper()
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	err = cw.AddVar("time", api.Variable{
		Values:     []int32{0, 3600},
		Dimensions: []string{"time"},
		Attributes: attrMap(t, []string{"units"},
			map[string]interface{}{"units": "seconds since 1970-01-01 00:00:00"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	err = cw.AddVar("lat", api.Variable{
		Values:     []float64{10, 20},
		Dimensions: []string{"lat"},
		Attributes: attrMap(t, []string{}, map[string]interface{}{}),
	})
	if err != nil {
		t.Fatal(err)
	}
	err = cw.AddVar("lon", api.Variable{
		Values:     []float64{100, 110, 120},
		Dimensions: []string{"lon"},
		Attributes: attrMap(t, []string{}, map[string]interface{}{}),
	})
	if err != nil {
		t.Fatal(err)
	}
	err = cw.AddVar("IRRATE_no_level", api.Variable{
		Values: [][][]float32{
			{{1, 2, 3}, {4, 5, 6}},
			{{7, 8, 9}, {10, 11, 12}},
		},
		Dimensions: []string{"time", "lat", "lon"},
		Attributes: attrMap(t, []string{"units", "long_name"},
			map[string]interface{}{"units": "mm/s", "long_name": "rain rate"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := cw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpen(t *testing.T) {
	dir := tempDir(t)
	path := filepath.Join(dir, "in.nc")
	writeFixture(t, path)

	ds, err := Open(path, "IRRATE_no_level")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ds.Data.Dims, []string{"time", "lat", "lon"}) {
		t.Errorf("dims = %v; want [time lat lon]", ds.Data.Dims)
	}
	if !reflect.DeepEqual(ds.Data.Data.Shape, []int{2, 2, 3}) {
		t.Errorf("shape = %v; want [2 2 3]", ds.Data.Data.Shape)
	}
	if u, _ := ds.Data.Attrs.Get("units"); u != "mm/s" {
		t.Errorf("units = %v; want mm/s", u)
	}
	lat, ok := ds.Coords["lat"]
	if !ok {
		t.Fatal("no lat coordinate")
	}
	if !floats.Equal(lat.Data.Elements, []float64{10, 20}) {
		t.Errorf("lat = %v; want [10 20]", lat.Data.Elements)
	}

	// An empty variable name selects the first data variable.
	ds, err = Open(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Data.Name != "IRRATE_no_level" {
		t.Errorf("default variable = %q; want IRRATE_no_level", ds.Data.Name)
	}
}

func TestOpenVariableNotFound(t *testing.T) {
	dir := tempDir(t)
	path := filepath.Join(dir, "in.nc")
	writeFixture(t, path)

	_, err := Open(path, "nonesuch")
	if !errors.Is(err, cfconvert.ErrVariableNotFound) {
		t.Fatalf("err = %v; want ErrVariableNotFound", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := tempDir(t)
	infile := filepath.Join(dir, "in.nc")
	outfile := filepath.Join(dir, "out.nc")
	writeFixture(t, infile)

	ds, err := Open(infile, "IRRATE_no_level")
	if err != nil {
		t.Fatal(err)
	}
	ds.Scale(3600)
	ds.RenameVar("rainfall_flux")
	if err := ds.Save(outfile, cfconvert.DefaultTimeEncoding); err != nil {
		t.Fatal(err)
	}

	g, err := netcdf.Open(outfile)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	v, err := g.GetVariable("rainfall_flux")
	if err != nil {
		t.Fatal(err)
	}
	shape, elems, err := flatten(v.Values)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(shape, []int{2, 2, 3}) {
		t.Errorf("shape = %v; want [2 2 3]", shape)
	}
	want := []float64{3600, 7200, 10800, 14400, 18000, 21600,
		25200, 28800, 32400, 36000, 39600, 43200}
	if !floats.Equal(elems, want) {
		t.Errorf("elements = %v; want %v", elems, want)
	}
	// Scaling alone must not touch the units attribute.
	if u, ok := v.Attributes.Get("units"); !ok || u != "mm/s" {
		t.Errorf("units = %v; want mm/s", u)
	}

	tv, err := g.GetVariable("time")
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := tv.Attributes.Get("units"); !ok || u != cfconvert.DefaultTimeEncoding.Units {
		t.Errorf("time units = %v; want %q", u, cfconvert.DefaultTimeEncoding.Units)
	}
	if c, ok := tv.Attributes.Get("calendar"); !ok || c != "standard" {
		t.Errorf("time calendar = %v; want standard", c)
	}
	_, times, err := flatten(tv.Values)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(times, []float64{0, 3600}) {
		t.Errorf("time = %v; want [0 3600]", times)
	}

	ga := g.Attributes()
	if c, ok := ga.Get("Conventions"); !ok || c != "CF-1.6" {
		t.Errorf("Conventions = %v; want CF-1.6", c)
	}
}

func TestNestFlatten(t *testing.T) {
	flat := []float32{0, 1, 2, 3, 4, 5}
	nested := nest(flat, []int{2, 3})
	got, ok := nested.([][]float32)
	if !ok {
		t.Fatalf("nest returned %T; want [][]float32", nested)
	}
	if !reflect.DeepEqual(got, [][]float32{{0, 1, 2}, {3, 4, 5}}) {
		t.Errorf("nested = %v", got)
	}

	shape, elems, err := flatten(nested)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(shape, []int{2, 3}) {
		t.Errorf("shape = %v; want [2 3]", shape)
	}
	if !floats.Equal(elems, []float64{0, 1, 2, 3, 4, 5}) {
		t.Errorf("elems = %v", elems)
	}
}
