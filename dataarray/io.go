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
	"fmt"
	"log"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/ctessum/sparse"

	"github.com/spatialmodel/cfconvert"
)

// Open reads one data variable and its coordinate variables from the
// netCDF file at path. An empty variable name selects the first
// non-coordinate variable in file order.
func Open(path, variable string) (*Dataset, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataarray: opening %s: %v", path, err)
	}
	defer g.Close()

	names := g.ListVariables()
	if variable == "" {
		variable = firstDataVar(g, names)
	}
	if !contains(names, variable) {
		return nil, fmt.Errorf("dataarray: %w: %q in %s", cfconvert.ErrVariableNotFound, variable, path)
	}
	data, err := readArray(g, variable)
	if err != nil {
		return nil, err
	}

	coords := make(map[string]*Array)
	for _, dim := range data.Dims {
		if !contains(names, dim) {
			continue
		}
		c, err := readArray(g, dim)
		if err != nil {
			return nil, err
		}
		coords[dim] = c
	}

	attrs := NewAttributes()
	ga := g.Attributes()
	for _, k := range ga.Keys() {
		if v, ok := ga.Get(k); ok {
			attrs.Set(k, v)
		}
	}
	return &Dataset{Data: data, Coords: coords, Attrs: attrs}, nil
}

// firstDataVar returns the first variable that is not a coordinate
// variable (one named after its own leading dimension).
func firstDataVar(g api.Group, names []string) string {
	for _, n := range names {
		v, err := g.GetVariable(n)
		if err != nil {
			continue
		}
		if len(v.Dimensions) > 0 && v.Dimensions[0] == n {
			continue
		}
		return n
	}
	return ""
}

func readArray(g api.Group, name string) (*Array, error) {
	v, err := g.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("dataarray: reading variable %s: %v", name, err)
	}
	shape, elems, err := flatten(v.Values)
	if err != nil {
		return nil, fmt.Errorf("dataarray: reading variable %s: %v", name, err)
	}
	data := sparse.ZerosDense(shape...)
	copy(data.Elements, elems)
	attrs := NewAttributes()
	for _, k := range v.Attributes.Keys() {
		if av, ok := v.Attributes.Get(k); ok {
			attrs.Set(k, av)
		}
	}
	return &Array{
		Name:  name,
		Dims:  append([]string{}, v.Dimensions...),
		Attrs: attrs,
		Data:  data,
	}, nil
}

// Save writes the dataset to a new netCDF file at path. Coordinate
// variables are written in dimension order, then the data variable as
// float32. A coordinate named "time" is written as int32 with the given
// encoding's units and calendar, mirroring the fixed time encoding of the
// low-level conversion path. The Conventions global attribute is set to
// CF-1.6.
func (ds *Dataset) Save(path string, enc cfconvert.TimeEncoding) error {
	log.Printf("Saving to '%s'", path)
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("dataarray: creating %s: %v", path, err)
	}

	for _, dim := range ds.Data.Dims {
		c, ok := ds.Coords[dim]
		if !ok {
			continue
		}
		var values interface{}
		attrs := c.Attrs.Copy()
		if dim == "time" {
			values = nest(toInt32(c.Data.Elements), c.Data.Shape)
			attrs.Set("units", enc.Units)
			attrs.Set("calendar", enc.Calendar)
			attrs.Set("standard_name", "time")
		} else {
			values = nest(append([]float64{}, c.Data.Elements...), c.Data.Shape)
		}
		if err := addVar(cw, c.Name, values, c.Dims, attrs); err != nil {
			return err
		}
	}

	values := nest(toFloat32(ds.Data.Data.Elements), ds.Data.Data.Shape)
	if err := addVar(cw, ds.Data.Name, values, ds.Data.Dims, ds.Data.Attrs); err != nil {
		return err
	}

	global := ds.Attrs.Copy()
	global.Set("Conventions", "CF-1.6")
	om, err := orderedMap(global)
	if err != nil {
		return fmt.Errorf("dataarray: writing %s: %v", path, err)
	}
	cw.AddGlobalAttrs(om)

	if err := cw.Close(); err != nil {
		return fmt.Errorf("dataarray: writing %s: %v", path, err)
	}
	return nil
}

func addVar(cw *cdf.CDFWriter, name string, values interface{}, dims []string, attrs *Attributes) error {
	om, err := orderedMap(attrs)
	if err != nil {
		return fmt.Errorf("dataarray: writing variable %s: %v", name, err)
	}
	err = cw.AddVar(name, api.Variable{
		Values:     values,
		Dimensions: dims,
		Attributes: om,
	})
	if err != nil {
		return fmt.Errorf("dataarray: writing variable %s: %v", name, err)
	}
	return nil
}

func orderedMap(attrs *Attributes) (*util.OrderedMap, error) {
	keys := attrs.Keys()
	m := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		v, _ := attrs.Get(k)
		m[k] = v
	}
	return util.NewOrderedMap(keys, m)
}

// DefaultOutfile is the output name used when none is given: the input
// name with its extension replaced by _cf1.nc.
func DefaultOutfile(infile string) string {
	return strings.TrimSuffix(infile, filepath.Ext(infile)) + "_cf1.nc"
}

// SplitFileName names the output file for one index of a split along dim.
func SplitFileName(base, dim string, index int) string {
	return fmt.Sprintf("%s_%s%04d.nc", base, dim, index)
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func toFloat32(e []float64) []float32 {
	o := make([]float32, len(e))
	for i, v := range e {
		o[i] = float32(v)
	}
	return o
}

func toInt32(e []float64) []int32 {
	o := make([]int32, len(e))
	for i, v := range e {
		o[i] = int32(v)
	}
	return o
}

// flatten walks arbitrarily nested numeric slices, returning the shape and
// the values in row-major order.
func flatten(values interface{}) ([]int, []float64, error) {
	v := reflect.ValueOf(values)
	var shape []int
	for t := v; t.Kind() == reflect.Slice; {
		shape = append(shape, t.Len())
		if t.Len() == 0 {
			break
		}
		t = t.Index(0)
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	elems := make([]float64, 0, n)
	elems, err := flattenInto(v, elems)
	if err != nil {
		return nil, nil, err
	}
	return shape, elems, nil
}

func flattenInto(v reflect.Value, out []float64) ([]float64, error) {
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			var err error
			out, err = flattenInto(v.Index(i), out)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return append(out, v.Float()), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return append(out, float64(v.Int())), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return append(out, float64(v.Uint())), nil
	default:
		return nil, fmt.Errorf("unsupported element type %s", v.Kind())
	}
}

// nest reshapes a flat slice into nested slices matching shape, the layout
// the netCDF writer expects. A scalar (empty shape) yields the bare value.
func nest(flat interface{}, shape []int) interface{} {
	v := nestValue(reflect.ValueOf(flat), shape)
	if len(shape) == 0 {
		return v.Index(0).Interface()
	}
	return v.Interface()
}

func nestValue(flat reflect.Value, shape []int) reflect.Value {
	if len(shape) <= 1 {
		return flat
	}
	n := shape[0]
	chunk := flat.Len() / n
	first := nestValue(flat.Slice(0, chunk), shape[1:])
	out := reflect.MakeSlice(reflect.SliceOf(first.Type()), n, n)
	out.Index(0).Set(first)
	for i := 1; i < n; i++ {
		out.Index(i).Set(nestValue(flat.Slice(i*chunk, (i+1)*chunk), shape[1:]))
	}
	return out
}
