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

// Package dataarray is a labeled-array view of netCDF data: variables carry
// their dimension names, coordinate variables, and attributes, so that
// renaming, selecting, and splitting can be expressed without manual
// dimension bookkeeping. It is the high-level counterpart to the
// header-by-header construction in the cfconvert root package; the two are
// independent conversion paths with deliberately different behavior (this
// one performs no explicit fill masking).
package dataarray

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Attributes is an insertion-ordered attribute map.
type Attributes struct {
	keys []string
	m    map[string]interface{}
}

// NewAttributes returns an empty attribute map.
func NewAttributes() *Attributes {
	return &Attributes{m: make(map[string]interface{})}
}

// Set adds or replaces an attribute, keeping first-insertion order.
func (a *Attributes) Set(key string, val interface{}) {
	if _, ok := a.m[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.m[key] = val
}

// Get returns an attribute value.
func (a *Attributes) Get(key string) (interface{}, bool) {
	v, ok := a.m[key]
	return v, ok
}

// Keys returns the attribute keys in insertion order.
func (a *Attributes) Keys() []string {
	return append([]string{}, a.keys...)
}

// Copy returns a deep copy.
func (a *Attributes) Copy() *Attributes {
	o := NewAttributes()
	for _, k := range a.keys {
		o.Set(k, a.m[k])
	}
	return o
}

// Array is a named array with labeled dimensions.
type Array struct {
	Name  string
	Dims  []string
	Attrs *Attributes
	Data  *sparse.DenseArray
}

// Copy returns a deep copy of the array.
func (a *Array) Copy() *Array {
	return &Array{
		Name:  a.Name,
		Dims:  append([]string{}, a.Dims...),
		Attrs: a.Attrs.Copy(),
		Data:  a.Data.Copy(),
	}
}

// Dataset is one data array plus the coordinate variables for its
// dimensions and the file-level attributes.
type Dataset struct {
	Data   *Array
	Coords map[string]*Array // keyed by dimension name
	Attrs  *Attributes
}

// Copy returns a deep copy of the dataset.
func (ds *Dataset) Copy() *Dataset {
	coords := make(map[string]*Array, len(ds.Coords))
	for k, v := range ds.Coords {
		coords[k] = v.Copy()
	}
	return &Dataset{Data: ds.Data.Copy(), Coords: coords, Attrs: ds.Attrs.Copy()}
}

// DimLen returns the extent of the named dimension of the data variable,
// or -1 if the dimension is not present.
func (ds *Dataset) DimLen(dim string) int {
	for i, d := range ds.Data.Dims {
		if d == dim {
			return ds.Data.Data.Shape[i]
		}
	}
	return -1
}

// Scale multiplies the data in place. A zero factor is a no-op, matching
// the command-line convention that an omitted factor leaves data unchanged.
// Scaling does not touch the units attribute.
func (ds *Dataset) Scale(factor float64) {
	if factor == 0 {
		return
	}
	ds.Data.Data.Scale(factor)
}

// SetUnits overwrites the units attribute on the data variable.
func (ds *Dataset) SetUnits(units string) {
	ds.Data.Attrs.Set("units", units)
}

// SetLongName overwrites the long_name attribute on the data variable.
func (ds *Dataset) SetLongName(longName string) {
	ds.Data.Attrs.Set("long_name", longName)
}

// RenameVar renames the data variable.
func (ds *Dataset) RenameVar(name string) {
	ds.Data.Name = name
}

// Rename renames variables and dimensions according to the old-to-new
// pairs in names. A key matching the data variable renames it; a key matching a
// dimension renames the dimension and its coordinate variable.
func (ds *Dataset) Rename(names map[string]string) {
	for from, to := range names {
		if ds.Data.Name == from {
			ds.Data.Name = to
		}
		for i, d := range ds.Data.Dims {
			if d == from {
				ds.Data.Dims[i] = to
			}
		}
		if c, ok := ds.Coords[from]; ok {
			delete(ds.Coords, from)
			c.Name = to
			for i, d := range c.Dims {
				if d == from {
					c.Dims[i] = to
				}
			}
			ds.Coords[to] = c
		}
	}
}

// ISel returns a copy of the dataset with the named dimension reduced to
// the single given index and removed, along with its coordinate variable.
func (ds *Dataset) ISel(dim string, index int) (*Dataset, error) {
	axis := -1
	for i, d := range ds.Data.Dims {
		if d == dim {
			axis = i
			break
		}
	}
	if axis < 0 {
		return nil, fmt.Errorf("dataarray: no dimension %q in variable %s", dim, ds.Data.Name)
	}
	n := ds.Data.Data.Shape[axis]
	if index < 0 || index >= n {
		return nil, fmt.Errorf("dataarray: index %d out of range for dimension %q of length %d", index, dim, n)
	}
	out := ds.Copy()
	out.Data.Dims = removeString(out.Data.Dims, axis)
	out.Data.Data = iselDense(ds.Data.Data, axis, index)
	delete(out.Coords, dim)
	return out, nil
}

// Squeeze returns a copy of the dataset with all length-1 dimensions
// dropped, together with their coordinate variables.
func (ds *Dataset) Squeeze() *Dataset {
	out := ds.Copy()
	for i := len(out.Data.Dims) - 1; i >= 0; i-- {
		if out.Data.Data.Shape[i] != 1 {
			continue
		}
		dim := out.Data.Dims[i]
		out.Data.Data = iselDense(out.Data.Data, i, 0)
		out.Data.Dims = removeString(out.Data.Dims, i)
		delete(out.Coords, dim)
	}
	return out
}

// SplitBy returns one dataset per index along the named dimension, each
// with that dimension removed.
func (ds *Dataset) SplitBy(dim string) ([]*Dataset, error) {
	n := ds.DimLen(dim)
	if n < 0 {
		return nil, fmt.Errorf("dataarray: no dimension %q in variable %s", dim, ds.Data.Name)
	}
	out := make([]*Dataset, n)
	for i := 0; i < n; i++ {
		sub, err := ds.ISel(dim, i)
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}

func removeString(s []string, i int) []string {
	o := make([]string, 0, len(s)-1)
	o = append(o, s[:i]...)
	return append(o, s[i+1:]...)
}

// iselDense slices a dense array at a single index along the given axis,
// removing that axis.
func iselDense(d *sparse.DenseArray, axis, index int) *sparse.DenseArray {
	outer, inner := 1, 1
	for _, s := range d.Shape[:axis] {
		outer *= s
	}
	for _, s := range d.Shape[axis+1:] {
		inner *= s
	}
	n := d.Shape[axis]
	shape := make([]int, 0, len(d.Shape)-1)
	shape = append(shape, d.Shape[:axis]...)
	shape = append(shape, d.Shape[axis+1:]...)
	out := sparse.ZerosDense(shape...)
	for o := 0; o < outer; o++ {
		src := (o*n + index) * inner
		copy(out.Elements[o*inner:(o+1)*inner], d.Elements[src:src+inner])
	}
	return out
}
