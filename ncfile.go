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

package cfconvert

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Attr is a single variable or global attribute.
type Attr struct {
	Key   string
	Value interface{}
}

type varDef struct {
	name  string
	dims  []string
	proto interface{}
	attrs []Attr
	data  interface{} // pending payload, written by Flush
}

// FileBuilder assembles the dimensions, variables, and attributes of an
// output netCDF file. The underlying library requires the complete header
// to be defined before any data is written, so the builders below register
// definitions and payloads here, and Create materializes the file and
// flushes the payloads in one pass.
type FileBuilder struct {
	dimNames    []string
	dimLens     []int
	vars        []varDef
	globalAttrs []Attr
	unlimited   bool
}

// NewFileBuilder returns an empty builder.
func NewFileBuilder() *FileBuilder {
	return new(FileBuilder)
}

// AddDimension registers a dimension. A length of zero declares the
// unlimited (record) dimension.
func (b *FileBuilder) AddDimension(name string, length int) {
	b.dimNames = append(b.dimNames, name)
	b.dimLens = append(b.dimLens, length)
	if length == 0 {
		b.unlimited = true
	}
}

// HasDimension reports whether a dimension has been registered.
func (b *FileBuilder) HasDimension(name string) bool {
	for _, d := range b.dimNames {
		if d == name {
			return true
		}
	}
	return false
}

func (b *FileBuilder) dimLength(name string) int {
	for i, d := range b.dimNames {
		if d == name {
			return b.dimLens[i]
		}
	}
	return -1
}

// AddVariable registers a variable over the given dimensions. proto is a
// one-element slice giving the variable's type, as in cdf.Header.AddVariable.
// data, if non-nil, is the payload written when the file is created.
func (b *FileBuilder) AddVariable(name string, dims []string, proto, data interface{}, attrs ...Attr) {
	b.vars = append(b.vars, varDef{name: name, dims: dims, proto: proto, attrs: attrs, data: data})
}

// SetData attaches a payload to an already registered variable.
func (b *FileBuilder) SetData(name string, data interface{}) {
	for i := range b.vars {
		if b.vars[i].name == name {
			b.vars[i].data = data
			return
		}
	}
}

// AddGlobalAttr registers a global attribute.
func (b *FileBuilder) AddGlobalAttr(key string, value interface{}) {
	b.globalAttrs = append(b.globalAttrs, Attr{Key: key, Value: value})
}

// Create writes the header and all pending variable payloads to a new file
// at path. The file is closed before returning on every path.
func (b *FileBuilder) Create(path string) error {
	h := cdf.NewHeader(b.dimNames, b.dimLens)
	for _, v := range b.vars {
		h.AddVariable(v.name, v.dims, v.proto)
		for _, a := range v.attrs {
			h.AddAttribute(v.name, a.Key, a.Value)
		}
	}
	for _, a := range b.globalAttrs {
		h.AddAttribute("", a.Key, a.Value)
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("cfconvert: defining output file %s: %v", path, err)
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cfconvert: creating output file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("cfconvert: creating output file %s: %v", path, err)
	}

	for _, v := range b.vars {
		if v.data == nil {
			continue
		}
		if err := writeVar(f, v.name, b.varShape(v), v.data); err != nil {
			return err
		}
	}
	if b.unlimited {
		if err := cdf.UpdateNumRecs(ff); err != nil {
			return fmt.Errorf("cfconvert: finalizing output file %s: %v", path, err)
		}
	}
	return nil
}

// varShape returns a variable's shape, substituting the payload length for
// the record dimension.
func (b *FileBuilder) varShape(v varDef) []int {
	shape := make([]int, len(v.dims))
	for i, d := range v.dims {
		shape[i] = b.dimLength(d)
	}
	if len(shape) > 0 && shape[0] == 0 {
		n := payloadLen(v.data)
		for _, s := range shape[1:] {
			if s > 0 {
				n /= s
			}
		}
		shape[0] = n
	}
	return shape
}

func payloadLen(data interface{}) int {
	switch d := data.(type) {
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	case []int32:
		return len(d)
	default:
		return 0
	}
}

func writeVar(f *cdf.File, name string, shape []int, data interface{}) error {
	start := make([]int, len(shape))
	w := f.Writer(name, start, shape)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("cfconvert: writing variable %s: %v", name, err)
	}
	return nil
}

// CreateGridDimensions registers lat and lon dimensions and coordinate
// variables for the given coordinate arrays. Both arrays must be 1-D (a
// regular grid), or both 2-D with identical shape (a curvilinear grid);
// anything else returns ErrInvalidGrid.
func CreateGridDimensions(b *FileBuilder, lon, lat *sparse.DenseArray) error {
	var latDims, lonDims []string
	switch {
	case len(lat.Shape) == 1 && len(lon.Shape) == 1:
		latDims = []string{"lat"}
		lonDims = []string{"lon"}
		b.AddDimension("lat", lat.Shape[0])
		b.AddDimension("lon", lon.Shape[0])
	case len(lat.Shape) == 2 && len(lon.Shape) == 2 &&
		lat.Shape[0] == lon.Shape[0] && lat.Shape[1] == lon.Shape[1]:
		latDims = []string{"lat", "lon"}
		lonDims = []string{"lat", "lon"}
		b.AddDimension("lat", lat.Shape[0])
		b.AddDimension("lon", lat.Shape[1])
	default:
		return fmt.Errorf("cfconvert: %w: longitude shape %v and latitude shape %v must both be 1-D or both 2-D with the same shape",
			ErrInvalidGrid, lon.Shape, lat.Shape)
	}
	b.AddVariable("lat", latDims, []float64{0}, lat.Elements,
		Attr{"long_name", "latitude"},
		Attr{"standard_name", "latitude"},
		Attr{"units", "degrees_north"})
	b.AddVariable("lon", lonDims, []float64{0}, lon.Elements,
		Attr{"long_name", "longitude"},
		Attr{"standard_name", "longitude"},
		Attr{"units", "degrees_east"})
	return nil
}

// CreateTimeDimension registers a time dimension of length n (unlimited if
// n is zero) and an int32 time variable carrying the given encoding. data,
// if non-nil, is written when the file is created.
func CreateTimeDimension(b *FileBuilder, n int, data []int32, enc TimeEncoding) {
	b.AddDimension("time", n)
	var payload interface{}
	if data != nil {
		payload = data
	}
	b.AddVariable("time", []string{"time"}, []int32{0}, payload,
		Attr{"units", enc.Units},
		Attr{"calendar", enc.Calendar},
		Attr{"standard_name", "time"})
}

// CreateDataVariable registers a float32 data variable. dims defaults to
// (time, lat, lon) if a time dimension has been registered, else
// (lat, lon). The fill sentinel is written as a _FillValue attribute; the
// caller-supplied attributes are applied in order after it.
func CreateDataVariable(b *FileBuilder, name string, dims []string, fill float32, attrs ...Attr) {
	if dims == nil {
		if b.HasDimension("time") {
			dims = []string{"time", "lat", "lon"}
		} else {
			dims = []string{"lat", "lon"}
		}
	}
	all := append([]Attr{{"_FillValue", []float32{fill}}}, attrs...)
	b.AddVariable(name, dims, []float32{0}, nil, all...)
}

// readAll loads the entire payload of a variable into a DenseArray,
// converting from any of the numeric netCDF types. For a record
// variable, an unbounded reader only spans a single record, so the
// record count is computed from the file size and the read is bounded
// to cover every record.
func readAll(ff *os.File, f *cdf.File, name string) (*sparse.DenseArray, error) {
	lens := f.Header.Lengths(name)
	if len(lens) == 0 {
		return nil, fmt.Errorf("cfconvert: %w: %q", ErrVariableNotFound, name)
	}
	dims := append([]int{}, lens...)
	var r cdf.Reader
	if dims[0] == 0 { // record dimension: the header does not store its extent.
		fi, err := ff.Stat()
		if err != nil {
			return nil, fmt.Errorf("cfconvert: reading variable %s: %v", name, err)
		}
		dims[0] = int(f.Header.NumRecs(fi.Size()))
		begin := make([]int, len(dims))
		end := make([]int, len(dims))
		end[0] = dims[0]
		r = f.Reader(name, begin, end)
	} else {
		r = f.Reader(name, nil, nil)
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("cfconvert: reading variable %s: %v", name, err)
	}
	elems, err := toFloats(buf)
	if err != nil {
		return nil, fmt.Errorf("cfconvert: reading variable %s: %v", name, err)
	}
	data := sparse.ZerosDense(dims...)
	copy(data.Elements, elems)
	return data, nil
}

func toFloats(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int8:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []uint8:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", buf)
	}
}

// attrString returns a string attribute of variable v (or a global
// attribute if v is empty), or fallback if the attribute is absent.
func attrString(f *cdf.File, v, key, fallback string) string {
	a := f.Header.GetAttribute(v, key)
	if a == nil {
		return fallback
	}
	if s, ok := a.(string); ok {
		return s
	}
	return fallback
}

// attrFloat returns a numeric attribute of variable v, or fallback if the
// attribute is absent or not numeric.
func attrFloat(f *cdf.File, v, key string, fallback float64) float64 {
	a := f.Header.GetAttribute(v, key)
	if a == nil {
		return fallback
	}
	switch val := a.(type) {
	case []float32:
		if len(val) > 0 {
			return float64(val[0])
		}
	case []float64:
		if len(val) > 0 {
			return val[0]
		}
	case []int32:
		if len(val) > 0 {
			return float64(val[0])
		}
	case []int16:
		if len(val) > 0 {
			return float64(val[0])
		}
	}
	return fallback
}
