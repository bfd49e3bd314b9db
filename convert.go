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
	"math"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// OutputVariable is the name given to the data variable in converted files.
const OutputVariable = "rainfall_rate"

// Options holds the optional settings for Convert.
type Options struct {
	// Units overwrites the units attribute on the output variable.
	// Empty means copy the attribute from the source variable.
	Units string

	// LongName overwrites the long_name attribute on the output
	// variable. Empty means copy it from the source variable.
	LongName string

	// Factor multiplies the data. Zero disables scaling. Note that
	// scaling does not update the units attribute; pass Units to keep
	// the metadata truthful.
	Factor float64

	// FillMissing replaces missing data in the output. Nil keeps the
	// default NaN sentinel.
	FillMissing *float64
}

// Convert reads the named data variable and its coordinates from infile and
// writes a CF-1.6 compliant copy to outfile. The input grid may be regular
// (1-D longitude and latitude) or curvilinear (matching 2-D arrays), under
// either the longitude/latitude or lon/lat naming convention, and the input
// time variable must already count seconds since the Unix epoch; its values
// are copied verbatim. Data equal to the source _FillValue sentinel is
// replaced with the target sentinel, and all other values are scaled by
// o.Factor if it is non-zero. The output variable is always named
// "rainfall_rate". All validation happens before the output file is
// created, so a failed conversion leaves no finalized output.
func Convert(infile, outfile, variable string, o Options) error {
	ff, err := os.Open(infile)
	if err != nil {
		return fmt.Errorf("cfconvert: opening input file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return fmt.Errorf("cfconvert: reading input file %s: %v", infile, err)
	}

	if len(f.Header.Lengths(variable)) == 0 {
		return fmt.Errorf("cfconvert: %w: %q in %s", ErrVariableNotFound, variable, infile)
	}

	lon, lat, err := readGrid(ff, f)
	if err != nil {
		return err
	}

	timeData, err := readTime(ff, f)
	if err != nil {
		return err
	}

	units := o.Units
	if units == "" {
		units = attrString(f, variable, "units", "")
	}
	longName := o.LongName
	if longName == "" {
		longName = attrString(f, variable, "long_name", "")
	}

	srcFill := attrFloat(f, variable, "_FillValue", math.NaN())
	tgtFill := math.NaN()
	if o.FillMissing != nil {
		tgtFill = *o.FillMissing
	}

	data, err := readAll(ff, f, variable)
	if err != nil {
		return err
	}
	out := make([]float32, len(data.Elements))
	for i, v := range data.Elements {
		if v == srcFill {
			out[i] = float32(tgtFill)
			continue
		}
		if o.Factor != 0 {
			v *= o.Factor
		}
		out[i] = float32(v)
	}

	b := NewFileBuilder()
	if err := CreateGridDimensions(b, lon, lat); err != nil {
		return err
	}
	CreateTimeDimension(b, len(timeData), timeData, DefaultTimeEncoding)
	CreateDataVariable(b, OutputVariable, nil, float32(tgtFill),
		Attr{"units", units},
		Attr{"long_name", longName})
	b.SetData(OutputVariable, out)
	b.AddGlobalAttr("Conventions", "CF-1.6")
	return b.Create(outfile)
}

// readGrid loads the coordinate arrays, trying the longitude/latitude
// names first and falling back to lon/lat.
func readGrid(ff *os.File, f *cdf.File) (lon, lat *sparse.DenseArray, err error) {
	for _, names := range [][2]string{{"longitude", "latitude"}, {"lon", "lat"}} {
		if len(f.Header.Lengths(names[0])) == 0 || len(f.Header.Lengths(names[1])) == 0 {
			continue
		}
		lon, err = readAll(ff, f, names[0])
		if err != nil {
			return nil, nil, err
		}
		lat, err = readAll(ff, f, names[1])
		if err != nil {
			return nil, nil, err
		}
		return lon, lat, nil
	}
	return nil, nil, fmt.Errorf("cfconvert: %w: no longitude/latitude or lon/lat pair", ErrCoordinatesNotFound)
}

// readTime loads the raw time values, checking that the input time units
// match the expected epoch string. The comparison is a case-insensitive
// prefix match; no unit conversion is performed.
func readTime(ff *os.File, f *cdf.File) ([]int32, error) {
	if len(f.Header.Lengths("time")) == 0 {
		return nil, fmt.Errorf("cfconvert: %w", ErrTimeNotFound)
	}
	units := attrString(f, "time", "units", "")
	want := DefaultTimeEncoding.Units
	if len(units) < len(want) || !strings.EqualFold(units[:len(want)], want) {
		return nil, fmt.Errorf("cfconvert: %w: %q", ErrIncompatibleTimeUnits, units)
	}
	raw, err := readAll(ff, f, "time")
	if err != nil {
		return nil, err
	}
	data := make([]int32, len(raw.Elements))
	for i, v := range raw.Elements {
		data[i] = int32(v)
	}
	return data, nil
}
