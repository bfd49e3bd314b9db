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

package cfconvertutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/spatialmodel/cfconvert"
	"github.com/spatialmodel/cfconvert/dataarray"
)

// Reformat converts infile using the labeled-array path: scale by factor,
// overwrite units/long_name, optionally rename the variable, and save.
// An empty outfile defaults to infile with its extension replaced by
// _cf1.nc; an empty variable selects the first data variable in the file.
func Reformat(infile, outfile, variable, name, units, longName string, factor float64) error {
	ds, err := dataarray.Open(infile, variable)
	if err != nil {
		return err
	}
	ds.Scale(factor)
	if units != "" {
		ds.SetUnits(units)
	}
	if longName != "" {
		ds.SetLongName(longName)
	}
	if name != "" {
		ds.RenameVar(name)
	}
	if outfile == "" {
		outfile = dataarray.DefaultOutfile(infile)
	}
	return ds.Save(outfile, cfconvert.DefaultTimeEncoding)
}

// Split converts infile like Reformat and additionally renames dimensions,
// selects single indices along dimensions, drops length-1 dimensions, and
// splits the output along a dimension into one file per index. The
// operations apply in the order: factor, attribute overrides, variable
// rename, squeeze, select, dimension renames, split.
func Split(infile, outfile, variable, newVarName, units, longName string,
	factor float64, rename map[string]string, sel map[string]int,
	squeeze bool, splitBy string) error {

	ds, err := dataarray.Open(infile, variable)
	if err != nil {
		return err
	}
	ds.Scale(factor)
	if units != "" {
		ds.SetUnits(units)
	}
	if longName != "" {
		ds.SetLongName(longName)
	}
	if newVarName != "" {
		ds.RenameVar(newVarName)
	}
	if squeeze {
		ds = ds.Squeeze()
	}
	for _, dim := range sortedSelKeys(sel) {
		ds, err = ds.ISel(dim, sel[dim])
		if err != nil {
			return err
		}
	}
	if len(rename) > 0 {
		ds.Rename(rename)
	}

	var base string
	if outfile == "" {
		base = strings.TrimSuffix(infile, filepath.Ext(infile))
		if splitBy == "" {
			base += "_cf1"
		}
	} else {
		base = strings.TrimSuffix(outfile, filepath.Ext(outfile))
	}

	if splitBy == "" {
		return ds.Save(base+".nc", cfconvert.DefaultTimeEncoding)
	}
	subs, err := ds.SplitBy(splitBy)
	if err != nil {
		return err
	}
	for i, sub := range subs {
		if err := sub.Save(dataarray.SplitFileName(base, splitBy, i), cfconvert.DefaultTimeEncoding); err != nil {
			return err
		}
	}
	return nil
}

// parseRename parses repeated old=new arguments.
func parseRename(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("cfconvert: invalid rename %q; expected old=new", p)
		}
		out[kv[0]] = kv[1]
	}
	return out, nil
}

// parseSelect parses repeated dimension=index arguments.
func parseSelect(pairs []string) (map[string]int, error) {
	out := make(map[string]int, len(pairs))
	for _, p := range pairs {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("cfconvert: invalid select %q; expected dimension=index", p)
		}
		i, err := cast.ToIntE(kv[1])
		if err != nil {
			return nil, fmt.Errorf("cfconvert: invalid select index %q: %v", kv[1], err)
		}
		out[kv[0]] = i
	}
	return out, nil
}

func sortedSelKeys(m map[string]int) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}
