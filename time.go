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

import "time"

// TimeEncoding holds the units and calendar attributes attached to the
// output time variable.
type TimeEncoding struct {
	Units    string
	Calendar string
}

// DefaultTimeEncoding is the time encoding written to output files. Input
// files whose time units do not match DefaultTimeEncoding.Units are
// rejected; no unit conversion is performed.
var DefaultTimeEncoding = TimeEncoding{
	Units:    "seconds since 1970-01-01 00:00:00",
	Calendar: "standard",
}

// Date2Num converts calendar date-times to whole-second counts since
// 1970-01-01T00:00:00 UTC, in input order, for storage in a netCDF time
// variable.
func Date2Num(dates ...time.Time) []int32 {
	nums := make([]int32, len(dates))
	for i, d := range dates {
		nums[i] = int32(d.Unix())
	}
	return nums
}
