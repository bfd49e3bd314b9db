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

import "errors"

// These errors describe the ways an input file can fail the conversion
// preconditions. A conversion aborts on the first one encountered; none of
// them are retried or downgraded.
var (
	// ErrVariableNotFound means the requested data variable is absent
	// from the input file.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrCoordinatesNotFound means the input file contains neither a
	// longitude/latitude nor a lon/lat pair of coordinate variables.
	ErrCoordinatesNotFound = errors.New("coordinate variables not found")

	// ErrTimeNotFound means the input file has no time variable.
	ErrTimeNotFound = errors.New("time variable not found")

	// ErrIncompatibleTimeUnits means the input time variable's units
	// attribute does not begin with the expected epoch string.
	ErrIncompatibleTimeUnits = errors.New("incompatible time units")

	// ErrInvalidGrid means the latitude and longitude arrays have
	// mismatched rank or shape.
	ErrInvalidGrid = errors.New("invalid grid")
)
