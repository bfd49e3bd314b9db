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

// Command cfconvert is a command-line interface for converting netCDF
// output from the wgrib2 tool to CF-1.6 compliant netCDF files.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/cfconvert/cfconvertutil"
)

func main() {
	if err := cfconvertutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
