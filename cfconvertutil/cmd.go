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

// Package cfconvertutil holds the command-line interface for the cfconvert
// netCDF CF-1.6 converter.
package cfconvertutil

import (
	"fmt"
	"math"

	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialmodel/cfconvert"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to cfconvert.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "variable",
			usage: `
              variable is the name of the data variable to extract from the
              input file. The convert command requires it; reformat and split
              default to the first data variable in the file.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), reformatCmd.Flags(),
				splitCmd.Flags()},
		},
		{
			name: "units",
			usage: `
              units overwrites the units attribute on the output variable.
              The default is to copy it from the input variable.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), reformatCmd.Flags(),
				splitCmd.Flags()},
		},
		{
			name: "long_name",
			usage: `
              long_name overwrites the long_name attribute on the output
              variable. The default is to copy it from the input variable.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), reformatCmd.Flags(),
				splitCmd.Flags()},
		},
		{
			name: "factor",
			usage: `
              factor multiplies the data by the given value. Zero or omitted
              leaves the data unchanged. Scaling does not update the units
              attribute; pass --units as well to keep the metadata truthful.`,
			defaultVal: 0.0,
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), reformatCmd.Flags(),
				splitCmd.Flags()},
		},
		{
			name: "fill_missing",
			usage: `
              fill_missing replaces missing data with the given value in the
              output. The default sentinel is NaN.`,
			defaultVal: math.NaN(),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "outfile",
			usage: `
              outfile is the output file path. The default is the input path
              with its extension replaced by _cf1.nc.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{reformatCmd.Flags(), splitCmd.Flags()},
		},
		{
			name: "name",
			usage: `
              name renames the output variable. See the CF standard name table
              at http://cfconventions.org/standard-names.html for conventional
              choices.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{reformatCmd.Flags()},
		},
		{
			name: "newvarname",
			usage: `
              newvarname renames the output variable. See the CF standard name
              table at http://cfconventions.org/standard-names.html for
              conventional choices.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{splitCmd.Flags()},
		},
		{
			name: "rename",
			usage: `
              rename renames a variable or dimension in the output, given as
              old=new. May be repeated.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{splitCmd.Flags()},
		},
		{
			name: "select",
			usage: `
              select keeps only the given index along a dimension, given as
              dimension=index, and drops that dimension. May be repeated.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{splitCmd.Flags()},
		},
		{
			name: "squeeze",
			usage: `
              squeeze drops all length-1 dimensions from the output.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{splitCmd.Flags()},
		},
		{
			name: "split-by",
			usage: `
              split-by writes one output file per index along the given
              dimension, named <base>_<dimension><index>.nc with a four digit
              zero-padded index.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{splitCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CFCONVERT")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(reformatCmd)
	Root.AddCommand(splitCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("cfconvert: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "cfconvert",
	Short: "Convert wgrib2 netCDF output to CF-1.6.",
	Long: `cfconvert normalizes netCDF grid/time-series files produced by the
wgrib2 tool into CF-1.6 convention-compliant netCDF files. Use the
subcommands specified below to choose a conversion path.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'CFCONVERT_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of cfconvert.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("cfconvert v%s\n", cfconvert.Version)
	},
	DisableAutoGenTag: true,
}

// convertCmd runs the low-level conversion path: the output file structure
// is built dimension by dimension and the data variable is renamed to
// rainfall_rate.
var convertCmd = &cobra.Command{
	Use:   "convert <infile> <outfile>",
	Short: "Convert a file, building the output structure explicitly.",
	Long: `convert extracts one data variable from the input file, applies the
optional factor and fill-value handling, and writes a CF-1.6 compliant
output file. The output variable is named rainfall_rate. The input time
variable must count seconds since 1970-01-01 00:00:00.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		variable := Cfg.GetString("variable")
		if variable == "" {
			return fmt.Errorf("cfconvert: no variable specified (use --variable)")
		}
		o := cfconvert.Options{
			Units:    Cfg.GetString("units"),
			LongName: Cfg.GetString("long_name"),
			Factor:   Cfg.GetFloat64("factor"),
		}
		if fill := Cfg.GetFloat64("fill_missing"); !math.IsNaN(fill) {
			o.FillMissing = &fill
		}
		return cfconvert.Convert(args[0], args[1], variable, o)
	},
	DisableAutoGenTag: true,
}

// reformatCmd runs the labeled-array conversion path, which keeps the
// source dimension layout and variable name unless told otherwise.
var reformatCmd = &cobra.Command{
	Use:   "reformat <infile>",
	Short: "Convert a file using the labeled-array path.",
	Long: `reformat extracts one data variable (by default the first in the
file) with its coordinates, applies the optional factor and attribute
overrides, and writes a CF-1.6 compliant output file. The default output
path is the input path with its extension replaced by _cf1.nc.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Reformat(args[0],
			Cfg.GetString("outfile"),
			Cfg.GetString("variable"),
			Cfg.GetString("name"),
			Cfg.GetString("units"),
			Cfg.GetString("long_name"),
			Cfg.GetFloat64("factor"))
	},
	DisableAutoGenTag: true,
}

// splitCmd extends the labeled-array path with renaming, selection,
// squeezing, and splitting along a dimension.
var splitCmd = &cobra.Command{
	Use:   "split <infile>",
	Short: "Convert a file, optionally splitting it along a dimension.",
	Long: `split converts a file like reformat does, and additionally supports
renaming dimensions, selecting single indices along dimensions, dropping
length-1 dimensions, and splitting the output into one file per index along
a chosen dimension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rename, err := parseRename(Cfg.GetStringSlice("rename"))
		if err != nil {
			return err
		}
		sel, err := parseSelect(Cfg.GetStringSlice("select"))
		if err != nil {
			return err
		}
		return Split(args[0],
			Cfg.GetString("outfile"),
			Cfg.GetString("variable"),
			Cfg.GetString("newvarname"),
			Cfg.GetString("units"),
			Cfg.GetString("long_name"),
			Cfg.GetFloat64("factor"),
			rename, sel,
			Cfg.GetBool("squeeze"),
			Cfg.GetString("split-by"))
	},
	DisableAutoGenTag: true,
}
