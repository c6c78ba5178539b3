// Package config loads, validates, and compiles bibsift job
// configuration. Field tags use mapstructure for viper unmarshalling.
package config

import "github.com/bibsift/bibsift/pkg/sift"

// Filter type names accepted in output filter specs.
const (
	FilterCharPosition = "char_position"
	FilterFieldExists  = "field_exists"
	FilterAnyOf        = "any_of"
)

// Format names accepted for default_format and per-output format.
const (
	FormatMarc       = "marc"
	FormatJSON       = "json"
	FormatJSONPretty = "json-pretty"
)

// Config is the top-level configuration struct for bibsift.
type Config struct {
	BasePath      string         `mapstructure:"base_path" yaml:"base_path"`
	LogPath       string         `mapstructure:"log_path" yaml:"log_path"`
	LogEvery      int            `mapstructure:"log_every" yaml:"log_every"`
	MaxPerFile    int            `mapstructure:"max_per_file" yaml:"max_per_file"`
	DefaultFormat string         `mapstructure:"default_format" yaml:"default_format"`
	DefaultLimit  int            `mapstructure:"default_limit" yaml:"default_limit"`
	Outputs       []OutputConfig `mapstructure:"outputs" yaml:"outputs"`
}

// OutputConfig defines one output data set.
type OutputConfig struct {
	Name     string         `mapstructure:"name" yaml:"name"`
	Format   string         `mapstructure:"format" yaml:"format"`
	Limit    *int           `mapstructure:"limit" yaml:"limit"`
	Compress bool           `mapstructure:"compress" yaml:"compress"`
	Filters  []FilterConfig `mapstructure:"filters" yaml:"filters"`
}

// FilterConfig is one data-driven filter spec. Filters listed on an
// output combine with AND semantics; the any_of type combines its
// nested filters with OR.
type FilterConfig struct {
	Type string `mapstructure:"type" yaml:"type"`

	// Tags selects the MARC tags to inspect; one tag or a
	// comma-separated list.
	Tags string `mapstructure:"tags" yaml:"tags"`

	// Range is the inclusive zero-indexed [start, end] character
	// range for char_position filters. A single element means a
	// one-character range.
	Range []int `mapstructure:"range" yaml:"range"`

	// Value is the comparison value. Always written as a string;
	// set numeric for integer comparison.
	Value   string `mapstructure:"value" yaml:"value"`
	Op      string `mapstructure:"op" yaml:"op"`
	Numeric bool   `mapstructure:"numeric" yaml:"numeric"`

	// Subfields limits char_position matching to these subfield
	// codes ("abc" means codes a, b, and c). Ignored for fields
	// with flat data.
	Subfields string `mapstructure:"subfields" yaml:"subfields"`

	// Filters are the nested specs of an any_of filter.
	Filters []FilterConfig `mapstructure:"filters" yaml:"filters"`
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		BasePath:      "out",
		LogEvery:      sift.DefaultLogEvery,
		DefaultFormat: FormatMarc,
		DefaultLimit:  sift.DefaultOutputLimit,
	}
}
