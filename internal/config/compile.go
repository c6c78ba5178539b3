package config

import (
	"errors"
	"fmt"

	"github.com/bibsift/bibsift/pkg/filter"
	"github.com/bibsift/bibsift/pkg/format"
	"github.com/bibsift/bibsift/pkg/sift"
)

// Character range element counts: a single element is a one-character
// range, two elements are [start, end].
const (
	rangeLenSingle = 1
	rangeLenPair   = 2
)

var (
	// ErrUnknownFormat indicates an unrecognized format name.
	ErrUnknownFormat = errors.New("unknown record format")
	// ErrUnknownFilter indicates an unrecognized filter type.
	ErrUnknownFilter = errors.New("unknown filter type")
	// ErrBadFilterSpec indicates a filter spec with missing or
	// malformed parameters.
	ErrBadFilterSpec = errors.New("bad filter spec")
)

// Compile translates a loaded configuration into a runnable sift job
// configuration: format names become format values and filter specs
// become compiled pipelines.
func Compile(cfg *Config) (sift.Config, error) {
	defaultFormat, err := lookupFormat(cfg.DefaultFormat)
	if err != nil {
		return sift.Config{}, err
	}

	jobCfg := sift.Config{
		BasePath:      cfg.BasePath,
		LogPath:       cfg.LogPath,
		LogEvery:      cfg.LogEvery,
		MaxPerFile:    cfg.MaxPerFile,
		DefaultFormat: &defaultFormat,
		DefaultLimit:  &cfg.DefaultLimit,
	}

	for _, outCfg := range cfg.Outputs {
		out, outErr := compileOutput(outCfg)
		if outErr != nil {
			return sift.Config{}, fmt.Errorf("output %q: %w", outCfg.Name, outErr)
		}

		jobCfg.Outputs = append(jobCfg.Outputs, out)
	}

	return jobCfg, nil
}

func compileOutput(cfg OutputConfig) (sift.Output, error) {
	out := sift.Output{
		Name:     cfg.Name,
		Limit:    cfg.Limit,
		Compress: cfg.Compress,
	}

	if cfg.Format != "" {
		f, err := lookupFormat(cfg.Format)
		if err != nil {
			return sift.Output{}, err
		}

		out.Format = &f
	}

	pipeline, err := compilePipeline(cfg.Filters)
	if err != nil {
		return sift.Output{}, err
	}

	out.Pipeline = pipeline

	return out, nil
}

func lookupFormat(name string) (format.Format, error) {
	switch name {
	case FormatMarc:
		return format.Marc(), nil
	case FormatJSON:
		return format.JSON(false), nil
	case FormatJSONPretty:
		return format.JSON(true), nil
	default:
		return format.Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// compilePipeline combines filter specs with AND semantics; an empty
// spec list yields the always-true pipeline.
func compilePipeline(specs []FilterConfig) (filter.Pipeline, error) {
	pipeline := filter.New()

	for _, spec := range specs {
		if spec.Type == FilterAnyOf {
			union, err := compileUnion(spec)
			if err != nil {
				return filter.Pipeline{}, err
			}

			pipeline = pipeline.Intersect(union)

			continue
		}

		pred, err := compileFilter(spec)
		if err != nil {
			return filter.Pipeline{}, err
		}

		pipeline = pipeline.Add(pred)
	}

	return pipeline, nil
}

// compileUnion folds the nested filters of an any_of spec with OR.
func compileUnion(spec FilterConfig) (filter.Pipeline, error) {
	if len(spec.Filters) == 0 {
		return filter.Pipeline{}, fmt.Errorf("%w: any_of needs nested filters", ErrBadFilterSpec)
	}

	var union filter.Pipeline

	for i, nested := range spec.Filters {
		branch, err := compilePipeline([]FilterConfig{nested})
		if err != nil {
			return filter.Pipeline{}, err
		}

		if i == 0 {
			union = branch

			continue
		}

		union = union.Union(branch)
	}

	return union, nil
}

func compileFilter(spec FilterConfig) (*filter.Predicate, error) {
	switch spec.Type {
	case FilterFieldExists:
		if spec.Tags == "" {
			return nil, fmt.Errorf("%w: field_exists needs tags", ErrBadFilterSpec)
		}

		return filter.ByFieldExists(filter.ParseTags(spec.Tags)), nil
	case FilterCharPosition:
		return compileCharPosition(spec)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, spec.Type)
	}
}

func compileCharPosition(spec FilterConfig) (*filter.Predicate, error) {
	if spec.Tags == "" {
		return nil, fmt.Errorf("%w: char_position needs tags", ErrBadFilterSpec)
	}

	start, end, err := parseRange(spec.Range)
	if err != nil {
		return nil, err
	}

	op := filter.OpEq
	if spec.Op != "" {
		op, err = filter.ParseOp(spec.Op)
		if err != nil {
			return nil, err
		}
	}

	var subfields []string
	if spec.Subfields != "" {
		subfields = []string{spec.Subfields}
	}

	return filter.ByCharPosition(filter.CharPosition{
		Tags:      filter.ParseTags(spec.Tags),
		Start:     start,
		End:       end,
		Value:     spec.Value,
		Op:        op,
		Subfields: subfields,
		Numeric:   spec.Numeric,
	}), nil
}

func parseRange(r []int) (int, int, error) {
	switch len(r) {
	case rangeLenSingle:
		return r[0], r[0], nil
	case rangeLenPair:
		if r[1] < r[0] {
			return 0, 0, fmt.Errorf("%w: range end before start", ErrBadFilterSpec)
		}

		return r[0], r[1], nil
	default:
		return 0, 0, fmt.Errorf("%w: range needs 1 or 2 elements", ErrBadFilterSpec)
	}
}
