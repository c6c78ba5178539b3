package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibsift/bibsift/internal/config"
	"github.com/bibsift/bibsift/pkg/filter"
	"github.com/bibsift/bibsift/pkg/marc"
)

func intPtr(n int) *int {
	return &n
}

func TestCompile_FullConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		BasePath:      "out",
		LogPath:       "run.log",
		LogEvery:      100,
		MaxPerFile:    1000,
		DefaultFormat: config.FormatMarc,
		DefaultLimit:  500,
		Outputs: []config.OutputConfig{
			{
				Name:     "online",
				Format:   config.FormatJSONPretty,
				Limit:    intPtr(50),
				Compress: true,
				Filters: []config.FilterConfig{{
					Type:  config.FilterCharPosition,
					Tags:  "008",
					Range: []int{23},
					Value: "o",
				}},
			},
			{Name: "everything"},
		},
	}

	jobCfg, err := config.Compile(cfg)
	require.NoError(t, err)

	assert.Equal(t, "out", jobCfg.BasePath)
	assert.Equal(t, "run.log", jobCfg.LogPath)
	assert.Equal(t, 100, jobCfg.LogEvery)
	assert.Equal(t, 1000, jobCfg.MaxPerFile)
	require.NotNil(t, jobCfg.DefaultFormat)
	assert.Equal(t, ".mrc", jobCfg.DefaultFormat.Extension)
	require.NotNil(t, jobCfg.DefaultLimit)
	assert.Equal(t, 500, *jobCfg.DefaultLimit)

	require.Len(t, jobCfg.Outputs, 2)

	online := jobCfg.Outputs[0]
	assert.Equal(t, "online", online.Name)
	require.NotNil(t, online.Format)
	assert.Equal(t, ".json", online.Format.Extension)
	require.NotNil(t, online.Limit)
	assert.Equal(t, 50, *online.Limit)
	assert.True(t, online.Compress)
	assert.Equal(t, 1, online.Pipeline.Len())

	everything := jobCfg.Outputs[1]
	assert.Nil(t, everything.Format)
	assert.Nil(t, everything.Limit)
	assert.Zero(t, everything.Pipeline.Len(), "no filters means the always-true pipeline")
}

func TestCompile_CharPositionFilterMatches(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		DefaultFormat: config.FormatMarc,
		Outputs: []config.OutputConfig{{
			Name: "recent",
			Filters: []config.FilterConfig{{
				Type:    config.FilterCharPosition,
				Tags:    "008",
				Range:   []int{7, 10},
				Value:   "2019",
				Op:      "le",
				Numeric: true,
			}},
		}},
	}

	jobCfg, err := config.Compile(cfg)
	require.NoError(t, err)

	pipeline := jobCfg.Outputs[0].Pipeline

	recent := marc.NewFieldIndex([]*marc.Field{{Tag: "008", Data: "011220s2020    xx"}})
	old := marc.NewFieldIndex([]*marc.Field{{Tag: "008", Data: "011220s1995    xx"}})

	ok, err := pipeline.Check(recent)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pipeline.Check(old)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompile_AnyOfBuildsUnion(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		DefaultFormat: config.FormatMarc,
		Outputs: []config.OutputConfig{{
			Name: "identified",
			Filters: []config.FilterConfig{{
				Type: config.FilterAnyOf,
				Filters: []config.FilterConfig{
					{Type: config.FilterFieldExists, Tags: "020"},
					{Type: config.FilterFieldExists, Tags: "022"},
				},
			}},
		}},
	}

	jobCfg, err := config.Compile(cfg)
	require.NoError(t, err)

	pipeline := jobCfg.Outputs[0].Pipeline
	assert.Equal(t, 1, pipeline.Len(), "a union folds into one wrapping predicate")

	isbn := marc.NewFieldIndex([]*marc.Field{{
		Tag: "020", Indicators: [2]string{" ", " "},
		Subfields: []marc.Subfield{{Code: "a", Value: "9780000000000"}},
	}})
	issn := marc.NewFieldIndex([]*marc.Field{{
		Tag: "022", Indicators: [2]string{" ", " "},
		Subfields: []marc.Subfield{{Code: "a", Value: "1234-5678"}},
	}})
	neither := marc.NewFieldIndex([]*marc.Field{{Tag: "001", Data: "1"}})

	for _, tt := range []struct {
		name string
		idx  *marc.FieldIndex
		want bool
	}{
		{"isbn", isbn, true},
		{"issn", issn, true},
		{"neither", neither, false},
	} {
		ok, checkErr := pipeline.Check(tt.idx)
		require.NoError(t, checkErr)
		assert.Equal(t, tt.want, ok, tt.name)
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{
			"unknown default format",
			config.Config{DefaultFormat: "xml"},
			config.ErrUnknownFormat,
		},
		{
			"unknown output format",
			config.Config{
				DefaultFormat: config.FormatMarc,
				Outputs:       []config.OutputConfig{{Name: "x", Format: "xml"}},
			},
			config.ErrUnknownFormat,
		},
		{
			"unknown filter type",
			config.Config{
				DefaultFormat: config.FormatMarc,
				Outputs: []config.OutputConfig{{
					Name:    "x",
					Filters: []config.FilterConfig{{Type: "regex"}},
				}},
			},
			config.ErrUnknownFilter,
		},
		{
			"char_position without tags",
			config.Config{
				DefaultFormat: config.FormatMarc,
				Outputs: []config.OutputConfig{{
					Name:    "x",
					Filters: []config.FilterConfig{{Type: config.FilterCharPosition, Range: []int{0}}},
				}},
			},
			config.ErrBadFilterSpec,
		},
		{
			"bad range",
			config.Config{
				DefaultFormat: config.FormatMarc,
				Outputs: []config.OutputConfig{{
					Name: "x",
					Filters: []config.FilterConfig{{
						Type:  config.FilterCharPosition,
						Tags:  "008",
						Range: []int{5, 2},
					}},
				}},
			},
			config.ErrBadFilterSpec,
		},
		{
			"empty any_of",
			config.Config{
				DefaultFormat: config.FormatMarc,
				Outputs: []config.OutputConfig{{
					Name:    "x",
					Filters: []config.FilterConfig{{Type: config.FilterAnyOf}},
				}},
			},
			config.ErrBadFilterSpec,
		},
		{
			"bad op",
			config.Config{
				DefaultFormat: config.FormatMarc,
				Outputs: []config.OutputConfig{{
					Name: "x",
					Filters: []config.FilterConfig{{
						Type:  config.FilterCharPosition,
						Tags:  "008",
						Range: []int{0},
						Op:    "almost",
					}},
				}},
			},
			filter.ErrUnknownOp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Compile(&tt.cfg)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
