package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 {
	return &v
}

func TestFilterOptionsValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(o *FilterOptions)
		wantField string
	}{
		{name: "defaults are valid", mutate: func(_ *FilterOptions) {}},
		{name: "zero gamma", mutate: func(o *FilterOptions) { o.Gamma = 0 }, wantField: "gamma"},
		{name: "negative gamma", mutate: func(o *FilterOptions) { o.Gamma = -1 }, wantField: "gamma"},
		{name: "nan gamma", mutate: func(o *FilterOptions) { o.Gamma = math.NaN() }, wantField: "gamma"},
		{name: "negative contrast", mutate: func(o *FilterOptions) { o.Contrast = -0.1 }, wantField: "contrast"},
		{name: "zero contrast allowed", mutate: func(o *FilterOptions) { o.Contrast = 0 }},
		{name: "negative saturation", mutate: func(o *FilterOptions) { o.Saturation = -2 }, wantField: "saturation"},
		{name: "infinite sharpen amount", mutate: func(o *FilterOptions) { o.SharpenAmount = float(math.Inf(1)) }, wantField: "sharpen amount"},
		{name: "negative denoise strength", mutate: func(o *FilterOptions) { o.DenoiseStrength = float(-1) }, wantField: "denoise strength"},
		{name: "zero sharpen amount allowed", mutate: func(o *FilterOptions) { o.SharpenAmount = float(0) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := DefaultFilterOptions()
			tc.mutate(&o)

			err := o.Validate()
			if tc.wantField == "" {
				require.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.wantField, verr.Field)
		})
	}
}

func TestProcessingRequestValidateWithoutFilters(t *testing.T) {
	req := ProcessingRequest{Upscale: true}
	assert.NoError(t, req.Validate())
	assert.False(t, req.IsEmpty())
	assert.True(t, ProcessingRequest{}.IsEmpty())
}

func TestEffectiveDefaults(t *testing.T) {
	o := DefaultFilterOptions()
	assert.Equal(t, 0.0, o.EffectiveSharpenAmount())
	assert.Equal(t, 0.0, o.EffectiveDenoiseStrength())

	o.Sharpen = true
	o.Denoise = true
	assert.Equal(t, DefaultSharpenAmount, o.EffectiveSharpenAmount())
	assert.Equal(t, DefaultDenoiseStrength, o.EffectiveDenoiseStrength())

	o.SharpenAmount = float(0.3)
	o.DenoiseStrength = float(10)
	assert.Equal(t, 0.3, o.EffectiveSharpenAmount())
	assert.Equal(t, 10.0, o.EffectiveDenoiseStrength())

	o.SharpenAmount = float(0)
	o.DenoiseStrength = float(0)
	assert.Equal(t, 0.0, o.EffectiveSharpenAmount())
	assert.Equal(t, 0.0, o.EffectiveDenoiseStrength())
}

func TestFilterOptionsIsIdentity(t *testing.T) {
	assert.True(t, DefaultFilterOptions().IsIdentity())

	zeroSharpen := DefaultFilterOptions()
	zeroSharpen.Sharpen = true
	zeroSharpen.SharpenAmount = float(0)
	assert.True(t, zeroSharpen.IsIdentity())

	sharpen := DefaultFilterOptions()
	sharpen.Sharpen = true
	assert.False(t, sharpen.IsIdentity())

	gamma := DefaultFilterOptions()
	gamma.Gamma = 0.9
	assert.False(t, gamma.IsIdentity())
}

func TestOperations(t *testing.T) {
	req := ProcessingRequest{Upscale: true}
	assert.JSONEq(t, `{"upscale":true,"face_restore":false,"colorize":false,"opencv":null}`, req.Operations())

	o := DefaultFilterOptions()
	o.Contrast = 1.5
	req = ProcessingRequest{Colorize: true, Filters: &o}
	assert.JSONEq(t,
		`{"upscale":false,"face_restore":false,"colorize":true,
		"opencv":{"sharpen":false,"contrast":1.5,"saturation":1,"gamma":1,"denoise":false}}`,
		req.Operations())

	o = DefaultFilterOptions()
	o.Sharpen = true
	o.SharpenAmount = float(0)
	var parsed ProcessingRequest
	require.NoError(t, json.Unmarshal([]byte(ProcessingRequest{Filters: &o}.Operations()), &parsed))
	require.NotNil(t, parsed.Filters)
	assert.Equal(t, 0.0, parsed.Filters.EffectiveSharpenAmount())
}

func TestParseOperations(t *testing.T) {
	withFilters := func(mutate func(o *FilterOptions)) *FilterOptions {
		o := DefaultFilterOptions()
		mutate(&o)
		return &o
	}

	tests := []struct {
		name    string
		tokens  []string
		want    ProcessingRequest
		wantErr bool
	}{
		{
			name:   "no tokens",
			tokens: nil,
			want:   ProcessingRequest{},
		},
		{
			name:   "model stages",
			tokens: []string{"upscale", "face", "Colorize"},
			want:   ProcessingRequest{Upscale: true, FaceRestore: true, Colorize: true},
		},
		{
			name:   "filters with values",
			tokens: []string{"contrast=1.5", "gamma=0.8", "sharpen=0.4", "denoise"},
			want: ProcessingRequest{Filters: withFilters(func(o *FilterOptions) {
				o.Contrast = 1.5
				o.Gamma = 0.8
				o.Sharpen = true
				o.SharpenAmount = float(0.4)
				o.Denoise = true
			})},
		},
		{
			name:   "explicit zero amounts are kept",
			tokens: []string{"sharpen=0", "denoise=0"},
			want: ProcessingRequest{Filters: withFilters(func(o *FilterOptions) {
				o.Sharpen = true
				o.SharpenAmount = float(0)
				o.Denoise = true
				o.DenoiseStrength = float(0)
			})},
		},
		{
			name:   "saturation only",
			tokens: []string{"saturation=2"},
			want:   ProcessingRequest{Filters: withFilters(func(o *FilterOptions) { o.Saturation = 2 })},
		},
		{
			name:    "unknown operation",
			tokens:  []string{"sepia"},
			wantErr: true,
		},
		{
			name:    "not a number",
			tokens:  []string{"gamma=abc"},
			wantErr: true,
		},
		{
			name:    "missing value",
			tokens:  []string{"contrast"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseOperations(tc.tokens)
			if tc.wantErr {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDescribeOperations(t *testing.T) {
	identity := DefaultFilterOptions()
	tuned := DefaultFilterOptions()
	tuned.Sharpen = true
	tuned.Contrast = 1.5
	tuned.Gamma = 0.8

	tests := []struct {
		name string
		ops  string
		want string
	}{
		{"upload", UploadOperations, "upload"},
		{"empty request", ProcessingRequest{}.Operations(), "copy"},
		{"stages", ProcessingRequest{Upscale: true, Colorize: true, FaceRestore: true}.Operations(),
			"colorize, face, upscale"},
		{"identity filters", ProcessingRequest{Filters: &identity}.Operations(), "filters"},
		{"tuned filters", ProcessingRequest{Upscale: true, Filters: &tuned}.Operations(),
			"upscale, sharpen=1, contrast=1.5, gamma=0.8"},
		{"zero sharpen", ProcessingRequest{Filters: &FilterOptions{Sharpen: true, SharpenAmount: float(0),
			Contrast: 1, Saturation: 1, Gamma: 1}}.Operations(), "sharpen=0"},
		{"not json", "garbage", "garbage"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DescribeOperations(tc.ops))
		})
	}
}
