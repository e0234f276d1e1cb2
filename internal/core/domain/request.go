package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultSharpenAmount   = 1.0
	DefaultDenoiseStrength = 6.0
)

// FilterOptions configures the classical filter stage. The zero value is not the identity,
// use DefaultFilterOptions.
type FilterOptions struct {
	Sharpen         bool    `json:"sharpen"`
	Contrast        float64 `json:"contrast"`
	Saturation      float64 `json:"saturation"`
	Gamma           float64 `json:"gamma"`
	Denoise         bool    `json:"denoise"`
	// SharpenAmount and DenoiseStrength fall back to their defaults when nil. An explicit 0 is the identity.
	SharpenAmount   *float64 `json:"sharpen_amount,omitempty"`
	DenoiseStrength *float64 `json:"denoise_strength,omitempty"`
}

func DefaultFilterOptions() FilterOptions {
	return FilterOptions{Contrast: 1.0, Saturation: 1.0, Gamma: 1.0}
}

// Validate rejects parameters outside their domain.
func (o FilterOptions) Validate() error {
	if math.IsNaN(o.Gamma) || math.IsInf(o.Gamma, 0) || o.Gamma <= 0 {
		return &ValidationError{Field: "gamma", Reason: "must be greater than 0"}
	}

	nonNegative := []struct {
		name  string
		value *float64
	}{
		{"contrast", &o.Contrast},
		{"saturation", &o.Saturation},
		{"sharpen amount", o.SharpenAmount},
		{"denoise strength", o.DenoiseStrength},
	}
	for _, p := range nonNegative {
		if p.value == nil {
			continue
		}
		if v := *p.value; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &ValidationError{Field: p.name, Reason: "must be a finite number >= 0"}
		}
	}

	return nil
}

// EffectiveSharpenAmount is the unsharp amount to apply, 0 when sharpening is off.
func (o FilterOptions) EffectiveSharpenAmount() float64 {
	if !o.Sharpen {
		return 0
	}
	if o.SharpenAmount == nil {
		return DefaultSharpenAmount
	}
	return *o.SharpenAmount
}

// EffectiveDenoiseStrength is the filter strength to apply, 0 when denoising is off.
func (o FilterOptions) EffectiveDenoiseStrength() float64 {
	if !o.Denoise {
		return 0
	}
	if o.DenoiseStrength == nil {
		return DefaultDenoiseStrength
	}
	return *o.DenoiseStrength
}

// IsIdentity reports whether every filter step is a no-op.
func (o FilterOptions) IsIdentity() bool {
	return o.EffectiveDenoiseStrength() == 0 && o.EffectiveSharpenAmount() == 0 &&
		o.Contrast == 1 && o.Saturation == 1 && o.Gamma == 1
}

// ProcessingRequest selects the stages of one pipeline run. A nil Filters skips the filter stage.
type ProcessingRequest struct {
	Upscale     bool           `json:"upscale"`
	FaceRestore bool           `json:"face_restore"`
	Colorize    bool           `json:"colorize"`
	Filters     *FilterOptions `json:"opencv"`
}

func (r ProcessingRequest) Validate() error {
	if r.Filters == nil {
		return nil
	}
	return r.Filters.Validate()
}

// IsEmpty reports whether no stage is enabled.
func (r ProcessingRequest) IsEmpty() bool {
	return !r.Upscale && !r.FaceRestore && !r.Colorize && r.Filters == nil
}

// Operations serializes the request for the version ledger.
func (r ProcessingRequest) Operations() string {
	b, err := json.Marshal(r)
	if err != nil {
		// only plain fields, marshalling cannot fail for finite values
		return "{}"
	}
	return string(b)
}

// ParseOperations builds a request from bot arguments such as
// "upscale face colorize sharpen=0.5 denoise contrast=1.2 saturation=1.1 gamma=0.9".
func ParseOperations(tokens []string) (ProcessingRequest, error) {
	var req ProcessingRequest

	filters := func() *FilterOptions {
		if req.Filters == nil {
			o := DefaultFilterOptions()
			req.Filters = &o
		}
		return req.Filters
	}

	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}

		name, raw, hasValue := strings.Cut(token, "=")

		var value *float64
		if hasValue {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return ProcessingRequest{}, &ValidationError{Field: name, Reason: fmt.Sprintf("%q is not a number", raw)}
			}
			value = &v
		}

		switch name {
		case "upscale":
			req.Upscale = true
		case "face", "face_restore":
			req.FaceRestore = true
		case "colorize":
			req.Colorize = true
		case "sharpen":
			f := filters()
			f.Sharpen = true
			f.SharpenAmount = value
		case "denoise":
			f := filters()
			f.Denoise = true
			f.DenoiseStrength = value
		case "contrast", "saturation", "gamma":
			if value == nil {
				return ProcessingRequest{}, &ValidationError{Field: name, Reason: "requires a value, e.g. " + name + "=1.2"}
			}
			f := filters()
			switch name {
			case "contrast":
				f.Contrast = *value
			case "saturation":
				f.Saturation = *value
			default:
				f.Gamma = *value
			}
		default:
			return ProcessingRequest{}, &ValidationError{Field: "operation", Reason: fmt.Sprintf("unknown operation %q", name)}
		}
	}

	return req, nil
}

// DescribeOperations renders a ledger operations record as a short list such as
// "colorize, upscale, contrast=1.5".
func DescribeOperations(operations string) string {
	if operations == UploadOperations {
		return "upload"
	}

	var req ProcessingRequest
	if err := json.Unmarshal([]byte(operations), &req); err != nil {
		return operations
	}

	var parts []string
	if req.Colorize {
		parts = append(parts, "colorize")
	}
	if req.FaceRestore {
		parts = append(parts, "face")
	}
	if req.Upscale {
		parts = append(parts, "upscale")
	}
	if f := req.Filters; f != nil {
		n := len(parts)
		if f.Denoise {
			parts = append(parts, fmt.Sprintf("denoise=%g", f.EffectiveDenoiseStrength()))
		}
		if f.Sharpen {
			parts = append(parts, fmt.Sprintf("sharpen=%g", f.EffectiveSharpenAmount()))
		}
		if f.Contrast != 1 {
			parts = append(parts, fmt.Sprintf("contrast=%g", f.Contrast))
		}
		if f.Saturation != 1 {
			parts = append(parts, fmt.Sprintf("saturation=%g", f.Saturation))
		}
		if f.Gamma != 1 {
			parts = append(parts, fmt.Sprintf("gamma=%g", f.Gamma))
		}
		if len(parts) == n {
			parts = append(parts, "filters")
		}
	}
	if len(parts) == 0 {
		return "copy"
	}

	return strings.Join(parts, ", ")
}
