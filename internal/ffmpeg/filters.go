package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder helps construct ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// ScaleCap adds a scale filter that caps the longer side at maxDim
// without ever upscaling, preserving aspect ratio and forcing both
// dimensions even. Commas inside min() are escaped because -vf treats
// bare commas as filter separators.
func (fb *FilterBuilder) ScaleCap(maxDim int) *FilterBuilder {
	if maxDim <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf(
		"scale=w=min(%d\\,iw):h=min(%d\\,ih):force_original_aspect_ratio=decrease:force_divisible_by=2",
		maxDim, maxDim))
	return fb
}

// FPS adds an fps filter
func (fb *FilterBuilder) FPS(fps float64) *FilterBuilder {
	if fps <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fps=%f", fps))
	return fb
}

// Grayscale forces single-channel output
func (fb *FilterBuilder) Grayscale() *FilterBuilder {
	fb.filters = append(fb.filters, "format=gray")
	return fb
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}
