package ffmpeg

import (
	"context"
	"fmt"
)

// ExtractOptions configures frame extraction
type ExtractOptions struct {
	// MaxDimension caps the longer side of extracted frames; the source
	// is never upscaled and both dimensions come out even.
	MaxDimension int
	// JPEGQuality is ffmpeg's -q:v scale (2-31, lower is better)
	JPEGQuality  int
	ProgressFunc ProgressFunc
}

// ExtractFrames decodes the input video into a dense, 0-indexed JPEG
// sequence at outputPattern (printf-style, e.g. frames/frame_%06d.jpg).
func (e *Executor) ExtractFrames(ctx context.Context, input, outputPattern string, opts ExtractOptions) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if outputPattern == "" {
		return fmt.Errorf("output pattern is required")
	}

	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = 3
	}

	e.logger.Info().
		Str("input", input).
		Str("pattern", outputPattern).
		Int("max_dimension", opts.MaxDimension).
		Msg("extracting frames")

	filter := NewFilterBuilder().ScaleCap(opts.MaxDimension).Build()

	args := []string{"-i", input}
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args,
		"-q:v", fmt.Sprintf("%d", quality),
		"-start_number", "0",
		outputPattern,
	)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("frame extraction failed: %w", err)
	}

	e.logger.Info().Str("input", input).Msg("frame extraction complete")
	return nil
}

// AssembleOptions configures mask video assembly
type AssembleOptions struct {
	FPS          float64
	Preset       string
	CRF          int
	ProgressFunc ProgressFunc
}

// AssembleVideo re-encodes a 0-indexed image sequence into a video at
// the given frame rate, frame-identical in count and timing to the
// sequence it was extracted from.
func (e *Executor) AssembleVideo(ctx context.Context, inputPattern, output string, opts AssembleOptions) error {
	if inputPattern == "" {
		return fmt.Errorf("input pattern is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.FPS <= 0 {
		return fmt.Errorf("invalid frame rate: %g", opts.FPS)
	}

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}

	e.logger.Info().
		Str("pattern", inputPattern).
		Str("output", output).
		Float64("fps", opts.FPS).
		Msg("assembling mask video")

	args := []string{
		"-framerate", fmt.Sprintf("%g", opts.FPS),
		"-start_number", "0",
		"-i", inputPattern,
		"-c:v", DefaultVideoCodec,
		"-preset", preset,
		"-crf", fmt.Sprintf("%d", crf),
		"-pix_fmt", DefaultPixelFormat,
		output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("mask assembly")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("mask video assembly failed: %w", err)
	}

	e.logger.Info().Str("output", output).Msg("mask video assembled")
	return nil
}
