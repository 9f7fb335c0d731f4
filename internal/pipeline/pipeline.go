package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keagan/cutout/internal/config"
	"github.com/keagan/cutout/internal/ffmpeg"
	"github.com/keagan/cutout/internal/mask"
	"github.com/keagan/cutout/internal/scene"
	"github.com/keagan/cutout/internal/seg"
	"github.com/keagan/cutout/internal/video"
	"github.com/keagan/cutout/pkg/util"
)

// fallbackFPS is used when ffprobe can't report a usable frame rate
const fallbackFPS = 30.0

// Pipeline orchestrates the whole matting workflow: frame extraction,
// per-frame segmentation and tightening, scene-cut detection, temporal
// smoothing, and mask video assembly.
type Pipeline struct {
	logger    zerolog.Logger
	cfg       *config.Config
	ffmpeg    *ffmpeg.Executor
	segmenter seg.Segmenter

	// KeepScratch retains the scratch directory after the run instead
	// of the default unconditional removal. Debugging aid only.
	KeepScratch bool
}

// New creates a pipeline instance. The segmenter is owned by the
// pipeline from here on and released by Close.
func New(logger zerolog.Logger, cfg *config.Config, segmenter seg.Segmenter) (*Pipeline, error) {
	ffmpegExec, err := ffmpeg.New(logger, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return &Pipeline{
		logger:    logger.With().Str("component", "pipeline").Logger(),
		cfg:       cfg,
		ffmpeg:    ffmpegExec,
		segmenter: segmenter,
	}, nil
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	if p.segmenter != nil {
		return p.segmenter.Close()
	}
	return nil
}

// Run executes the full pipeline: input video in, grayscale mask video
// out. Any failure aborts the run; there is no partial-output mode.
func (p *Pipeline) Run(ctx context.Context, input, output string, mode Mode) (*Result, error) {
	if !util.FileExists(input) {
		return nil, fmt.Errorf("input video not found: %s", input)
	}

	scratch, cleanup, err := p.acquireScratch()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	store, err := video.NewStore(scratch)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("input", input).
		Str("output", output).
		Str("mode", string(mode)).
		Str("scratch", scratch).
		Msg("starting mask pipeline")

	// Stage 1: probe the source for its frame rate
	info, err := p.ffmpeg.ProbeVideo(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}
	fps := info.FPS
	if fps <= 0 {
		p.logger.Warn().Float64("fallback", fallbackFPS).Msg("source frame rate unknown, using fallback")
		fps = fallbackFPS
	}

	// Stage 2: extract frames into the scratch store
	err = p.ffmpeg.ExtractFrames(ctx, input, store.FrameSequencePattern(), ffmpeg.ExtractOptions{
		MaxDimension: p.cfg.Frames.MaxDimension,
		JPEGQuality:  p.cfg.Frames.JPEGQuality,
	})
	if err != nil {
		return nil, err
	}

	total := store.CountFrames()
	if total == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", input)
	}
	p.logger.Info().Int("frames", total).Float64("fps", fps).Msg("frames extracted")

	// Stages 3-5: tighten, detect cuts, smooth
	boundaries, err := p.process(ctx, store, total, mode.Invert())
	if err != nil {
		return nil, err
	}

	// Stage 6: assemble smoothed masks at the source frame rate
	err = p.ffmpeg.AssembleVideo(ctx, store.SmoothSequencePattern(), output, ffmpeg.AssembleOptions{
		FPS:    fps,
		Preset: p.cfg.FFmpeg.Preset,
		CRF:    p.cfg.FFmpeg.CRF,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("output", output).
		Int("frames", total).
		Int("scenes", len(boundaries)).
		Msg("mask pipeline complete")

	return &Result{
		Output:     output,
		Frames:     total,
		FPS:        fps,
		Boundaries: boundaries,
	}, nil
}

// process runs the two mask passes over an already populated frame
// store. Pass 1 (segment + tighten) must fully complete before pass 2
// (smooth) starts: smoothing reads neighboring tightened masks, so the
// pool join between the passes is a hard barrier.
func (p *Pipeline) process(ctx context.Context, store *video.Store, total int, invert bool) ([]int, error) {
	tightOpts := mask.TightenOptions{
		Threshold:         p.cfg.Mask.Threshold,
		ErosionIterations: p.cfg.Mask.ErosionIterations,
		BlurRadius:        p.cfg.Mask.BlurRadius,
		Invert:            invert,
	}

	// Pass 1: per-frame, order-independent. Each worker owns distinct
	// indices, so the shared slices need no locking.
	tight := make([]*mask.Gray, total)
	lumas := make([][]uint8, total)

	err := p.forEachFrame(ctx, total, func(i int) error {
		frame, err := video.LoadFrame(store.FramePath(i), i)
		if err != nil {
			return err
		}

		lumas[i] = frame.Luminance()

		conf, err := p.segmenter.Classify(ctx, frame)
		if err != nil {
			return fmt.Errorf("segmentation failed for frame %d: %w", i, err)
		}
		if conf.Width != frame.Width || conf.Height != frame.Height {
			return fmt.Errorf("frame %d: confidence map is %dx%d, frame is %dx%d",
				i, conf.Width, conf.Height, frame.Width, frame.Height)
		}

		tight[i] = mask.Tighten(conf, tightOpts)

		if err := tight[i].WritePNG(store.TightMaskPath(i)); err != nil {
			return err
		}

		p.logProgress("tighten", i, total)
		return nil
	})
	if err != nil {
		return nil, err
	}

	boundaries := scene.DetectCuts(lumas, p.cfg.Scene.CutThreshold)
	p.logger.Info().Ints("boundaries", boundaries).Msg("scene cuts detected")

	// Pass 2: per-output-frame, reads the now immutable tight masks
	weights := mask.Weights{
		Prev:    p.cfg.Smoothing.PrevWeight,
		Current: p.cfg.Smoothing.CurrentWeight,
		Next:    p.cfg.Smoothing.NextWeight,
	}

	err = p.forEachFrame(ctx, total, func(i int) error {
		smoothed := mask.SmoothFrame(tight, boundaries, weights, i)
		if err := smoothed.WritePNG(store.SmoothMaskPath(i)); err != nil {
			return err
		}
		p.logProgress("smooth", i, total)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return boundaries, nil
}

// forEachFrame runs fn over every frame index with a fixed worker pool
// and fails fast: the first error stops the dispatch of further work
// and is the one reported.
func (p *Pipeline) forEachFrame(ctx context.Context, total int, fn func(i int) error) error {
	workers := p.cfg.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total {
		workers = total
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if failed() {
					continue
				}
				if err := fn(i); err != nil {
					fail(err)
				}
			}
		}()
	}

	for i := 0; i < total; i++ {
		if failed() || ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// logProgress mirrors the classic percent readout, every 10 frames and
// on the last one.
func (p *Pipeline) logProgress(stage string, i, total int) {
	if (i+1)%10 == 0 || i == total-1 {
		p.logger.Info().
			Str("stage", stage).
			Int("frame", i+1).
			Int("total", total).
			Int("pct", (i+1)*100/total).
			Msg("progress")
	}
}

// acquireScratch creates the run's temporary storage and returns a
// cleanup that removes it on every exit path unless KeepScratch is set.
func (p *Pipeline) acquireScratch() (string, func(), error) {
	if p.cfg.ScratchDir != "" {
		if err := util.EnsureDir(p.cfg.ScratchDir); err != nil {
			return "", nil, fmt.Errorf("failed to create scratch dir: %w", err)
		}
	}

	dir, err := os.MkdirTemp(p.cfg.ScratchDir, "cutout-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}

	cleanup := func() {
		if p.KeepScratch {
			p.logger.Info().Str("scratch", dir).Msg("keeping scratch directory")
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn().Err(err).Str("scratch", dir).Msg("failed to remove scratch directory")
		}
	}
	return dir, cleanup, nil
}
