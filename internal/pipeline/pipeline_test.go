package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/cutout/internal/config"
	"github.com/keagan/cutout/internal/mask"
	"github.com/keagan/cutout/internal/seg"
	"github.com/keagan/cutout/internal/video"
)

// stubSegmenter returns canned confidence maps so pipeline behavior is
// deterministic and needs no model.
type stubSegmenter struct {
	confidence uint8
	failAt     int // frame index to fail on, -1 to never fail
}

func newStubSegmenter(confidence uint8) *stubSegmenter {
	return &stubSegmenter{confidence: confidence, failAt: -1}
}

func (s *stubSegmenter) Classify(ctx context.Context, frame *video.Frame) (*mask.Gray, error) {
	if frame.Index == s.failAt {
		return nil, fmt.Errorf("model exploded")
	}
	conf := mask.NewGray(frame.Width, frame.Height)
	conf.Fill(s.confidence)
	return conf, nil
}

func (s *stubSegmenter) Close() error { return nil }

var _ seg.Segmenter = (*stubSegmenter)(nil)

// writeFrames populates a store with constant-gray frames, one level
// per entry. PNG content behind a .jpg name is fine: the decoder sniffs.
func writeFrames(t *testing.T, store *video.Store, levels []uint8) {
	t.Helper()
	for i, level := range levels {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				img.Set(x, y, color.RGBA{R: level, G: level, B: level, A: 255})
			}
		}
		f, err := os.Create(store.FramePath(i))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Concurrency = 2
	// Identity-ish tightening so assertions stay exact
	cfg.Mask.ErosionIterations = 0
	cfg.Mask.BlurRadius = 0
	return cfg
}

func testPipeline(t *testing.T, cfg *config.Config, segmenter seg.Segmenter) *Pipeline {
	t.Helper()
	return &Pipeline{
		logger:    zerolog.New(os.Stderr).Level(zerolog.WarnLevel),
		cfg:       cfg,
		segmenter: segmenter,
	}
}

func readMaskPNG(t *testing.T, path string) *mask.Gray {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	return mask.FromImage(img)
}

func TestProcessProducesMasksAndBoundaries(t *testing.T) {
	store, err := video.NewStore(t.TempDir())
	require.NoError(t, err)

	// Two dark frames, then a hard cut to three bright frames
	writeFrames(t, store, []uint8{10, 12, 220, 222, 220})

	p := testPipeline(t, testConfig(), newStubSegmenter(255))

	boundaries, err := p.process(context.Background(), store, 5, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, boundaries)

	for i := 0; i < 5; i++ {
		require.FileExists(t, store.TightMaskPath(i))
		require.FileExists(t, store.SmoothMaskPath(i))
	}

	// Solid confidence above the cutoff: every smoothed mask is solid
	// white regardless of scene structure.
	m := readMaskPNG(t, store.SmoothMaskPath(3))
	assert.Equal(t, 8, m.Width)
	assert.Equal(t, 8, m.Height)
	for i, v := range m.Pix {
		assert.EqualValues(t, 255, v, "pixel %d", i)
	}
}

func TestProcessInvertFlipsPolarity(t *testing.T) {
	store, err := video.NewStore(t.TempDir())
	require.NoError(t, err)
	writeFrames(t, store, []uint8{100, 100})

	p := testPipeline(t, testConfig(), newStubSegmenter(255))

	_, err = p.process(context.Background(), store, 2, true)
	require.NoError(t, err)

	m := readMaskPNG(t, store.SmoothMaskPath(0))
	for i, v := range m.Pix {
		assert.EqualValues(t, 0, v, "pixel %d", i)
	}
}

func TestProcessBelowThresholdYieldsBlackMask(t *testing.T) {
	store, err := video.NewStore(t.TempDir())
	require.NoError(t, err)
	writeFrames(t, store, []uint8{100})

	// Confidence exactly at the cutoff counts as background
	p := testPipeline(t, testConfig(), newStubSegmenter(180))

	_, err = p.process(context.Background(), store, 1, false)
	require.NoError(t, err)

	m := readMaskPNG(t, store.SmoothMaskPath(0))
	for i, v := range m.Pix {
		assert.EqualValues(t, 0, v, "pixel %d", i)
	}
}

func TestProcessOracleFailureIsFatal(t *testing.T) {
	store, err := video.NewStore(t.TempDir())
	require.NoError(t, err)
	writeFrames(t, store, []uint8{50, 50, 50, 50, 50})

	segmenter := newStubSegmenter(255)
	segmenter.failAt = 3

	p := testPipeline(t, testConfig(), segmenter)

	_, err = p.process(context.Background(), store, 5, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 3")
}

func TestProcessRejectsMismatchedConfidenceMap(t *testing.T) {
	store, err := video.NewStore(t.TempDir())
	require.NoError(t, err)
	writeFrames(t, store, []uint8{50})

	p := testPipeline(t, testConfig(), &wrongSizeSegmenter{})

	_, err = p.process(context.Background(), store, 1, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence map")
}

type wrongSizeSegmenter struct{}

func (w *wrongSizeSegmenter) Classify(ctx context.Context, frame *video.Frame) (*mask.Gray, error) {
	return mask.NewGray(frame.Width/2, frame.Height), nil
}

func (w *wrongSizeSegmenter) Close() error { return nil }

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeRemoveBg, mode)
	assert.False(t, mode.Invert())

	mode, err = ParseMode("removePerson")
	require.NoError(t, err)
	assert.True(t, mode.Invert())

	_, err = ParseMode("sepia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestRunMissingInput(t *testing.T) {
	cfg := testConfig()
	p := testPipeline(t, cfg, newStubSegmenter(255))

	_, err := p.Run(context.Background(), "/does/not/exist.mp4", "out.mp4", ModeRemoveBg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
