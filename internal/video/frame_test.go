package video

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadFrame(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame_000003.jpg")
	writeTestImage(t, path, 8, 6, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	frame, err := LoadFrame(path, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, frame.Index)
	assert.Equal(t, 8, frame.Width)
	assert.Equal(t, 6, frame.Height)
}

func TestLoadFrameMissing(t *testing.T) {
	_, err := LoadFrame(filepath.Join(t.TempDir(), "nope.jpg"), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 7")
}

func TestLuminance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gray.png")
	writeTestImage(t, path, 4, 4, color.RGBA{R: 120, G: 120, B: 120, A: 255})

	frame, err := LoadFrame(path, 0)
	require.NoError(t, err)

	luma := frame.Luminance()
	require.Len(t, luma, 16)
	for i, v := range luma {
		assert.EqualValues(t, 120, v, "pixel %d", i)
	}
}

func TestLuminanceWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "green.png")
	writeTestImage(t, path, 2, 2, color.RGBA{G: 255, A: 255})

	frame, err := LoadFrame(path, 0)
	require.NoError(t, err)

	// Pure green: 0.587 * 255 = 149.685, rounds to 150
	for _, v := range frame.Luminance() {
		assert.EqualValues(t, 150, v)
	}
}

func TestStorePathsAndCount(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "frames", "frame_000000.jpg"), store.FramePath(0))
	assert.Equal(t, filepath.Join(root, "tight", "frame_000012.png"), store.TightMaskPath(12))
	assert.Equal(t, filepath.Join(root, "smooth", "frame_000012.png"), store.SmoothMaskPath(12))

	assert.Equal(t, 0, store.CountFrames())

	for i := 0; i < 3; i++ {
		writeTestImage(t, store.FramePath(i), 2, 2, color.Black)
	}
	// A gap: frame 4 without frame 3 must not extend the count
	writeTestImage(t, store.FramePath(4), 2, 2, color.Black)

	assert.Equal(t, 3, store.CountFrames())
}
