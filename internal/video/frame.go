package video

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Frame is one decoded frame of the input sequence, 0-indexed in
// presentation order. Frames are immutable once loaded.
type Frame struct {
	Index  int
	Width  int
	Height int
	Img    image.Image
}

// LoadFrame decodes a frame image from disk
func LoadFrame(path string, index int) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %d: %w", index, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %d: %w", index, err)
	}

	bounds := img.Bounds()
	return &Frame{
		Index:  index,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Img:    img,
	}, nil
}

// Luminance converts the frame to a single-channel plane using the
// usual BT.601 weights.
func (f *Frame) Luminance() []uint8 {
	bounds := f.Img.Bounds()
	out := make([]uint8, f.Width*f.Height)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := f.Img.At(x, y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			out[i] = uint8(lum + 0.5)
			i++
		}
	}
	return out
}
