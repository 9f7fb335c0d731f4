package mask

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// Gray is a single-channel image buffer. Confidence maps from the
// segmentation model, tightened masks and smoothed masks are all
// instances of this type, indexed by the frame they were derived from.
type Gray struct {
	Width  int
	Height int
	Pix    []uint8 // row-major, len = Width*Height
}

// NewGray allocates a zeroed single-channel buffer
func NewGray(width, height int) *Gray {
	return &Gray{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the value at (x, y)
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Set writes the value at (x, y)
func (g *Gray) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// Clone returns a deep copy
func (g *Gray) Clone() *Gray {
	out := NewGray(g.Width, g.Height)
	copy(out.Pix, g.Pix)
	return out
}

// Fill sets every pixel to v
func (g *Gray) Fill(v uint8) {
	for i := range g.Pix {
		g.Pix[i] = v
	}
}

// ToImage wraps the buffer in a stdlib image.Gray. The pixel data is
// shared, not copied.
func (g *Gray) ToImage() *image.Gray {
	return &image.Gray{
		Pix:    g.Pix,
		Stride: g.Width,
		Rect:   image.Rect(0, 0, g.Width, g.Height),
	}
}

// FromImage copies an image into a Gray buffer, converting to luminance
// where the source has color.
func FromImage(img image.Image) *Gray {
	bounds := img.Bounds()
	out := NewGray(bounds.Dx(), bounds.Dy())

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < out.Height; y++ {
			copy(out.Pix[y*out.Width:(y+1)*out.Width],
				src.Pix[y*src.Stride:y*src.Stride+out.Width])
		}
		return out
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g8, b, _ := img.At(x, y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g8>>8) + 0.114*float64(b>>8)
			out.Pix[i] = uint8(lum + 0.5)
			i++
		}
	}
	return out
}

// WritePNG encodes the mask as a grayscale PNG
func (g *Gray) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mask file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, g.ToImage()); err != nil {
		return fmt.Errorf("failed to encode mask png: %w", err)
	}
	return nil
}
