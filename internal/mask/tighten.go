package mask

import "math"

// TightenOptions controls the per-frame mask refinement
type TightenOptions struct {
	Threshold         uint8   // confidence strictly above this is "subject"
	ErosionIterations int     // 4-connected erosion passes
	BlurRadius        float64 // gaussian sigma in pixels, 0 disables
	Invert            bool    // flip mask polarity as the final step
}

// DefaultTightenOptions returns the tuning used by the reference pipeline
func DefaultTightenOptions() TightenOptions {
	return TightenOptions{
		Threshold:         180,
		ErosionIterations: 2,
		BlurRadius:        1.5,
		Invert:            false,
	}
}

// Tighten converts a raw segmentation confidence map into a refined mask:
// hard threshold, inward 4-connected erosion, then a gaussian blur to
// restore a soft edge. The raw map's mid-tone halo noise cannot survive
// the threshold, and erosion pulls the edge inside the true subject
// boundary so the blur never reintroduces background. Purely a function
// of its input; no cross-frame state.
func Tighten(conf *Gray, opts TightenOptions) *Gray {
	w, h := conf.Width, conf.Height

	subject := make([]bool, w*h)
	for i, v := range conf.Pix {
		subject[i] = v > opts.Threshold
	}

	for it := 0; it < opts.ErosionIterations; it++ {
		subject = erode4(subject, w, h)
	}

	out := NewGray(w, h)
	for i, s := range subject {
		if s {
			out.Pix[i] = 255
		}
	}

	if opts.BlurRadius > 0 {
		gaussianBlur(out, opts.BlurRadius)
	}

	if opts.Invert {
		for i, v := range out.Pix {
			out.Pix[i] = 255 - v
		}
	}

	return out
}

// erode4 keeps a pixel only if itself and all four edge-adjacent
// neighbors are set. Border pixels never have full 4-neighbor support,
// so the outermost row and column always clear.
func erode4(in []bool, w, h int) []bool {
	out := make([]bool, w*h)
	for y := 1; y < h-1; y++ {
		row := y * w
		for x := 1; x < w-1; x++ {
			i := row + x
			out[i] = in[i] && in[i-1] && in[i+1] && in[i-w] && in[i+w]
		}
	}
	return out
}

// gaussianBlur applies a separable gaussian with the given sigma in
// place. The kernel is truncated at image edges and renormalized by the
// weight actually used, so flat regions stay flat and the operation is
// linear in the pixel values.
func gaussianBlur(g *Gray, sigma float64) {
	kernel := gaussianKernel(sigma)
	half := len(kernel) / 2
	w, h := g.Width, g.Height

	tmp := make([]float64, w*h)

	// Horizontal pass: Pix -> tmp
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			var sum, wsum float64
			for k := -half; k <= half; k++ {
				xi := x + k
				if xi < 0 || xi >= w {
					continue
				}
				kw := kernel[k+half]
				sum += kw * float64(g.Pix[row+xi])
				wsum += kw
			}
			tmp[row+x] = sum / wsum
		}
	}

	// Vertical pass: tmp -> Pix
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, wsum float64
			for k := -half; k <= half; k++ {
				yi := y + k
				if yi < 0 || yi >= h {
					continue
				}
				kw := kernel[k+half]
				sum += kw * tmp[yi*w+x]
				wsum += kw
			}
			g.Pix[y*w+x] = clamp255(sum / wsum)
		}
	}
}

// gaussianKernel builds a normalized 1D kernel truncated at 3 sigma
func gaussianKernel(sigma float64) []float64 {
	half := int(math.Ceil(sigma * 3))
	if half < 1 {
		half = 1
	}

	kernel := make([]float64, 2*half+1)
	var sum float64
	for i := -half; i <= half; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+half] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func clamp255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
