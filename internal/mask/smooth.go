package mask

import "sort"

// Weights are the neighbor blend factors for temporal smoothing,
// ordered (previous, current, next). They should sum to 1.0.
type Weights struct {
	Prev    float64
	Current float64
	Next    float64
}

// DefaultWeights returns the reference blend tuning
func DefaultWeights() Weights {
	return Weights{Prev: 0.15, Current: 0.70, Next: 0.15}
}

// SmoothFrame blends the tightened mask at index i with its immediate
// neighbors. A neighbor contributes only if it exists and belongs to the
// same scene as frame i; the weight of an excluded neighbor is dropped,
// not redistributed, and the blend renormalizes by the weight actually
// used. Near scene boundaries this means less smoothing rather than a
// blend across unrelated shots.
func SmoothFrame(tight []*Gray, boundaries []int, w Weights, i int) *Gray {
	start, end := sceneRange(boundaries, i, len(tight))

	type contrib struct {
		m *Gray
		w float64
	}
	var contribs []contrib
	var wsum float64

	window := []struct {
		off    int
		weight float64
	}{
		{-1, w.Prev},
		{0, w.Current},
		{1, w.Next},
	}
	for _, nb := range window {
		j := i + nb.off
		weight := nb.weight
		if j < start || j >= end {
			continue
		}
		contribs = append(contribs, contrib{m: tight[j], w: weight})
		wsum += weight
	}

	if len(contribs) == 0 || wsum == 0 {
		// Cannot happen while offset 0 carries weight, but copying
		// through is the safe degenerate answer.
		return tight[i].Clone()
	}

	out := NewGray(tight[i].Width, tight[i].Height)
	for p := range out.Pix {
		var sum float64
		for _, c := range contribs {
			sum += c.w * float64(c.m.Pix[p])
		}
		out.Pix[p] = clamp255(sum / wsum)
	}
	return out
}

// Smooth produces one smoothed mask per tightened mask, frame-index
// preserving. Boundaries must be the sorted scene-cut set including 0.
func Smooth(tight []*Gray, boundaries []int, w Weights) []*Gray {
	out := make([]*Gray, len(tight))
	for i := range tight {
		out[i] = SmoothFrame(tight, boundaries, w, i)
	}
	return out
}

// sceneRange returns the half-open frame range [start, end) of the scene
// containing frame i: the largest boundary <= i up to the next boundary,
// or n when i falls in the last scene.
func sceneRange(boundaries []int, i, n int) (int, int) {
	// First boundary strictly greater than i.
	next := sort.SearchInts(boundaries, i+1)

	start := 0
	if next > 0 {
		start = boundaries[next-1]
	}
	end := n
	if next < len(boundaries) {
		end = boundaries[next]
	}
	return start, end
}
