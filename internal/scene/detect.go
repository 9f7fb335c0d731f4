// Package scene detects hard cuts between shots from raw frame
// luminance. Gradual transitions (fades, dissolves) are deliberately
// ignored; the mean-absolute-difference signal only spikes on hard cuts,
// which is what the temporal smoother needs to know about.
package scene

// DefaultCutThreshold is the mean-absolute-luminance-difference above
// which consecutive frames are treated as belonging to different shots.
// Tuned empirically; footage with heavy motion may want it higher.
const DefaultCutThreshold = 25.0

// DetectCuts scans consecutive luminance planes and returns the sorted
// set of frame indices that begin a new shot. Index 0 is always a
// boundary: there is no frame before it to compare against. For n
// frames the result never contains an index >= n.
func DetectCuts(lumas [][]uint8, threshold float64) []int {
	boundaries := []int{0}

	for i := 1; i < len(lumas); i++ {
		if MeanAbsDiff(lumas[i-1], lumas[i]) > threshold {
			boundaries = append(boundaries, i)
		}
	}

	return boundaries
}

// MeanAbsDiff computes the average per-pixel absolute difference between
// two equally sized luminance planes.
func MeanAbsDiff(a, b []uint8) float64 {
	if len(a) == 0 {
		return 0
	}

	var total int64
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		if d < 0 {
			d = -d
		}
		total += d
	}
	return float64(total) / float64(len(a))
}
