package scene

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantLuma(n int, v uint8) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestMeanAbsDiff(t *testing.T) {
	a := constantLuma(100, 10)
	b := constantLuma(100, 40)

	assert.Equal(t, 30.0, MeanAbsDiff(a, b))
	assert.Equal(t, 30.0, MeanAbsDiff(b, a), "symmetric")
	assert.Equal(t, 0.0, MeanAbsDiff(a, a))
	assert.Equal(t, 0.0, MeanAbsDiff(nil, nil))
}

func TestDetectCutsSingleFrame(t *testing.T) {
	cuts := DetectCuts([][]uint8{constantLuma(16, 100)}, DefaultCutThreshold)
	assert.Equal(t, []int{0}, cuts)
}

func TestDetectCutsHardCut(t *testing.T) {
	lumas := [][]uint8{
		constantLuma(64, 10),
		constantLuma(64, 12),
		constantLuma(64, 200), // hard cut
		constantLuma(64, 198),
	}
	cuts := DetectCuts(lumas, DefaultCutThreshold)
	assert.Equal(t, []int{0, 2}, cuts)
}

func TestDetectCutsStaticSequence(t *testing.T) {
	lumas := [][]uint8{
		constantLuma(64, 100),
		constantLuma(64, 110), // MAD 10, below cutoff
		constantLuma(64, 100),
	}
	cuts := DetectCuts(lumas, DefaultCutThreshold)
	assert.Equal(t, []int{0}, cuts)
}

func TestDetectCutsThresholdIsStrict(t *testing.T) {
	lumas := [][]uint8{
		constantLuma(64, 0),
		constantLuma(64, 25), // MAD exactly at the cutoff: no cut
		constantLuma(64, 51), // MAD 26: cut
	}
	cuts := DetectCuts(lumas, 25.0)
	assert.Equal(t, []int{0, 2}, cuts)
}

func TestDetectCutsBoundaryInvariants(t *testing.T) {
	lumas := make([][]uint8, 20)
	for i := range lumas {
		// Alternate shots every 5 frames
		lumas[i] = constantLuma(32, uint8((i/5)*60))
	}

	cuts := DetectCuts(lumas, DefaultCutThreshold)

	require.NotEmpty(t, cuts)
	assert.Equal(t, 0, cuts[0], "index 0 is always a boundary")
	assert.True(t, sort.IntsAreSorted(cuts), "boundaries sorted ascending")
	for i := 1; i < len(cuts); i++ {
		assert.Greater(t, cuts[i], cuts[i-1], "strictly increasing")
	}
	assert.Less(t, cuts[len(cuts)-1], len(lumas), "never an index >= frame count")
	assert.Equal(t, []int{0, 5, 10, 15}, cuts)
}
