// Package seg abstracts the subject segmentation model behind a single
// capability: turn one video frame into a per-pixel confidence map.
// Keeping the model opaque lets the pipeline swap the real ONNX session
// for a deterministic fake in tests.
package seg

import (
	"context"

	"github.com/keagan/cutout/internal/mask"
	"github.com/keagan/cutout/internal/video"
)

// Segmenter maps an RGB frame to a same-resolution confidence map with
// values in [0, 255], higher meaning more likely subject.
type Segmenter interface {
	Classify(ctx context.Context, frame *video.Frame) (*mask.Gray, error)
	Close() error
}
