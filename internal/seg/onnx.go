package seg

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/keagan/cutout/internal/config"
	"github.com/keagan/cutout/internal/mask"
	"github.com/keagan/cutout/internal/video"
)

// ImageNet normalization, which the u2net family of portrait
// segmentation exports was trained with.
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// ONNXSegmenter runs a salient-object segmentation model (a
// u2net_human_seg style export) through onnxruntime. The session is not
// safe for concurrent Run calls, so Classify serializes inference; the
// rest of the per-frame work stays parallel in the pipeline.
type ONNXSegmenter struct {
	logger     zerolog.Logger
	session    *ort.DynamicAdvancedSession
	inputShape ort.Shape
	inputSize  int

	mu sync.Mutex
}

// NewONNXSegmenter loads the model and prepares an inference session
func NewONNXSegmenter(logger zerolog.Logger, cfg config.SegmentationConfig) (*ONNXSegmenter, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	sess, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create segmentation session: %w", err)
	}

	logger.Info().
		Str("model", cfg.ModelPath).
		Str("input", cfg.InputName).
		Str("output", cfg.OutputName).
		Int("side", cfg.InputSize).
		Msg("segmentation model loaded")

	return &ONNXSegmenter{
		logger:     logger.With().Str("component", "segmenter").Logger(),
		session:    sess,
		inputShape: ort.NewShape(1, 3, int64(cfg.InputSize), int64(cfg.InputSize)),
		inputSize:  cfg.InputSize,
	}, nil
}

// Classify runs the model on one frame and returns a confidence map at
// the frame's resolution.
func (s *ONNXSegmenter) Classify(ctx context.Context, frame *video.Frame) (*mask.Gray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputTensor, err := s.preprocess(frame)
	if err != nil {
		return nil, fmt.Errorf("frame %d preprocessing failed: %w", frame.Index, err)
	}
	defer inputTensor.Destroy()

	outShape := ort.NewShape(1, 1, int64(s.inputSize), int64(s.inputSize))
	outTensor, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outTensor.Destroy()

	s.mu.Lock()
	err = s.session.Run(
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outTensor},
	)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("segmentation inference failed for frame %d: %w", frame.Index, err)
	}

	return s.postprocess(outTensor.GetData(), frame.Width, frame.Height), nil
}

// preprocess resizes the frame to the model's square input and packs it
// as normalized CHW float32.
func (s *ONNXSegmenter) preprocess(frame *video.Frame) (*ort.Tensor[float32], error) {
	side := uint(s.inputSize)
	resized := resize.Resize(side, side, frame.Img, resize.Bilinear)

	data := make([]float32, 3*s.inputSize*s.inputSize)
	bounds := resized.Bounds()
	idx := 0

	for ch := 0; ch < 3; ch++ {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := resized.At(x, y).RGBA()
				var v float32
				switch ch {
				case 0:
					v = float32(r>>8) / 255.0
				case 1:
					v = float32(g>>8) / 255.0
				case 2:
					v = float32(b>>8) / 255.0
				}
				data[idx] = (v - normMean[ch]) / normStd[ch]
				idx++
			}
		}
	}

	return ort.NewTensor(s.inputShape, data)
}

// postprocess min-max normalizes the model's saliency map to [0, 255]
// and resizes it back to the frame's resolution.
func (s *ONNXSegmenter) postprocess(logits []float32, width, height int) *mask.Gray {
	lo, hi := logits[0], logits[0]
	for _, v := range logits {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	small := image.NewGray(image.Rect(0, 0, s.inputSize, s.inputSize))
	for i, v := range logits {
		small.Pix[i] = uint8((v - lo) / span * 255)
	}

	if width == s.inputSize && height == s.inputSize {
		return mask.FromImage(small)
	}
	full := resize.Resize(uint(width), uint(height), small, resize.Bilinear)
	return mask.FromImage(full)
}

// Close releases the session and the ONNX runtime environment
func (s *ONNXSegmenter) Close() error {
	s.logger.Debug().Msg("closing segmentation session")
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return err
		}
	}
	return ort.DestroyEnvironment()
}
