package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	VideoCodec string
	HasAudio   bool
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame int
	FPS   float64
	Speed string
}

// ProgressFunc is a callback for progress updates during ffmpeg
// operations, called periodically while the operation executes.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// Default encoding settings for mask video assembly. yuv420p keeps the
// output compatible with common decoders; it requires even dimensions,
// which frame extraction guarantees.
const (
	DefaultCRF         = 23
	DefaultPreset      = "veryfast"
	DefaultVideoCodec  = "libx264"
	DefaultPixelFormat = "yuv420p"
)
