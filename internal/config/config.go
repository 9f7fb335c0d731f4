package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	ScratchDir  string `yaml:"scratch_dir"` // empty means os.MkdirTemp
	Concurrency int    `yaml:"concurrency"` // 0 means runtime.NumCPU

	// Frame extraction settings
	Frames FramesConfig `yaml:"frames"`

	// Segmentation model settings
	Segmentation SegmentationConfig `yaml:"segmentation"`

	// Mask refinement settings
	Mask MaskConfig `yaml:"mask"`

	// Scene-cut detection settings
	Scene SceneConfig `yaml:"scene"`

	// Temporal smoothing settings
	Smoothing SmoothingConfig `yaml:"smoothing"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type FramesConfig struct {
	// MaxDimension caps the longer side of extracted frames. Frames are
	// never upscaled and dimensions are forced even.
	MaxDimension int `yaml:"max_dimension"`
	JPEGQuality  int `yaml:"jpeg_quality"` // ffmpeg -q:v scale, lower is better
}

type SegmentationConfig struct {
	ModelPath  string `yaml:"model_path" env:"CUTOUT_MODEL_PATH"`
	InputName  string `yaml:"input_name"`
	OutputName string `yaml:"output_name"`
	InputSize  int    `yaml:"input_size"` // model input side length, square
}

type MaskConfig struct {
	Threshold         uint8   `yaml:"threshold"`          // confidence cutoff for "subject"
	ErosionIterations int     `yaml:"erosion_iterations"` // 4-connected erosion passes
	BlurRadius        float64 `yaml:"blur_radius"`        // gaussian sigma in pixels
}

type SceneConfig struct {
	// CutThreshold is the mean absolute luminance difference above which
	// consecutive frames are considered to belong to different shots.
	CutThreshold float64 `yaml:"cut_threshold"`
}

type SmoothingConfig struct {
	PrevWeight    float64 `yaml:"prev_weight"`
	CurrentWeight float64 `yaml:"current_weight"`
	NextWeight    float64 `yaml:"next_weight"`
}

type FFmpegConfig struct {
	Threads int    `yaml:"threads"`
	Preset  string `yaml:"preset"`
	CRF     int    `yaml:"crf"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the knobs that can silently ruin a run
func (c *Config) Validate() error {
	if c.Mask.ErosionIterations < 0 {
		return fmt.Errorf("erosion_iterations must be >= 0, got %d", c.Mask.ErosionIterations)
	}
	if c.Mask.BlurRadius < 0 {
		return fmt.Errorf("blur_radius must be >= 0, got %g", c.Mask.BlurRadius)
	}
	if c.Scene.CutThreshold <= 0 {
		return fmt.Errorf("scene cut_threshold must be > 0, got %g", c.Scene.CutThreshold)
	}
	sum := c.Smoothing.PrevWeight + c.Smoothing.CurrentWeight + c.Smoothing.NextWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("smoothing weights must sum to 1.0, got %g", sum)
	}
	if c.Frames.MaxDimension < 2 {
		return fmt.Errorf("frames max_dimension must be >= 2, got %d", c.Frames.MaxDimension)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		ScratchDir:  "",
		Concurrency: 0,
		Frames: FramesConfig{
			MaxDimension: 540,
			JPEGQuality:  3,
		},
		Segmentation: SegmentationConfig{
			ModelPath:  "./models/u2net_human_seg.onnx",
			InputName:  "input.1",
			OutputName: "output",
			InputSize:  320,
		},
		Mask: MaskConfig{
			Threshold:         180,
			ErosionIterations: 2,
			BlurRadius:        1.5,
		},
		Scene: SceneConfig{
			CutThreshold: 25.0,
		},
		Smoothing: SmoothingConfig{
			PrevWeight:    0.15,
			CurrentWeight: 0.70,
			NextWeight:    0.15,
		},
		FFmpeg: FFmpegConfig{
			Threads: 0,
			Preset:  "veryfast",
			CRF:     23,
		},
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func findConfigFile() string {
	candidates := []string{
		"./cutout.yaml",
		"./cutout.yml",
		filepath.Join(os.Getenv("HOME"), ".cutout", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
