package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/cutout/internal/config"
	"github.com/keagan/cutout/internal/ffmpeg"
	"github.com/keagan/cutout/internal/logging"
	"github.com/keagan/cutout/internal/pipeline"
	"github.com/keagan/cutout/internal/seg"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cutout",
	Short: "cutout - video matting mask pipeline",
	Long: "Generates a temporally coherent grayscale matte video from an input clip,\n" +
		"suitable for use as an alpha mask in a later compositing step.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./cutout.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(probeCmd)
}

var (
	flagThreshold      int
	flagErosion        int
	flagBlurRadius     float64
	flagSceneThreshold float64
	flagWeights        string
	flagWorkers        int
	flagModel          string
	flagKeepScratch    bool
)

var runCmd = &cobra.Command{
	Use:   "run <input_video> <output_mask_video> [mode]",
	Short: "Generate a mask video (mode: removeBg | removePerson)",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		modeArg := ""
		if len(args) == 3 {
			modeArg = args[2]
		}
		mode, err := pipeline.ParseMode(modeArg)
		if err != nil {
			return err
		}

		segmenter, err := seg.NewONNXSegmenter(log.Logger, cfg.Segmentation)
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg, segmenter)
		if err != nil {
			segmenter.Close()
			return err
		}
		defer pipe.Close()
		pipe.KeepScratch = flagKeepScratch

		result, err := pipe.Run(cmd.Context(), args[0], args[1], mode)
		if err != nil {
			return err
		}

		log.Info().
			Str("output", result.Output).
			Int("frames", result.Frames).
			Float64("fps", result.FPS).
			Int("scenes", len(result.Boundaries)).
			Msg("done")

		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <input_video>",
	Short: "Print stream metadata for a video file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("file:     %s\n", info.FilePath)
		fmt.Printf("codec:    %s\n", info.VideoCodec)
		fmt.Printf("size:     %dx%d\n", info.Width, info.Height)
		fmt.Printf("fps:      %.3f\n", info.FPS)
		fmt.Printf("duration: %s\n", info.Duration)
		fmt.Printf("audio:    %v\n", info.HasAudio)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&flagThreshold, "threshold", 0, "confidence cutoff (1-255)")
	runCmd.Flags().IntVar(&flagErosion, "erosion", -1, "erosion iterations")
	runCmd.Flags().Float64Var(&flagBlurRadius, "blur-radius", -1, "edge blur radius in pixels")
	runCmd.Flags().Float64Var(&flagSceneThreshold, "scene-threshold", 0, "scene cut luminance-difference cutoff")
	runCmd.Flags().StringVar(&flagWeights, "weights", "", "neighbor blend weights as prev,current,next")
	runCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker count (default: number of CPUs)")
	runCmd.Flags().StringVar(&flagModel, "model", "", "segmentation model path")
	runCmd.Flags().BoolVar(&flagKeepScratch, "keep-scratch", false, "keep the scratch directory after the run")
}

// applyFlags overlays explicitly set CLI flags onto the loaded config
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("threshold") {
		if flagThreshold < 1 || flagThreshold > 255 {
			return fmt.Errorf("threshold must be in 1-255, got %d", flagThreshold)
		}
		cfg.Mask.Threshold = uint8(flagThreshold)
	}
	if cmd.Flags().Changed("erosion") {
		cfg.Mask.ErosionIterations = flagErosion
	}
	if cmd.Flags().Changed("blur-radius") {
		cfg.Mask.BlurRadius = flagBlurRadius
	}
	if cmd.Flags().Changed("scene-threshold") {
		cfg.Scene.CutThreshold = flagSceneThreshold
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency = flagWorkers
	}
	if cmd.Flags().Changed("model") {
		cfg.Segmentation.ModelPath = flagModel
	}
	if cmd.Flags().Changed("weights") {
		prev, current, next, err := parseWeights(flagWeights)
		if err != nil {
			return err
		}
		cfg.Smoothing.PrevWeight = prev
		cfg.Smoothing.CurrentWeight = current
		cfg.Smoothing.NextWeight = next
	}

	return cfg.Validate()
}

// parseWeights splits a "prev,current,next" triple
func parseWeights(s string) (float64, float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("weights must be three comma-separated values, got %q", s)
	}

	vals := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}
