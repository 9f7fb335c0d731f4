package video

import (
	"fmt"
	"path/filepath"

	"github.com/keagan/cutout/pkg/util"
)

// Scratch layout: three frame-indexed image collections under one root,
// all addressed by frame number rather than by parsing file names.
const (
	framesSubdir = "frames"
	tightSubdir  = "tight"
	smoothSubdir = "smooth"

	framePattern = "frame_%06d.jpg"
	maskPattern  = "frame_%06d.png"
)

// Store is the frame-indexed scratch directory for one run. It holds
// the extracted input frames, the per-frame tightened masks and the
// per-frame smoothed masks. The whole tree is process-local ephemeral
// state, never a durable output.
type Store struct {
	root string
}

// NewStore creates the scratch subdirectories under root
func NewStore(root string) (*Store, error) {
	for _, sub := range []string{framesSubdir, tightSubdir, smoothSubdir} {
		if err := util.EnsureDir(filepath.Join(root, sub)); err != nil {
			return nil, fmt.Errorf("failed to create scratch dir %s: %w", sub, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the scratch root directory
func (s *Store) Root() string {
	return s.root
}

// FramePath returns the path of extracted frame i
func (s *Store) FramePath(i int) string {
	return filepath.Join(s.root, framesSubdir, fmt.Sprintf(framePattern, i))
}

// TightMaskPath returns the path of the tightened mask for frame i
func (s *Store) TightMaskPath(i int) string {
	return filepath.Join(s.root, tightSubdir, fmt.Sprintf(maskPattern, i))
}

// SmoothMaskPath returns the path of the smoothed mask for frame i
func (s *Store) SmoothMaskPath(i int) string {
	return filepath.Join(s.root, smoothSubdir, fmt.Sprintf(maskPattern, i))
}

// FrameSequencePattern returns the printf-style pattern ffmpeg writes
// extracted frames to.
func (s *Store) FrameSequencePattern() string {
	return filepath.Join(s.root, framesSubdir, framePattern)
}

// SmoothSequencePattern returns the printf-style pattern ffmpeg reads
// smoothed masks from during assembly.
func (s *Store) SmoothSequencePattern() string {
	return filepath.Join(s.root, smoothSubdir, maskPattern)
}

// CountFrames returns how many consecutive frames exist, starting at
// index 0. ffmpeg writes a dense sequence, so the first gap is the end.
func (s *Store) CountFrames() int {
	n := 0
	for util.FileExists(s.FramePath(n)) {
		n++
	}
	return n
}
