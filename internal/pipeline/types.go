package pipeline

import "fmt"

// Mode controls mask polarity
type Mode string

const (
	// ModeRemoveBg produces a mask that is white where the subject is,
	// for dropping the background in a later composite.
	ModeRemoveBg Mode = "removeBg"
	// ModeRemovePerson inverts the mask, white where the background is.
	ModeRemovePerson Mode = "removePerson"
)

// ParseMode validates a mode argument from the CLI
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRemoveBg, ModeRemovePerson:
		return Mode(s), nil
	case "":
		return ModeRemoveBg, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeRemoveBg, ModeRemovePerson)
	}
}

// Invert reports whether the mode flips mask polarity
func (m Mode) Invert() bool {
	return m == ModeRemovePerson
}

// Result summarizes one completed run
type Result struct {
	Output     string
	Frames     int
	FPS        float64
	Boundaries []int
}
