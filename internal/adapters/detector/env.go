// Package detector selects the output mode of the live board.
package detector

import (
	"os"

	"go.trai.ch/tillsync/internal/core/domain"
	"golang.org/x/term"
)

// OutputMode is the rendering mode of the live board.
type OutputMode int

const (
	// ModeAuto detects the mode from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive board.
	ModeTUI
	// ModeLinear forces plain line output.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// DetectEnvironment returns ModeTUI when stdout is a terminal outside CI, ModeLinear otherwise.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModeLinear
	}
	return ModeTUI
}

// ParseMode parses the --output flag.
func ParseMode(flag string) (OutputMode, error) {
	switch flag {
	case "auto", "":
		return ModeAuto, nil
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	default:
		return ModeAuto, domain.Tag(domain.ErrConfigInvalid, "output", flag)
	}
}

// ResolveMode applies the user's choice to the detected mode.
func ResolveMode(autoDetected, user OutputMode) OutputMode {
	if user == ModeAuto {
		return autoDetected
	}
	return user
}
