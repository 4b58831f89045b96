package output

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w interface{}) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// colorizeScore renders an agreement score, colored by how close it is
// to full agreement: green at 1.0, yellow at 0.5 or above, red below.
func colorizeScore(score float64, colorize bool) string {
	text := fmt.Sprintf("%.2f", score)
	if !colorize {
		return text
	}

	switch {
	case score >= 1.0:
		return colorGreen + text + colorReset
	case score >= 0.5:
		return colorYellow + text + colorReset
	default:
		return colorRed + text + colorReset
	}
}
