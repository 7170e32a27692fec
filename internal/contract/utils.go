package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Normalized score label constants.
const (
	BestValue = "Best" // Best value
	GoodValue = "Good" // Good value
	FairValue = "Fair" // Fair value
	WeakValue = "Weak" // Weak value
)

// Color variables for console output.
var (
	BestColor   = color.New(color.FgGreen, color.Bold) // BestColor marks the strongest candidates.
	GoodColor   = color.New(color.FgCyan, color.Bold)  // GoodColor marks solid candidates.
	FairColor   = color.New(color.FgYellow)            // FairColor marks middling candidates, not bold.
	WeakColor   = color.New(color.FgRed)               // WeakColor marks the weakest candidates.
	FrontColor  = color.New(color.FgMagenta, color.Bold)
	PromptColor = color.New(color.FgBlue, color.Bold)
)

// GetPlainLabel returns a plain text label for a normalized score in [0,1].
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 0.8:
		return BestValue
	case score >= 0.6:
		return GoodValue
	case score >= 0.4:
		return FairValue
	default:
		return WeakValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case BestValue:
		return BestColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	default: // "Weak"
		return WeakColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetGraphDBFilePath returns the path to the SQLite DB file for graph storage.
func GetGraphDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".formpath_graph.db"
	}
	return filepath.Join(homeDir, ".formpath_graph.db")
}

// GetTrackingDBFilePath returns the path to the SQLite DB file for tracking storage.
func GetTrackingDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".formpath_tracking.db"
	}
	return filepath.Join(homeDir, ".formpath_tracking.db")
}

// TruncateText shortens text to maxWidth runes with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseMetricList splits a comma-separated metric flag, keeping names with inner spaces intact.
func ParseMetricList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
