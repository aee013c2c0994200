// Package cli holds terminal helpers shared by the probe command and the console log encoder.
package cli

import (
	"fmt"
	"os"
)

const (
	ResetCode = "\033[0m"
	BoldCode  = "\033[1m"
	DimCode   = "\033[2m"
	Red       = "\033[31m"
	Green     = "\033[32m"
	Yellow    = "\033[33m"
	Blue      = "\033[34m"
	Purple    = "\033[35m"
	Cyan      = "\033[36m"
)

// disableColor is a cached check for the environment variable
var disableColor = checkNoColor()

func checkNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Enabled reports whether ANSI colors should be emitted.
func Enabled() bool {
	return !disableColor
}

// SetEnabled overrides the NO_COLOR check, e.g. for --no-color flags.
func SetEnabled(on bool) {
	disableColor = !on
}

// Style wraps text in a specific color code
func Style(text string, colorCode string) string {
	if disableColor {
		return text
	}
	return fmt.Sprintf("%s%s%s", colorCode, text, ResetCode)
}

func Bold(text string) string { return Style(text, BoldCode) }
func Dim(text string) string  { return Style(text, DimCode) }

func CheckMark() string {
	return Style("✔", Green)
}

func WarnMark() string {
	return Style("!", Yellow)
}

func CrossMark() string {
	return Style("✘", Red)
}
