// Package color provides terminal color output for the scalar CLI.
// It respects the NO_COLOR environment variable (https://no-color.org/)
// through fatih/color.
package color

import (
	"os"

	fcolor "github.com/fatih/color"
)

// Init disables color when the flag is set or the terminal is dumb.
// fatih/color has already honored NO_COLOR and non-tty stdout.
func Init(noColorFlag bool) {
	if noColorFlag || os.Getenv("TERM") == "dumb" {
		Disable()
	}
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	return !fcolor.NoColor
}

// Disable turns off color output.
func Disable() {
	fcolor.NoColor = true
}

// Enable turns on color output.
func Enable() {
	fcolor.NoColor = false
}

var (
	green  = fcolor.New(fcolor.FgGreen)
	red    = fcolor.New(fcolor.FgRed)
	yellow = fcolor.New(fcolor.FgYellow)
	cyan   = fcolor.New(fcolor.FgCyan)
	bold   = fcolor.New(fcolor.Bold)
	faint  = fcolor.New(fcolor.Faint)
)

// Success formats a success message in green.
func Success(s string) string { return green.Sprint(s) }

// Error formats an error message in red.
func Error(s string) string { return red.Sprint(s) }

// Warning formats a warning message in yellow.
func Warning(s string) string { return yellow.Sprint(s) }

// Info formats an informational message in cyan.
func Info(s string) string { return cyan.Sprint(s) }

// Header formats a header in bold.
func Header(s string) string { return bold.Sprint(s) }

// Dim formats secondary information.
func Dim(s string) string { return faint.Sprint(s) }

// Severity colors a doctor severity label.
func Severity(s string) string {
	switch s {
	case "critical", "error":
		return Error(s)
	case "warning":
		return Warning(s)
	default:
		return Info(s)
	}
}
