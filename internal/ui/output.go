package ui

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
)

// IsTerminal reports whether stdout is an interactive terminal. Styling and
// markdown rendering degrade to plain text when it is not.
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Successf formats a message with the success symbol.
func Successf(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", SymbolSuccess, fmt.Sprintf(format, args...))
}

// Errorf formats a message with the error symbol.
func Errorf(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", SymbolError, fmt.Sprintf(format, args...))
}

// Warningf formats a message with the warning symbol.
func Warningf(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", SymbolWarning, fmt.Sprintf(format, args...))
}

// Infof formats a message with the info symbol.
func Infof(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", SymbolInfo, fmt.Sprintf(format, args...))
}

// FilePath renders a path in the accent style when styling is on.
func FilePath(path string) string {
	if !IsTerminal() {
		return path
	}
	return Accent.Render(path)
}

// Severity renders an audit severity label.
func Severity(label string) string {
	if !IsTerminal() {
		return label
	}
	switch label {
	case "ERROR":
		return ErrorLabel.Render(label)
	case "WARN":
		return WarnLabel.Render(label)
	default:
		return label
	}
}
