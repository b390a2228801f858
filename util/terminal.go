package util

import (
	"os"

	"golang.org/x/term"
)

// DefaultTerminalWidth is used when width detection fails or stdout is not a
// terminal.
const DefaultTerminalWidth = 80

// TerminalWidth returns the column count of the attached terminal, falling back
// to DefaultTerminalWidth.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return DefaultTerminalWidth
	}

	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}

	return width
}
