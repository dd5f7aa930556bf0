package common

import (
	"github.com/olekukonko/ts"
)

// DefaultTerminalWidth is used when the terminal size cannot be queried
const DefaultTerminalWidth = 80

// TerminalWidth returns the current width of the terminal
func TerminalWidth() int {
	size, err := ts.GetSize()
	if err != nil || size.Col() <= 0 {
		return DefaultTerminalWidth
	}
	return size.Col()
}
