// Package input provides interactive prompting for parameter values. Hidden
// input goes through the terminal directly so echoed characters never reach
// the output stream.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/clipkit/clipkit/errs"
)

// TerminalReader interface for reading secure input
type TerminalReader interface {
	ReadPassword(fd int) ([]byte, error)
	IsTerminal(fd int) bool
}

// DefaultTerminal implements real terminal operations
type DefaultTerminal struct{}

// ReadPassword reads a password from the terminal
func (t *DefaultTerminal) ReadPassword(fd int) ([]byte, error) {
	return term.ReadPassword(fd)
}

// IsTerminal checks if we are attached to a real terminal
func (t *DefaultTerminal) IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

// Prompter solicits values from the user. A Prompter is attached to a Context
// and inherited down the command chain; tests substitute a scripted one.
type Prompter interface {
	// Prompt displays text and returns one line of user input. When hidden is
	// set the input must not be echoed.
	Prompt(text string, hidden bool) (string, error)
}

// ConsolePrompter reads from an input stream, writing prompts to an output
// stream. Hidden input requires the input stream to be an actual terminal.
type ConsolePrompter struct {
	In       io.Reader
	Out      io.Writer
	Terminal TerminalReader

	reader *bufio.Reader
}

// NewConsolePrompter returns a ConsolePrompter bound to the given streams.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{In: in, Out: out, Terminal: &DefaultTerminal{}}
}

// Prompt displays text and reads one line. An io.EOF or interrupted read is
// reported as errs.ErrAborted so the caller can unwind the whole invocation.
func (c *ConsolePrompter) Prompt(text string, hidden bool) (string, error) {
	if _, err := fmt.Fprint(c.Out, text); err != nil {
		return "", err
	}

	if hidden {
		return c.readHidden()
	}

	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return "", errs.ErrAborted
		}
		if err != io.EOF {
			return "", errs.ErrAborted
		}
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (c *ConsolePrompter) readHidden() (string, error) {
	terminal := c.Terminal
	if terminal == nil {
		terminal = &DefaultTerminal{}
	}

	fd := int(os.Stdin.Fd())
	if !terminal.IsTerminal(fd) {
		return "", fmt.Errorf("%w: stdin", errs.ErrNotATerminal)
	}

	bytes, err := terminal.ReadPassword(fd)
	_, _ = fmt.Fprintln(c.Out)
	if err != nil {
		return "", errs.ErrAborted
	}

	return string(bytes), nil
}
