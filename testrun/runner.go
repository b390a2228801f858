// Package testrun invokes commands in isolation for tests: captured standard
// streams, a substituted environment, and scripted prompt responses, none of
// which touch process state.
package testrun

import (
	"bytes"
	"strings"

	"github.com/clipkit/clipkit"
	"github.com/clipkit/clipkit/env"
	"github.com/clipkit/clipkit/errs"
)

// Result captures one isolated invocation.
type Result struct {
	// ReturnValue is what the command callback returned.
	ReturnValue any
	// Err is the raw error from Execute, unconverted.
	Err error
	// ExitCode is the code a standalone run would have terminated with; the
	// formatted error message, if any, is part of Stderr.
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output is Stdout and Stderr concatenated, in that order.
func (r *Result) Output() string {
	return r.Stdout + r.Stderr
}

// Runner drives commands with substituted process surroundings. The zero
// value runs with an empty environment and no prompt input.
type Runner struct {
	// Env replaces environment variable access for the invocation.
	Env map[string]string
	// Input holds the scripted responses handed out to prompts, in order.
	// When exhausted, prompting aborts the way EOF on a terminal would.
	Input []string
}

// New returns a Runner with an empty environment.
func New() *Runner {
	return &Runner{Env: map[string]string{}}
}

// Invoke runs cmd against args with captured streams, returning everything a
// test needs to assert on. The program name defaults to the command's own.
func (r *Runner) Invoke(cmd *clipkit.Command, args []string, configs ...clipkit.ConfigureContextFunc) *Result {
	var stdout, stderr bytes.Buffer
	prompter := &scriptedPrompter{responses: r.Input, echo: &stderr}

	all := []clipkit.ConfigureContextFunc{
		clipkit.WithStreams(strings.NewReader(""), &stdout, &stderr),
		clipkit.WithEnvResolver(env.MapResolver(r.Env)),
		clipkit.WithPrompter(prompter),
	}
	all = append(all, configs...)

	value, err := clipkit.Execute(cmd, cmd.Name, args, all...)

	return &Result{
		ReturnValue: value,
		Err:         err,
		ExitCode:    clipkit.ReportError(&stderr, err),
		Stdout:      stdout.String(),
		Stderr:      stderr.String(),
	}
}

// Complete resolves completion candidate values for a partial line.
func (r *Runner) Complete(cmd *clipkit.Command, args []string, incomplete string) []string {
	candidates := clipkit.Complete(cmd, cmd.Name, args, incomplete)
	values := make([]string, 0, len(candidates))
	for _, c := range candidates {
		values = append(values, c.Value)
	}

	return values
}

// scriptedPrompter hands out canned responses and echoes the prompt text so
// transcripts show up in captured output.
type scriptedPrompter struct {
	responses []string
	next      int
	echo      *bytes.Buffer
}

func (s *scriptedPrompter) Prompt(text string, hidden bool) (string, error) {
	s.echo.WriteString(text)
	if s.next >= len(s.responses) {
		s.echo.WriteString("\n")
		return "", errs.ErrAborted
	}
	response := s.responses[s.next]
	s.next++
	if hidden {
		s.echo.WriteString("\n")
	} else {
		s.echo.WriteString(response + "\n")
	}

	return response, nil
}
