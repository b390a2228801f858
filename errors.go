package clipkit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clipkit/clipkit/errs"
)

// UsageError reports invalid user input on the command line. It carries the
// Context and, where known, the offending Param so the top-level driver can
// format a helpful message. Library code never prints it.
type UsageError struct {
	Message string
	Ctx     *Context
	Param   *Param
	Err     error
}

func (e *UsageError) Error() string {
	return e.Message
}

func (e *UsageError) Unwrap() []error {
	if e.Err != nil {
		return []error{errs.ErrUsage, e.Err}
	}
	return []error{errs.ErrUsage}
}

// ExitCode returns the process exit code a standalone runner should use.
func (e *UsageError) ExitCode() int {
	return 2
}

func usageErr(ctx *Context, format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...), Ctx: ctx}
}

// MissingParamError is a usage error for a required parameter with no
// resolvable value.
type MissingParamError struct {
	Ctx   *Context
	Param *Param
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing %s %q", e.Param.kindLabel(), e.Param.primaryDecl())
}

func (e *MissingParamError) Unwrap() error {
	return errs.ErrMissingParam
}

func (e *MissingParamError) ExitCode() int {
	return 2
}

// BadParamError is raised by a type converter or a parameter callback on an
// invalid value.
type BadParamError struct {
	Ctx     *Context
	Param   *Param
	Value   string
	Message string
}

func (e *BadParamError) Error() string {
	where := ""
	if e.Param != nil {
		where = fmt.Sprintf(" for %s %q", e.Param.kindLabel(), e.Param.primaryDecl())
	}

	return fmt.Sprintf("invalid value%s: %s", where, e.Message)
}

func (e *BadParamError) Unwrap() error {
	return errs.ErrBadParam
}

func (e *BadParamError) ExitCode() int {
	return 2
}

// FileError reports a failure opening or creating a file-typed parameter's
// target.
type FileError struct {
	Filename string
	Hint     string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("could not open file %q: %s", e.Filename, e.Hint)
}

func (e *FileError) Unwrap() error {
	return errs.ErrFileOperation
}

func (e *FileError) ExitCode() int {
	return 1
}

// ExitError is the explicit request to terminate with a specific code. It is
// a control-flow signal, not a failure; Code zero is a successful exit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit with code %d", e.Code)
}

// Exit returns an ExitError with the given status code.
func Exit(code int) error {
	return &ExitError{Code: code}
}

// Abort returns the abort signal raised on user interrupt or EOF.
func Abort() error {
	return errs.ErrAborted
}

// IsAbort reports whether err represents a user interrupt.
func IsAbort(err error) bool {
	return errors.Is(err, errs.ErrAborted)
}

// attachContext fills in the Context (and Param when absent) on usage-class
// errors raised deeper in the pipeline, so messages can name their origin.
func attachContext(err error, ctx *Context, p *Param) error {
	var ue *UsageError
	if errors.As(err, &ue) {
		if ue.Ctx == nil {
			ue.Ctx = ctx
		}
		if ue.Param == nil {
			ue.Param = p
		}
		return err
	}

	var be *BadParamError
	if errors.As(err, &be) {
		if be.Ctx == nil {
			be.Ctx = ctx
		}
		if be.Param == nil {
			be.Param = p
		}
		return err
	}

	var me *MissingParamError
	if errors.As(err, &me) {
		if me.Ctx == nil {
			me.Ctx = ctx
		}
		return err
	}

	return err
}

// formatUserError renders an error the way the standalone driver reports it:
// the usage line of the offending Context when one is attached, a pointer at
// the help option, then the message itself.
func formatUserError(err error) string {
	var ctx *Context
	var (
		ue *UsageError
		me *MissingParamError
		be *BadParamError
	)
	switch {
	case errors.As(err, &ue):
		ctx = ue.Ctx
	case errors.As(err, &me):
		ctx = me.Ctx
	case errors.As(err, &be):
		ctx = be.Ctx
	}

	var b strings.Builder
	if ctx != nil {
		b.WriteString(fmt.Sprintf("Usage: %s\n", ctx.usageLine()))
		if names := ctx.HelpOptionNames; len(names) > 0 {
			b.WriteString(fmt.Sprintf("Try '%s %s' for help.\n", ctx.CommandPath(), names[0]))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Error: %s", err.Error()))

	return b.String()
}
