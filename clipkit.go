// Package clipkit is a toolkit for building command line interfaces: declare
// commands, options and arguments with a builder API, and let the toolkit
// handle POSIX/GNU tokenizing, value resolution across command line,
// environment, default maps and prompts, nested and chained subcommand
// dispatch, help output, and shell completion decisions.
//
// A minimal program:
//
//	greet := clipkit.NewCommand("greet")
//	name := clipkit.NewOption("--name", "-n")
//	_ = name.Set(clipkit.WithDefault("world"))
//	_ = greet.AddParam(name)
//	_ = greet.Set(clipkit.WithCommandCallback(func(ctx *clipkit.Context) (any, error) {
//		fmt.Fprintf(ctx.Stdout, "Hello, %s!\n", ctx.Params["name"])
//		return nil, nil
//	}))
//	os.Exit(clipkit.Run(greet))
//
// Execute is the library-embedding entry point: it propagates every error to
// the caller unconverted. Run is the standalone entry point: it handles the
// shell completion handshake, formats user-facing errors, and maps them to
// process exit codes.
package clipkit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/clipkit/clipkit/env"
	"github.com/clipkit/clipkit/errs"
)

// Execute builds the Context tree for args and invokes cmd within its scope.
// The return value is the callback's result; errors propagate unconverted so
// embedding callers can inspect them.
func Execute(cmd *Command, infoName string, args []string, configs ...ConfigureContextFunc) (any, error) {
	ctx, err := cmd.BuildContext(infoName, args, nil, configs...)
	if err != nil {
		return nil, err
	}

	ctx.EnterScope()
	defer ctx.ExitScope()

	return cmd.Invoke(ctx)
}

// Run invokes cmd against the process arguments and returns the exit code the
// process should terminate with. The completion handshake is consulted before
// any parsing so completion requests never trigger normal invocation.
func Run(cmd *Command, configs ...ConfigureContextFunc) int {
	progName := filepath.Base(os.Args[0])
	if handled, code := CompleteFromEnv(cmd, progName, env.OSResolver{}, os.Stdout, os.Stderr); handled {
		return code
	}

	_, err := Execute(cmd, progName, os.Args[1:], configs...)

	return ReportError(os.Stderr, err)
}

// exitCoder is implemented by error types carrying their own process exit
// code.
type exitCoder interface {
	ExitCode() int
}

// ReportError maps an Execute error to an exit code, printing user-facing
// messages to w. A nil error and a zero exit request both return 0.
func ReportError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}

	if IsAbort(err) {
		fmt.Fprintln(w, "Aborted!")
		return 1
	}

	if errors.Is(err, errs.ErrUsage) || errors.Is(err, errs.ErrMissingParam) ||
		errors.Is(err, errs.ErrBadParam) || errors.Is(err, errs.ErrFileOperation) {
		fmt.Fprintln(w, formatUserError(err))
		var coder exitCoder
		if errors.As(err, &coder) {
			return coder.ExitCode()
		}
		return 2
	}

	fmt.Fprintf(w, "Error: %s\n", err)

	return 1
}
