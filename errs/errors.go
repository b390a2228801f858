// Package errs holds the sentinel error values shared across clipkit packages.
// Callers match them with errors.Is; richer error types in the root package wrap
// these so both the category and the offending parameter/context are available.
package errs

import "errors"

// Declaration-time errors. These are raised while building Params and Commands,
// before any command line is seen.
var (
	ErrEmptyParamName        = errors.New("parameter declaration has no name")
	ErrInvalidParamSpec      = errors.New("invalid parameter specification")
	ErrDefaultArityMismatch  = errors.New("default value does not match declared arity")
	ErrDefaultNotSequence    = errors.New("default for a repeatable parameter must be a sequence")
	ErrMultiplePositional    = errors.New("positional arguments cannot be declared repeatable")
	ErrUnboundedWithDefault  = errors.New("unbounded positional argument cannot carry a default")
	ErrCompositeArity        = errors.New("composite type arity does not match declared arity")
	ErrSecondaryOnNonFlag    = errors.New("secondary option names are only valid on boolean flags")
	ErrCountIncompatible     = errors.New("counting option cannot be repeatable or a flag")
	ErrPromptOnFlag          = errors.New("prompting is not supported for this parameter kind")
	ErrCommandExists         = errors.New("command already registered under this name")
	ErrChainOptionalArg      = errors.New("chained commands cannot have optional arguments")
	ErrNotMultiCommand       = errors.New("command does not dispatch to subcommands")
)

// Parse-time errors. These surface to the user as usage errors.
var (
	ErrUsage                 = errors.New("usage error")
	ErrNoSuchOption          = errors.New("no such option")
	ErrNoSuchCommand         = errors.New("no such command")
	ErrOptionRequiresValue   = errors.New("option requires an argument")
	ErrOptionTakesNoValue    = errors.New("option does not take a value")
	ErrUnexpectedArgument    = errors.New("got unexpected extra argument")
	ErrMissingParam          = errors.New("missing parameter")
	ErrBadParam              = errors.New("invalid value")
	ErrArgumentArity         = errors.New("argument requires a fixed number of values")
	ErrMissingCommand        = errors.New("missing command")
)

// Runtime control-flow and environment errors.
var (
	ErrAborted       = errors.New("aborted")
	ErrFileOperation = errors.New("file operation failed")
	ErrNotATerminal  = errors.New("not attached to a terminal")
)
