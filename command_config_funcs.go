package clipkit

import (
	"fmt"

	"github.com/clipkit/clipkit/errs"
)

// ConfigureCommandFunc is used when defining Command attributes via Set.
type ConfigureCommandFunc func(c *Command, err *error)

// WithCommandCallback sets the function invoked with the resolved Context.
func WithCommandCallback(callback CommandFunc) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.Callback = callback
	}
}

// WithResultCallback sets the aggregator applied to dispatch results. Only
// meaningful on group and collection commands.
func WithResultCallback(callback ResultCallback) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		if c.Kind == KindLeaf {
			*err = fmt.Errorf("%w: %s", errs.ErrNotMultiCommand, c.Name)
			return
		}
		c.ResultCallback = callback
	}
}

// WithCommandHelp sets the long help text.
func WithCommandHelp(help string) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.Help = help
	}
}

// WithShortHelp sets the one-line summary used in command listings.
func WithShortHelp(short string) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.ShortHelp = short
	}
}

// WithEpilog sets text printed after the option listing in help output.
func WithEpilog(epilog string) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.Epilog = epilog
	}
}

// WithParams attaches parameters in order, validating each.
func WithParams(params ...*Param) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		for _, p := range params {
			if e := c.AddParam(p); e != nil {
				*err = e
				return
			}
		}
	}
}

// WithSubcommands registers children on a group, validating each.
func WithSubcommands(children ...*Command) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		for _, child := range children {
			if e := c.AddCommand(child); e != nil {
				*err = e
				return
			}
		}
	}
}

// SetChain allows several subcommands on one command line.
func SetChain(chain bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		if chain && c.Kind != KindGroup {
			*err = fmt.Errorf("%w: %s", errs.ErrNotMultiCommand, c.Name)
			return
		}
		c.Chain = chain
	}
}

// SetInvokeWithoutCommand lets a group's callback run with no subcommand
// named, instead of reporting a missing command.
func SetInvokeWithoutCommand(v bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.InvokeWithoutCommand = v
		if v {
			c.NoArgsIsHelp = false
		}
	}
}

// SetNoArgsIsHelp shows help instead of an error when invoked bare.
func SetNoArgsIsHelp(v bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.NoArgsIsHelp = v
	}
}

// SetAddHelpOption controls the auto-registered help flag.
func SetAddHelpOption(v bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.AddHelpOption = v
	}
}

// SetHiddenCommand removes the command from listings and completion.
func SetHiddenCommand(hidden bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.Hidden = hidden
	}
}

// SetDeprecated marks the command, producing a warning when invoked.
func SetDeprecated(deprecated bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.Deprecated = deprecated
	}
}

// SetAllowExtraArgs tolerates leftover tokens instead of failing.
func SetAllowExtraArgs(v bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.AllowExtraArgs = v
	}
}

// SetAllowInterspersedArgs controls whether options may follow positionals.
func SetAllowInterspersedArgs(v bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.AllowInterspersedArgs = v
	}
}

// SetIgnoreUnknownOptions preserves unrecognized option tokens as leftovers.
func SetIgnoreUnknownOptions(v bool) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.IgnoreUnknownOptions = v
	}
}

// WithContextSettings applies the given configuration to every Context built
// for this command.
func WithContextSettings(configs ...ConfigureContextFunc) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.ContextSettings = append(c.ContextSettings, configs...)
	}
}

// WithCommandCompleter supplies extra positional completion candidates.
func WithCommandCompleter(f CommandCompleteFunc) ConfigureCommandFunc {
	return func(c *Command, err *error) {
		c.Completer = f
	}
}
