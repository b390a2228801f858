package clipkit

import (
	"fmt"

	"github.com/clipkit/clipkit/errs"
)

// WithHelp sets the help text shown for the parameter.
func WithHelp(help string) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Help = help
	}
}

// WithParamType sets the value converter.
func WithParamType(t ParamType) ConfigureParamFunc {
	return func(p *Param, err *error) {
		if t == nil {
			*err = fmt.Errorf("%w: nil type", errs.ErrInvalidParamSpec)
			return
		}
		p.Type = t
	}
}

// WithNArgs sets the token arity of one occurrence. -1 collects all remaining
// positional tokens and is only valid on arguments.
func WithNArgs(nargs int) ConfigureParamFunc {
	return func(p *Param, err *error) {
		if nargs < -1 {
			*err = fmt.Errorf("%w: nargs %d", errs.ErrInvalidParamSpec, nargs)
			return
		}
		if nargs < 0 && p.Kind != KindArgument {
			*err = fmt.Errorf("%w: unbounded arity on option %s", errs.ErrInvalidParamSpec, p.Name)
			return
		}
		p.NArgs = nargs
		if p.Kind == KindArgument && nargs < 0 {
			p.Required = false
		}
	}
}

// WithMultiple allows the option to repeat, accumulating a sequence.
func WithMultiple() ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Multiple = true
	}
}

// SetRequired when true, the parameter must resolve to a value.
func SetRequired(required bool) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Required = required
	}
}

// WithDefault sets a static default value.
func WithDefault(value any) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Default = value
		if p.Kind == KindArgument {
			p.Required = false
		}
	}
}

// WithDefaultFunc sets a zero-argument value-producing default.
func WithDefaultFunc(f func() any) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.DefaultFunc = f
		if p.Kind == KindArgument {
			p.Required = false
		}
	}
}

// SetEager marks the parameter for resolution before all non-eager ones.
// Eager flags typically short-circuit, like help.
func SetEager(eager bool) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Eager = eager
	}
}

// SetExposeValue controls whether the resolved value is forwarded to the
// command callback. Provenance is recorded either way.
func SetExposeValue(expose bool) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.ExposeValue = expose
	}
}

// WithEnvVars names environment variables consulted, in order, when the
// parameter is absent from the command line.
func WithEnvVars(names ...string) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.EnvVars = append(p.EnvVars, names...)
	}
}

// WithCallback installs the post-resolution callback.
func WithCallback(cb ParamCallback) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Callback = cb
	}
}

// WithCompleter installs a custom completion provider.
func WithCompleter(f CompleteFunc) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Completer = f
	}
}

// WithPrompt enables interactive prompting with the given text when no other
// source yields a value.
func WithPrompt(text string) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Prompt = text
	}
}

// WithConfirmPrompt requires the prompted value to be entered twice.
func WithConfirmPrompt() ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.ConfirmPrompt = true
	}
}

// WithHiddenInput suppresses echo while prompting.
func WithHiddenInput() ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.HideInput = true
	}
}

// WithFlagValue sets the raw value recorded when a flag-like occurrence
// matches, and enables flag-needs-value semantics on value options: the
// option acts as a flag when no value token is available.
func WithFlagValue(value string) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.FlagValue = value
		if p.Kind == KindOption {
			p.FlagNeedsValue = true
		}
	}
}

// WithMetavar overrides the value placeholder in usage lines.
func WithMetavar(metavar string) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Metavar = metavar
	}
}

// SetHidden removes the parameter from help and completion output.
func SetHidden(hidden bool) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.Hidden = hidden
	}
}

// SetShowDefault displays the default value in help output.
func SetShowDefault(show bool) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.ShowDefault = show
	}
}

// SetShowEnvvar displays the environment variable names in help output.
func SetShowEnvvar(show bool) ConfigureParamFunc {
	return func(p *Param, err *error) {
		p.ShowEnvvar = show
	}
}
