package clipkit

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/clipkit/clipkit/completion"
	"github.com/clipkit/clipkit/errs"
)

// ParamKind selects the behavior of a Param. The kinds replace a class
// hierarchy: shared attributes live on one record and the pipeline dispatches
// on the kind.
type ParamKind int

const (
	// KindOption is a named option expecting value tokens.
	KindOption ParamKind = iota
	// KindFlag is a named boolean option which never consumes a token.
	KindFlag
	// KindCount is a named option whose value is its occurrence count.
	KindCount
	// KindArgument is a positional argument.
	KindArgument
)

// Source tags where a resolved parameter value came from.
type Source int

const (
	SourceNone Source = iota
	SourceCommandLine
	SourceEnvironment
	SourceDefaultMap
	SourceDefault
	SourcePrompt
)

func (s Source) String() string {
	switch s {
	case SourceCommandLine:
		return "command-line"
	case SourceEnvironment:
		return "environment"
	case SourceDefaultMap:
		return "default-map"
	case SourceDefault:
		return "default"
	case SourcePrompt:
		return "prompt"
	default:
		return "none"
	}
}

// ParamCallback post-processes a resolved value. It runs exactly once per
// Param, after the whole precedence chain, and may transform or reject the
// value. It runs even for defaulted and prompted values.
type ParamCallback func(ctx *Context, p *Param, value any) (any, error)

// CompleteFunc produces completion candidates for an in-progress token.
type CompleteFunc func(ctx *Context, p *Param, incomplete string) []completion.Candidate

// ConfigureParamFunc is used when defining Param attributes via Set.
type ConfigureParamFunc func(p *Param, err *error)

// Param declares a single option or positional argument. Construct one with
// NewOption/NewFlag/NewCountOption/NewArgument, configure it with Set, and
// attach it to a Command; validation happens when it is attached. A Param is
// immutable after attachment: resolved values live on the Context.
type Param struct {
	Kind      ParamKind
	Name      string
	Opts      []string
	Secondary []string

	NArgs       int
	Multiple    bool
	Required    bool
	Default     any
	DefaultFunc func() any
	Type        ParamType
	Eager       bool
	ExposeValue bool
	EnvVars     []string
	Callback    ParamCallback
	Completer   CompleteFunc

	Help    string
	Metavar string
	Hidden  bool

	// Option-only attributes.
	Prompt         string
	ConfirmPrompt  bool
	HideInput      bool
	FlagValue      string
	FlagNeedsValue bool
	ShowDefault    bool
	ShowEnvvar     bool
}

// NewOption declares a value-taking option from its declaration strings, e.g.
// NewOption("--output", "-o"). The Param name derives from the longest long
// declaration with dashes mapped to underscores.
func NewOption(decls ...string) *Param {
	p := &Param{
		Kind:        KindOption,
		Opts:        decls,
		NArgs:       1,
		Type:        StringType{},
		ExposeValue: true,
	}
	p.Name = deriveName(decls)

	return p
}

// NewFlag declares a boolean flag. A declaration of the form
// "--flag/--no-flag" registers the second half as the negating form.
func NewFlag(decls ...string) *Param {
	p := &Param{
		Kind:        KindFlag,
		NArgs:       0,
		Type:        BoolType{},
		Default:     false,
		FlagValue:   "true",
		ExposeValue: true,
	}
	for _, decl := range decls {
		if primary, secondary, found := strings.Cut(decl, "/"); found {
			p.Opts = append(p.Opts, primary)
			p.Secondary = append(p.Secondary, secondary)
		} else {
			p.Opts = append(p.Opts, decl)
		}
	}
	p.Name = deriveName(p.Opts)

	return p
}

// NewCountOption declares an option counting its occurrences, e.g. -vvv.
func NewCountOption(decls ...string) *Param {
	p := &Param{
		Kind:        KindCount,
		Opts:        decls,
		NArgs:       0,
		Type:        IntType{},
		Default:     int64(0),
		FlagValue:   "1",
		ExposeValue: true,
	}
	p.Name = deriveName(decls)

	return p
}

// NewArgument declares a positional argument. Arguments are required unless a
// default is configured or their arity is unbounded.
func NewArgument(name string) *Param {
	return &Param{
		Kind:        KindArgument,
		Name:        name,
		NArgs:       1,
		Required:    true,
		Type:        StringType{},
		ExposeValue: true,
	}
}

// Set configures the Param with the provided ConfigureParamFunc(s) and returns
// an error if a configuration results in one.
func (p *Param) Set(configs ...ConfigureParamFunc) error {
	var err error
	for _, config := range configs {
		config(p, &err)
		if err != nil {
			return err
		}
	}

	return nil
}

// deriveName picks the parameter identity from its declaration strings:
// the first long declaration wins, falling back to the first declaration,
// with prefix runes stripped and dashes mapped to underscores.
func deriveName(decls []string) string {
	pick := ""
	for _, d := range decls {
		if strings.HasPrefix(d, "--") {
			pick = d
			break
		}
	}
	if pick == "" && len(decls) > 0 {
		pick = decls[0]
	}

	name := strings.TrimLeft(pick, "-/")
	return strings.ReplaceAll(name, "-", "_")
}

func (p *Param) isOptionLike() bool {
	return p.Kind != KindArgument
}

func (p *Param) kindLabel() string {
	if p.Kind == KindArgument {
		return "argument"
	}
	return "option"
}

// primaryDecl returns the declaration string used in user-facing messages.
func (p *Param) primaryDecl() string {
	if len(p.Opts) > 0 {
		return p.Opts[0]
	}
	return p.Name
}

// takesTokens reports whether a command-line occurrence consumes value tokens.
func (p *Param) takesTokens() bool {
	return p.NArgs != 0
}

// validate enforces the declaration invariants. It runs when the Param is
// attached to a Command so misdeclarations fail at construction, not at parse.
func (p *Param) validate() error {
	if p.Name == "" {
		return errs.ErrEmptyParamName
	}

	if composite, ok := p.Type.(CompositeType); ok {
		if composite.Arity() != p.NArgs {
			return fmt.Errorf("%w: %s declares nargs=%d but type arity is %d",
				errs.ErrCompositeArity, p.Name, p.NArgs, composite.Arity())
		}
	}

	switch p.Kind {
	case KindArgument:
		if p.Multiple {
			return fmt.Errorf("%w: %s", errs.ErrMultiplePositional, p.Name)
		}
		if p.NArgs < 0 && p.Default != nil {
			return fmt.Errorf("%w: %s", errs.ErrUnboundedWithDefault, p.Name)
		}
		if len(p.Secondary) > 0 {
			return fmt.Errorf("%w: %s", errs.ErrSecondaryOnNonFlag, p.Name)
		}
		if p.Prompt != "" {
			return fmt.Errorf("%w: %s", errs.ErrPromptOnFlag, p.Name)
		}
	case KindCount:
		if p.Multiple {
			return fmt.Errorf("%w: %s cannot be repeatable", errs.ErrCountIncompatible, p.Name)
		}
		if p.Prompt != "" {
			return fmt.Errorf("%w: %s", errs.ErrPromptOnFlag, p.Name)
		}
	case KindOption:
		if len(p.Secondary) > 0 {
			return fmt.Errorf("%w: %s", errs.ErrSecondaryOnNonFlag, p.Name)
		}
	case KindFlag:
		// Prompting on a boolean flag is a confirmation prompt, which is fine.
	}

	if err := p.validateDefault(); err != nil {
		return err
	}

	return nil
}

// validateDefault checks that a static default matches the declared
// multiplicity and arity.
func (p *Param) validateDefault() error {
	if p.Default == nil || !p.Multiple && p.NArgs <= 1 {
		return nil
	}

	if p.Multiple && p.NArgs <= 1 {
		if _, ok := sequenceOf(p.Default); !ok {
			return fmt.Errorf("%w: %s", errs.ErrDefaultNotSequence, p.Name)
		}
		return nil
	}

	seq, ok := sequenceOf(p.Default)
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrDefaultNotSequence, p.Name)
	}

	if p.Multiple {
		// Sequence of fixed-length sequences.
		for _, el := range seq {
			inner, ok := sequenceOf(el)
			if !ok || len(inner) != p.NArgs {
				return fmt.Errorf("%w: %s", errs.ErrDefaultArityMismatch, p.Name)
			}
		}
		return nil
	}

	if len(seq) != p.NArgs {
		return fmt.Errorf("%w: %s", errs.ErrDefaultArityMismatch, p.Name)
	}

	return nil
}

// sequenceOf views a default value as a generic sequence.
func sequenceOf(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, el := range s {
			out[i] = el
		}
		return out, true
	default:
		return nil, false
	}
}

// envVarNames returns the environment variables consulted for this Param, in
// priority order: explicit names first, then the auto-derived
// <PREFIX>_<COMMAND_PATH>_<NAME> when an auto prefix is configured.
func (p *Param) envVarNames(ctx *Context) []string {
	names := append([]string(nil), p.EnvVars...)
	if ctx != nil && ctx.AutoEnvvarPrefix != "" && p.isOptionLike() {
		parts := []string{ctx.AutoEnvvarPrefix}
		if key := ctx.commandPathKey(); key != "" {
			parts = append(parts, key)
		}
		parts = append(parts, p.Name)
		names = append(names, strcase.ToScreamingSnake(strings.Join(parts, "_")))
	}

	return names
}
