package clipkit

import (
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/clipkit/clipkit/errs"
	"github.com/clipkit/clipkit/parse"
	"github.com/clipkit/clipkit/util"
)

// CommandKind selects dispatch behavior: a leaf runs its callback, a group
// dispatches leftover tokens to registered children, a collection dispatches
// across an ordered list of source groups.
type CommandKind int

const (
	KindLeaf CommandKind = iota
	KindGroup
	KindCollection
)

// CommandFunc is the callback invoked with the fully resolved Context. Its
// return value is surfaced to the caller of Execute and, for chained groups,
// aggregated into the result callback.
type CommandFunc func(ctx *Context) (any, error)

// ResultCallback post-processes the return value(s) of a group's dispatch.
// In chain mode it receives one result per invoked child, in order.
type ResultCallback func(ctx *Context, results []any) (any, error)

// CommandCompleteFunc supplies extra completion candidates for a command's
// positional tail.
type CommandCompleteFunc func(ctx *Context, incomplete string) []string

// Command is a named invokable unit: an ordered parameter list, a callback,
// and, for group kinds, a registry of children. Build one with
// NewCommand/NewGroup/NewCollection, configure with Set, attach parameters
// with AddParam, then Execute or BuildContext it.
type Command struct {
	Kind CommandKind
	Name string

	Callback       CommandFunc
	ResultCallback ResultCallback

	Help      string
	ShortHelp string
	Epilog    string

	// AddHelpOption controls the auto-registered eager help flag.
	AddHelpOption bool
	// NoArgsIsHelp shows help instead of failing when invoked bare.
	NoArgsIsHelp bool
	// InvokeWithoutCommand lets a group's own callback run with no subcommand.
	InvokeWithoutCommand bool
	// Chain allows several subcommands on one line, invoked in order.
	Chain bool

	Hidden     bool
	Deprecated bool

	AllowExtraArgs        bool
	AllowInterspersedArgs bool
	IgnoreUnknownOptions  bool

	// ContextSettings apply to every Context built for this command, before
	// per-call configuration.
	ContextSettings []ConfigureContextFunc

	Completer CommandCompleteFunc

	params      []*Param
	subcommands *orderedmap.OrderedMap[string, *Command]
	sources     []*Command
}

// NewCommand returns a leaf command with the given name.
func NewCommand(name string) *Command {
	return &Command{
		Kind:                  KindLeaf,
		Name:                  name,
		AddHelpOption:         true,
		AllowInterspersedArgs: true,
	}
}

// NewGroup returns a dispatching command backed by an explicit name registry.
// Groups tolerate extra tokens (they belong to the subcommand) and stop
// option recognition at the first positional.
func NewGroup(name string) *Command {
	return &Command{
		Kind:           KindGroup,
		Name:           name,
		AddHelpOption:  true,
		NoArgsIsHelp:   true,
		AllowExtraArgs: true,
		subcommands:    orderedmap.New[string, *Command](),
	}
}

// NewCollection returns a dispatching command which looks children up across
// the given source groups in order, first match winning.
func NewCollection(name string, sources ...*Command) *Command {
	return &Command{
		Kind:           KindCollection,
		Name:           name,
		AddHelpOption:  true,
		NoArgsIsHelp:   true,
		AllowExtraArgs: true,
		sources:        sources,
	}
}

// Set configures the Command with the provided ConfigureCommandFunc(s) and
// returns an error if a configuration results in one.
func (c *Command) Set(configs ...ConfigureCommandFunc) error {
	var err error
	for _, config := range configs {
		config(c, &err)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Command) isMultiCommand() bool {
	return c.Kind == KindGroup || c.Kind == KindCollection
}

// AddParam attaches a parameter, running its declaration validation. The
// order of attachment is the declaration order used everywhere downstream.
func (c *Command) AddParam(p *Param) error {
	if err := p.validate(); err != nil {
		return err
	}
	c.params = append(c.params, p)

	return nil
}

// Params returns the attached parameters in declaration order.
func (c *Command) Params() []*Param {
	return c.params
}

// AddCommand registers a child under a group. In chain mode a child declaring
// an optional positional argument is rejected: the token boundary between
// chained siblings would be ambiguous.
func (c *Command) AddCommand(child *Command) error {
	if c.Kind != KindGroup {
		return fmt.Errorf("%w: %s", errs.ErrNotMultiCommand, c.Name)
	}
	if _, exists := c.subcommands.Get(child.Name); exists {
		return fmt.Errorf("%w: %s", errs.ErrCommandExists, child.Name)
	}
	if c.Chain {
		for _, p := range child.params {
			if p.Kind == KindArgument && (!p.Required || p.NArgs < 0) {
				return fmt.Errorf("%w: command %s, argument %s",
					errs.ErrChainOptionalArg, child.Name, p.Name)
			}
		}
	}
	c.subcommands.Set(child.Name, child)

	return nil
}

// AddSource appends a lookup source to a collection.
func (c *Command) AddSource(source *Command) error {
	if c.Kind != KindCollection {
		return fmt.Errorf("%w: %s", errs.ErrNotMultiCommand, c.Name)
	}
	c.sources = append(c.sources, source)

	return nil
}

// LookupCommand finds a child by name, or nil. Collection lookup walks the
// sources in registration order.
func (c *Command) LookupCommand(ctx *Context, name string) *Command {
	switch c.Kind {
	case KindGroup:
		if child, ok := c.subcommands.Get(name); ok {
			return child
		}
	case KindCollection:
		for _, source := range c.sources {
			if child := source.LookupCommand(ctx, name); child != nil {
				return child
			}
		}
	}

	return nil
}

// ListCommands enumerates child names. Groups list in registration order;
// collections merge their sources, keeping first occurrence.
func (c *Command) ListCommands(ctx *Context) []string {
	switch c.Kind {
	case KindGroup:
		names := make([]string, 0, c.subcommands.Len())
		for pair := c.subcommands.Oldest(); pair != nil; pair = pair.Next() {
			names = append(names, pair.Key)
		}
		return names
	case KindCollection:
		var names []string
		seen := map[string]bool{}
		for _, source := range c.sources {
			for _, name := range source.ListCommands(ctx) {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
		return names
	}

	return nil
}

// BuildContext runs the parser and the resolution chain for args, producing a
// ready-to-invoke Context linked under parent. The Context is closed again on
// failure; no partially built Context leaks to the caller.
func (c *Command) BuildContext(infoName string, args []string, parent *Context, configs ...ConfigureContextFunc) (*Context, error) {
	all := make([]ConfigureContextFunc, 0, len(c.ContextSettings)+len(configs))
	all = append(all, c.ContextSettings...)
	all = append(all, configs...)

	ctx := newContext(c, parent, infoName, all...)
	if err := c.parseArgs(ctx, args); err != nil {
		ctx.Close()
		return nil, attachContext(err, ctx, nil)
	}

	return ctx, nil
}

// parseArgs tokenizes args against this command's parameters, resolves every
// parameter value onto ctx, and stores the leftover tokens for dispatch.
func (c *Command) parseArgs(ctx *Context, args []string) error {
	if len(args) == 0 && c.NoArgsIsHelp && !ctx.Resilient {
		c.printHelp(ctx)
		return Exit(0)
	}

	parser := c.makeParser(ctx)
	matches, leftover, err := parser.ParseArgs(args)
	if err != nil {
		// Completion replays incomplete lines; tokenizer failures there leave
		// an empty match set instead of aborting the descent.
		if !ctx.Resilient {
			return c.wrapParseError(ctx, err)
		}
		matches, leftover = parse.NewMatches(), nil
	}

	for _, p := range processingOrder(c.paramsWithHelp(ctx), matches.Order()) {
		if err := resolveParam(ctx, p, matches); err != nil {
			return err
		}
	}

	if c.isMultiCommand() {
		if c.Chain {
			// Every leftover token is protected: the chain dispatcher owns the
			// whole tail.
			ctx.protectedArgs = leftover
			ctx.Args = nil
		} else if len(leftover) > 0 {
			ctx.protectedArgs = leftover[:1]
			ctx.Args = leftover[1:]
		}
		return nil
	}

	if len(leftover) > 0 && !ctx.AllowExtraArgs && !ctx.Resilient {
		ue := usageErr(ctx, "got unexpected extra argument%s (%s)",
			pluralSuffix(len(leftover)), strings.Join(leftover, " "))
		ue.Err = errs.ErrUnexpectedArgument
		return ue
	}
	ctx.Args = leftover

	return nil
}

// makeParser builds the tokenizer for one invocation: prefixes discovered
// from the parameter declarations, interspersion and unknown-option policy
// from the Context, option and argument specs from the parameter list.
func (c *Command) makeParser(ctx *Context) *parse.Parser {
	parser := parse.NewParser()
	parser.SetPrefixes(c.optionPrefixes())
	parser.SetIgnoreUnknown(ctx.IgnoreUnknownOptions)
	parser.SetNormalizeFunc(ctx.TokenNormalizeFunc)
	// A dispatching command stops recognizing its own options at the first
	// positional: that token names the subcommand.
	parser.SetAllowInterspersed(ctx.AllowInterspersedArgs && !c.isMultiCommand())

	for _, p := range c.paramsWithHelp(ctx) {
		if p.Kind == KindArgument {
			parser.AddArgument(&parse.ArgSpec{
				Name:  p.Name,
				NArgs: p.NArgs,
				// An unbounded argument given nothing counts as absent, not as
				// an empty match: the later stages (environment, required-ness)
				// must still see it as unresolved.
				EmptyIsUnmatched: p.NArgs < 0,
			})
			continue
		}
		parser.AddOption(&parse.OptionSpec{
			Name:           p.Name,
			Opts:           p.Opts,
			Secondary:      p.Secondary,
			NArgs:          p.NArgs,
			FlagValue:      p.FlagValue,
			SecondaryValue: "false",
			FlagNeedsValue: p.FlagNeedsValue,
		})
	}

	return parser
}

// optionPrefixes collects the distinct prefix runes the declared options use,
// always including '-'.
func (c *Command) optionPrefixes() []rune {
	prefixes := []rune{'-'}
	seen := map[rune]bool{'-': true}
	for _, p := range c.params {
		for _, decl := range append(append([]string(nil), p.Opts...), p.Secondary...) {
			runes := []rune(decl)
			if len(runes) > 1 && !seen[runes[0]] && !isAlnum(runes[0]) {
				seen[runes[0]] = true
				prefixes = append(prefixes, runes[0])
			}
		}
	}

	return prefixes
}

func isAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// wrapParseError converts a tokenizer error into a usage error carrying ctx.
func (c *Command) wrapParseError(ctx *Context, err error) error {
	var perr *parse.Error
	if !errors.As(err, &perr) {
		return err
	}

	switch {
	case errors.Is(perr.Err, errs.ErrNoSuchOption):
		msg := fmt.Sprintf("no such option: %s", perr.Opt)
		if perr.Suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %s?)", perr.Suggestion)
		}
		ue := usageErr(ctx, "%s", msg)
		ue.Err = perr
		return ue
	case errors.Is(perr.Err, errs.ErrOptionRequiresValue):
		ue := usageErr(ctx, "option %s requires an argument", perr.Opt)
		ue.Err = perr
		return ue
	case errors.Is(perr.Err, errs.ErrOptionTakesNoValue):
		ue := usageErr(ctx, "option %s does not take a value", perr.Opt)
		ue.Err = perr
		return ue
	case errors.Is(perr.Err, errs.ErrArgumentArity):
		ue := usageErr(ctx, "argument %s received an incomplete set of values", perr.Opt)
		ue.Err = perr
		return ue
	default:
		ue := usageErr(ctx, "%s", perr.Error())
		ue.Err = perr
		return ue
	}
}

// paramsWithHelp returns the declared parameters plus the auto help option,
// unless help is disabled or a declared option already claims a help name.
func (c *Command) paramsWithHelp(ctx *Context) []*Param {
	if !c.AddHelpOption {
		return c.params
	}

	names := ctx.HelpOptionNames
	for _, p := range c.params {
		for _, opt := range p.Opts {
			for _, name := range names {
				if opt == name {
					return c.params
				}
			}
		}
	}

	out := make([]*Param, 0, len(c.params)+1)
	out = append(out, c.params...)
	out = append(out, helpOption(names))

	return out
}

// ResolveCommand maps the first leftover token to a child command. In
// resilient mode an unknown name yields a nil command without error so
// completion can keep going.
func (c *Command) ResolveCommand(ctx *Context, args []string) (string, *Command, []string, error) {
	name := args[0]
	child := c.LookupCommand(ctx, name)
	if child == nil && ctx.TokenNormalizeFunc != nil {
		name = ctx.normalizeToken(name)
		child = c.LookupCommand(ctx, name)
	}
	if child == nil && !ctx.Resilient {
		msg := fmt.Sprintf("no such command %q", name)
		if suggestion := util.NearestMatch(name, c.ListCommands(ctx), 2); suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %s?)", suggestion)
		}
		ue := usageErr(ctx, "%s", msg)
		ue.Err = errs.ErrNoSuchCommand
		return name, nil, args[1:], ue
	}

	return name, child, args[1:], nil
}

// Invoke runs the command within ctx's scope: the callback for a leaf, the
// dispatch loop for a group or collection.
func (c *Command) Invoke(ctx *Context) (any, error) {
	if c.Deprecated {
		fmt.Fprintf(ctx.Stderr, "Warning: command %q is deprecated.\n", c.Name)
	}
	if !c.isMultiCommand() {
		return c.invokeCallback(ctx)
	}

	return c.invokeMulti(ctx)
}

func (c *Command) invokeCallback(ctx *Context) (any, error) {
	if c.Callback == nil {
		return nil, nil
	}

	ctx.EnterScope()
	defer ctx.ExitScope()

	return c.Callback(ctx)
}

// invokeMulti dispatches the leftover tokens. Without chaining, the single
// named child is built and invoked under this ctx; with chaining, every child
// Context is built first (so a usage error anywhere aborts before any child
// runs), then the callbacks run in command-line order.
func (c *Command) invokeMulti(ctx *Context) (any, error) {
	args := append(append([]string(nil), ctx.protectedArgs...), ctx.Args...)

	if len(args) == 0 {
		if !c.InvokeWithoutCommand {
			ue := usageErr(ctx, "missing command")
			ue.Err = errs.ErrMissingCommand
			return nil, ue
		}
		if !c.Chain {
			return c.invokeCallback(ctx)
		}
		if _, err := c.invokeCallback(ctx); err != nil {
			return nil, err
		}
		return c.processResult(ctx, nil)
	}

	if !c.Chain {
		name, child, rest, err := c.ResolveCommand(ctx, args)
		if err != nil {
			return nil, err
		}
		ctx.InvokedSubcommand = name
		if _, err := c.invokeCallback(ctx); err != nil {
			return nil, err
		}

		subCtx, err := child.BuildContext(name, rest, ctx)
		if err != nil {
			return nil, err
		}
		subCtx.EnterScope()
		defer subCtx.ExitScope()
		result, err := child.Invoke(subCtx)
		if err != nil {
			return nil, err
		}
		return c.processResult(ctx, []any{result})
	}

	ctx.InvokedSubcommand = "*"
	if _, err := c.invokeCallback(ctx); err != nil {
		return nil, err
	}

	var subCtxs []*Context
	defer func() {
		for i := len(subCtxs) - 1; i >= 0; i-- {
			subCtxs[i].ExitScope()
		}
	}()

	for len(args) > 0 {
		name, child, rest, err := c.ResolveCommand(ctx, args)
		if err != nil {
			return nil, err
		}
		subCtx, err := child.BuildContext(name, rest, ctx,
			func(sc *Context) {
				sc.AllowExtraArgs = true
				sc.AllowInterspersedArgs = false
			})
		if err != nil {
			return nil, err
		}
		subCtx.EnterScope()
		subCtxs = append(subCtxs, subCtx)
		// The child's leftover tokens feed the next sibling lookup.
		args = subCtx.Args
		subCtx.Args = nil
	}

	results := make([]any, 0, len(subCtxs))
	for _, subCtx := range subCtxs {
		result, err := subCtx.Command.Invoke(subCtx)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return c.processResult(ctx, results)
}

func (c *Command) processResult(ctx *Context, results []any) (any, error) {
	if c.ResultCallback == nil {
		if !c.Chain && len(results) == 1 {
			return results[0], nil
		}
		return results, nil
	}

	return c.ResultCallback(ctx, results)
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
