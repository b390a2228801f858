package clipkit

import (
	"io"
	"os"
	"strings"

	"github.com/clipkit/clipkit/env"
	"github.com/clipkit/clipkit/input"
	"github.com/clipkit/clipkit/util"
)

// Context is one invocation record in the command chain. A Context links to
// its parent, holds the resolved parameter values and their provenance, and
// carries the settings inherited down the tree. Operations receive the Context
// explicitly; there is no ambient context lookup.
type Context struct {
	Command  *Command
	Parent   *Context
	InfoName string

	// Params holds the resolved values of exposed parameters.
	Params map[string]any

	// Args are the leftover tokens not claimed by this command's parameters.
	Args []string

	// Resilient suppresses prompting, required-ness enforcement and
	// side-effecting eager actions. Completion runs with it set.
	Resilient bool

	// InvokedSubcommand is the name of the dispatched child, "*" when several
	// are chained, empty when none.
	InvokedSubcommand string

	// Inherited settings. Computed once at construction; unset values fall
	// back to the parent.
	AutoEnvvarPrefix      string
	DefaultMap            map[string]any
	HelpOptionNames       []string
	TokenNormalizeFunc    func(string) string
	ShowDefault           *bool
	Color                 *bool
	TerminalWidth         int
	MaxContentWidth       int
	AllowExtraArgs        bool
	AllowInterspersedArgs bool
	IgnoreUnknownOptions  bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Env      env.Resolver
	Prompter input.Prompter

	provenance    map[string]Source
	protectedArgs []string
	meta          map[string]any
	cleanup       []func()
	depth         int
	closed        bool
}

// ConfigureContextFunc adjusts a Context at construction time.
type ConfigureContextFunc func(ctx *Context)

// WithAutoEnvvarPrefix enables auto-derived environment variable lookups
// under the given prefix.
func WithAutoEnvvarPrefix(prefix string) ConfigureContextFunc {
	return func(ctx *Context) { ctx.AutoEnvvarPrefix = prefix }
}

// WithDefaultMap installs the value map consulted between environment
// variables and static defaults. Nested maps are keyed by subcommand name.
func WithDefaultMap(m map[string]any) ConfigureContextFunc {
	return func(ctx *Context) { ctx.DefaultMap = m }
}

// WithHelpOptionNames overrides the auto-added help option strings.
func WithHelpOptionNames(names ...string) ConfigureContextFunc {
	return func(ctx *Context) { ctx.HelpOptionNames = names }
}

// WithTokenNormalizeFunc installs a normalization applied to option tokens
// and subcommand names.
func WithTokenNormalizeFunc(f func(string) string) ConfigureContextFunc {
	return func(ctx *Context) { ctx.TokenNormalizeFunc = f }
}

// WithColor forces color output on or off for the whole tree.
func WithColor(on bool) ConfigureContextFunc {
	return func(ctx *Context) { ctx.Color = &on }
}

// WithTerminalWidth pins the terminal width instead of detecting it.
func WithTerminalWidth(width int) ConfigureContextFunc {
	return func(ctx *Context) { ctx.TerminalWidth = width }
}

// WithMaxContentWidth caps the rendered content width.
func WithMaxContentWidth(width int) ConfigureContextFunc {
	return func(ctx *Context) { ctx.MaxContentWidth = width }
}

// WithStreams substitutes the standard streams for this tree.
func WithStreams(in io.Reader, out, errW io.Writer) ConfigureContextFunc {
	return func(ctx *Context) {
		ctx.Stdin = in
		ctx.Stdout = out
		ctx.Stderr = errW
	}
}

// WithEnvResolver substitutes environment variable access.
func WithEnvResolver(r env.Resolver) ConfigureContextFunc {
	return func(ctx *Context) { ctx.Env = r }
}

// WithPrompter substitutes the interactive prompter.
func WithPrompter(p input.Prompter) ConfigureContextFunc {
	return func(ctx *Context) { ctx.Prompter = p }
}

// WithResilientParsing builds the tree in resilient mode.
func WithResilientParsing() ConfigureContextFunc {
	return func(ctx *Context) { ctx.Resilient = true }
}

// newContext builds a Context for cmd under parent, applying configs and then
// computing every inherited setting exactly once.
func newContext(cmd *Command, parent *Context, infoName string, configs ...ConfigureContextFunc) *Context {
	ctx := &Context{
		Command:    cmd,
		Parent:     parent,
		InfoName:   infoName,
		Params:     map[string]any{},
		provenance: map[string]Source{},
	}
	if cmd != nil {
		ctx.AllowExtraArgs = cmd.AllowExtraArgs
		ctx.AllowInterspersedArgs = cmd.AllowInterspersedArgs
		ctx.IgnoreUnknownOptions = cmd.IgnoreUnknownOptions
	}

	for _, config := range configs {
		config(ctx)
	}

	if parent != nil {
		ctx.Resilient = ctx.Resilient || parent.Resilient
		if ctx.AutoEnvvarPrefix == "" && parent.AutoEnvvarPrefix != "" {
			ctx.AutoEnvvarPrefix = parent.AutoEnvvarPrefix
		}
		if ctx.DefaultMap == nil && parent.DefaultMap != nil {
			if sub, ok := parent.DefaultMap[infoName].(map[string]any); ok {
				ctx.DefaultMap = sub
			}
		}
		if ctx.HelpOptionNames == nil {
			ctx.HelpOptionNames = parent.HelpOptionNames
		}
		if ctx.TokenNormalizeFunc == nil {
			ctx.TokenNormalizeFunc = parent.TokenNormalizeFunc
		}
		if ctx.ShowDefault == nil {
			ctx.ShowDefault = parent.ShowDefault
		}
		if ctx.Color == nil {
			ctx.Color = parent.Color
		}
		if ctx.TerminalWidth == 0 {
			ctx.TerminalWidth = parent.TerminalWidth
		}
		if ctx.MaxContentWidth == 0 {
			ctx.MaxContentWidth = parent.MaxContentWidth
		}
		if ctx.Stdin == nil {
			ctx.Stdin = parent.Stdin
		}
		if ctx.Stdout == nil {
			ctx.Stdout = parent.Stdout
		}
		if ctx.Stderr == nil {
			ctx.Stderr = parent.Stderr
		}
		if ctx.Env == nil {
			ctx.Env = parent.Env
		}
		if ctx.Prompter == nil {
			ctx.Prompter = parent.Prompter
		}
		// The meta store is shared by the whole tree; it is merged in at
		// creation, never overwritten.
		ctx.meta = parent.meta
	}

	if ctx.HelpOptionNames == nil {
		ctx.HelpOptionNames = []string{"--help"}
	}
	if ctx.TerminalWidth == 0 {
		ctx.TerminalWidth = util.TerminalWidth()
	}
	if ctx.Stdin == nil {
		ctx.Stdin = os.Stdin
	}
	if ctx.Stdout == nil {
		ctx.Stdout = os.Stdout
	}
	if ctx.Stderr == nil {
		ctx.Stderr = os.Stderr
	}
	if ctx.Env == nil {
		ctx.Env = env.OSResolver{}
	}
	if ctx.Prompter == nil {
		ctx.Prompter = input.NewConsolePrompter(ctx.Stdin, ctx.Stderr)
	}
	if ctx.meta == nil {
		ctx.meta = map[string]any{}
	}

	return ctx
}

// Root returns the top of the context chain.
func (ctx *Context) Root() *Context {
	cur := ctx
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// CommandPath is the space-joined chain of info names, used in usage lines.
func (ctx *Context) CommandPath() string {
	var names []string
	for cur := ctx; cur != nil; cur = cur.Parent {
		names = append(names, cur.InfoName)
	}
	util.ReverseInPlace(names)

	return strings.Join(names, " ")
}

// commandPathKey is the chain below the root, used for auto-envvar names.
func (ctx *Context) commandPathKey() string {
	var names []string
	for cur := ctx; cur != nil && cur.Parent != nil; cur = cur.Parent {
		names = append(names, cur.InfoName)
	}
	util.ReverseInPlace(names)

	return strings.Join(names, "_")
}

// Meta returns the shared key-value store propagated to all descendants.
func (ctx *Context) Meta() map[string]any {
	return ctx.meta
}

// EnsureMeta stores value under key only when the key is absent, returning the
// value that is now present.
func (ctx *Context) EnsureMeta(key string, value any) any {
	if existing, ok := ctx.meta[key]; ok {
		return existing
	}
	ctx.meta[key] = value

	return value
}

// SetProvenance records where a parameter's value came from.
func (ctx *Context) SetProvenance(name string, source Source) {
	ctx.provenance[name] = source
}

// ProvenanceOf reports the recorded source for a parameter name.
func (ctx *Context) ProvenanceOf(name string) Source {
	return ctx.provenance[name]
}

// lookupDefault consults the default map for name, invoking callables.
func (ctx *Context) lookupDefault(name string) (any, bool) {
	if ctx.DefaultMap == nil {
		return nil, false
	}
	value, ok := ctx.DefaultMap[name]
	if !ok {
		return nil, false
	}
	if f, isFunc := value.(func() any); isFunc {
		return f(), true
	}

	return value, true
}

// OnClose appends a cleanup action owned by this Context. Actions run in
// reverse order of registration when the scope ends.
func (ctx *Context) OnClose(f func()) {
	ctx.cleanup = append(ctx.cleanup, f)
}

// EnterScope marks the beginning of this Context's logical scope. Re-entering
// the same Context only increments a depth counter, keeping setup and
// teardown idempotent.
func (ctx *Context) EnterScope() {
	ctx.depth++
}

// ExitScope ends one nesting level; teardown runs when depth returns to zero.
func (ctx *Context) ExitScope() {
	ctx.depth--
	if ctx.depth <= 0 {
		ctx.Close()
	}
}

// Close flushes the cleanup registry exactly once, in reverse order of
// registration.
func (ctx *Context) Close() {
	if ctx.closed {
		return
	}
	ctx.closed = true
	for i := len(ctx.cleanup) - 1; i >= 0; i-- {
		ctx.cleanup[i]()
	}
	ctx.cleanup = nil
}

// normalizeToken applies the inherited token normalization, if any.
func (ctx *Context) normalizeToken(tok string) string {
	if ctx.TokenNormalizeFunc == nil {
		return tok
	}
	return ctx.TokenNormalizeFunc(tok)
}

// usageLine renders the one-line usage summary for error messages.
func (ctx *Context) usageLine() string {
	parts := []string{ctx.CommandPath()}
	if ctx.Command != nil {
		parts = append(parts, ctx.Command.usagePieces()...)
	}

	return strings.Join(parts, " ")
}
