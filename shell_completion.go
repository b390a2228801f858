package clipkit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clipkit/clipkit/completion"
	"github.com/clipkit/clipkit/env"
	"github.com/clipkit/clipkit/parse"
)

// ResolveContext replays command and subcommand resolution for a partial
// token list exactly as real invocation would, in resilient mode: no prompts,
// no required-ness enforcement, no side-effecting eager actions. Errors on
// the incomplete line stop the descent at the deepest Context built so far.
func ResolveContext(root *Command, progName string, args []string, configs ...ConfigureContextFunc) *Context {
	all := append([]ConfigureContextFunc{WithResilientParsing()}, configs...)
	ctx, err := root.BuildContext(progName, args, nil, all...)
	if err != nil {
		return nil
	}

	rest := append(append([]string(nil), ctx.protectedArgs...), ctx.Args...)
	for len(rest) > 0 {
		cmd := ctx.Command
		if !cmd.isMultiCommand() {
			break
		}

		if !cmd.Chain {
			name, child, tail, _ := cmd.ResolveCommand(ctx, rest)
			if child == nil {
				return ctx
			}
			subCtx, err := child.BuildContext(name, tail, ctx)
			if err != nil {
				return ctx
			}
			ctx = subCtx
			rest = append(append([]string(nil), ctx.protectedArgs...), ctx.Args...)
			continue
		}

		// Chained dispatch: walk every sibling the line already names, ending
		// on the one still receiving tokens.
		var last *Context
		for len(rest) > 0 {
			name, child, tail, _ := cmd.ResolveCommand(ctx, rest)
			if child == nil {
				return ctx
			}
			subCtx, err := child.BuildContext(name, tail, ctx, func(sc *Context) {
				sc.AllowExtraArgs = true
				sc.AllowInterspersedArgs = false
			})
			if err != nil {
				return ctx
			}
			last = subCtx
			rest = subCtx.Args
		}
		if last != nil {
			last.Args = nil
			ctx = last
		}
		rest = nil
	}

	return ctx
}

// startOfOption reports whether token begins like an option of cmd.
func startOfOption(cmd *Command, token string) bool {
	if token == "" {
		return false
	}
	first := []rune(token)[0]
	for _, prefix := range cmd.optionPrefixes() {
		if first == prefix {
			return true
		}
	}

	return false
}

// incompleteOption finds an option whose arity the trailing tokens have not
// yet satisfied: its name appears within the last nargs completed tokens.
func incompleteOption(cmd *Command, ctx *Context, args []string) *Param {
	for _, p := range cmd.paramsWithHelp(ctx) {
		if p.Kind != KindOption || p.NArgs < 1 {
			continue
		}
		var lastOption string
		for i := 0; i < len(args) && i < p.NArgs; i++ {
			arg := args[len(args)-1-i]
			if startOfOption(cmd, arg) {
				lastOption = arg
			}
		}
		if lastOption == "" {
			continue
		}
		for _, opt := range p.Opts {
			if opt == lastOption {
				return p
			}
		}
	}

	return nil
}

// incompleteArgument finds a positional still willing to accept tokens:
// unmatched, unbounded, or partially filled.
func incompleteArgument(ctx *Context, cmd *Command) *Param {
	for _, p := range cmd.params {
		if p.Kind != KindArgument {
			continue
		}
		if p.NArgs < 0 {
			return p
		}
		value, ok := ctx.Params[p.Name]
		if !ok || value == nil {
			return p
		}
		if seq, isSeq := value.([]any); isSeq && p.NArgs > 1 && len(seq) < p.NArgs {
			return p
		}
	}

	return nil
}

// resolveIncomplete decides which object the trailing position belongs to:
// a parameter still collecting values, or the command itself. It also strips
// an attached "--name=" prefix off the in-progress token.
func resolveIncomplete(ctx *Context, args []string, incomplete string) (*Param, string) {
	cmd := ctx.Command

	if incomplete == "=" {
		incomplete = ""
	} else if strings.Contains(incomplete, "=") && startOfOption(cmd, incomplete) {
		name, value, _ := strings.Cut(incomplete, "=")
		args = append(args, name)
		incomplete = value
	}

	if !containsToken(args, "--") && startOfOption(cmd, incomplete) {
		return nil, incomplete
	}

	if p := incompleteOption(cmd, ctx, args); p != nil {
		return p, incomplete
	}
	if p := incompleteArgument(ctx, cmd); p != nil {
		return p, incomplete
	}

	return nil, incomplete
}

func containsToken(args []string, token string) bool {
	for _, arg := range args {
		if arg == token {
			return true
		}
	}
	return false
}

// Complete produces the candidates for an in-progress token at the end of
// args. It never invokes callbacks, prompts, or enforces required
// parameters; an unparseable line yields no candidates.
func Complete(root *Command, progName string, args []string, incomplete string) []completion.Candidate {
	ctx := ResolveContext(root, progName, args)
	if ctx == nil {
		return nil
	}

	p, incomplete := resolveIncomplete(ctx, args, incomplete)
	if p != nil {
		return paramCandidates(ctx, p, incomplete)
	}

	return commandCandidates(ctx, incomplete)
}

// paramCandidates delegates to the parameter's own completion provider, then
// its type's, filtering plain values by the in-progress token.
func paramCandidates(ctx *Context, p *Param, incomplete string) []completion.Candidate {
	var candidates []completion.Candidate
	switch {
	case p.Completer != nil:
		candidates = p.Completer(ctx, p, incomplete)
	default:
		if tc, ok := p.Type.(TypeCompleter); ok {
			candidates = tc.Complete(ctx, p, incomplete)
		}
	}

	return filterCandidates(candidates, incomplete)
}

// commandCandidates completes at the command level: option names when the
// token looks like one, visible subcommand names for dispatchers, remaining
// sibling names inside a chained parent, plus any custom provider.
func commandCandidates(ctx *Context, incomplete string) []completion.Candidate {
	cmd := ctx.Command
	var candidates []completion.Candidate

	if startOfOption(cmd, incomplete) {
		for _, p := range cmd.paramsWithHelp(ctx) {
			if p.Kind == KindArgument || p.Hidden {
				continue
			}
			for _, opt := range append(append([]string(nil), p.Opts...), p.Secondary...) {
				candidates = append(candidates, completion.Plain(opt, p.Help))
			}
		}
	}

	if cmd.isMultiCommand() {
		for _, name := range cmd.ListCommands(ctx) {
			child := cmd.LookupCommand(ctx, name)
			if child == nil || child.Hidden {
				continue
			}
			candidates = append(candidates, completion.Plain(name, child.ShortHelp))
		}
	}

	// Inside a chained dispatch the next token may name a sibling not yet
	// consumed on this line.
	for parent := ctx.Parent; parent != nil; parent = parent.Parent {
		if parent.Command == nil || !parent.Command.Chain {
			continue
		}
		for _, name := range parent.Command.ListCommands(parent) {
			if containsToken(parent.protectedArgs, name) {
				continue
			}
			child := parent.Command.LookupCommand(parent, name)
			if child == nil || child.Hidden {
				continue
			}
			candidates = append(candidates, completion.Plain(name, child.ShortHelp))
		}
	}

	if cmd.Completer != nil {
		for _, value := range cmd.Completer(ctx, incomplete) {
			candidates = append(candidates, completion.Plain(value, ""))
		}
	}

	return filterCandidates(candidates, incomplete)
}

func filterCandidates(candidates []completion.Candidate, incomplete string) []completion.Candidate {
	var out []completion.Candidate
	for _, c := range candidates {
		if c.Type != completion.TypePlain && c.Type != "" {
			out = append(out, c)
			continue
		}
		if c.StartsWith(incomplete) {
			out = append(out, c)
		}
	}

	return out
}

// CompleteFromEnv runs the completion handshake when the instruction
// environment variable is set: it reads the partial line from COMP_WORDS and
// the cursor index from COMP_CWORD, writes candidates to out, and reports
// that the process should exit with the returned code. When the variable is
// absent the handshake is not in effect and normal invocation proceeds.
func CompleteFromEnv(root *Command, progName string, e env.Resolver, out, errW io.Writer) (bool, int) {
	value, ok := e.LookupEnv(completion.EnvVarName(progName))
	if !ok || value == "" {
		return false, 0
	}

	instr, err := completion.ParseInstruction(value)
	if err != nil {
		fmt.Fprintf(errW, "Error: %s\n", err)
		return true, 1
	}

	if instr.Action == completion.ActionSource {
		// Script text belongs to the shell integrations shipped alongside the
		// program, not to this library.
		fmt.Fprintf(errW, "Error: no completion script built in for shell %q\n", instr.Shell)
		return true, 1
	}

	words := parse.SplitResilient(e.Get("COMP_WORDS"))
	cword, convErr := strconv.Atoi(e.Get("COMP_CWORD"))
	if convErr != nil || cword < 0 {
		cword = len(words)
	}

	var args []string
	if cword > 1 {
		end := cword
		if end > len(words) {
			end = len(words)
		}
		args = words[1:end]
	}
	incomplete := ""
	if cword < len(words) {
		incomplete = words[cword]
	}

	candidates := Complete(root, progName, args, incomplete)
	if err := completion.Write(out, candidates); err != nil {
		return true, 1
	}

	return true, 0
}
