// Package parse turns a flat argument list into matched option/argument values
// and leftover tokens, following POSIX/GNU conventions: long options with
// attached "=value", clustered short options, the "--" end-of-options marker,
// fixed and unbounded arities, and optional passthrough of unknown options.
package parse

import (
	"strings"

	"github.com/ef-ds/deque/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/clipkit/clipkit/errs"
	"github.com/clipkit/clipkit/util"
)

// OptionSpec describes one named option for the tokenizer. NArgs is the number
// of value tokens one occurrence consumes; zero marks a flag which never
// consumes a following token.
type OptionSpec struct {
	Name           string   // destination identity in Matches
	Opts           []string // primary option strings, e.g. "--flag", "-f"
	Secondary      []string // negating strings for boolean dual-flags, e.g. "--no-flag"
	NArgs          int
	FlagValue      string // raw value recorded when a flag occurrence matches
	SecondaryValue string // raw value recorded when a secondary string matches
	// FlagNeedsValue marks an option which acts as a flag when no value is
	// available but accepts one when attached or adjacent.
	FlagNeedsValue bool
}

// ArgSpec describes one positional argument. NArgs of -1 collects every
// remaining token not reserved by later fixed-arity positionals.
type ArgSpec struct {
	Name  string
	NArgs int
	// EmptyIsUnmatched leaves an unbounded argument out of the matches when it
	// collected nothing, so later resolution stages (environment, defaults)
	// can still supply a value.
	EmptyIsUnmatched bool
}

// Matches maps parameter identities to the raw string values matched for them,
// preserving both per-name value order and the order names first appeared in.
type Matches struct {
	values *orderedmap.OrderedMap[string, []string]
	order  []string
}

// NewMatches returns an empty match set. Callers replaying incomplete command
// lines use it in place of a failed parse.
func NewMatches() *Matches {
	return &Matches{values: orderedmap.New[string, []string]()}
}

func (m *Matches) add(name string, vals ...string) {
	existing, found := m.values.Get(name)
	m.values.Set(name, append(existing, vals...))
	if !found {
		m.order = append(m.order, name)
	}
}

// Raw returns the matched raw values for name, nil when the name never matched.
func (m *Matches) Raw(name string) []string {
	vals, _ := m.values.Get(name)
	return vals
}

// Has reports whether name was matched at least once.
func (m *Matches) Has(name string) bool {
	_, found := m.values.Get(name)
	return found
}

// Order returns parameter names in the order they were first matched.
func (m *Matches) Order() []string {
	return m.order
}

type optRef struct {
	spec      *OptionSpec
	secondary bool
}

// Parser tokenizes the argument list of a single command invocation.
type Parser struct {
	prefixes          []rune
	ignoreUnknown     bool
	allowInterspersed bool
	normalize         func(string) string
	long              map[string]*optRef
	short             map[string]*optRef
	options           []*OptionSpec
	args              []*ArgSpec
}

// NewParser returns a Parser recognizing '-'-prefixed options with
// interspersed positional arguments allowed.
func NewParser() *Parser {
	return &Parser{
		prefixes:          []rune{'-'},
		allowInterspersed: true,
		long:              map[string]*optRef{},
		short:             map[string]*optRef{},
	}
}

// SetPrefixes replaces the recognized option prefix runes.
func (p *Parser) SetPrefixes(prefixes []rune) {
	if len(prefixes) > 0 {
		p.prefixes = prefixes
	}
}

// SetIgnoreUnknown controls whether unrecognized option-looking tokens are
// preserved verbatim in the leftover list instead of raising an error.
func (p *Parser) SetIgnoreUnknown(v bool) {
	p.ignoreUnknown = v
}

// SetAllowInterspersed controls whether options may follow positionals. When
// disallowed, the first positional stops option recognition for the line.
func (p *Parser) SetAllowInterspersed(v bool) {
	p.allowInterspersed = v
}

// SetNormalizeFunc installs a token normalization function applied to option
// tokens at registration and match time.
func (p *Parser) SetNormalizeFunc(f func(string) string) {
	p.normalize = f
}

func (p *Parser) normalizeToken(tok string) string {
	if p.normalize == nil {
		return tok
	}
	return p.normalize(tok)
}

// AddOption registers an option. Single-rune names behind a single-rune prefix
// are matched as short options; everything else matches as a long option.
func (p *Parser) AddOption(spec *OptionSpec) {
	p.options = append(p.options, spec)
	for _, opt := range spec.Opts {
		p.register(opt, &optRef{spec: spec})
	}
	for _, opt := range spec.Secondary {
		p.register(opt, &optRef{spec: spec, secondary: true})
	}
}

// AddArgument appends a positional argument spec in declaration order.
func (p *Parser) AddArgument(spec *ArgSpec) {
	p.args = append(p.args, spec)
}

func (p *Parser) register(opt string, ref *optRef) {
	opt = p.normalizeToken(opt)
	prefix, name := p.splitOpt(opt)
	if len([]rune(prefix)) == 1 && len([]rune(name)) == 1 {
		p.short[opt] = ref
	} else {
		p.long[opt] = ref
	}
}

// splitOpt separates the prefix from the option name. A doubled first rune
// (as in "--name") forms a two-rune prefix.
func (p *Parser) splitOpt(opt string) (string, string) {
	runes := []rune(opt)
	if len(runes) == 0 || !p.isPrefixRune(runes[0]) {
		return "", opt
	}
	if len(runes) > 1 && runes[1] == runes[0] {
		return string(runes[:2]), string(runes[2:])
	}

	return string(runes[:1]), string(runes[1:])
}

func (p *Parser) isPrefixRune(r rune) bool {
	for _, pr := range p.prefixes {
		if pr == r {
			return true
		}
	}
	return false
}

func (p *Parser) isOptionToken(arg string) bool {
	runes := []rune(arg)
	return len(runes) > 1 && p.isPrefixRune(runes[0])
}

func (p *Parser) hasDoublePrefix(arg string) bool {
	runes := []rune(arg)
	return len(runes) > 1 && p.isPrefixRune(runes[0]) && runes[1] == runes[0]
}

// isKnownOption reports whether tok would match a registered option.
func (p *Parser) isKnownOption(tok string) bool {
	if !p.isOptionToken(tok) {
		return false
	}
	name := tok
	if idx := strings.Index(tok, "="); idx >= 0 {
		name = tok[:idx]
	}
	name = p.normalizeToken(name)
	if _, ok := p.long[name]; ok {
		return true
	}
	runes := []rune(name)
	if len(runes) > 1 && !p.hasDoublePrefix(name) {
		_, ok := p.short[string(runes[0])+string(runes[1])]
		return ok
	}

	return false
}

// ParseArgs classifies every token of args, returning the matched raw values
// and the leftover tokens not claimed by any spec.
func (p *Parser) ParseArgs(args []string) (*Matches, []string, error) {
	state := NewState(args)
	matches := NewMatches()
	var largs []string

	for state.Advance() {
		arg := state.CurrentArg()
		switch {
		case arg == "--":
			for state.Advance() {
				largs = append(largs, state.CurrentArg())
			}
		case p.isOptionToken(arg):
			if err := p.processOpt(state, arg, matches, &largs); err != nil {
				return nil, nil, err
			}
		case p.allowInterspersed:
			largs = append(largs, arg)
		default:
			largs = append(largs, arg)
			for state.Advance() {
				largs = append(largs, state.CurrentArg())
			}
		}
	}

	leftover, err := p.unpackArgs(largs, matches)
	if err != nil {
		return nil, nil, err
	}

	return matches, leftover, nil
}

func (p *Parser) processOpt(state State, arg string, matches *Matches, largs *[]string) error {
	long := arg
	var explicit *string
	if idx := strings.Index(arg, "="); idx >= 0 {
		v := arg[idx+1:]
		explicit = &v
		long = arg[:idx]
	}

	err := p.matchLong(state, p.normalizeToken(long), explicit, matches)
	if err == nil {
		return nil
	}

	var perr *Error
	isNoSuch := false
	if e, ok := err.(*Error); ok {
		perr = e
		isNoSuch = perr.Err == errs.ErrNoSuchOption
	}
	if !isNoSuch {
		return err
	}

	// A two-rune prefix (as in "--foo") never dispatches to short options.
	if !p.hasDoublePrefix(arg) {
		return p.matchShort(state, arg, matches, largs)
	}
	if p.ignoreUnknown {
		*largs = append(*largs, arg)
		return nil
	}

	return perr
}

func (p *Parser) matchLong(state State, opt string, explicit *string, matches *Matches) error {
	ref, ok := p.long[opt]
	if !ok {
		return p.noSuchOption(opt)
	}
	spec := ref.spec

	if ref.secondary {
		if explicit != nil {
			return &Error{Opt: opt, Err: errs.ErrOptionTakesNoValue}
		}
		matches.add(spec.Name, spec.SecondaryValue)
		return nil
	}

	if spec.NArgs == 0 {
		if explicit != nil {
			return &Error{Opt: opt, Err: errs.ErrOptionTakesNoValue}
		}
		matches.add(spec.Name, spec.FlagValue)
		return nil
	}

	if explicit != nil {
		state.InsertArgsAt(state.Pos()+1, *explicit)
	}
	vals, err := p.valuesFromState(state, opt, spec, explicit != nil)
	if err != nil {
		return err
	}
	matches.add(spec.Name, vals...)

	return nil
}

func (p *Parser) matchShort(state State, arg string, matches *Matches, largs *[]string) error {
	runes := []rune(arg)
	prefix := string(runes[0])
	var unknown []rune

	for i := 1; i < len(runes); i++ {
		opt := p.normalizeToken(prefix + string(runes[i]))
		ref, ok := p.short[opt]
		if !ok {
			if p.ignoreUnknown {
				unknown = append(unknown, runes[i])
				continue
			}
			return p.noSuchOption(opt)
		}
		spec := ref.spec

		if ref.secondary {
			matches.add(spec.Name, spec.SecondaryValue)
			continue
		}
		if spec.NArgs == 0 {
			matches.add(spec.Name, spec.FlagValue)
			continue
		}

		// Remaining clustered characters are the attached value.
		attached := i+1 < len(runes)
		if attached {
			state.InsertArgsAt(state.Pos()+1, string(runes[i+1:]))
		}
		vals, err := p.valuesFromState(state, opt, spec, attached)
		if err != nil {
			return err
		}
		matches.add(spec.Name, vals...)
		break
	}

	// Recombine unknown characters so "-unknown" survives verbatim as a
	// leftover the owning command can hand through.
	if p.ignoreUnknown && len(unknown) > 0 {
		*largs = append(*largs, prefix+string(unknown))
	}

	return nil
}

func (p *Parser) valuesFromState(state State, opt string, spec *OptionSpec, explicit bool) ([]string, error) {
	nargs := spec.NArgs

	if state.Remaining() < nargs {
		if spec.FlagNeedsValue {
			return []string{spec.FlagValue}, nil
		}
		return nil, &Error{Opt: opt, Err: errs.ErrOptionRequiresValue}
	}

	if nargs == 1 {
		next := state.Peek()
		if !explicit && p.isOptionToken(next) {
			if spec.FlagNeedsValue {
				return []string{spec.FlagValue}, nil
			}
			if p.isKnownOption(next) {
				return nil, &Error{Opt: opt, Err: errs.ErrOptionRequiresValue}
			}
		}
		state.Advance()
		return []string{state.CurrentArg()}, nil
	}

	vals := make([]string, 0, nargs)
	for i := 0; i < nargs; i++ {
		state.Advance()
		vals = append(vals, state.CurrentArg())
	}

	return vals, nil
}

// unpackArgs distributes the positional tokens over the declared argument
// specs. An unbounded spec consumes from the front while every spec declared
// after it is served from the back, reserving exactly its arity of trailing
// tokens.
func (p *Parser) unpackArgs(tokens []string, matches *Matches) ([]string, error) {
	if len(p.args) == 0 {
		return tokens, nil
	}

	rest := deque.New[string]()
	for _, t := range tokens {
		rest.PushBack(t)
	}

	type slot struct {
		spec    *ArgSpec
		vals    []string
		missing int
	}

	slots := make([]*slot, len(p.args))
	unbounded := -1
	for i, spec := range p.args {
		slots[i] = &slot{spec: spec}
		if spec.NArgs < 0 {
			unbounded = i
		}
	}

	fillFront := func(s *slot) {
		for k := 0; k < s.spec.NArgs; k++ {
			v, ok := rest.PopFront()
			if !ok {
				s.missing++
				continue
			}
			s.vals = append(s.vals, v)
		}
	}
	fillBack := func(s *slot) {
		for k := 0; k < s.spec.NArgs; k++ {
			v, ok := rest.PopBack()
			if !ok {
				s.missing++
				continue
			}
			s.vals = append(s.vals, v)
		}
		util.ReverseInPlace(s.vals)
	}

	stop := len(p.args)
	if unbounded >= 0 {
		stop = unbounded
	}
	for i := 0; i < stop; i++ {
		fillFront(slots[i])
	}
	// Specs declared after the unbounded one reserve exactly their arity of
	// trailing tokens, last spec first.
	for i := len(p.args) - 1; i > unbounded && unbounded >= 0; i-- {
		fillBack(slots[i])
	}

	var leftover []string
	if unbounded >= 0 {
		all := make([]string, 0, rest.Len())
		for {
			v, ok := rest.PopFront()
			if !ok {
				break
			}
			all = append(all, v)
		}
		slots[unbounded].vals = all
	} else {
		for {
			v, ok := rest.PopFront()
			if !ok {
				break
			}
			leftover = append(leftover, v)
		}
	}

	for _, s := range slots {
		switch {
		case s.spec.NArgs < 0:
			if len(s.vals) == 0 && s.spec.EmptyIsUnmatched {
				continue
			}
			matches.add(s.spec.Name, s.vals...)
		case s.missing == s.spec.NArgs:
			// Entirely absent; later resolution stages decide.
		case s.missing > 0:
			return nil, &Error{Opt: s.spec.Name, Err: errs.ErrArgumentArity}
		default:
			matches.add(s.spec.Name, s.vals...)
		}
	}

	return leftover, nil
}

func (p *Parser) noSuchOption(opt string) *Error {
	var names []string
	for name := range p.long {
		names = append(names, name)
	}

	return &Error{
		Opt:        opt,
		Err:        errs.ErrNoSuchOption,
		Suggestion: util.NearestMatch(opt, names, 2),
	}
}
