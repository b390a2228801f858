package clipkit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/clipkit/clipkit/parse"
)

// processingOrder sorts parameters for resolution: eager ones first, then by
// the order the parser first matched them, falling back to declaration order
// for unmatched ones. The sort is stable so declaration order breaks ties.
func processingOrder(params []*Param, matchOrder []string) []*Param {
	matchIdx := make(map[string]int, len(matchOrder))
	for i, name := range matchOrder {
		matchIdx[name] = i
	}

	out := append([]*Param(nil), params...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Eager != out[j].Eager {
			return out[i].Eager
		}
		oi, oki := matchIdx[out[i].Name]
		oj, okj := matchIdx[out[j].Name]
		if oki != okj {
			return oki
		}
		return oki && oi < oj
	})

	return out
}

// resolveParam walks the precedence chain for one parameter and records the
// outcome on ctx: command line, then environment, then the default map, then
// the declared default, then prompting, then failure for required parameters.
// The callback runs exactly once, after the chain, whatever the source.
func resolveParam(ctx *Context, p *Param, matches *parse.Matches) error {
	value, source, err := resolveValue(ctx, p, matches)
	if err != nil {
		return attachContext(err, ctx, p)
	}

	if p.Callback != nil {
		value, err = p.Callback(ctx, p, value)
		if err != nil {
			return attachContext(err, ctx, p)
		}
	}

	ctx.SetProvenance(p.Name, source)
	if p.ExposeValue {
		ctx.Params[p.Name] = value
	}

	return nil
}

func resolveValue(ctx *Context, p *Param, matches *parse.Matches) (any, Source, error) {
	if matches.Has(p.Name) {
		value, err := convertRaws(ctx, p, matches.Raw(p.Name))
		return value, SourceCommandLine, err
	}

	if raw, ok := lookupEnvValue(ctx, p); ok {
		value, err := convertRaws(ctx, p, splitEnvValue(p, raw))
		return value, SourceEnvironment, err
	}

	if v, ok := ctx.lookupDefault(p.Name); ok {
		value, err := convertResolved(ctx, p, v)
		return value, SourceDefaultMap, err
	}

	if p.Default != nil || p.DefaultFunc != nil {
		v := p.Default
		if p.DefaultFunc != nil {
			v = p.DefaultFunc()
		}
		value, err := convertResolved(ctx, p, v)
		return value, SourceDefault, err
	}

	if p.Prompt != "" && !ctx.Resilient {
		value, err := promptValue(ctx, p)
		return value, SourcePrompt, err
	}

	if p.Required && !ctx.Resilient {
		return nil, SourceNone, &MissingParamError{Ctx: ctx, Param: p}
	}

	return nil, SourceNone, nil
}

// lookupEnvValue consults the parameter's environment variables in priority
// order. An empty value counts as absent: "unset" and "intentionally cleared"
// resolve the same way.
func lookupEnvValue(ctx *Context, p *Param) (string, bool) {
	for _, name := range p.envVarNames(ctx) {
		if v, ok := ctx.Env.LookupEnv(name); ok && v != "" {
			return v, true
		}
	}

	return "", false
}

// splitEnvValue maps one environment string onto the raw token list the
// command line would have produced. Parameters consuming more than one token
// per occurrence split on whitespace.
func splitEnvValue(p *Param, raw string) []string {
	if p.Multiple || p.NArgs != 1 {
		return strings.Fields(raw)
	}

	return []string{raw}
}

// convertRaws turns matched raw strings into the parameter's final value,
// applying the multiplicity rules: flags decide by their last occurrence,
// counters by their occurrence count, repeatable parameters collect every
// occurrence, everything else keeps only the last one.
func convertRaws(ctx *Context, p *Param, raws []string) (any, error) {
	switch p.Kind {
	case KindCount:
		return int64(len(raws)), nil

	case KindFlag:
		if p.Multiple {
			return convertEach(ctx, p, raws)
		}
		return p.Type.Convert(ctx, p, raws[len(raws)-1])
	}

	if p.NArgs > 1 {
		// The tokenizer guarantees whole groups; values coming from the
		// environment or a default string may not.
		if len(raws)%p.NArgs != 0 {
			return nil, &BadParamError{
				Param: p,
				Value: strings.Join(raws, " "),
				Message: fmt.Sprintf("takes values in groups of %d, got %d",
					p.NArgs, len(raws)),
			}
		}
		groups := chunkRaws(raws, p.NArgs)
		if p.Multiple {
			out := make([]any, 0, len(groups))
			for _, g := range groups {
				v, err := convertGroup(ctx, p, g)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		}
		return convertGroup(ctx, p, groups[len(groups)-1])
	}

	if p.Multiple || p.NArgs < 0 {
		return convertEach(ctx, p, raws)
	}

	return p.Type.Convert(ctx, p, raws[len(raws)-1])
}

func convertEach(ctx *Context, p *Param, raws []string) ([]any, error) {
	out := make([]any, 0, len(raws))
	for _, raw := range raws {
		v, err := p.Type.Convert(ctx, p, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

// convertGroup converts one fixed-arity occurrence, delegating to the
// composite converter when the type declares one.
func convertGroup(ctx *Context, p *Param, group []string) (any, error) {
	if composite, ok := p.Type.(CompositeType); ok {
		return composite.ConvertSlice(ctx, p, group)
	}

	return convertEach(ctx, p, group)
}

func chunkRaws(raws []string, size int) [][]string {
	out := make([][]string, 0, len(raws)/size)
	for i := 0; i+size <= len(raws); i += size {
		out = append(out, raws[i:i+size])
	}

	return out
}

// convertResolved handles values produced by defaults and the default map:
// strings still pass through the converter, already-typed values are taken
// as-is.
func convertResolved(ctx *Context, p *Param, v any) (any, error) {
	switch value := v.(type) {
	case string:
		if p.Multiple || p.NArgs != 1 {
			return convertRaws(ctx, p, splitEnvValue(p, value))
		}
		return p.Type.Convert(ctx, p, value)
	case []string:
		return convertRaws(ctx, p, value)
	case []any:
		out := make([]any, len(value))
		for i, el := range value {
			converted, err := convertResolved(ctx, p, el)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return value, nil
	}
}

// promptValue asks interactively until conversion succeeds, optionally
// requiring the value to be entered twice. A boolean flag prompts as a yes/no
// confirmation. EOF or interrupt surfaces as the abort signal.
func promptValue(ctx *Context, p *Param) (any, error) {
	if p.Kind == KindFlag {
		return promptConfirm(ctx, p)
	}

	for {
		entered, err := ctx.Prompter.Prompt(p.Prompt+": ", p.HideInput)
		if err != nil {
			return nil, err
		}
		if entered == "" && p.Default != nil {
			return convertResolved(ctx, p, p.Default)
		}

		if p.ConfirmPrompt {
			repeat, err := ctx.Prompter.Prompt("Repeat for confirmation: ", p.HideInput)
			if err != nil {
				return nil, err
			}
			if repeat != entered {
				fmt.Fprintln(ctx.Stderr, "Error: the two entered values do not match.")
				continue
			}
		}

		value, err := p.Type.Convert(ctx, p, entered)
		if err != nil {
			var bad *BadParamError
			if errors.As(err, &bad) {
				fmt.Fprintf(ctx.Stderr, "Error: %s\n", bad.Message)
				continue
			}
			return nil, err
		}

		return value, nil
	}
}

func promptConfirm(ctx *Context, p *Param) (any, error) {
	for {
		entered, err := ctx.Prompter.Prompt(p.Prompt+" [y/N]: ", false)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(strings.TrimSpace(entered)) {
		case "", "n", "no":
			return false, nil
		case "y", "yes":
			return true, nil
		default:
			fmt.Fprintln(ctx.Stderr, "Error: invalid input")
		}
	}
}
