package clipkit

import (
	"fmt"
	"strings"
)

// helpOption builds the auto-registered eager help flag. The callback checks
// resilient mode before acting so completion never prints or exits.
func helpOption(names []string) *Param {
	p := &Param{
		Kind:      KindFlag,
		Name:      "help",
		Opts:      names,
		NArgs:     0,
		Type:      BoolType{},
		Default:   false,
		FlagValue: "true",
		Eager:     true,
		Help:      "Show this message and exit.",
		Callback: func(ctx *Context, _ *Param, value any) (any, error) {
			if v, ok := value.(bool); !ok || !v || ctx.Resilient {
				return value, nil
			}
			ctx.Command.printHelp(ctx)
			return value, Exit(0)
		},
	}

	return p
}

// metavarText is the placeholder a parameter shows in usage lines.
func (p *Param) metavarText() string {
	metavar := p.Metavar
	if metavar == "" {
		metavar = strings.ToUpper(p.Name)
		if choice, ok := p.Type.(*ChoiceType); ok {
			metavar = "{" + strings.Join(choice.Choices, "|") + "}"
		}
	}

	if p.Kind == KindArgument {
		if p.NArgs < 0 {
			metavar = "[" + metavar + "]..."
		} else if !p.Required {
			metavar = "[" + metavar + "]"
		}
		return metavar
	}

	return metavar
}

// usagePieces renders the usage-line fragments after the command path.
func (c *Command) usagePieces() []string {
	pieces := []string{"[OPTIONS]"}
	for _, p := range c.params {
		if p.Kind == KindArgument && !p.Hidden {
			pieces = append(pieces, p.metavarText())
		}
	}
	if c.isMultiCommand() {
		pieces = append(pieces, "COMMAND")
		if c.Chain {
			pieces = append(pieces, "[ARGS]... [COMMAND [ARGS]...]...")
		} else {
			pieces = append(pieces, "[ARGS]...")
		}
	}

	return pieces
}

// optionDecl renders the left column of an option's help row, e.g.
// "-o, --output PATH" or "--color / --no-color".
func (p *Param) optionDecl() string {
	decl := strings.Join(p.Opts, ", ")
	if len(p.Secondary) > 0 {
		decl += " / " + strings.Join(p.Secondary, ", ")
	}
	if p.takesTokens() && p.Kind != KindArgument {
		decl += " " + p.metavarText()
	}

	return decl
}

// helpExtras renders the trailing bracket of an option's help row, e.g.
// "[env var: APP_OUTPUT; default: out.txt]".
func (p *Param) helpExtras(ctx *Context) string {
	var extras []string
	if p.ShowEnvvar {
		if names := p.envVarNames(ctx); len(names) > 0 {
			extras = append(extras, "env var: "+strings.Join(names, ", "))
		}
	}
	showDefault := p.ShowDefault
	if !showDefault && ctx.ShowDefault != nil {
		showDefault = *ctx.ShowDefault
	}
	if showDefault && p.Default != nil {
		extras = append(extras, fmt.Sprintf("default: %v", p.Default))
	}
	if p.Required {
		extras = append(extras, "required")
	}
	if len(extras) == 0 {
		return ""
	}

	return "  [" + strings.Join(extras, "; ") + "]"
}

// printHelp writes the full help page for this command to ctx's stdout.
func (c *Command) printHelp(ctx *Context) {
	out := ctx.Stdout

	fmt.Fprintf(out, "Usage: %s\n", ctx.usageLine())
	if c.Help != "" {
		fmt.Fprintf(out, "\n%s\n", c.Help)
	}
	if c.Deprecated {
		fmt.Fprintf(out, "\n(Deprecated)\n")
	}

	var rows [][2]string
	for _, p := range c.paramsWithHelp(ctx) {
		if p.Kind == KindArgument || p.Hidden {
			continue
		}
		rows = append(rows, [2]string{p.optionDecl(), p.Help + p.helpExtras(ctx)})
	}
	if len(rows) > 0 {
		fmt.Fprintf(out, "\nOptions:\n")
		writeRows(ctx, rows)
	}

	if c.isMultiCommand() {
		var cmdRows [][2]string
		for _, name := range c.ListCommands(ctx) {
			child := c.LookupCommand(ctx, name)
			if child == nil || child.Hidden {
				continue
			}
			short := child.ShortHelp
			if short == "" {
				short = firstLine(child.Help)
			}
			cmdRows = append(cmdRows, [2]string{name, short})
		}
		if len(cmdRows) > 0 {
			fmt.Fprintf(out, "\nCommands:\n")
			writeRows(ctx, cmdRows)
		}
	}

	if c.Epilog != "" {
		fmt.Fprintf(out, "\n%s\n", c.Epilog)
	}
}

// writeRows prints two-column rows with the right column aligned and wrapped
// to the Context's content width.
func writeRows(ctx *Context, rows [][2]string) {
	left := 0
	for _, row := range rows {
		if len(row[0]) > left {
			left = len(row[0])
		}
	}

	width := ctx.TerminalWidth
	if ctx.MaxContentWidth > 0 && ctx.MaxContentWidth < width {
		width = ctx.MaxContentWidth
	}
	avail := width - left - 4
	if avail < 20 {
		avail = 20
	}

	for _, row := range rows {
		if row[1] == "" {
			fmt.Fprintf(ctx.Stdout, "  %s\n", row[0])
			continue
		}
		lines := wrapText(row[1], avail)
		fmt.Fprintf(ctx.Stdout, "  %-*s  %s\n", left, row[0], lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(ctx.Stdout, "  %-*s  %s\n", left, "", line)
		}
	}
}

func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	cur := words[0]
	for _, word := range words[1:] {
		if len(cur)+1+len(word) > width {
			lines = append(lines, cur)
			cur = word
			continue
		}
		cur += " " + word
	}

	return append(lines, cur)
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
