package completion

import (
	"fmt"
	"strings"
)

// Action is the second half of a completion instruction.
type Action string

const (
	// ActionSource asks the program to emit the completion script for the
	// shell so the user can eval it. Script text is owned by the shell
	// integrations, not by this library.
	ActionSource Action = "source"
	// ActionComplete asks the program to emit candidates for the current line.
	ActionComplete Action = "complete"
)

// Instruction is the decoded value of the _<PROG_NAME>_COMPLETE environment
// variable, of the form "<shell>_<source|complete>".
type Instruction struct {
	Shell  string
	Action Action
}

// EnvVarName derives the completion instruction variable name for a program:
// non-alphanumeric runes become '_' and the result is uppercased, giving for
// example _MY_TOOL_COMPLETE for "my-tool".
func EnvVarName(progName string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, progName)

	return "_" + strings.ToUpper(cleaned) + "_COMPLETE"
}

// ParseInstruction decodes an instruction value. The empty string reports
// ok=false so callers can skip completion handling entirely.
func ParseInstruction(value string) (Instruction, error) {
	idx := strings.LastIndex(value, "_")
	if idx <= 0 || idx == len(value)-1 {
		return Instruction{}, fmt.Errorf("invalid completion instruction: %q", value)
	}

	instr := Instruction{Shell: value[:idx], Action: Action(value[idx+1:])}
	switch instr.Action {
	case ActionSource, ActionComplete:
		return instr, nil
	default:
		return Instruction{}, fmt.Errorf("invalid completion action: %q", value)
	}
}
