package clipkit

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/clipkit/clipkit/completion"
)

// ParamType converts a raw command-line string into a typed value. Conversion
// failures must be reported as a BadParamError naming the offending value;
// the pipeline fills in the Context and Param. Converting an already-converted
// value is a no-op by construction: converters only ever see raw strings, and
// typed defaults bypass conversion entirely.
type ParamType interface {
	Name() string
	Convert(ctx *Context, p *Param, value string) (any, error)
}

// CompositeType is a ParamType of fixed arity whose elements have
// heterogeneous sub-types. A Param using one must declare a matching NArgs;
// the mismatch is rejected when the Param is attached to a Command.
type CompositeType interface {
	ParamType
	Arity() int
	ConvertSlice(ctx *Context, p *Param, values []string) (any, error)
}

// TypeCompleter is implemented by types which offer their own completion
// candidates, such as choices and filesystem paths.
type TypeCompleter interface {
	Complete(ctx *Context, p *Param, incomplete string) []completion.Candidate
}

func badValue(value, format string, args ...any) error {
	return &BadParamError{Value: value, Message: fmt.Sprintf(format, args...)}
}

// StringType passes values through unchanged.
type StringType struct{}

func (StringType) Name() string { return "text" }

func (StringType) Convert(_ *Context, _ *Param, value string) (any, error) {
	return value, nil
}

// IntType converts to int64.
type IntType struct{}

func (IntType) Name() string { return "integer" }

func (IntType) Convert(_ *Context, _ *Param, value string) (any, error) {
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, badValue(value, "%q is not a valid integer", value)
	}
	return v, nil
}

// FloatType converts to float64.
type FloatType struct{}

func (FloatType) Name() string { return "float" }

func (FloatType) Convert(_ *Context, _ *Param, value string) (any, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, badValue(value, "%q is not a valid float", value)
	}
	return v, nil
}

// BoolType accepts the usual spellings of truthiness.
type BoolType struct{}

func (BoolType) Name() string { return "boolean" }

func (BoolType) Convert(_ *Context, _ *Param, value string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return nil, badValue(value, "%q is not a valid boolean", value)
	}
}

// UUIDType converts to uuid.UUID.
type UUIDType struct{}

func (UUIDType) Name() string { return "uuid" }

func (UUIDType) Convert(_ *Context, _ *Param, value string) (any, error) {
	v, err := uuid.Parse(value)
	if err != nil {
		return nil, badValue(value, "%q is not a valid UUID", value)
	}
	return v, nil
}

// TimeType converts human-friendly timestamp spellings to time.Time in the
// local timezone.
type TimeType struct{}

func (TimeType) Name() string { return "timestamp" }

func (TimeType) Convert(_ *Context, _ *Param, value string) (any, error) {
	v, err := dateparse.ParseLocal(value)
	if err != nil {
		return nil, badValue(value, "%q is not a valid timestamp", value)
	}
	return v, nil
}

// ChoiceType restricts values to a fixed set and completes from it.
type ChoiceType struct {
	Choices       []string
	CaseSensitive bool
}

func (c *ChoiceType) Name() string { return "choice" }

func (c *ChoiceType) Convert(_ *Context, _ *Param, value string) (any, error) {
	for _, choice := range c.Choices {
		if choice == value || (!c.CaseSensitive && strings.EqualFold(choice, value)) {
			return choice, nil
		}
	}

	return nil, badValue(value, "%q is not one of %s", value, strings.Join(c.Choices, ", "))
}

func (c *ChoiceType) Complete(_ *Context, _ *Param, incomplete string) []completion.Candidate {
	var out []completion.Candidate
	for _, choice := range c.Choices {
		if strings.HasPrefix(choice, incomplete) {
			out = append(out, completion.Plain(choice, ""))
		}
	}

	return out
}

// PathType validates a filesystem path without opening it and hints native
// path completion to the shell.
type PathType struct {
	MustExist bool
	DirOkay   bool
	FileOkay  bool
}

func (p *PathType) Name() string { return "path" }

func (p *PathType) Convert(_ *Context, _ *Param, value string) (any, error) {
	fileOkay := p.FileOkay
	dirOkay := p.DirOkay
	if !fileOkay && !dirOkay {
		fileOkay, dirOkay = true, true
	}

	info, err := os.Stat(value)
	if err != nil {
		if p.MustExist {
			return nil, badValue(value, "path %q does not exist", value)
		}
		return value, nil
	}
	if info.IsDir() && !dirOkay {
		return nil, badValue(value, "%q is a directory", value)
	}
	if !info.IsDir() && !fileOkay {
		return nil, badValue(value, "%q is a file", value)
	}

	return value, nil
}

func (p *PathType) Complete(_ *Context, _ *Param, _ string) []completion.Candidate {
	if p.DirOkay && !p.FileOkay {
		return []completion.Candidate{completion.Dir()}
	}
	return []completion.Candidate{completion.File()}
}

// FileType opens the named file, registering the handle for cleanup when the
// owning Context scope ends. The conventional "-" maps to the Context's
// standard streams.
type FileType struct {
	Writable bool
	Append   bool
	Perm     os.FileMode
}

func (f *FileType) Name() string { return "file" }

func (f *FileType) Convert(ctx *Context, _ *Param, value string) (any, error) {
	if value == "-" {
		if f.Writable {
			return ctx.Stdout, nil
		}
		return ctx.Stdin, nil
	}

	var (
		file *os.File
		err  error
	)
	if f.Writable {
		flags := os.O_WRONLY | os.O_CREATE
		if f.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		perm := f.Perm
		if perm == 0 {
			perm = 0o644
		}
		file, err = os.OpenFile(value, flags, perm)
	} else {
		file, err = os.Open(value)
	}
	if err != nil {
		return nil, &FileError{Filename: value, Hint: err.Error()}
	}

	if ctx != nil {
		ctx.OnClose(func() { _ = file.Close() })
	}

	return file, nil
}

func (f *FileType) Complete(_ *Context, _ *Param, _ string) []completion.Candidate {
	return []completion.Candidate{completion.File()}
}

// TupleType is a fixed-arity composite of heterogeneous sub-types.
type TupleType struct {
	Types []ParamType
}

func (t *TupleType) Name() string {
	names := make([]string, len(t.Types))
	for i, sub := range t.Types {
		names[i] = sub.Name()
	}
	return "<" + strings.Join(names, " ") + ">"
}

func (t *TupleType) Arity() int { return len(t.Types) }

// Convert on a single token is only valid for arity one.
func (t *TupleType) Convert(ctx *Context, p *Param, value string) (any, error) {
	if len(t.Types) != 1 {
		return nil, badValue(value, "composite of arity %d cannot convert a single token", len(t.Types))
	}
	return t.Types[0].Convert(ctx, p, value)
}

func (t *TupleType) ConvertSlice(ctx *Context, p *Param, values []string) (any, error) {
	if len(values) != len(t.Types) {
		return nil, badValue(strings.Join(values, " "), "expected %d values, got %d", len(t.Types), len(values))
	}

	out := make([]any, len(values))
	for i, v := range values {
		converted, err := t.Types[i].Convert(ctx, p, v)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}

	return out, nil
}
