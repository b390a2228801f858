// Package completion holds the completion candidate model and the environment
// handshake used by shell integrations. Deciding which object is being
// completed happens in the root package; this package only carries the results
// across the process boundary.
package completion

import (
	"fmt"
	"io"
	"strings"
)

// CandidateType tells the shell integration how to treat a candidate. Plain
// values are inserted verbatim; file and dir types ask the shell to apply its
// native path completion instead.
type CandidateType string

const (
	TypePlain CandidateType = "plain"
	TypeFile  CandidateType = "file"
	TypeDir   CandidateType = "dir"
)

// Candidate is one completion suggestion.
type Candidate struct {
	Value string
	Type  CandidateType
	Help  string
}

// Plain builds a plain-text candidate.
func Plain(value, help string) Candidate {
	return Candidate{Value: value, Type: TypePlain, Help: help}
}

// File builds a candidate instructing the shell to complete file paths.
func File() Candidate {
	return Candidate{Type: TypeFile}
}

// Dir builds a candidate instructing the shell to complete directory paths.
func Dir() Candidate {
	return Candidate{Type: TypeDir}
}

// StartsWith reports whether the candidate value begins with the in-progress
// token and should therefore be offered.
func (c Candidate) StartsWith(incomplete string) bool {
	return strings.HasPrefix(c.Value, incomplete)
}

// Write emits candidates in the line protocol consumed by the shell scripts:
// one candidate per line as "type<TAB>value<TAB>help".
func Write(w io.Writer, candidates []Candidate) error {
	for _, c := range candidates {
		typ := c.Type
		if typ == "" {
			typ = TypePlain
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", typ, c.Value, c.Help); err != nil {
			return err
		}
	}

	return nil
}
