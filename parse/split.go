package parse

import (
	"strings"

	"github.com/google/shlex"
)

// Split tokenizes a command line string using shell quoting rules.
func Split(s string) ([]string, error) {
	args, err := shlex.Split(s)
	if err != nil {
		return nil, err
	}

	return args, nil
}

// SplitResilient tokenizes like Split but never fails: a missing closing quote
// or trailing escape falls back to whitespace splitting. Completion input is
// incomplete by nature and must still be tokenized.
func SplitResilient(s string) []string {
	args, err := shlex.Split(s)
	if err != nil {
		return strings.Fields(s)
	}

	return args
}
