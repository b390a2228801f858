// Package env abstracts environment variable access so value resolution can be
// exercised in tests without mutating the process environment.
package env

import "os"

// Resolver defines an interface for environment resolution.
type Resolver interface {
	// Get returns the value of the environment variable named by the key.
	// It returns an empty string if the variable is not present.
	Get(key string) string

	// LookupEnv reports whether the variable is present, distinguishing
	// an unset variable from one set to the empty string.
	LookupEnv(key string) (string, bool)

	// Environ returns a slice of strings in the form "key=value" representing
	// the environment, similar to os.Environ.
	Environ() []string
}

// OSResolver is the default Resolver backed by the os package.
type OSResolver struct{}

func (OSResolver) Get(key string) string { return os.Getenv(key) }

func (OSResolver) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

func (OSResolver) Environ() []string { return os.Environ() }

// MapResolver resolves from a fixed map. Used by the test harness to substitute
// the environment for the duration of an invocation.
type MapResolver map[string]string

func (m MapResolver) Get(key string) string { return m[key] }

func (m MapResolver) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapResolver) Environ() []string {
	pairs := make([]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, k+"="+v)
	}
	return pairs
}
