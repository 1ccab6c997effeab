package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// UsageError is a problem with the command line itself: a bad verb, a
// malformed pair, a missing or unknown field.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usageErrorf(format string, a ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, a...)}
}

// IsUsageError reports whether err is, or wraps, a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// Pairs holds key=value arguments. Keys keep the order in which they first
// appeared; a repeated key keeps its last value.
type Pairs struct {
	keys   []string
	values map[string]string
}

// ParsePairs parses "key=value" tokens. A token must contain exactly one '='
// and a non-empty key.
func ParsePairs(args []string) (Pairs, error) {
	p := Pairs{values: make(map[string]string, len(args))}
	for _, item := range args {
		parts := strings.Split(item, "=")
		if len(parts) != 2 || parts[0] == "" {
			return Pairs{}, usageErrorf("item '%s' is not a key=value pair", item)
		}
		key, value := parts[0], parts[1]
		if _, seen := p.values[key]; !seen {
			p.keys = append(p.keys, key)
		}
		p.values[key] = value
	}
	return p, nil
}

func (p Pairs) Len() int { return len(p.keys) }

func (p Pairs) Keys() []string { return slices.Clone(p.keys) }

func (p Pairs) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Require returns the value of key or a usage error naming it.
func (p Pairs) Require(key string) (string, error) {
	v, ok := p.values[key]
	if !ok {
		return "", usageErrorf("missing required field '%s'", key)
	}
	return v, nil
}

// Only fails on the first key not in allowed.
func (p Pairs) Only(allowed ...string) error {
	for _, k := range p.keys {
		if !slices.Contains(allowed, k) {
			return usageErrorf("bad field given: %s", k)
		}
	}
	return nil
}

// Without returns the remaining pairs as a map, minus the given keys.
func (p Pairs) Without(keys ...string) map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		if !slices.Contains(keys, k) {
			out[k] = v
		}
	}
	return out
}
