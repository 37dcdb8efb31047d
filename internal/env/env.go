// Package env builds the extra environment handed to the server process.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Set is an ordered collection of variables. Putting an existing key
// replaces its value but keeps its first position.
type Set struct {
	keys []string
	vars map[string]string
}

func New() *Set {
	return &Set{vars: make(map[string]string)}
}

// Put sets k=v. Empty keys are ignored.
func (s *Set) Put(k, v string) {
	if k == "" {
		return
	}
	if s.vars == nil {
		s.vars = make(map[string]string)
	}
	if _, ok := s.vars[k]; !ok {
		s.keys = append(s.keys, k)
	}
	s.vars[k] = v
}

// PutPair parses "K=V" and reports whether it was well formed.
func (s *Set) PutPair(kv string) bool {
	i := strings.IndexByte(kv, '=')
	if i <= 0 {
		return false
	}
	s.Put(kv[:i], kv[i+1:])
	return true
}

func (s *Set) Get(k string) (string, bool) {
	v, ok := s.vars[k]
	return v, ok
}

func (s *Set) Len() int { return len(s.keys) }

// LoadFile reads a simple .env file: KEY=VALUE lines, # comments, blank lines
// skipped, no export keyword and no quoting. Keys and values are trimmed.
func (s *Set) LoadFile(path string) error {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i > 0 {
			s.Put(strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]))
		}
	}
	return nil
}

// Pairs returns the variables as "K=V" in insertion order. ${NAME} in a value
// is replaced from the set first and then from the OS environment; a name
// found in neither expands to the empty string. Expansion is not recursive.
func (s *Set) Pairs() []string {
	out := make([]string, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, k+"="+s.expand(s.vars[k]))
	}
	return out
}

func (s *Set) lookup(name string) string {
	if v, ok := s.vars[name]; ok {
		return v
	}
	return os.Getenv(name)
}

func (s *Set) expand(v string) string {
	if !strings.Contains(v, "${") {
		return v
	}
	var b strings.Builder
	for {
		i := strings.Index(v, "${")
		if i < 0 {
			break
		}
		j := strings.IndexByte(v[i+2:], '}')
		if j < 0 {
			break
		}
		b.WriteString(v[:i])
		b.WriteString(s.lookup(v[i+2 : i+2+j]))
		v = v[i+2+j+1:]
	}
	b.WriteString(v)
	return b.String()
}
