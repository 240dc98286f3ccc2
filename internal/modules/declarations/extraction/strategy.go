package extraction

import "regexp"

// Strategy recovers one field from cleaned PDF text. TryExtract reports false
// when its layout is not present so the next strategy can run.
type Strategy[T any] interface {
	Name() string
	TryExtract(text string) (T, bool)
}

type funcStrategy[T any] struct {
	name string
	fn   func(text string) (T, bool)
}

func (s funcStrategy[T]) Name() string                     { return s.name }
func (s funcStrategy[T]) TryExtract(text string) (T, bool) { return s.fn(text) }

// StrategyFunc adapts a plain function.
func StrategyFunc[T any](name string, fn func(text string) (T, bool)) Strategy[T] {
	return funcStrategy[T]{name: name, fn: fn}
}

// Capture matches re and returns its first submatch, passed through
// normalize when set. An empty result counts as no match.
type Capture struct {
	Label     string
	Pattern   *regexp.Regexp
	Normalize func(m []string) (string, bool)
}

func (c Capture) Name() string { return c.Label }

func (c Capture) TryExtract(text string) (string, bool) {
	m := c.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if c.Normalize != nil {
		return c.Normalize(m)
	}
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// Field is an ordered strategy list; the first strategy that succeeds wins.
type Field[T any] struct {
	Name       string
	Strategies []Strategy[T]
}

func (f Field[T]) Extract(text string) (value T, source string, ok bool) {
	for _, s := range f.Strategies {
		if v, hit := s.TryExtract(text); hit {
			return v, s.Name(), true
		}
	}
	return value, "", false
}

// Append returns a copy of f with extra strategies at the lowest priority.
func (f Field[T]) Append(s ...Strategy[T]) Field[T] {
	out := Field[T]{Name: f.Name, Strategies: make([]Strategy[T], 0, len(f.Strategies)+len(s))}
	out.Strategies = append(out.Strategies, f.Strategies...)
	out.Strategies = append(out.Strategies, s...)
	return out
}
