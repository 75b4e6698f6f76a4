package palette

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Resolver is the host's mapping between identifiers and its own state type.
type Resolver[S any] interface {
	Resolve(id string) (S, bool)
	Identify(state S) (string, bool)
}

// Checker answers whether an identifier is known to the host.
type Checker interface {
	Known(id string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(id string) bool

func (f CheckerFunc) Known(id string) bool {
	return f(id)
}

// CheckerOf uses the resolve direction of r as a Checker.
func CheckerOf[S any](r Resolver[S]) Checker {
	return CheckerFunc(func(id string) bool {
		_, ok := r.Resolve(id)
		return ok
	})
}

// ResolveAll resolves every slot of p. The result is indexed like the palette;
// holes take the resolved fallback, or the zero state when there is none.
func ResolveAll[S any](p *Palette, r Resolver[S]) ([]S, error) {
	out := make([]S, p.Len())
	var def S
	if p.fallback != "" {
		s, ok := r.Resolve(p.fallback)
		if !ok {
			return nil, fmt.Errorf("%w: default %q", p.kind.Unresolved(), p.fallback)
		}
		def = s
	}
	for i, id := range p.ids {
		if id == "" {
			out[i] = def
			continue
		}
		s, ok := r.Resolve(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q at index %d", p.kind.Unresolved(), id, i)
		}
		out[i] = s
	}
	return out, nil
}

// Cache memoizes successful lookups of a slower resolver. Misses are not
// cached so a host registry that learns new identifiers is consulted again.
type Cache[S any] struct {
	r      Resolver[S]
	states *lru.Cache[string, S]
}

func NewCache[S any](r Resolver[S], size int) (*Cache[S], error) {
	states, err := lru.New[string, S](size)
	if err != nil {
		return nil, fmt.Errorf("palette: cache: %w", err)
	}
	return &Cache[S]{r: r, states: states}, nil
}

func (c *Cache[S]) Resolve(id string) (S, bool) {
	if s, ok := c.states.Get(id); ok {
		return s, true
	}
	s, ok := c.r.Resolve(id)
	if ok {
		c.states.Add(id, s)
	}
	return s, ok
}

func (c *Cache[S]) Identify(state S) (string, bool) {
	return c.r.Identify(state)
}

// Len reports the number of cached identifiers.
func (c *Cache[S]) Len() int {
	return c.states.Len()
}
