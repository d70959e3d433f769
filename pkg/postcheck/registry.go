package postcheck

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tomat0w0/bid-anti-corruption/pkg/rule"
)

var (
	// ErrMissingContext is returned when a validator needs a fact absent
	// from the analysis context.
	ErrMissingContext = errors.New("missing context")

	// ErrUnknownCheck is returned when a post-check name does not resolve.
	ErrUnknownCheck = errors.New("unknown post-check")

	// ErrNoSpan is returned when a validator needs the matched span but the
	// raw match carries none.
	ErrNoSpan = errors.New("match has no span")

	// ErrNoAmount is returned when no monetary figure can be extracted from
	// the matched span.
	ErrNoAmount = errors.New("no monetary figure in match")
)

// Verdict is the outcome of a post-check validator.
type Verdict struct {
	// Detail is a human-readable explanation attached to the finding.
	Detail string `json:"detail,omitempty"`
	// OverrideLevel replaces the rule's declared level when non-empty.
	OverrideLevel rule.Level `json:"override_level,omitempty"`
	// Confirm reports whether the finding should be emitted.
	Confirm bool `json:"confirm"`
}

// Func is a pure validator gating a raw pattern match.
type Func func(r *rule.Rule, m rule.RawMatch, c Context) (Verdict, error)

// Registry maps post-check names to validators. Names are resolved and
// validated at snapshot-build time, never at evaluation time.
type Registry struct {
	checks map[string]Func
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Func)}
}

// NewDefault creates a [Registry] with the built-in validators registered.
func NewDefault() *Registry {
	g := NewRegistry()

	for name, fn := range map[string]Func{
		"capital_vs_budget": CapitalVsBudget,
		"timeline_vs_law":   TimelineVsLaw,
		"bond_vs_budget":    BondVsBudget,
		"company_age":       CompanyAge,
		"price_vs_budget":   PriceVsBudget,
	} {
		err := g.Register(name, fn)
		if err != nil {
			panic(err)
		}
	}

	return g
}

// Register adds a validator under the given name.
func (g *Registry) Register(name string, fn Func) error {
	if name == "" {
		return errors.New("post-check name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("post-check %q: function must not be nil", name)
	}
	if _, exists := g.checks[name]; exists {
		return fmt.Errorf("post-check %q: already registered", name)
	}

	g.checks[name] = fn

	return nil
}

// Resolve returns the validator registered under the given name.
func (g *Registry) Resolve(name string) (Func, error) {
	fn, ok := g.checks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
	}

	return fn, nil
}

// Names returns the registered names in sorted order.
func (g *Registry) Names() []string {
	names := make([]string, 0, len(g.checks))
	for name := range g.checks {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
