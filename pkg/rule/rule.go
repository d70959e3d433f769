package rule

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/google/cel-go/cel"

	"github.com/tomat0w0/bid-anti-corruption/pkg/expr"
)

var (
	// ErrMissingID is returned when a rule has no id.
	ErrMissingID = errors.New("rule missing id")

	// ErrNotCompiled is returned when a rule is evaluated before [Rule.Compile].
	ErrNotCompiled = errors.New("rule not compiled")
)

// Rule identifies one risk pattern in a tender document.
type Rule struct {
	guardProgram cel.Program
	include      []*regexp.Regexp
	exclude      []*regexp.Regexp

	// ID is the unique, stable key of the rule within a rule set.
	ID string `json:"id" jsonschema:"title=ID"`
	// Description explains the risk signal in human terms.
	Description string `json:"description,omitempty" jsonschema:"title=Description"`
	// Level is the severity assigned to findings produced by this rule.
	Level Level `json:"level" jsonschema:"title=Level,enum=low,enum=medium,enum=high"`
	// When is an optional CEL guard over analysis-context facts. When it
	// evaluates to false, the rule is skipped for that analysis.
	When string `json:"when,omitempty" jsonschema:"title=When Guard"`
	// PostCheck names a registered validator that gates a raw pattern match.
	PostCheck string `json:"post_check,omitempty" jsonschema:"title=Post Check"`
	// Include patterns are scanned in order; the first match anywhere in the
	// document yields the candidate match. For negate rules, the rule fires
	// only when none of them match.
	Include []string `json:"include,omitempty" jsonschema:"title=Include Patterns"`
	// Exclude patterns suppress an otherwise-firing rule when any of them
	// matches anywhere in the document. Ignored for negate rules.
	Exclude []string `json:"exclude,omitempty" jsonschema:"title=Exclude Patterns"`
	// Tags are category labels used for aggregation.
	Tags []string `json:"tags,omitempty" jsonschema:"title=Tags"`
	// Negate inverts the rule: it fires exactly when no include pattern
	// matches anywhere in the document.
	Negate bool `json:"negate,omitempty" jsonschema:"title=Negate"`
}

// New creates a compiled rule.
func New(id string, level Level, include []string, opts ...Opt) (*Rule, error) {
	r := &Rule{
		ID:      id,
		Level:   level,
		Include: include,
	}
	for _, opt := range opts {
		opt(r)
	}

	err := r.Compile(nil)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew creates a compiled rule and panics on error.
func MustNew(id string, level Level, include []string, opts ...Opt) *Rule {
	r, err := New(id, level, include, opts...)
	if err != nil {
		panic(err)
	}

	return r
}

// Opt is a functional option for configuring a [Rule].
type Opt func(*Rule)

// WithExclude sets the exclude patterns.
func WithExclude(patterns ...string) Opt {
	return func(r *Rule) {
		r.Exclude = patterns
	}
}

// WithNegate marks the rule as an absence rule.
func WithNegate() Opt {
	return func(r *Rule) {
		r.Negate = true
	}
}

// WithPostCheck sets the post-check validator name.
func WithPostCheck(name string) Opt {
	return func(r *Rule) {
		r.PostCheck = name
	}
}

// WithTags sets the category tags.
func WithTags(tags ...string) Opt {
	return func(r *Rule) {
		r.Tags = tags
	}
}

// WithWhen sets the CEL guard expression.
func WithWhen(expression string) Opt {
	return func(r *Rule) {
		r.When = expression
	}
}

// Compile validates the rule and compiles its patterns and guard expression.
// All pattern matching is case-insensitive. A nil environment defers guard
// compilation to a default environment.
func (r *Rule) Compile(env *expr.Environment) error {
	if r.ID == "" {
		return ErrMissingID
	}

	_, err := ParseLevel(string(r.Level))
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.ID, err)
	}

	r.include, err = compilePatterns(r.Include)
	if err != nil {
		return fmt.Errorf("rule %q: include: %w", r.ID, err)
	}

	r.exclude, err = compilePatterns(r.Exclude)
	if err != nil {
		return fmt.Errorf("rule %q: exclude: %w", r.ID, err)
	}

	if r.When != "" {
		if env == nil {
			env, err = expr.NewEnvironment()
			if err != nil {
				return fmt.Errorf("rule %q: %w", r.ID, err)
			}
		}

		r.guardProgram, err = env.Compile(r.When)
		if err != nil {
			return fmt.Errorf("rule %q: when: %w", r.ID, err)
		}
	}

	return nil
}

// EvalGuard evaluates the rule's guard expression against the given facts.
// Rules without a guard always pass.
func (r *Rule) EvalGuard(vars map[string]any) (bool, error) {
	if r.When == "" {
		return true, nil
	}
	if r.guardProgram == nil {
		return false, fmt.Errorf("rule %q: %w", r.ID, ErrNotCompiled)
	}

	ok, err := expr.EvalBool(r.guardProgram, vars)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", r.ID, err)
	}

	return ok, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}
