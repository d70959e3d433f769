package rule

import (
	"regexp"
	"time"
)

// Kind distinguishes the two evaluation modes of the matcher.
type Kind string

const (
	// KindPositive marks a match produced by an include pattern.
	KindPositive Kind = "positive"
	// KindAbsence marks a negate rule firing because no include pattern matched.
	KindAbsence Kind = "absence"
)

// DefaultPatternBudget bounds the wall-clock time spent evaluating a single
// pattern against a document. Go's regexp engine is linear-time, so the
// budget only trips on very large documents.
const DefaultPatternBudget = 100 * time.Millisecond

// Span locates a match within the document text, in byte offsets.
type Span struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// RawMatch is the outcome of evaluating one rule against a document.
type RawMatch struct {
	Span     *Span    `json:"span,omitempty"`
	Kind     Kind     `json:"kind"`
	Pattern  string   `json:"pattern,omitempty"`
	Degraded []string `json:"degraded,omitempty"`
	Fired    bool     `json:"fired"`
}

// Matcher evaluates rules against document text.
type Matcher struct {
	budget time.Duration
}

// MatcherOpt is a functional option for configuring a [Matcher].
type MatcherOpt func(*Matcher)

// WithPatternBudget overrides the per-pattern evaluation budget.
func WithPatternBudget(d time.Duration) MatcherOpt {
	return func(m *Matcher) {
		m.budget = d
	}
}

// NewMatcher creates a [Matcher].
func NewMatcher(opts ...MatcherOpt) *Matcher {
	m := &Matcher{budget: DefaultPatternBudget}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Evaluate runs the rule's patterns against the document text.
//
// Non-negate rules fire when at least one include pattern matches and no
// exclude pattern matches anywhere in the text; the first include pattern to
// match (in declaration order) provides the span. Negate rules fire when no
// include pattern matches; exclude is not consulted. A pattern whose
// evaluation exceeds the budget is treated as "did not match" and recorded
// in Degraded.
func (m *Matcher) Evaluate(r *Rule, text string) RawMatch {
	if r.Negate {
		return m.evaluateAbsence(r, text)
	}

	return m.evaluatePositive(r, text)
}

func (m *Matcher) evaluatePositive(r *Rule, text string) RawMatch {
	raw := RawMatch{Kind: KindPositive}

	var (
		span    *Span
		pattern string
	)

	for i, re := range r.include {
		loc := m.find(re, text, r.Include[i], &raw)
		if loc == nil {
			continue
		}

		span = &Span{
			Start: loc[0],
			End:   loc[1],
			Text:  text[loc[0]:loc[1]],
		}
		pattern = r.Include[i]

		break
	}

	if span == nil {
		// No positive pattern matched. An empty include list lands here as
		// well: a rule without positive patterns can only be an absence rule.
		return raw
	}

	// Exclude acts as a document-wide whitelist, not scoped to the span.
	for i, re := range r.exclude {
		if m.find(re, text, r.Exclude[i], &raw) != nil {
			return raw
		}
	}

	raw.Fired = true
	raw.Span = span
	raw.Pattern = pattern

	return raw
}

func (m *Matcher) evaluateAbsence(r *Rule, text string) RawMatch {
	raw := RawMatch{Kind: KindAbsence}

	for i, re := range r.include {
		if m.find(re, text, r.Include[i], &raw) != nil {
			return raw
		}
	}

	raw.Fired = true

	return raw
}

// find locates the pattern in the text, enforcing the evaluation budget.
// A result that arrived over budget is discarded and the pattern recorded
// as degraded.
func (m *Matcher) find(re *regexp.Regexp, text, pattern string, raw *RawMatch) []int {
	start := time.Now()
	loc := re.FindStringIndex(text)

	if time.Since(start) > m.budget {
		raw.Degraded = append(raw.Degraded, pattern)

		return nil
	}

	return loc
}
