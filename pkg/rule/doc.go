// Package rule defines the risk-pattern rule model and the pattern matcher.
//
// A rule fires on the presence of at least one include pattern (unless
// suppressed by an exclude pattern), or, for negate rules, on the absence of
// all include patterns. Matching is case-insensitive and Unicode-aware, and
// each pattern evaluation is bounded in time.
package rule
