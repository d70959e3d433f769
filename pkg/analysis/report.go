package analysis

import (
	"math"

	"github.com/tomat0w0/bid-anti-corruption/pkg/rule"
)

// Finding is one confirmed risk signal emitted for a document. A finding is
// constructed fully or not at all.
type Finding struct {
	// RuleID identifies the rule that produced the finding.
	RuleID string `json:"rule_id"`
	// Level is the effective severity, after any post-check override.
	Level rule.Level `json:"level"`
	// Tags carries the rule's category labels.
	Tags []string `json:"tags,omitempty"`
	// Span locates the matched text. Nil for absence findings.
	Span *rule.Span `json:"span,omitempty"`
	// Absence marks a finding produced by a negate rule.
	Absence bool `json:"absence,omitempty"`
	// Detail is an optional post-check explanation.
	Detail string `json:"detail,omitempty"`
}

// DiagnosticKind classifies entries in the per-analysis diagnostic trail.
type DiagnosticKind string

const (
	// DiagMissingContext records a finding withheld because a post-check
	// needed a fact absent from the analysis context.
	DiagMissingContext DiagnosticKind = "missing_context"
	// DiagDegradedPattern records a pattern that exceeded its execution
	// budget and was treated as not matching.
	DiagDegradedPattern DiagnosticKind = "degraded_pattern"
	// DiagCheckError records a post-check that returned an unexpected error.
	DiagCheckError DiagnosticKind = "check_error"
	// DiagCheckPanic records a post-check that panicked.
	DiagCheckPanic DiagnosticKind = "check_panic"
	// DiagGuardError records a guard expression that failed to evaluate.
	DiagGuardError DiagnosticKind = "guard_error"
)

// Diagnostic is one entry in the per-analysis diagnostic trail. Diagnostics
// explain withheld or degraded results without failing the analysis.
type Diagnostic struct {
	RuleID string         `json:"rule_id"`
	Kind   DiagnosticKind `json:"kind"`
	Detail string         `json:"detail,omitempty"`
}

// Summary aggregates the findings of one analysis for reporting.
type Summary struct {
	PerLevel map[rule.Level]int `json:"per_level"`
	PerTag   map[string]int     `json:"per_tag"`
	// Highest is the highest severity present, empty when there are no
	// findings.
	Highest rule.Level `json:"highest,omitempty"`
	// RiskScore is the overall document risk score.
	RiskScore float64 `json:"risk_score"`
	Count     int     `json:"count"`
}

// Report is the full outcome of analyzing one document.
type Report struct {
	Findings    []Finding    `json:"findings"`
	Summary     Summary      `json:"summary"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	// SnapshotVersion is the version token of the snapshot the analysis ran
	// against.
	SnapshotVersion uint64 `json:"snapshot_version"`
}

// Severity weights for the document risk score.
const (
	weightHigh   = 5.0
	weightMedium = 2.0
	weightLow    = 0.5
)

// summarize computes per-level and per-tag counts and the document risk
// score. The score is the mean severity weight scaled by a volume factor
// that saturates at ten findings, rounded to two decimals.
func summarize(findings []Finding) Summary {
	s := Summary{
		PerLevel: make(map[rule.Level]int),
		PerTag:   make(map[string]int),
		Count:    len(findings),
	}

	if len(findings) == 0 {
		return s
	}

	var total float64

	for _, f := range findings {
		s.PerLevel[f.Level]++
		s.Highest = s.Highest.Max(f.Level)

		for _, tag := range f.Tags {
			s.PerTag[tag]++
		}

		switch f.Level {
		case rule.LevelHigh:
			total += weightHigh
		case rule.LevelMedium:
			total += weightMedium
		case rule.LevelLow:
			total += weightLow
		}
	}

	mean := total / float64(len(findings))
	volume := 1.0 + math.Min(float64(len(findings))/10.0, 1.0)
	s.RiskScore = math.Round(mean*volume*100) / 100

	return s
}
