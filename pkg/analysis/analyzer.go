package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomat0w0/bid-anti-corruption/pkg/postcheck"
	"github.com/tomat0w0/bid-anti-corruption/pkg/rule"
	"github.com/tomat0w0/bid-anti-corruption/pkg/ruleset"
)

// Analyzer evaluates rule set snapshots against documents. It holds no
// per-document state and is safe for concurrent use.
type Analyzer struct {
	matcher  *rule.Matcher
	registry *postcheck.Registry
	tracer   trace.Tracer
}

// Opt is a functional option for configuring an [Analyzer].
type Opt func(*Analyzer)

// WithMatcher sets a custom pattern matcher.
func WithMatcher(m *rule.Matcher) Opt {
	return func(a *Analyzer) {
		a.matcher = m
	}
}

// WithRegistry sets the post-check registry. It must be the same registry
// the snapshot's rules were resolved against.
func WithRegistry(g *postcheck.Registry) Opt {
	return func(a *Analyzer) {
		a.registry = g
	}
}

// New creates an [Analyzer] with default matcher and registry.
func New(opts ...Opt) *Analyzer {
	a := &Analyzer{
		matcher:  rule.NewMatcher(),
		registry: postcheck.NewDefault(),
		tracer:   otel.Tracer("analysis"),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Analyze runs every rule in the snapshot against the document text in
// declaration order. A rule contributes at most one finding. Post-check
// failures and degraded patterns are recorded in the diagnostic trail and
// never abort the analysis.
func (a *Analyzer) Analyze(ctx context.Context, snap *ruleset.Snapshot, text string, docCtx postcheck.Context) *Report {
	_, span := a.tracer.Start(ctx, "analyze", trace.WithAttributes(
		attribute.Int64("snapshot.version", int64(snap.Version())), //nolint:gosec // Version fits in int64.
		attribute.Int("document.bytes", len(text)),
	))
	defer span.End()

	report := &Report{
		Findings:        []Finding{},
		SnapshotVersion: snap.Version(),
	}

	guardVars := docCtx.GuardVars(len(text))
	seen := make(map[string]struct{}, len(snap.Rules()))

	for _, r := range snap.Rules() {
		if _, dup := seen[r.ID]; dup {
			continue
		}

		seen[r.ID] = struct{}{}

		pass, err := r.EvalGuard(guardVars)
		if err != nil {
			report.addDiagnostic(r.ID, DiagGuardError, err.Error())

			continue
		}

		if !pass {
			continue
		}

		raw := a.matcher.Evaluate(r, text)
		for _, pattern := range raw.Degraded {
			report.addDiagnostic(r.ID, DiagDegradedPattern, pattern)
		}

		if !raw.Fired {
			continue
		}

		finding, ok := a.resolve(r, raw, docCtx, report)
		if ok {
			report.Findings = append(report.Findings, finding)
		}
	}

	report.Summary = summarize(report.Findings)

	span.SetAttributes(
		attribute.Int("findings.count", report.Summary.Count),
		attribute.Float64("findings.risk_score", report.Summary.RiskScore),
	)

	return report
}

// resolve turns a fired raw match into a finding, consulting the rule's
// post-check when one is declared.
func (a *Analyzer) resolve(r *rule.Rule, raw rule.RawMatch, docCtx postcheck.Context, report *Report) (Finding, bool) {
	finding := Finding{
		RuleID:  r.ID,
		Level:   r.Level,
		Tags:    r.Tags,
		Span:    raw.Span,
		Absence: raw.Kind == rule.KindAbsence,
	}

	if r.PostCheck == "" {
		return finding, true
	}

	check, err := a.registry.Resolve(r.PostCheck)
	if err != nil {
		report.addDiagnostic(r.ID, DiagCheckError, err.Error())

		return Finding{}, false
	}

	verdict, err := invoke(check, r, raw, docCtx)

	var pErr panicError

	switch {
	case errors.Is(err, postcheck.ErrMissingContext):
		report.addDiagnostic(r.ID, DiagMissingContext, err.Error())

		return Finding{}, false

	case errors.As(err, &pErr):
		report.addDiagnostic(r.ID, DiagCheckPanic, err.Error())

		return Finding{}, false

	case err != nil:
		report.addDiagnostic(r.ID, DiagCheckError, err.Error())

		return Finding{}, false
	}

	if !verdict.Confirm {
		return Finding{}, false
	}

	finding.Detail = verdict.Detail
	if verdict.OverrideLevel != "" {
		finding.Level = verdict.OverrideLevel
	}

	return finding, true
}

func (r *Report) addDiagnostic(ruleID string, kind DiagnosticKind, detail string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		RuleID: ruleID,
		Kind:   kind,
		Detail: detail,
	})
}

// panicError wraps a recovered post-check panic so it can be distinguished
// from ordinary check errors.
type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("post-check panic: %v", e.value)
}

// invoke runs a post-check with panic isolation. One rule's defect never
// blocks the other rules in the same analysis.
func invoke(check postcheck.Func, r *rule.Rule, raw rule.RawMatch, docCtx postcheck.Context) (verdict postcheck.Verdict, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			verdict = postcheck.Verdict{}
			err = panicError{value: rec}
		}
	}()

	return check(r, raw, docCtx)
}
