package postcheck

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/tomat0w0/bid-anti-corruption/pkg/rule"
)

// Policy constants. The statutory values follow the PRC Tendering and
// Bidding Law (art. 24: minimum bid period) and its Implementing Regulations
// (art. 26: bid bond cap at 2% of the project estimate).
const (
	// CapitalBudgetMaxRatio caps the registered capital a tender may demand,
	// as a multiple of the declared project budget.
	CapitalBudgetMaxRatio = 10.0

	// MinBidPeriodDays is the statutory minimum number of calendar days
	// between announcement and bid deadline.
	MinBidPeriodDays = 20

	// BondBudgetMaxRatio caps the bid bond as a fraction of the budget.
	BondBudgetMaxRatio = 0.02

	// Company-age eligibility thresholds, in years relative to the
	// announcement date.
	minCompanyAgeYears      = 2.0
	highRiskCompanyAgeYears = 1.0

	// Abnormal-bid price bounds relative to the declared budget.
	minBidPriceBudgetRatio = 0.5
	lowBidPriceBudgetRatio = 0.7
	maxBidPriceBudgetRatio = 1.1

	daysPerYear = 365.25
)

// CapitalVsBudget confirms a finding when the registered-capital requirement
// extracted from the matched clause exceeds a fixed multiple of the declared
// project budget, signalling an unreasonable entry barrier.
func CapitalVsBudget(_ *rule.Rule, m rule.RawMatch, c Context) (Verdict, error) {
	if !c.HasBudget() {
		return Verdict{}, fmt.Errorf("%w: budget", ErrMissingContext)
	}
	if m.Span == nil {
		return Verdict{}, ErrNoSpan
	}

	capital, ok := ParseAmount(m.Span.Text)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: %q", ErrNoAmount, m.Span.Text)
	}

	threshold := CapitalBudgetMaxRatio * c.Budget
	if capital <= threshold {
		return Verdict{}, nil
	}

	return Verdict{
		Confirm: true,
		Detail: fmt.Sprintf("capital requirement %s exceeds budget-derived threshold %s",
			humanize.Commaf(capital), humanize.Commaf(threshold)),
	}, nil
}

// TimelineVsLaw confirms a finding when the elapsed calendar days between
// announcement and bid deadline fall below the statutory minimum.
func TimelineVsLaw(_ *rule.Rule, _ rule.RawMatch, c Context) (Verdict, error) {
	if c.AnnouncedAt.IsZero() {
		return Verdict{}, fmt.Errorf("%w: announcement date", ErrMissingContext)
	}
	if c.BidDeadline.IsZero() {
		return Verdict{}, fmt.Errorf("%w: bid deadline", ErrMissingContext)
	}

	days := int(c.BidDeadline.Sub(c.AnnouncedAt).Hours() / 24)
	if days >= MinBidPeriodDays {
		return Verdict{}, nil
	}

	return Verdict{
		Confirm: true,
		Detail: fmt.Sprintf("bid period of %d days is below the statutory minimum of %d days",
			days, MinBidPeriodDays),
	}, nil
}

// BondVsBudget confirms a finding when the bond figure extracted from the
// matched clause exceeds the statutory fraction of the declared budget.
func BondVsBudget(_ *rule.Rule, m rule.RawMatch, c Context) (Verdict, error) {
	if !c.HasBudget() {
		return Verdict{}, fmt.Errorf("%w: budget", ErrMissingContext)
	}
	if m.Span == nil {
		return Verdict{}, ErrNoSpan
	}

	bond, ok := ParseAmount(m.Span.Text)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: %q", ErrNoAmount, m.Span.Text)
	}

	threshold := BondBudgetMaxRatio * c.Budget
	if bond <= threshold {
		return Verdict{}, nil
	}

	return Verdict{
		Confirm: true,
		Detail: fmt.Sprintf("bond %s exceeds %.0f%% of budget (%s)",
			humanize.Commaf(bond), BondBudgetMaxRatio*100, humanize.Commaf(threshold)),
	}, nil
}

// CompanyAge confirms a finding when the eligibility clause effectively
// limits bidding to very young companies, measured against the announcement
// date.
func CompanyAge(_ *rule.Rule, _ rule.RawMatch, c Context) (Verdict, error) {
	if c.EstablishedAt.IsZero() {
		return Verdict{}, fmt.Errorf("%w: establishment date", ErrMissingContext)
	}
	if c.AnnouncedAt.IsZero() {
		return Verdict{}, fmt.Errorf("%w: announcement date", ErrMissingContext)
	}

	years := c.AnnouncedAt.Sub(c.EstablishedAt).Hours() / 24 / daysPerYear
	if years >= minCompanyAgeYears {
		return Verdict{}, nil
	}

	v := Verdict{
		Confirm: true,
		Detail:  fmt.Sprintf("company age %.1f years is below %.0f years", years, minCompanyAgeYears),
	}
	if years < highRiskCompanyAgeYears {
		v.OverrideLevel = rule.LevelHigh
	}

	return v, nil
}

// PriceVsBudget confirms a finding when the declared bid price is abnormal
// relative to the budget: far below it, or above it.
func PriceVsBudget(_ *rule.Rule, _ rule.RawMatch, c Context) (Verdict, error) {
	if !c.HasBudget() {
		return Verdict{}, fmt.Errorf("%w: budget", ErrMissingContext)
	}
	if !c.HasBidPrice() {
		return Verdict{}, fmt.Errorf("%w: bid price", ErrMissingContext)
	}

	ratio := c.BidPrice / c.Budget

	switch {
	case ratio < minBidPriceBudgetRatio:
		return Verdict{
			Confirm:       true,
			OverrideLevel: rule.LevelHigh,
			Detail: fmt.Sprintf("bid price %s is only %.0f%% of budget %s",
				humanize.Commaf(c.BidPrice), ratio*100, humanize.Commaf(c.Budget)),
		}, nil
	case ratio < lowBidPriceBudgetRatio:
		return Verdict{
			Confirm: true,
			Detail: fmt.Sprintf("bid price %s is %.0f%% of budget %s",
				humanize.Commaf(c.BidPrice), ratio*100, humanize.Commaf(c.Budget)),
		}, nil
	case ratio > maxBidPriceBudgetRatio:
		return Verdict{
			Confirm:       true,
			OverrideLevel: rule.LevelHigh,
			Detail: fmt.Sprintf("bid price %s exceeds budget %s by %.0f%%",
				humanize.Commaf(c.BidPrice), humanize.Commaf(c.Budget), (ratio-1)*100),
		}, nil
	}

	return Verdict{}, nil
}
