package postcheck

import "time"

// Context carries the caller-supplied facts needed by post-check validators.
// It is immutable for the duration of one analysis call. Zero values mean
// the fact was not supplied.
type Context struct {
	// AnnouncedAt is the tender announcement date.
	AnnouncedAt time.Time `json:"announced_at,omitzero"`
	// BidDeadline is the bid submission (or clarification) deadline.
	BidDeadline time.Time `json:"bid_deadline,omitzero"`
	// EstablishedAt is the founding date demanded of bidders, when known.
	EstablishedAt time.Time `json:"established_at,omitzero"`
	// Budget is the declared project budget in CNY.
	Budget float64 `json:"budget,omitempty"`
	// BidPrice is the declared bid price in CNY.
	BidPrice float64 `json:"bid_price,omitempty"`
}

func (c Context) HasBudget() bool {
	return c.Budget > 0
}

func (c Context) HasBidPrice() bool {
	return c.BidPrice > 0
}

// GuardVars exposes the context facts to rule guard expressions.
func (c Context) GuardVars(textLength int) map[string]any {
	return map[string]any{
		"budget":     c.Budget,
		"hasBudget":  c.HasBudget(),
		"bidPrice":   c.BidPrice,
		"textLength": textLength,
	}
}
