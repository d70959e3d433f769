package ruleset

import "github.com/tomat0w0/bid-anti-corruption/pkg/rule"

// Snapshot is an immutable, versioned rule set. It is never mutated after
// publication; analyses capture one snapshot reference for their whole run.
type Snapshot struct {
	byID     map[string]*rule.Rule
	checksum string
	rules    []*rule.Rule
	stats    Stats
	version  uint64
}

// Stats summarizes a snapshot for monitoring.
type Stats struct {
	PerLevel  map[rule.Level]int `json:"per_level"`
	PerTag    map[string]int     `json:"per_tag"`
	RuleCount int                `json:"rule_count"`
}

func newSnapshot(version uint64, checksum string, rules []*rule.Rule) *Snapshot {
	s := &Snapshot{
		version:  version,
		checksum: checksum,
		rules:    rules,
		byID:     make(map[string]*rule.Rule, len(rules)),
		stats: Stats{
			RuleCount: len(rules),
			PerLevel:  make(map[rule.Level]int),
			PerTag:    make(map[string]int),
		},
	}

	for _, r := range rules {
		s.byID[r.ID] = r
		s.stats.PerLevel[r.Level]++

		for _, tag := range r.Tags {
			s.stats.PerTag[tag]++
		}
	}

	return s
}

// Rules returns the rules in declaration order. The returned slice must not
// be modified.
func (s *Snapshot) Rules() []*rule.Rule {
	return s.rules
}

// Rule returns the rule with the given id, or nil.
func (s *Snapshot) Rule(id string) *rule.Rule {
	return s.byID[id]
}

// Version returns the monotonic version token of the snapshot.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Checksum returns the SHA-256 checksum of the raw source.
func (s *Snapshot) Checksum() string {
	return s.checksum
}

// Stats returns the snapshot's rule statistics.
func (s *Snapshot) Stats() Stats {
	return s.stats
}
