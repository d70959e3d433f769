package rule_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomat0w0/bid-anti-corruption/pkg/rule"
)

func TestMatcher_Evaluate_Positive(t *testing.T) {
	t.Parallel()

	m := rule.NewMatcher()

	tests := []struct {
		name      string
		r         *rule.Rule
		text      string
		wantFired bool
		wantText  string
	}{
		{
			name:      "include matches",
			r:         rule.MustNew("brand", rule.LevelHigh, []string{`只接受.{0,8}品牌`}),
			text:      "本项目只接受华为品牌的设备。",
			wantFired: true,
			wantText:  "只接受华为品牌",
		},
		{
			name:      "include does not match",
			r:         rule.MustNew("brand", rule.LevelHigh, []string{`只接受.{0,8}品牌`}),
			text:      "各品牌均可投标。",
			wantFired: false,
		},
		{
			name:      "case-insensitive ascii",
			r:         rule.MustNew("vendor", rule.LevelMedium, []string{`huawei`}),
			text:      "Only HUAWEI devices are accepted.",
			wantFired: true,
			wantText:  "HUAWEI",
		},
		{
			name: "exclude suppresses anywhere in document",
			r: rule.MustNew("brand", rule.LevelHigh, []string{`指定品牌`},
				rule.WithExclude(`或同等产品`)),
			text:      "指定品牌如下。允许或同等产品参与。",
			wantFired: false,
		},
		{
			name: "exclude pattern absent",
			r: rule.MustNew("brand", rule.LevelHigh, []string{`指定品牌`},
				rule.WithExclude(`或同等产品`)),
			text:      "指定品牌如下。",
			wantFired: true,
			wantText:  "指定品牌",
		},
		{
			name:      "empty include never fires",
			r:         rule.MustNew("empty", rule.LevelLow, nil),
			text:      "anything at all",
			wantFired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := m.Evaluate(tt.r, tt.text)

			assert.Equal(t, tt.wantFired, got.Fired)
			assert.Equal(t, rule.KindPositive, got.Kind)

			if tt.wantFired {
				require.NotNil(t, got.Span)
				assert.Equal(t, tt.wantText, got.Span.Text)
			} else {
				assert.Nil(t, got.Span)
			}
		})
	}
}

func TestMatcher_Evaluate_FirstMatchWins(t *testing.T) {
	t.Parallel()

	m := rule.NewMatcher()

	// Both patterns match; the first in declaration order provides the span,
	// even though the second would match earlier and longer.
	r := rule.MustNew("order", rule.LevelLow, []string{`bbb`, `aaabbb`})

	got := m.Evaluate(r, "aaabbbccc")
	require.True(t, got.Fired)
	require.NotNil(t, got.Span)
	assert.Equal(t, "bbb", got.Span.Text)
	assert.Equal(t, `bbb`, got.Pattern)
	assert.Equal(t, 3, got.Span.Start)
}

func TestMatcher_Evaluate_Negate(t *testing.T) {
	t.Parallel()

	m := rule.NewMatcher()

	tests := []struct {
		name      string
		r         *rule.Rule
		text      string
		wantFired bool
	}{
		{
			name: "fires when all includes absent",
			r: rule.MustNew("no-disclaimer", rule.LevelLow, []string{`不得指定品牌`},
				rule.WithNegate()),
			text:      "普通的招标条款。",
			wantFired: true,
		},
		{
			name: "does not fire when an include matches",
			r: rule.MustNew("no-disclaimer", rule.LevelLow, []string{`不得指定品牌`},
				rule.WithNegate()),
			text:      "本项目不得指定品牌。",
			wantFired: false,
		},
		{
			name: "exclude is ignored in negate mode",
			r: rule.MustNew("no-disclaimer", rule.LevelLow, []string{`不得指定品牌`},
				rule.WithNegate(), rule.WithExclude(`.*`)),
			text:      "普通的招标条款。",
			wantFired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := m.Evaluate(tt.r, tt.text)

			assert.Equal(t, tt.wantFired, got.Fired)
			assert.Equal(t, rule.KindAbsence, got.Kind)
			assert.Nil(t, got.Span)
		})
	}
}

func TestMatcher_Evaluate_Degraded(t *testing.T) {
	t.Parallel()

	// A negative budget degrades every pattern: results are discarded and the
	// rule behaves as if nothing matched, without failing the analysis.
	m := rule.NewMatcher(rule.WithPatternBudget(-time.Second))

	r := rule.MustNew("slow", rule.LevelHigh, []string{`指定品牌`})

	got := m.Evaluate(r, "指定品牌")
	assert.False(t, got.Fired)
	assert.Equal(t, []string{`指定品牌`}, got.Degraded)

	// For a negate rule, a degraded include counts as "did not match",
	// so the absence rule fires.
	nr := rule.MustNew("slow-negate", rule.LevelLow, []string{`不得指定品牌`}, rule.WithNegate())

	got = m.Evaluate(nr, "不得指定品牌")
	assert.True(t, got.Fired)
	assert.NotEmpty(t, got.Degraded)
}

// TestMatcher_Evaluate_Permutations checks the positive-mode law over
// generated include/exclude pattern sets: the rule fires iff at least one
// include pattern matches and no exclude pattern matches.
func TestMatcher_Evaluate_Permutations(t *testing.T) {
	t.Parallel()

	m := rule.NewMatcher()
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // Deterministic test data.

	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}

	randomWords := func(n int) []string {
		out := make([]string, 0, n)
		for range n {
			out = append(out, words[rng.Intn(len(words))])
		}

		return out
	}

	for i := range 200 {
		text := strings.Join(randomWords(1+rng.Intn(8)), " ")
		include := randomWords(1 + rng.Intn(3))
		exclude := randomWords(rng.Intn(3))

		anyMatch := func(patterns []string) bool {
			for _, p := range patterns {
				if strings.Contains(text, p) {
					return true
				}
			}

			return false
		}

		want := anyMatch(include) && !anyMatch(exclude)

		r, err := rule.New(fmt.Sprintf("perm-%d", i), rule.LevelLow, include,
			rule.WithExclude(exclude...))
		require.NoError(t, err)

		got := m.Evaluate(r, text)
		assert.Equal(t, want, got.Fired,
			"text=%q include=%v exclude=%v", text, include, exclude)
	}
}
