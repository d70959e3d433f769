package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomat0w0/bid-anti-corruption/pkg/rule"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    rule.Level
		wantErr bool
	}{
		{name: "low", input: "low", want: rule.LevelLow},
		{name: "medium uppercase", input: "MEDIUM", want: rule.LevelMedium},
		{name: "high", input: "high", want: rule.LevelHigh},
		{name: "unknown", input: "critical", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := rule.ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, rule.ErrUnknownLevel)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_Rank(t *testing.T) {
	t.Parallel()

	assert.Greater(t, rule.LevelHigh.Rank(), rule.LevelMedium.Rank())
	assert.Greater(t, rule.LevelMedium.Rank(), rule.LevelLow.Rank())
	assert.Equal(t, rule.LevelHigh, rule.LevelLow.Max(rule.LevelHigh))
	assert.Equal(t, rule.LevelMedium, rule.LevelMedium.Max(rule.LevelLow))
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		level   rule.Level
		include []string
		opts    []rule.Opt
		wantErr bool
	}{
		{
			name:    "valid rule",
			id:      "brand-exclusive",
			level:   rule.LevelHigh,
			include: []string{`只接受.{0,8}品牌`},
		},
		{
			name:    "valid rule with exclude and tags",
			id:      "local-only",
			level:   rule.LevelMedium,
			include: []string{`本地企业`},
			opts: []rule.Opt{
				rule.WithExclude(`或同等`),
				rule.WithTags("restricted-competition"),
			},
		},
		{
			name:    "valid guard expression",
			id:      "guarded",
			level:   rule.LevelLow,
			include: []string{`保证金`},
			opts:    []rule.Opt{rule.WithWhen(`hasBudget && budget > 0.0`)},
		},
		{
			name:    "missing id",
			id:      "",
			level:   rule.LevelLow,
			include: []string{`x`},
			wantErr: true,
		},
		{
			name:    "invalid level",
			id:      "bad-level",
			level:   rule.Level("severe"),
			include: []string{`x`},
			wantErr: true,
		},
		{
			name:    "uncompilable include pattern",
			id:      "bad-include",
			level:   rule.LevelLow,
			include: []string{`([`},
			wantErr: true,
		},
		{
			name:    "uncompilable exclude pattern",
			id:      "bad-exclude",
			level:   rule.LevelLow,
			include: []string{`x`},
			opts:    []rule.Opt{rule.WithExclude(`)`)},
			wantErr: true,
		},
		{
			name:    "invalid guard expression",
			id:      "bad-guard",
			level:   rule.LevelLow,
			include: []string{`x`},
			opts:    []rule.Opt{rule.WithWhen(`budget +`)},
			wantErr: true,
		},
		{
			name:    "non-boolean guard expression",
			id:      "non-bool-guard",
			level:   rule.LevelLow,
			include: []string{`x`},
			opts:    []rule.Opt{rule.WithWhen(`budget * 2.0`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := rule.New(tt.id, tt.level, tt.include, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, r)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, tt.id, r.ID)
		})
	}
}

func TestMustNew(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		rule.MustNew("bad", rule.LevelLow, []string{`([`})
	})
}

func TestRule_EvalGuard(t *testing.T) {
	t.Parallel()

	vars := map[string]any{
		"budget":     2000000.0,
		"hasBudget":  true,
		"bidPrice":   0.0,
		"textLength": 10,
	}

	t.Run("no guard always passes", func(t *testing.T) {
		t.Parallel()

		r := rule.MustNew("plain", rule.LevelLow, []string{`x`})

		ok, err := r.EvalGuard(vars)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("guard gates on facts", func(t *testing.T) {
		t.Parallel()

		r := rule.MustNew("guarded", rule.LevelLow, []string{`x`},
			rule.WithWhen(`budget > 1000000.0`))

		ok, err := r.EvalGuard(vars)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.EvalGuard(map[string]any{
			"budget":     0.0,
			"hasBudget":  false,
			"bidPrice":   0.0,
			"textLength": 10,
		})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
