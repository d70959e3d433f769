package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomat0w0/bid-anti-corruption/pkg/expr"
)

func TestEnvironment_Compile(t *testing.T) {
	t.Parallel()

	env := expr.MustNewEnvironment()

	tests := []struct {
		name       string
		expression string
		wantErr    bool
	}{
		{
			name:       "budget comparison",
			expression: `hasBudget && budget > 1000000.0`,
			wantErr:    false,
		},
		{
			name:       "text length",
			expression: `textLength > 100`,
			wantErr:    false,
		},
		{
			name:       "non-boolean result",
			expression: `budget * 2.0`,
			wantErr:    true,
		},
		{
			name:       "unknown variable",
			expression: `unknownFact > 0`,
			wantErr:    true,
		},
		{
			name:       "syntax error",
			expression: `budget >`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			program, err := env.Compile(tt.expression)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, program)
		})
	}
}

func TestEvalBool(t *testing.T) {
	t.Parallel()

	env := expr.MustNewEnvironment()

	program, err := env.Compile(`hasBudget && budget < 5000000.0`)
	require.NoError(t, err)

	got, err := expr.EvalBool(program, map[string]any{
		"budget":     1000000.0,
		"hasBudget":  true,
		"bidPrice":   0.0,
		"textLength": 42,
	})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = expr.EvalBool(program, map[string]any{
		"budget":     0.0,
		"hasBudget":  false,
		"bidPrice":   0.0,
		"textLength": 42,
	})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvalBool_MissingVariable(t *testing.T) {
	t.Parallel()

	env := expr.MustNewEnvironment()

	program, err := env.Compile(`budget > 0.0`)
	require.NoError(t, err)

	_, err = expr.EvalBool(program, map[string]any{})
	require.Error(t, err)
}
