package yaml_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomat0w0/bid-anti-corruption/pkg/yaml"
)

const testSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "count": {"type": "integer"}
  },
  "required": ["name"],
  "additionalProperties": false
}`

func TestDecoder(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		wantErr string
	}{
		"valid document": {
			input: "name: example\ncount: 3\n",
		},
		"syntax error carries position": {
			input:   "name: [unclosed\n",
			wantErr: "line",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out map[string]any

			err := yaml.NewDecoder(strings.NewReader(tc.input)).Decode(&out)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "example", out["name"])
		})
	}
}

func TestEncoder_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := yaml.NewEncoder(&buf).Encode(map[string]any{
		"name": "example",
		"list": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "  - a")

	var out map[string]any

	require.NoError(t, yaml.NewDecoder(&buf).Decode(&out))
	assert.Equal(t, "example", out["name"])
}

func TestValidator(t *testing.T) {
	t.Parallel()

	validator, err := yaml.NewValidator("/test.json", []byte(testSchema))
	require.NoError(t, err)

	tcs := map[string]struct {
		input   string
		wantErr string
	}{
		"valid document": {
			input: "name: example\ncount: 3\n",
		},
		"missing required property": {
			input:   "count: 3\n",
			wantErr: "name",
		},
		"unknown property with path": {
			input:   "name: example\nextra: true\n",
			wantErr: "not allowed",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var doc any

			require.NoError(t, yaml.NewDecoder(strings.NewReader(tc.input)).Decode(&doc))

			err := validator.Validate(doc)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestNewValidator_BadSchema(t *testing.T) {
	t.Parallel()

	_, err := yaml.NewValidator("/bad.json", []byte("not json"))
	require.Error(t, err)

	assert.Panics(t, func() {
		yaml.MustNewValidator("/bad.json", []byte("not json"))
	})
}
