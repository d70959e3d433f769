// Package ruleset loads declarative rule definitions into immutable,
// versioned snapshots.
//
// A load validates the whole source atomically: schema violations,
// uncompilable patterns, unresolved post-check names, and duplicate rule ids
// all reject the load wholesale, and the previously published snapshot (if
// any) stays in force. A content checksum distinguishes true reloads from
// no-op checks.
package ruleset

import (
	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/tomat0w0/bid-anti-corruption/pkg/rule"
	"github.com/tomat0w0/bid-anti-corruption/pkg/yaml"
)

//go:generate go run ../../internal/schemagen/main.go -o rules.v1beta1.json

var (
	//go:embed rules.yaml
	defaultRulesYAML []byte

	//go:embed rules.v1beta1.json
	schemaJSON []byte

	// ValidAPIVersions contains the accepted apiVersion values.
	ValidAPIVersions = []string{
		"tendercheck.tomat0w0.com/v1beta1",
	}

	// ValidKinds contains the accepted kind values.
	ValidKinds = []string{
		"RuleSet",
	}

	// DefaultValidator validates rule sources against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/rules.v1beta1.json", schemaJSON)
)

// DefaultRuleSource returns the embedded default rule set source.
func DefaultRuleSource() []byte {
	return defaultRulesYAML
}

// RuleSet is the declarative rule source document.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type RuleSet struct {
	// APIVersion specifies the API version for this rule set.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind defines the type of document.
	Kind string `json:"kind" jsonschema:"title=Kind"`
	// Rules lists the rule definitions in declaration order.
	Rules []*rule.Rule `json:"rules" jsonschema:"title=Rules"`
}

// NewRuleSet creates an empty [RuleSet] with default values.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		APIVersion: ValidAPIVersions[0],
		Kind:       ValidKinds[0],
	}
}

func (rs RuleSet) JSONSchemaExtend(jss *jsonschema.Schema) {
	apiVersion, ok := jss.Properties.Get("apiVersion")
	if !ok {
		panic("apiVersion property not found in schema")
	}

	for _, version := range ValidAPIVersions {
		apiVersion.OneOf = append(apiVersion.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: version,
			Title: "API Version",
		})
	}

	_, _ = jss.Properties.Set("apiVersion", apiVersion)

	kind, ok := jss.Properties.Get("kind")
	if !ok {
		panic("kind property not found in schema")
	}

	for _, kindValue := range ValidKinds {
		kind.OneOf = append(kind.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: kindValue,
			Title: "Kind",
		})
	}

	_, _ = jss.Properties.Set("kind", kind)
}
