package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomat0w0/bid-anti-corruption/pkg/ruleset"
	"github.com/tomat0w0/bid-anti-corruption/pkg/yaml"
)

func NewRulesCmd(_ *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and manage rule sets",
	}

	cmd.AddCommand(newRulesValidateCmd())
	cmd.AddCommand(newRulesStatsCmd())
	cmd.AddCommand(newRulesInitCmd())

	return cmd
}

func loadRuleSet(path string) (*ruleset.Snapshot, error) {
	loader, err := ruleset.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	if path == "" {
		return loader.Load(ruleset.DefaultRuleSource()) //nolint:wrapcheck // Return the original error.
	}

	return loader.LoadFile(path) //nolint:wrapcheck // Return the original error.
}

func newRulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a rule set without activating it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}

			snap, err := loadRuleSet(path)
			if err != nil {
				return err
			}

			cmd.Printf("rule set valid: %d rule(s), checksum %s\n",
				snap.Stats().RuleCount, snap.Checksum()[:12])

			return nil
		},
	}
}

func newRulesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [path]",
		Short: "Print rule set statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}

			snap, err := loadRuleSet(path)
			if err != nil {
				return err
			}

			err = yaml.NewEncoder(cmd.OutOrStdout()).Encode(snap.Stats())
			if err != nil {
				return fmt.Errorf("encode stats: %w", err)
			}

			return nil
		},
	}
}

func newRulesInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in rule set to a file as a starting point",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "rules.yaml"
			if len(args) > 0 {
				path = args[0]
			}

			_, err := os.Stat(path)
			if err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			err = os.WriteFile(path, ruleset.DefaultRuleSource(), 0o644) //nolint:gosec // Rule sets are not secrets.
			if err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			cmd.Printf("wrote %s\n", path)

			return nil
		},
	}
}
