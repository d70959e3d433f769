package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tomat0w0/bid-anti-corruption/pkg/log"
	"github.com/tomat0w0/bid-anti-corruption/pkg/version"
)

const (
	cmdName = "tendercheck"
	cmdDesc = `Rule engine flagging integrity and competition risks in tender documents.`
)

type RootArgs struct {
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string

	shutdownTracing func() error
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for trace export (disabled when empty)")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	analyzeArgs := NewAnalyzeArgs(args)

	analyzeCmd := NewAnalyzeCmd(analyzeArgs)
	cmd := &cobra.Command{
		Use:                cmdName,
		Short:              cmdDesc,
		Example:            cmdExamples,
		Version:            version.GetVersion(),
		PersistentPreRunE:  setup(args),
		PersistentPostRunE: teardown(args),
		Args:               analyzeCmd.Args,
		RunE:               analyzeCmd.RunE,
	}

	args.AddFlags(cmd)
	analyzeArgs.AddFlags(cmd)
	cmd.AddCommand(analyzeCmd)
	cmd.AddCommand(NewRulesCmd(args))

	bindEnvVars(cmd)

	return cmd
}

func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		if ra.OTLPEndpoint != "" {
			shutdown, err := setupTracing(cmd.Context(), ra.OTLPEndpoint)
			if err != nil {
				return fmt.Errorf("setup tracing: %w", err)
			}

			ra.shutdownTracing = shutdown
		}

		return nil
	}
}

func teardown(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(_ *cobra.Command, _ []string) error {
		if ra.shutdownTracing != nil {
			return ra.shutdownTracing()
		}

		return nil
	}
}
