package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tomat0w0/bid-anti-corruption/pkg/analysis"
	"github.com/tomat0w0/bid-anti-corruption/pkg/engine"
	"github.com/tomat0w0/bid-anti-corruption/pkg/log"
	"github.com/tomat0w0/bid-anti-corruption/pkg/metric"
	"github.com/tomat0w0/bid-anti-corruption/pkg/postcheck"
	"github.com/tomat0w0/bid-anti-corruption/pkg/ruleset"
	"github.com/tomat0w0/bid-anti-corruption/pkg/yaml"
)

const cmdExamples = `  # Analyze a tender document with the built-in rule set:
  tendercheck ./tender.txt

  # Analyze with numeric context for the post-checks:
  tendercheck ./tender.txt --budget 2000000 --announced 2026-03-01 --deadline 2026-03-11

  # Use a custom rule set and emit JSON:
  tendercheck ./tender.txt --rules ./rules.yaml -o json

  # Re-analyze whenever the rule set changes on disk:
  tendercheck ./tender.txt --rules ./rules.yaml --watch

  # Expose engine metrics while watching:
  tendercheck ./tender.txt --rules ./rules.yaml --watch --metrics-addr :9090

  # Read the document from stdin:
  cat ./tender.txt | tendercheck -`

const dateLayout = "2006-01-02"

var errLoadRejected = errors.New("rule set rejected")

type AnalyzeArgs struct {
	*RootArgs

	RulesPath    string
	Output       string
	Announced    string
	Deadline     string
	Established  string
	MetricsAddr  string
	Paths        []string
	Budget       float64
	BidPrice     float64
	PollInterval time.Duration
	Watch        bool
}

func NewAnalyzeArgs(root *RootArgs) *AnalyzeArgs {
	return &AnalyzeArgs{RootArgs: root}
}

func (aa *AnalyzeArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&aa.RulesPath, "rules", "", "Path to a rule set (built-in rules when empty)")
	cmd.Flags().StringVarP(&aa.Output, "output", "o", "text", "Output format, one of: [text json yaml]")
	cmd.Flags().Float64Var(&aa.Budget, "budget", 0, "Declared project budget")
	cmd.Flags().Float64Var(&aa.BidPrice, "bid-price", 0, "Declared bid price")
	cmd.Flags().StringVar(&aa.Announced, "announced", "", "Tender announcement date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&aa.Deadline, "deadline", "", "Bid deadline date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&aa.Established, "established", "", "Bidder establishment date (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&aa.Watch, "watch", "w", false, "Watch the rule set and re-analyze on change")
	cmd.Flags().DurationVar(&aa.PollInterval, "poll-interval", 0, "Timer poll interval for the rule source (0 disables)")
	cmd.Flags().StringVar(&aa.MetricsAddr, "metrics-addr", "", "Listen address for Prometheus metrics (disabled when empty)")

	err := cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

// Context assembles the post-check facts from the command line flags.
func (aa *AnalyzeArgs) Context() (postcheck.Context, error) {
	docCtx := postcheck.Context{
		Budget:   aa.Budget,
		BidPrice: aa.BidPrice,
	}

	for _, d := range []struct {
		dst  *time.Time
		name string
		val  string
	}{
		{&docCtx.AnnouncedAt, "announced", aa.Announced},
		{&docCtx.BidDeadline, "deadline", aa.Deadline},
		{&docCtx.EstablishedAt, "established", aa.Established},
	} {
		if d.val == "" {
			continue
		}

		t, err := time.Parse(dateLayout, d.val)
		if err != nil {
			return postcheck.Context{}, fmt.Errorf("parse --%s: %w", d.name, err)
		}

		*d.dst = t
	}

	return docCtx, nil
}

func NewAnalyzeCmd(aa *AnalyzeArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze [path]...",
		Short:   "Analyze tender documents against the active rule set",
		Example: cmdExamples,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aa.Paths = args

			return runAnalyze(cmd, aa)
		},
	}

	aa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runAnalyze(cmd *cobra.Command, aa *AnalyzeArgs) error {
	ctx := cmd.Context()

	docCtx, err := aa.Context()
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.WithPollInterval(aa.PollInterval))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	defer func() { _ = eng.Close() }()

	result, err := loadRules(ctx, eng, aa.RulesPath)
	if err != nil {
		return err
	}

	if !result.Accepted {
		return fmt.Errorf("%w: %w", errLoadRejected, errors.Join(result.Errors...))
	}

	if aa.MetricsAddr != "" {
		go serveMetrics(ctx, aa.MetricsAddr, eng)
	}

	err = analyzeAll(ctx, cmd.OutOrStdout(), eng, aa, docCtx)
	if err != nil {
		return err
	}

	if !aa.Watch {
		return nil
	}
	if aa.RulesPath == "" {
		return errors.New("--watch requires --rules")
	}

	return watchAndReanalyze(ctx, cmd.OutOrStdout(), eng, aa, docCtx)
}

func loadRules(ctx context.Context, eng *engine.Engine, path string) (engine.ReloadResult, error) {
	if path == "" {
		// Fall back to the user's rule source, then the built-in rules.
		userPath := ruleset.GetPath()

		_, err := os.Stat(userPath)
		if err != nil {
			return eng.LoadOrReload(ctx, ruleset.DefaultRuleSource()), nil
		}

		path = userPath
	}

	result, err := eng.LoadFile(ctx, path)
	if err != nil {
		return result, fmt.Errorf("load rules: %w", err)
	}

	return result, nil
}

// analyzeAll runs every document through the engine concurrently. Reports
// are written in input order regardless of completion order.
func analyzeAll(ctx context.Context, w io.Writer, eng *engine.Engine, aa *AnalyzeArgs, docCtx postcheck.Context) error {
	reports := make([]*analysis.Report, len(aa.Paths))

	g, ctx := errgroup.WithContext(ctx)

	for i, path := range aa.Paths {
		g.Go(func() error {
			text, err := readDocument(path)
			if err != nil {
				return err
			}

			report, err := eng.Analyze(ctx, text, docCtx)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", path, err)
			}

			reports[i] = report

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return err //nolint:wrapcheck // Return the original error.
	}

	for i, report := range reports {
		err := writeReport(w, aa.Output, aa.Paths[i], report)
		if err != nil {
			return err
		}
	}

	return nil
}

func readDocument(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	return string(data), nil
}

type documentReport struct {
	Path   string           `json:"path"`
	Report *analysis.Report `json:"report"`
}

var outputMu sync.Mutex

func writeReport(w io.Writer, format, path string, report *analysis.Report) error {
	outputMu.Lock()
	defer outputMu.Unlock()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(documentReport{Path: path, Report: report})
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}

	case "yaml":
		err := yaml.NewEncoder(w).Encode(documentReport{Path: path, Report: report})
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}

	case "text":
		writeTextReport(w, path, report)

	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	return nil
}

func writeTextReport(w io.Writer, path string, report *analysis.Report) {
	fmt.Fprintf(w, "%s: %d finding(s), risk score %.2f (rule set v%d)\n",
		path, report.Summary.Count, report.Summary.RiskScore, report.SnapshotVersion)

	for _, f := range report.Findings {
		loc := "absent clause"
		if f.Span != nil {
			loc = fmt.Sprintf("%q at %d", f.Span.Text, f.Span.Start)
		}

		fmt.Fprintf(w, "  [%s] %s: %s", strings.ToUpper(string(f.Level)), f.RuleID, loc)

		if f.Detail != "" {
			fmt.Fprintf(w, " (%s)", f.Detail)
		}

		if len(f.Tags) > 0 {
			tags := append([]string(nil), f.Tags...)
			sort.Strings(tags)
			fmt.Fprintf(w, " #%s", strings.Join(tags, " #"))
		}

		fmt.Fprintln(w)
	}

	for _, d := range report.Diagnostics {
		fmt.Fprintf(w, "  note: %s %s: %s\n", d.RuleID, d.Kind, d.Detail)
	}
}

// watchAndReanalyze blocks, re-running the analyses after every accepted
// rule set reload, until the context is canceled.
func watchAndReanalyze(ctx context.Context, w io.Writer, eng *engine.Engine, aa *AnalyzeArgs, docCtx postcheck.Context) error {
	events := make(chan engine.Event, 16)
	eng.Subscribe(events)

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- eng.Watch(ctx, aa.RulesPath)
	}()

	logger := log.WithContext(ctx)
	logger.InfoContext(ctx, "watching rule source", slog.String("path", aa.RulesPath))

	for {
		select {
		case <-ctx.Done():
			return <-watchDone

		case evt := <-events:
			switch evt := evt.(type) {
			case engine.EventReload:
				if !evt.Result.Accepted {
					continue
				}

				err := analyzeAll(ctx, w, eng, aa, docCtx)
				if err != nil {
					logger.ErrorContext(ctx, "re-analyze documents", slog.Any("error", err))
				}

			case engine.EventWatchError:
				logger.ErrorContext(ctx, "watch rule source", slog.Any("error", evt.Err))
			}
		}
	}
}

func serveMetrics(ctx context.Context, addr string, eng *engine.Engine) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(metric.NewCollector(eng))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithContext(ctx).ErrorContext(ctx, "serve metrics",
			slog.String("addr", addr),
			slog.Any("error", err),
		)
	}
}
