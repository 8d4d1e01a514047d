// Package app wires configuration, storage and transport into the indigo CLI.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"indigo/internal/classify"
	"indigo/internal/config"
	"indigo/internal/httpserver"
	"indigo/internal/httpx"
	slackbot "indigo/internal/integrations/slack"
	"indigo/internal/metrics"
	"indigo/internal/retention"
	"indigo/internal/storage/sqlite"
	"indigo/internal/version"
	"indigo/internal/webhook"

	"github.com/spf13/cobra"
)

const (
	shutdownTimeout        = 10 * time.Second
	defaultDeliveriesLimit = 20
	defaultDeliveriesSince = 24 * time.Hour
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "indigo",
		Short:        "Webhook handler that annotates Plane collaboration events",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newClassifyCmd(), newDeliveriesCmd(), newVersionCmd())
	return root
}

func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify a webhook payload from a file or stdin and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open payload: %w", err)
				}
				defer f.Close()
				in = f
			}
			return classifyPayload(cmd.Context(), in, cmd.OutOrStdout())
		},
	}
}

func newDeliveriesCmd() *cobra.Command {
	var limit int
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "Show recent webhook deliveries and outcome counts from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be >= 1, got %d", limit)
			}
			if since <= 0 {
				return fmt.Errorf("--since must be positive, got %s", since)
			}
			cfg := config.LoadConfig()
			db, err := sqlite.InitDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer db.Close()
			return printDeliveries(cmd.OutOrStdout(), db, limit, since, time.Now().In(cfg.Location))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultDeliveriesLimit, "number of recent deliveries to list")
	cmd.Flags().DurationVar(&since, "since", defaultDeliveriesSince, "window for the outcome counts")
	return cmd
}

func printDeliveries(out io.Writer, db *sql.DB, limit int, since time.Duration, now time.Time) error {
	recent, err := sqlite.GetRecentDeliveries(db, limit)
	if err != nil {
		return fmt.Errorf("load recent deliveries: %w", err)
	}
	from := now.Add(-since)
	counts, err := sqlite.CountDeliveriesByOutcome(db, from)
	if err != nil {
		return fmt.Errorf("count deliveries: %w", err)
	}

	fmt.Fprintf(out, "Recent deliveries (%d):\n", len(recent))
	if len(recent) == 0 {
		fmt.Fprintln(out, "  none")
	}
	for _, d := range recent {
		eventType := d.EventType
		if eventType == "" {
			eventType = "-"
		}
		line := fmt.Sprintf("  %s  %-10s %-22s %s", d.ReceivedAt.In(now.Location()).Format("2006-01-02 15:04:05"), d.Outcome, eventType, d.DeliveryID)
		if d.EntityName != "" {
			line += fmt.Sprintf(" %q", d.EntityName)
		}
		if d.Error != "" {
			line += " error=" + d.Error
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintf(out, "Outcomes since %s:\n", from.Format("2006-01-02 15:04"))
	if len(counts) == 0 {
		fmt.Fprintln(out, "  none")
	}
	for _, c := range counts {
		fmt.Fprintf(out, "  %-10s %d\n", c.Outcome, c.Count)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "indigo %s (commit %s, built %s, %s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion)
			return err
		},
	}
}

// classifyPayload runs a dispatcher with no secret, notifier or journal.
func classifyPayload(ctx context.Context, in io.Reader, out io.Writer) error {
	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	result, err := webhook.NewDispatcher().Dispatch(ctx, webhook.Request{Body: body})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func serve(ctx context.Context) error {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Port=%s DBPath=%s RetentionDays=%d PruneSchedule=%s Slack=%t SlackMinPriority=%s RateLimit=%.2f Timezone=%s ExternalHTTPTimeout=%s",
		cfg.Port,
		cfg.DBPath,
		cfg.JournalRetentionDays,
		cfg.JournalPruneSchedule,
		cfg.SlackConfigured(),
		cfg.MinPriority(),
		cfg.RateLimitPerSecond,
		cfg.Timezone,
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()
	log.Printf("Database initialized at %s", cfg.DBPath)
	journal := sqlite.NewJournal(db)

	reg := metrics.NewRegistry()
	opts := []webhook.Option{
		webhook.WithSecret(cfg.WebhookSecret),
		webhook.WithAnalyzer(classify.NoopAnalyzer{}),
		webhook.WithJournal(journal),
		webhook.WithMetrics(metrics.NewWebhookMetrics(reg)),
	}
	if cfg.SlackConfigured() {
		opts = append(opts, webhook.WithNotifier(
			slackbot.NewNotifier(cfg.SlackBotToken, cfg.SlackChannelID),
			cfg.MinPriority(),
		))
		log.Printf("Slack notifications enabled channel=%s min_priority=%s", cfg.SlackChannelID, cfg.MinPriority())
	}
	dispatcher := webhook.NewDispatcher(opts...)

	scheduler, err := retention.StartScheduler(db, cfg.JournalPruneSchedule, cfg.JournalRetentionDays, cfg.Location)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	srv := httpserver.NewServer(cfg.Addr(), dispatcher, reg,
		httpserver.WithHealthChecks(httpserver.HealthCheck{Name: "journal", Check: journal.Ping}),
		httpserver.WithRateLimit(cfg.RateLimitPerSecond),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
