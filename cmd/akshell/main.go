package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/config"
	"github.com/wayne-kk/ak-shell/internal/market/collector"
	"github.com/wayne-kk/ak-shell/internal/market/notify"
	"github.com/wayne-kk/ak-shell/internal/market/schedule"
	"github.com/wayne-kk/ak-shell/logger"
	"github.com/wayne-kk/ak-shell/pkg/akshare"
	"github.com/wayne-kk/ak-shell/pkg/pacing"
	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "akshell",
		Short: "A-share market data collection service",
		Long: `akshell pulls A-share market data (quotes, indexes, rankings, fund
flows, news) from an AKTools gateway and persists it to Postgres with
idempotent upserts. Run one-shot collections or the cron daemon.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newCollectCmd())
	rootCmd.AddCommand(newNewsCmd())
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}

func newCollectCmd() *cobra.Command {
	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Run a one-shot data collection",
	}

	todayCmd := &cobra.Command{
		Use:   "today",
		Short: "Run the full post-close daily collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap()
			if err != nil {
				return err
			}
			defer app.close()

			ctx := signalContext()
			start := time.Now()
			results := app.runner.CollectToday(ctx, time.Now())
			app.notifyRun(ctx, "每日数据采集", results, time.Since(start))
			return failIfAnyFailed(results)
		},
	}

	var startDate, endDate string
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Backfill a historical date range for every stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(startDate, endDate)
			if err != nil {
				return err
			}

			app, err := bootstrap()
			if err != nil {
				return err
			}
			defer app.close()

			ctx := signalContext()
			began := time.Now()
			results := app.runner.CollectHistory(ctx, start, end)
			app.notifyRun(ctx, "历史数据回填", results, time.Since(began))
			return failIfAnyFailed(results)
		},
	}
	historyCmd.Flags().StringVar(&startDate, "start-date", "", "start date (YYYYMMDD or YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&endDate, "end-date", "", "end date (defaults to today)")
	historyCmd.MarkFlagRequired("start-date")

	var code string
	stockCmd := &cobra.Command{
		Use:   "stock",
		Short: "Collect one stock's daily quotes over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(startDate, endDate)
			if err != nil {
				return err
			}

			app, err := bootstrap()
			if err != nil {
				return err
			}
			defer app.close()

			ctx := signalContext()
			rows, err := app.runner.Quote.CollectStock(ctx, code, start, end)
			if err != nil {
				return fmt.Errorf("collection failed for %s: %w", code, err)
			}
			fmt.Printf("%s: %d rows upserted\n", code, rows)
			return nil
		},
	}
	stockCmd.Flags().StringVar(&code, "code", "", "stock code, e.g. 600519")
	stockCmd.Flags().StringVar(&startDate, "start-date", "", "start date (YYYYMMDD or YYYY-MM-DD)")
	stockCmd.Flags().StringVar(&endDate, "end-date", "", "end date (defaults to today)")
	stockCmd.MarkFlagRequired("code")
	stockCmd.MarkFlagRequired("start-date")

	collectCmd.AddCommand(todayCmd)
	collectCmd.AddCommand(historyCmd)
	collectCmd.AddCommand(stockCmd)
	return collectCmd
}

func newNewsCmd() *cobra.Command {
	newsCmd := &cobra.Command{
		Use:   "news",
		Short: "Collect or inspect stock news",
	}

	newsCmd.AddCommand(&cobra.Command{
		Use:   "collect",
		Short: "Pull the latest news batch and prune expired rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap()
			if err != nil {
				return err
			}
			defer app.close()

			ctx := signalContext()
			res := app.runner.News.Collect(ctx)
			if !res.Success() {
				if res.Err != nil {
					return fmt.Errorf("news collection failed: %w", res.Err)
				}
				return fmt.Errorf("news collection failed")
			}
			deleted, err := app.runner.News.Cleanup(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("news cleanup failed: %w", err)
			}
			fmt.Printf("news: %d rows upserted, %d expired rows removed\n", res.Rows, deleted)
			return nil
		},
	})

	newsCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print stored news statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap()
			if err != nil {
				return err
			}
			defer app.close()

			stats, err := app.runner.News.Stats(signalContext())
			if err != nil {
				return fmt.Errorf("failed to read news stats: %w", err)
			}
			fmt.Printf("total: %d\n", stats.Total)
			if !stats.Latest.IsZero() {
				fmt.Printf("latest: %s\n", stats.Latest.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	})

	return newsCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the cron daemon with the standing collection timetable",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap()
			if err != nil {
				return err
			}
			defer app.close()

			ctx := signalContext()
			sched := schedule.NewScheduler(app.runner, app.notifier, app.store, app.log)
			if err := sched.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			app.log.Info("shutdown signal received")
			sched.Stop()
			return nil
		},
	}
}

// app holds the bootstrapped collaborators shared by every command.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *postgres.Client
	runner   *collector.Runner
	notifier *notify.Notifier
}

func (a *app) close() {
	a.store.Close()
	a.log.Sync()
}

// notifyRun forwards a run summary when the webhook is configured.
func (a *app) notifyRun(ctx context.Context, task string, results []collector.Result, elapsed time.Duration) {
	if !a.notifier.Enabled() {
		return
	}
	details := map[string]string{"执行耗时": elapsed.Round(time.Second).String()}
	for _, res := range results {
		mark := "✅"
		if !res.Success() {
			mark = "❌"
		}
		details[res.Task] = fmt.Sprintf("%s %d行", mark, res.Rows)
	}
	a.notifier.NotifyTaskCompletion(ctx, task, !collector.Failed(results), details)
}

func bootstrap() (*app, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := postgres.Initialize(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	source := akshare.NewClient(cfg.Source.BaseURL, cfg.Source.Timeout, log)
	pacer := pacing.NewPacer(
		cfg.Collect.BaseDelay,
		cfg.Collect.RandomDelay,
		cfg.Collect.BatchDelay,
		cfg.Collect.BatchSize,
	)

	deps := collector.Deps{
		Store:      store,
		Source:     source,
		Pacer:      pacer,
		Logger:     log,
		RetryCount: cfg.Source.RetryCount,
		RetryDelay: cfg.Source.RetryDelay,
	}
	runner := collector.NewRunner(deps, collector.Options{
		HistoryDays:       cfg.Collect.HistoryDays,
		CalendarYears:     cfg.Collect.CalendarYears,
		NewsMaxProcess:    cfg.News.MaxProcessCount,
		NewsRetentionDays: cfg.News.RetentionDays,
	})

	notifier := notify.NewNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout, log)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		runner:   runner,
		notifier: notifier,
	}, nil
}

// failIfAnyFailed maps a run with failed tasks to a non-zero exit.
func failIfAnyFailed(results []collector.Result) error {
	if collector.Failed(results) {
		return fmt.Errorf("collection finished with failures")
	}
	return nil
}

func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start-date %q: %w", startDate, err)
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if endDate != "" {
		if end, err = parseDate(endDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end-date %q: %w", endDate, err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s precedes start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}

// parseDate accepts both 20240115 and 2024-01-15.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected YYYYMMDD or YYYY-MM-DD")
}

// signalContext cancels on SIGINT/SIGTERM so long runs stop cleanly.
func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
