package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"HoldingsRadar/internal/config"
	"HoldingsRadar/internal/marketclock"
	"HoldingsRadar/internal/model"
	"HoldingsRadar/internal/notifier"
	"HoldingsRadar/internal/orchestrator"
	"HoldingsRadar/internal/orderplan"
	"HoldingsRadar/internal/provider"
	"HoldingsRadar/internal/report"
	"HoldingsRadar/internal/scheduler"
)

const version = "v1.0.0"

var (
	configPath string
	modeFlag   string
	simFlag    bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "radar",
		Short:   "Holdings signal radar: grades every held position from live bars",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one discrete poll and print the report",
		RunE:  runOnceCmd,
	}
	runCmd.Flags().StringVar(&modeFlag, "mode", "auto", "run mode (auto|intraday|daily)")
	runCmd.Flags().BoolVar(&simFlag, "sim", false, "use the scripted simulator instead of the gateway")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll on the configured cron schedule until interrupted",
		RunE:  runWatchCmd,
	}
	watchCmd.Flags().BoolVar(&simFlag, "sim", false, "use the scripted simulator instead of the gateway")

	rootCmd.AddCommand(runCmd, watchCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if simFlag {
		cfg.Provider.Sim = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func resolveMode() (model.RunMode, error) {
	switch modeFlag {
	case "auto", "":
		return marketclock.ModeAt(time.Now()), nil
	case string(model.ModeIntraday):
		return model.ModeIntraday, nil
	case string(model.ModeDaily):
		return model.ModeDaily, nil
	}
	return "", fmt.Errorf("unknown mode %q", modeFlag)
}

func newClient(cfg *config.Config) provider.Client {
	if cfg.Provider.Sim {
		return provider.NewSimClient(provider.DefaultSimPositions())
	}
	return provider.NewHTTPClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Proxy)
}

func runOnceCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mode, err := resolveMode()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = executePoll(ctx, cfg, mode)
	return err
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	sched := scheduler.New(func(mode model.RunMode) {
		out, err := executePoll(ctx, cfg, mode)
		if err != nil {
			log.Error().Err(err).Str("mode", string(mode)).Msg("poll failed")
			return
		}
		if tn != nil {
			msg := notifier.FormatRunSummary(out.Mode, out.Watchlist, out.Results)
			if err := tn.SendWithRetry(ctx, msg, 3); err != nil {
				log.Error().Err(err).Msg("send run summary")
			}
		}
	})
	if err := sched.Register(cfg.Schedule.IntradayCron, cfg.Schedule.DailyCron); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()
	log.Info().Str("intraday", cfg.Schedule.IntradayCron).Str("daily", cfg.Schedule.DailyCron).Msg("watching")

	<-ctx.Done()
	return nil
}

// executePoll runs one complete acquisition and renders every output:
// console summary, per-symbol details, simulated ladder plans, CSV export.
func executePoll(ctx context.Context, cfg *config.Config, mode model.RunMode) (*orchestrator.Outcome, error) {
	client := newClient(cfg)
	defer client.Close()

	orch := orchestrator.New(client, orchestrator.Config{
		Mode:       mode,
		Throttle:   cfg.Throttle(),
		GraceDelay: cfg.GraceDelay(),
	})
	out, err := orch.Run(ctx)
	if err != nil {
		return nil, err
	}

	weights := report.Weights(out.Watchlist, out.Results)
	fmt.Println(report.Summary(out.Mode, out.Watchlist, out.Results))

	ordered := make([]*model.SignalResult, 0, len(out.Watchlist))
	for _, symbol := range out.Watchlist {
		res, ok := out.Results[symbol]
		if !ok {
			continue
		}
		ordered = append(ordered, res)
		fmt.Println(report.Detail(out.Mode, res, weights[symbol]))

		if !res.NoData {
			plan := orderplan.Build(orderplan.Request{
				Symbol:    res.Symbol,
				LastPrice: res.LastPrice,
				Cost:      res.Cost,
				PnlPct:    res.PnlPct,
				HasPnl:    res.Cost > 0,
				WeightPct: weights[symbol],
				Bands:     res.Bands,
				Direction: res.Trend,
			}, cfg.Account.Equity, cfg.Account.RiskPerTradePct, cfg.Account.SimulateOnly)
			fmt.Println(plan.Format())
		}
	}

	var exporter report.Exporter = report.NoopExporter{}
	if cfg.Run.ExportPath != "" {
		exporter = report.NewCSVExporter(cfg.Run.ExportPath)
	}
	if err := exporter.Export(out.Mode, ordered); err != nil {
		log.Error().Err(err).Msg("csv export failed")
	} else if cfg.Run.ExportPath != "" {
		log.Info().Str("path", cfg.Run.ExportPath).Msg("csv exported")
	}

	return out, nil
}
