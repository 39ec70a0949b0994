package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/toriphy/cta-engine/internal/engine"
	"github.com/toriphy/cta-engine/internal/logger"
	"github.com/toriphy/cta-engine/internal/store"
	"github.com/toriphy/cta-engine/internal/version"
)

// replayAction loads the config, replays the optional warm-up stream with
// orders suppressed, then replays the main tick stream and writes results.
func replayAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	warmupPath := cmd.String("warmup")
	outputPath := cmd.String("output")

	config, err := engine.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync()

	results, err := store.NewResultStore(l)
	if err != nil {
		return err
	}
	defer results.Close()

	if err := results.Initialize(); err != nil {
		return err
	}

	eng, err := engine.NewEngine(config, results, l)
	if err != nil {
		return err
	}

	if warmupPath != "" {
		if err := replayFile(eng, warmupPath, true, l); err != nil {
			return fmt.Errorf("warmup replay failed: %w", err)
		}
	}

	if err := replayFile(eng, dataPath, false, l); err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	if err := eng.Finalize(); err != nil {
		return err
	}

	summary, err := results.Summarize()
	if err != nil {
		return err
	}

	l.Info("replay finished",
		zap.String("symbol", config.Symbol),
		zap.Int("orders", summary.Orders),
		zap.Int("trades", summary.Trades),
		zap.Int("signals", summary.Signals),
		zap.Float64("realized_pnl", summary.RealizedPnL),
		zap.Bool("halted", eng.Halted()),
	)

	if outputPath != "" {
		if err := results.Write(outputPath); err != nil {
			return err
		}
	}

	return nil
}

// replayFile streams one tick file through the engine.
func replayFile(eng *engine.Engine, path string, warmup bool, l *logger.Logger) error {
	source, err := store.NewTickSource(path, l)
	if err != nil {
		return err
	}
	defer source.Close()

	count, err := source.Count()
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(count))

	describe := "Replaying"
	if warmup {
		describe = "Warming up"
	}

	bar.Describe(fmt.Sprintf("%s %s", describe, filepath.Base(path)))

	eng.SetWarmup(warmup)
	defer eng.SetWarmup(false)

	for tick, err := range source.ReadAll() {
		if err != nil {
			return err
		}

		if err := eng.OnTick(tick); err != nil {
			return err
		}

		bar.Add(1)
	}

	return nil
}

// schemaAction prints the JSON schema of the engine config.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.Config{}

	schema, err := config.GenerateSchema()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Replay a tick stream through the trading pipeline",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine config YAML",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Tick file to replay (.csv or .parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "warmup",
				Aliases:  []string{"w"},
				Usage:    "Optional tick file replayed first with order flow suppressed",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Directory for Parquet result files",
				Value:    "results",
				Required: false,
			},
		},
		Action: replayAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema for the engine config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
