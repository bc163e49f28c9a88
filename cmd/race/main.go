package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/contestant"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/internal/oracle"
	"github.com/rxtech-lab/argo-race/internal/race"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// raceAction loads the run configuration, wires the data source and the
// contestants, runs the race and writes the final report.
func raceAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outPath := cmd.String("out")

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config, err := race.ParseConfig(raw)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	source, err := marketdata.NewDuckDBSource(dataPath, log)
	if err != nil {
		return err
	}
	defer source.Close()

	controller, err := race.NewController(config, source, log)
	if err != nil {
		return err
	}

	deps := contestant.Dependencies{
		Source: source,
		Oracle: oracleFromEnv(),
		Logger: log,
	}

	for _, entry := range config.Contestants {
		entrant, err := contestant.New(entry.Kind, entry.ID, config.Symbol, entry.Params, deps)
		if err != nil {
			return err
		}

		if err := controller.AddContestant(entrant); err != nil {
			return err
		}
	}

	bar := progressbar.Default(100, "racing")
	onProgress := race.OnProgress(func(event types.ProgressEvent) {
		_ = bar.Set(int(event.Progress))
	})

	results, err := controller.Run(ctx, optional.Some(onProgress))
	if err != nil {
		// An aborted run produced no final metrics; never render a
		// leaderboard for it.
		if errors.IsAborted(err) {
			fmt.Fprintln(os.Stderr, "race aborted, no results")
		}

		return err
	}

	_ = bar.Finish()
	printLeaderboard(results)

	report := types.RaceReport{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Symbol:    config.Symbol,
		Results:   results,
	}

	if err := types.WriteRaceReport(outPath, report); err != nil {
		return err
	}

	fmt.Printf("Report written to %s\n", outPath)

	return nil
}

// oracleFromEnv builds the decision oracle from environment variables. It
// returns nil when no endpoint is configured; only runs that enter an
// oracle-driven contestant need one.
func oracleFromEnv() oracle.Oracle {
	baseURL := os.Getenv("ORACLE_BASE_URL")
	if baseURL == "" {
		return nil
	}

	return oracle.NewHTTPOracle(oracle.HTTPOracleConfig{
		BaseURL:        baseURL,
		APIKey:         os.Getenv("ORACLE_API_KEY"),
		Model:          os.Getenv("ORACLE_MODEL"),
		TimeoutSeconds: 60,
	})
}

func printLeaderboard(results []types.RaceResult) {
	fmt.Println("\nFinal standings:")
	for i, result := range results {
		fmt.Printf("%d. %-24s equity=%.2f return=%.2f%% trades=%d sharpe=%.3f maxDD=%.2f%%\n",
			i+1, result.Name, result.FinalEquity, result.TotalReturn,
			result.TradeCount, result.SharpeRatio, result.MaxDrawdown)
	}
}

// schemaAction prints the JSON schema of the run configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	schemaJSON, err := race.Config{}.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schemaJSON)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "race",
		Usage: "Race trading strategies over historical candles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the race configuration YAML",
				Value:    "race.yaml",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the DuckDB candle database",
				Value:    "data/candles.duckdb",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Path for the results YAML report",
				Value:    "results.yaml",
				Required: false,
			},
		},
		Action: raceAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the race configuration",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
