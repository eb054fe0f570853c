package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/routeweather/core/bootstrap"
	coreconfig "github.com/m3rciful/routeweather/core/config"
	"github.com/m3rciful/routeweather/internal/app"
	"github.com/m3rciful/routeweather/internal/config"
	"github.com/m3rciful/routeweather/internal/forecast"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast CITY CITY [CITY...]",
	Short: "Print the forecast for a route without Telegram",
	Long: `Runs one forecast over the given cities in order and prints the same report
the bot sends. With --chart the temperature chart is written to chart.dir and
its path printed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runForecast,
}

func runForecast(cmd *cobra.Command, args []string) error {
	rawHorizon, _ := cmd.Flags().GetString("horizon")
	withChart, _ := cmd.Flags().GetBool("chart")
	h, err := forecast.ParseHorizon(rawHorizon)
	if err != nil {
		return err
	}

	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.LoadStandalone(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs stay on the default handler so stdout carries only the report.
	bootOpts := bootstrap.Options{
		Config:     cfg.CoreConfig(),
		LoggerInit: func(*coreconfig.Config) error { return nil },
	}
	if cfg.UsesDatabase() {
		db := cfg.Database
		bootOpts.Database = &db
	}
	infra, err := bootstrap.Run(ctx, bootOpts)
	if err != nil {
		return err
	}
	defer infra.Close()

	stack, err := app.NewStack(cfg, nil, infra.DB)
	if err != nil {
		return err
	}
	defer stack.Close()

	report, chartPath, err := stack.Route(ctx, args, h, withChart)
	if err != nil {
		return err
	}
	if report == "" {
		return errors.New("no cities given")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report)
	if chartPath != "" {
		fmt.Fprintf(out, "\nChart: %s\n", chartPath)
	}
	return nil
}

func init() {
	forecastCmd.Flags().String("horizon", "1", "forecast horizon in days: 1, 3 or 5")
	forecastCmd.Flags().Bool("chart", false, "also render the temperature chart")
	rootCmd.AddCommand(forecastCmd)
}
