package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/routeweather/core/cmd"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

var rootCmd = &cobra.Command{
	Use:           "routeweather",
	Short:         "Weather forecasts along a travel route",
	Long:          `routeweather collects a route of cities in a Telegram dialog and answers with a per-city forecast, advisories and temperature charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Printf("INFO: no .env file loaded, using environment variables")
		}
	},
}

// Execute runs the command selected on the command line.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// configPath resolves --config, then $CONFIG_PATH, then config.yaml.
func configPath(cmd *cobra.Command) (string, error) {
	flag, _ := cmd.Flags().GetString("config")
	return corecmd.ResolveConfigPath(corecmd.Options{
		ConfigPath:        flag,
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
	})
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default $CONFIG_PATH or config.yaml)")
}
