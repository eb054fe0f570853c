package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/routeweather/core/cmd"
	"github.com/m3rciful/routeweather/internal/app"
	"github.com/m3rciful/routeweather/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long:  `Runs the bot in long-polling or webhook mode until interrupted. Updates already queued are answered before exit.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cmd)
		if err != nil {
			return err
		}
		return corecmd.Run(corecmd.Options{
			ConfigPath: path,
			LoadConfig: func(p string) (corecmd.ConfigCarrier, error) {
				cfg, err := config.Load(p)
				if err != nil {
					return nil, err
				}
				return cfg, nil
			},
			Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
				cfg, ok := carrier.(*config.Config)
				if !ok {
					return nil, fmt.Errorf("unexpected config type %T", carrier)
				}
				a, err := app.New(ctx, cfg, app.Options{ConfigPath: path})
				if err != nil {
					return nil, err
				}
				return a, nil
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
