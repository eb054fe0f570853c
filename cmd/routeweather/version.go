package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/routeweather/core/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of routeweather",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "routeweather version %s (commit %s", buildinfo.Version, buildinfo.Commit)
		if buildinfo.Date != "" {
			fmt.Fprintf(cmd.OutOrStdout(), ", built %s", buildinfo.Date)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ")")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
