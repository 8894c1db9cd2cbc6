// Package app provides the command-line entry points for the mintwell API
// server.
package app

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mintwell/mintwell-server/pkg/logger"
	"github.com/mintwell/mintwell-server/pkg/versions"
)

var rootCmd = &cobra.Command{
	Use:               "mintwell-api",
	DisableAutoGenTag: true,
	Short:             "Mintwell personal finance API server",
	Long: `Mintwell API server provides REST endpoints for account aggregation,
transaction sync, sync health tracking and compliance exports.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

var rootCmdSetup sync.Once

// NewRootCmd returns the root command for the mintwell API. Flags and
// subcommands register once; repeat calls return the same command.
func NewRootCmd() *cobra.Command {
	rootCmdSetup.Do(func() {
		rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
		if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
			logger.Errorf("Error binding debug flag: %v", err)
		}

		rootCmd.AddCommand(serveCmd)
		rootCmd.AddCommand(versionCmd)
		rootCmd.AddCommand(migrateCmd)
	})
	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			logger.Errorf("Error retrieving format flag: %v", err)
			return
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				logger.Errorf("Error formatting version info as JSON: %v", err)
				return
			}
			fmt.Println(string(output))
		} else {
			logger.Infof("mintwell-api %s (commit %s, built %s, %s, %s)",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
