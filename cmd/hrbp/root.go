package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/hrbp/internal/api"
	"github.com/jackzampolin/hrbp/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "hrbp",
	Short: "HR Business Partner assistant for an employee spreadsheet",
	Long: `hrbp answers questions about an HR dataset loaded from an Excel
workbook or CSV file.

Simple questions (employee names, head count) are answered directly from
the data. Everything else goes to an OpenAI model that inspects the table
through dataframe tools and replies in an HR Business Partner voice.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.hrbp/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "hrbp home directory (default: ~/.hrbp)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or text",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level override: debug, info, warn or error",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
