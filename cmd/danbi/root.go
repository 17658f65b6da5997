package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "danbi",
	Short: "Retail analytics assistant",
	Long: `Danbi answers questions about retail store performance in Korean.

A query is classified into an analysis intent, decomposed into prioritized
tasks, executed through the workflow engine, and synthesized into a report
with insights and recommendations.

Examples:
  danbi run "이번 주 방문객수 어떻게 되나요"
  danbi run "매출이 갑자기 급감했는데 원인이 뭐야"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runQuery(cmd, args)
		}
		return cmd.Help()
	},
	Args: cobra.ArbitraryArgs,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(versionCmd)
}
