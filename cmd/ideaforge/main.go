package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/ideaforge/internal/cli"
	"github.com/cloo-solutions/ideaforge/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ideaforge",
		Short: "Ideaforge CLI - grounded product idea generation",
		Long: `Ideaforge CLI provides commands to trigger idea generation runs and
inspect their results.

Environment variables:
  IDEAFORGE_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.RunCmd())
	rootCmd.AddCommand(client.RunsCmd())
	rootCmd.AddCommand(client.IdeasCmd())
	rootCmd.AddCommand(client.RateCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
