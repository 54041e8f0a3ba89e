package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// RunsCmd creates the runs command group.
func RunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect past runs",
	}

	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsGetCmd())

	return cmd
}

func runsListCmd() *cobra.Command {
	var limit int
	var cursor string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/runs?limit=%d", limit)
			if cursor != "" {
				path += "&cursor=" + url.QueryEscape(cursor)
			}

			resp, err := api.Get(path)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			var page RunListResult
			if err := json.Unmarshal(resp.Data, &page); err != nil {
				return fmt.Errorf("failed to parse runs: %w", err)
			}

			if outputJSON {
				return printJSON(page)
			}

			if len(page.Items) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}
			for _, r := range page.Items {
				fmt.Printf("%s  %-10s  %d ideas  %s\n",
					r.RunID, r.State, len(r.Ideas), r.StartedAt.Format("2006-01-02 15:04:05"))
			}
			if page.HasMore {
				fmt.Printf("\nMore results: --cursor %s\n", page.Cursor)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from a previous page")

	return cmd
}

func runsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show one run report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/runs/" + args[0])
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}

			var run RunResult
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("failed to parse run: %w", err)
			}

			if outputJSON {
				return printJSON(run)
			}

			printRun(&run)
			return nil
		},
	}
}
