package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// IdeasCmd creates the ideas command.
func IdeasCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "ideas",
		Short: "List composed ideas across all runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			path := "/ideas"
			if runID != "" {
				path += "?run=" + url.QueryEscape(runID)
			}

			resp, err := api.Get(path)
			if err != nil {
				return fmt.Errorf("failed to list ideas: %w", err)
			}

			var ideas []IdeaResult
			if err := json.Unmarshal(resp.Data, &ideas); err != nil {
				return fmt.Errorf("failed to parse ideas: %w", err)
			}

			if outputJSON {
				return printJSON(ideas)
			}

			if len(ideas) == 0 {
				fmt.Println("No ideas yet. Start with 'ideaforge run'.")
				return nil
			}
			for _, idea := range ideas {
				fmt.Printf("%s  %-15s  %.2f  %s\n", idea.ID, idea.Classification, idea.Confidence, idea.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only list ideas from this run")

	return cmd
}

// RateCmd creates the rate command.
func RateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <idea-id> <rating>",
		Short: "Rate a composed idea from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a number between 1 and 5")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Post("/ideas/"+args[0]+"/feedback", map[string]int{"rating": rating}); err != nil {
				return fmt.Errorf("failed to record rating: %w", err)
			}

			fmt.Printf("Rated %s: %d/5\n", args[0], rating)
			return nil
		},
	}
}
