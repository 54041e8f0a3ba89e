package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// GoalRequest is one strategic goal in a run request.
type GoalRequest struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// CreateRunRequest is the POST /runs request body.
type CreateRunRequest struct {
	Goals []GoalRequest `json:"goals,omitempty"`
}

// IdeaResult is one composed idea in a run report.
type IdeaResult struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Tags              []string  `json:"tags,omitempty"`
	BusinessValueNote string    `json:"business_value"`
	Confidence        float64   `json:"confidence"`
	SourceRefs        []string  `json:"source_refs,omitempty"`
	Classification    string    `json:"classification"`
	BestMatchID       string    `json:"best_match_id,omitempty"`
	SimilarityScore   float64   `json:"similarity_score,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// RunResult is a run report as returned by the API.
type RunResult struct {
	RunID          string       `json:"run_id"`
	State          string       `json:"state"`
	PartialFailure bool         `json:"partial_failure"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	Ideas          []IdeaResult `json:"ideas"`
	DiscardedCount int          `json:"discarded_count"`
}

// RunListResult is one page of run reports as returned by the API.
type RunListResult struct {
	Items   []RunResult `json:"items"`
	Cursor  string      `json:"cursor,omitempty"`
	HasMore bool        `json:"has_more"`
}

// RunCmd creates the run command.
func RunCmd() *cobra.Command {
	var goals []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an idea generation run",
		Long:  "Triggers a pipeline run on the server and prints the resulting ideas.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runRun(cmd, goals, outputJSON)
		},
	}

	cmd.Flags().StringArrayVarP(&goals, "goal", "g", nil, "Strategic goal to steer generation (repeatable)")

	return cmd
}

func runRun(cmd *cobra.Command, goals []string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := CreateRunRequest{}
	for _, g := range goals {
		req.Goals = append(req.Goals, GoalRequest{Text: g})
	}

	resp, err := api.Post("/runs", req)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	var result RunResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse run report: %w", err)
	}

	if outputJSON {
		return printJSON(result)
	}

	printRun(&result)
	return nil
}

func printRun(r *RunResult) {
	fmt.Printf("Run %s (%s)\n", r.RunID, r.State)
	if r.PartialFailure {
		fmt.Println("Warning: some input sources were unavailable")
	}
	fmt.Printf("%d ideas composed, %d duplicates discarded\n\n", len(r.Ideas), r.DiscardedCount)

	for i, idea := range r.Ideas {
		fmt.Printf("%d. %s  [%s, confidence %.2f]\n", i+1, idea.Title, idea.Classification, idea.Confidence)
		fmt.Printf("   %s\n", idea.Description)
		fmt.Printf("   Value: %s\n", idea.BusinessValueNote)
		if idea.Classification == "merge_candidate" {
			fmt.Printf("   Overlaps %s (similarity %.2f)\n", idea.BestMatchID, idea.SimilarityScore)
		}
		if len(idea.Tags) > 0 {
			fmt.Printf("   Tags: %s\n", strings.Join(idea.Tags, ", "))
		}
		fmt.Println()
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
