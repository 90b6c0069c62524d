package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/braidml/braid/pkg/blueprint"
	"github.com/braidml/braid/pkg/dataset"
	"github.com/braidml/braid/pkg/experiment"
	"github.com/braidml/braid/pkg/metrics"
	"github.com/braidml/braid/pkg/search"
)

var (
	searchData        string
	searchTarget      string
	searchScorer      string
	searchTrials      int
	searchSeed        int64
	searchParallelism int
	searchHoldout     float64
)

var searchCmd = &cobra.Command{
	Use:   "search <blueprint.yaml>",
	Short: "Random-search over a blueprint's choices and parameters",
	Long: `Search samples candidate pipelines from the blueprint, resolving
choices and drawing parameter values from each operator's ranges, then fits
and scores every candidate on a holdout split. When --db is set, every trial
is recorded in the trial database.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchData, "data", "", "CSV dataset to search on (required)")
	searchCmd.Flags().StringVar(&searchTarget, "target", "", "name of the target column (required)")
	searchCmd.Flags().StringVar(&searchScorer, "scorer", "accuracy", "scorer: accuracy or r2")
	searchCmd.Flags().IntVar(&searchTrials, "trials", 10, "number of candidates to try")
	searchCmd.Flags().Int64Var(&searchSeed, "seed", 42, "random seed")
	searchCmd.Flags().IntVar(&searchParallelism, "parallelism", 1, "max trials run concurrently")
	searchCmd.Flags().Float64Var(&searchHoldout, "holdout", 0.25, "fraction of rows held out for scoring")

	_ = searchCmd.MarkFlagRequired("data")
	_ = searchCmd.MarkFlagRequired("target")
}

type searchReport struct {
	Scorer    string            `json:"scorer"`
	Best      string            `json:"best,omitempty"`
	BestScore float64           `json:"best_score,omitempty"`
	Trials    []searchTrialInfo `json:"trials"`
}

type searchTrialInfo struct {
	Index    int     `json:"index"`
	Operator string  `json:"operator"`
	Score    float64 `json:"score"`
	Duration string  `json:"fit_duration"`
	Error    string  `json:"error,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	spec, err := blueprint.Load(args[0])
	if err != nil {
		return err
	}
	space, err := spec.Build()
	if err != nil {
		return err
	}

	ds, err := dataset.Load(searchData, searchTarget)
	if err != nil {
		return err
	}

	scorer, err := metrics.Get(searchScorer)
	if err != nil {
		return err
	}

	rs := search.RandomSearch{
		Space:           space,
		Scorer:          scorer,
		Trials:          searchTrials,
		Parallelism:     searchParallelism,
		Seed:            searchSeed,
		HoldoutFraction: searchHoldout,
	}

	if DBPath() != "" {
		store, err := experiment.Open(DBPath())
		if err != nil {
			return err
		}
		defer store.Close()
		rs.Recorder = store
	}

	result, err := rs.Run(cmd.Context(), ds.X, ds.Y)
	if err != nil {
		return err
	}

	report := searchReport{
		Scorer:    searchScorer,
		Best:      result.BestTrial.Operator,
		BestScore: result.BestTrial.Score,
	}
	for _, trial := range result.Trials {
		info := searchTrialInfo{
			Index:    trial.Index,
			Operator: trial.Operator,
			Score:    trial.Score,
			Duration: trial.FitDuration.Round(time.Microsecond).String(),
		}
		if trial.Err != nil {
			info.Error = trial.Err.Error()
		}
		report.Trials = append(report.Trials, info)
	}

	if IsJSONOutput() {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Trial", "Candidate", "Score", "Fit", "Error")
	for _, trial := range report.Trials {
		score := fmt.Sprintf("%.4f", trial.Score)
		if trial.Error != "" {
			score = "-"
		}
		table.Append(fmt.Sprintf("%d", trial.Index), trial.Operator, score, trial.Duration, trial.Error)
	}
	table.Render()

	fmt.Printf("\nBest (%s=%.4f): %s\n", report.Scorer, report.BestScore, report.Best)

	return nil
}
