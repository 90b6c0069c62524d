package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/braidml/braid/pkg/experiment"
)

var (
	trialsLimit      int
	trialsBestScorer string
)

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "List recorded search trials",
	RunE:  runTrialsList,
}

var trialsBestCmd = &cobra.Command{
	Use:   "best",
	Short: "Show the best recorded trial for a scorer",
	RunE:  runTrialsBest,
}

func init() {
	rootCmd.AddCommand(trialsCmd)
	trialsCmd.AddCommand(trialsBestCmd)

	trialsCmd.PersistentFlags().IntVar(&trialsLimit, "limit", 50, "max trials to list")
	trialsBestCmd.Flags().StringVar(&trialsBestScorer, "scorer", "accuracy", "scorer: accuracy or r2")
}

func openStore() (*experiment.Store, error) {
	if DBPath() == "" {
		return nil, errors.New("no trial database configured, set --db or the BRAID_DB environment variable")
	}

	return experiment.Open(DBPath())
}

func runTrialsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	trials, err := store.List(cmd.Context(), trialsLimit)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		out, err := json.MarshalIndent(trials, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		return nil
	}

	if len(trials) == 0 {
		fmt.Println("No trials recorded")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "When", "Candidate", "Scorer", "Score", "Fit", "Peak RSS", "Error")
	for _, trial := range trials {
		score := fmt.Sprintf("%.4f", trial.Score)
		if trial.Error != "" {
			score = "-"
		}
		table.Append(
			fmt.Sprintf("%d", trial.ID),
			trial.CreatedAt.Format(time.RFC3339),
			trial.Operator,
			trial.Scorer,
			score,
			trial.FitDuration.Round(time.Microsecond).String(),
			formatBytes(trial.PeakRSSBytes),
			trial.Error,
		)
	}
	table.Render()

	return nil
}

func runTrialsBest(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	trial, err := store.Best(cmd.Context(), trialsBestScorer)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		out, err := json.MarshalIndent(trial, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		return nil
	}

	params, err := json.Marshal(trial.Params)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	table.Append("ID", fmt.Sprintf("%d", trial.ID))
	table.Append("When", trial.CreatedAt.Format(time.RFC3339))
	table.Append("Candidate", trial.Operator)
	table.Append("Scorer", trial.Scorer)
	table.Append("Score", fmt.Sprintf("%.4f", trial.Score))
	table.Append("Fit duration", trial.FitDuration.Round(time.Microsecond).String())
	table.Append("Peak RSS", formatBytes(trial.PeakRSSBytes))
	table.Append("CPU", fmt.Sprintf("%.1f%%", trial.CPUPercent))
	table.Append("Params", string(params))
	table.Render()

	return nil
}

func formatBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
