package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/braidml/braid/pkg/blueprint"
	"github.com/braidml/braid/pkg/dataset"
	"github.com/braidml/braid/pkg/drawer"
	"github.com/braidml/braid/pkg/experiment"
	"github.com/braidml/braid/pkg/metrics"
	"github.com/braidml/braid/pkg/observe"
	"github.com/braidml/braid/pkg/operators"
	"github.com/braidml/braid/pkg/search"
)

var (
	trainData        string
	trainTarget      string
	trainParallelism int
	trainScorer      string
	trainHoldout     float64
	trainSeed        int64
	trainDraw        string
	trainMetricsOut  string
	trainMetricsAddr string
)

var trainCmd = &cobra.Command{
	Use:   "train <blueprint.yaml>",
	Short: "Train a blueprint pipeline on a CSV dataset",
	Long: `Train builds the pipeline a blueprint describes, fits it on the given
dataset and reports per-step timings. Blueprints holding choices cannot be
trained directly; resolve them with the search command first.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&trainData, "data", "", "CSV dataset to train on (required)")
	trainCmd.Flags().StringVar(&trainTarget, "target", "", "name of the target column (required)")
	trainCmd.Flags().IntVar(&trainParallelism, "parallelism", 1, "max steps fitted concurrently")
	trainCmd.Flags().StringVar(&trainScorer, "scorer", "", "report a score: accuracy or r2")
	trainCmd.Flags().Float64Var(&trainHoldout, "holdout", 0, "score on a held-out fraction instead of the training data")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "seed for the holdout split")
	trainCmd.Flags().StringVar(&trainDraw, "draw", "", "write a DOT rendering of the trained pipeline to this file")
	trainCmd.Flags().StringVar(&trainMetricsOut, "metrics-out", "", "write a Prometheus text snapshot to this file")
	trainCmd.Flags().StringVar(&trainMetricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address during training")

	_ = trainCmd.MarkFlagRequired("data")
	_ = trainCmd.MarkFlagRequired("target")
}

type trainReport struct {
	Pipeline string           `json:"pipeline"`
	Duration string           `json:"duration"`
	Score    *float64         `json:"score,omitempty"`
	Steps    []trainStepEntry `json:"steps"`
}

type trainStepEntry struct {
	Step  string `json:"step"`
	Impl  string `json:"impl"`
	Count int64  `json:"count"`
	AVG   string `json:"avg_duration"`
}

func runTrain(cmd *cobra.Command, args []string) error {
	spec, err := blueprint.Load(args[0])
	if err != nil {
		return err
	}
	op, err := spec.Build()
	if err != nil {
		return err
	}
	if operators.ContainsChoice(op) {
		return fmt.Errorf("blueprint %s holds choices, use the search command", args[0])
	}
	trainable, ok := op.(operators.TrainableOperator)
	if !ok {
		return operators.ErrNotTrainable
	}

	ds, err := dataset.Load(trainData, trainTarget)
	if err != nil {
		return err
	}
	fitSet, scoreSet := ds, ds
	if trainHoldout > 0 {
		rng := rand.New(rand.NewSource(trainSeed))
		fitSet, scoreSet, err = ds.Split(rng, trainHoldout)
		if err != nil {
			return err
		}
	}

	measure := observe.NewMeasure()
	observers := observe.MultiObserver{measure}

	var prom *observe.PromObserver
	if trainMetricsOut != "" || trainMetricsAddr != "" {
		prom = observe.NewPromObserver(nil)
		observers = append(observers, prom)
	}
	if trainMetricsAddr != "" {
		go func() {
			handler := promhttp.HandlerFor(prom.Registry(), promhttp.HandlerOpts{})
			if err := http.ListenAndServe(trainMetricsAddr, handler); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	trained, err := trainable.Fit(cmd.Context(), fitSet.X, fitSet.Y,
		operators.WithObserver(observers),
		operators.WithParallelism(trainParallelism),
	)
	if err != nil {
		return err
	}

	report := trainReport{
		Pipeline: op.Name(),
		Duration: measure.TotalFitDuration().String(),
	}
	for name, stats := range measure.AllSteps() {
		report.Steps = append(report.Steps, trainStepEntry{
			Step:  name,
			Impl:  stats.Impl,
			Count: stats.Count,
			AVG:   stats.AVGDuration().String(),
		})
	}
	sort.Slice(report.Steps, func(i, j int) bool { return report.Steps[i].Step < report.Steps[j].Step })

	if trainScorer != "" {
		scorer, err := metrics.Get(trainScorer)
		if err != nil {
			return err
		}
		score, err := scorer.ScoreEstimator(cmd.Context(), trained, scoreSet.X, scoreSet.Y)
		if err != nil {
			return err
		}
		report.Score = &score

		if DBPath() != "" {
			if err := recordTrainTrial(cmd.Context(), op, score, measure); err != nil {
				return err
			}
		}
	}

	if trainDraw != "" {
		trainedOp, ok := trained.(operators.Operator)
		if !ok {
			return fmt.Errorf("trained pipeline cannot be drawn")
		}
		if err := drawer.NewDOTDrawer(drawer.WithMeasure(measure)).DrawFile(trainedOp, trainDraw); err != nil {
			return err
		}
	}
	if trainMetricsOut != "" {
		if err := writeMetricsSnapshot(prom, trainMetricsOut); err != nil {
			return err
		}
	}

	return printTrainReport(report)
}

func recordTrainTrial(ctx context.Context, op operators.Operator, score float64, measure *observe.Measure) error {
	store, err := experiment.Open(DBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	var params map[string]any
	if po, ok := op.(operators.ParamOperator); ok {
		params = po.Params()
	}

	return store.Record(ctx, search.Trial{
		Operator:    op.Name(),
		Params:      params,
		Scorer:      trainScorer,
		Score:       score,
		FitDuration: measure.TotalFitDuration(),
	})
}

func writeMetricsSnapshot(prom *observe.PromObserver, path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fd.Close()

	return prom.WriteSnapshot(fd)
}

func printTrainReport(report trainReport) error {
	if IsJSONOutput() {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		return nil
	}

	fmt.Printf("Trained %s in %s\n\n", report.Pipeline, report.Duration)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Step", "Impl", "Fits", "Avg duration")
	for _, step := range report.Steps {
		table.Append(step.Step, step.Impl, fmt.Sprintf("%d", step.Count), step.AVG)
	}
	table.Render()

	if report.Score != nil {
		fmt.Printf("\nTraining %s: %.4f\n", trainScorer, *report.Score)
	}

	return nil
}
