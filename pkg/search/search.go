// Package search runs randomized pipeline search: candidates come from a
// grammar or from resolving the choices of a planned operator,
// hyperparameters are sampled from the catalog descriptors, and every
// trial fits on a training fold and scores on a holdout.
package search

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/grammar"
	"github.com/braidml/braid/pkg/metrics"
	"github.com/braidml/braid/pkg/observe"
	"github.com/braidml/braid/pkg/operators"
)

var (
	ErrNoSpace     = errors.New("either Space or Grammar must be set")
	ErrNoScorer    = errors.New("scorer must be set")
	ErrNoBestTrial = errors.New("no trial produced a score")
)

// Trial is the outcome of fitting and scoring one sampled candidate.
type Trial struct {
	Index       int
	Operator    string
	Params      map[string]any
	Scorer      string
	Score       float64
	FitDuration time.Duration
	Err         error
}

// Recorder persists finished trials; the experiment store implements it.
type Recorder interface {
	Record(ctx context.Context, trial Trial) error
}

// Result carries the best trained candidate and every trial.
type Result struct {
	Best      operators.TrainedOperator
	BestTrial Trial
	Trials    []Trial
}

// RandomSearch samples, fits and scores candidate pipelines.
type RandomSearch struct {
	// Space is a planned operator that may contain choices. Ignored when
	// Grammar is set.
	Space operators.Operator
	// Grammar, when set, derives candidates through Grammar.Sample.
	Grammar      *grammar.Grammar
	GrammarDepth int

	Scorer          *metrics.Scorer
	Trials          int
	Parallelism     int
	Seed            int64
	HoldoutFraction float64

	Recorder Recorder
	Observer observe.Observer
}

const (
	defaultTrials       = 10
	defaultHoldout      = 0.25
	defaultGrammarDepth = 5
)

// Run executes the search. Failed candidates record their error and do not
// abort the remaining trials; the context does.
func (s *RandomSearch) Run(ctx context.Context, x estimators.Matrix, y estimators.Vector) (*Result, error) {
	if s.Space == nil && s.Grammar == nil {
		return nil, ErrNoSpace
	}
	if s.Scorer == nil {
		return nil, ErrNoScorer
	}

	trials := s.Trials
	if trials <= 0 {
		trials = defaultTrials
	}
	holdout := s.HoldoutFraction
	if holdout <= 0 || holdout >= 1 {
		holdout = defaultHoldout
	}
	depth := s.GrammarDepth
	if depth <= 0 {
		depth = defaultGrammarDepth
	}
	parallelism := s.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	splitRng := rand.New(rand.NewSource(s.Seed))
	train, test, err := estimators.Dataset{X: x, Y: y}.Split(splitRng, holdout)
	if err != nil {
		return nil, errors.Wrap(err, "unable to split dataset")
	}

	result := &Result{Trials: make([]Trial, trials)}
	var mu sync.Mutex
	best := -1

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(parallelism)
	for idx := 0; idx < trials; idx++ {
		idx := idx
		errGrp.Go(func() error {
			if err := dCtx.Err(); err != nil {
				return errors.Wrapf(err, "trial %d", idx)
			}

			// one rng per trial keeps sampling deterministic under parallelism
			rng := rand.New(rand.NewSource(s.Seed + int64(idx)))
			trial, trained := s.runTrial(dCtx, idx, rng, depth, train, test)

			if s.Recorder != nil {
				if err := s.Recorder.Record(dCtx, trial); err != nil {
					return errors.Wrapf(err, "unable to record trial %d", idx)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			result.Trials[idx] = trial
			// equal scores resolve to the lowest trial index, so the winner
			// does not depend on goroutine scheduling
			betterScore := trial.Score > result.BestTrial.Score ||
				(trial.Score == result.BestTrial.Score && idx < best)
			if trial.Err == nil && (best == -1 || betterScore) {
				best = idx
				result.BestTrial = trial
				result.Best = trained
			}

			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		return nil, err
	}

	if best == -1 {
		return result, ErrNoBestTrial
	}

	return result, nil
}

func (s *RandomSearch) runTrial(ctx context.Context, idx int, rng *rand.Rand, depth int, train, test estimators.Dataset) (Trial, operators.TrainedOperator) {
	trial := Trial{Index: idx}
	if s.Scorer != nil {
		trial.Scorer = s.Scorer.Name()
	}

	candidate, err := s.deriveCandidate(rng, depth)
	if err != nil {
		trial.Err = err

		return trial, nil
	}
	trial.Operator = candidate.Name()

	if err := SampleParams(rng, candidate); err != nil {
		trial.Err = err

		return trial, nil
	}
	if po, ok := candidate.(operators.ParamOperator); ok {
		trial.Params = po.Params()
	}

	trainable, ok := candidate.(operators.TrainableOperator)
	if !ok {
		trial.Err = errors.Wrap(operators.ErrNotTrainable, candidate.Name())

		return trial, nil
	}

	fitOpts := []operators.FitOption{}
	if s.Observer != nil {
		fitOpts = append(fitOpts, operators.WithObserver(s.Observer))
	}

	start := time.Now()
	trained, err := trainable.Fit(ctx, train.X, train.Y, fitOpts...)
	trial.FitDuration = time.Since(start)
	if err != nil {
		trial.Err = err

		return trial, nil
	}

	score, err := s.Scorer.ScoreEstimator(ctx, trained, test.X, test.Y)
	if err != nil {
		trial.Err = err

		return trial, nil
	}
	trial.Score = score

	return trial, trained
}

func (s *RandomSearch) deriveCandidate(rng *rand.Rand, depth int) (operators.Operator, error) {
	if s.Grammar != nil {
		return s.Grammar.Sample(rng, depth)
	}

	return ResolveChoices(rng, s.Space)
}

// ResolveChoices returns a concrete copy of the operator with every choice
// replaced by one of its alternatives, picked with rng.
func ResolveChoices(rng *rand.Rand, op operators.Operator) (operators.Operator, error) {
	switch v := op.(type) {
	case *operators.Choice:
		alternatives := v.Alternatives()

		return ResolveChoices(rng, alternatives[rng.Intn(len(alternatives))])
	case *operators.Pipeline:
		steps := v.Steps()
		stepMap := make(map[string]operators.Operator, len(steps))
		newSteps := make([]operators.Operator, len(steps))
		for i, step := range steps {
			resolved, err := ResolveChoices(rng, step)
			if err != nil {
				return nil, err
			}
			stepMap[step.Name()] = resolved
			newSteps[i] = resolved
		}
		edges := make([]operators.Edge, 0, len(v.Edges()))
		for _, edge := range v.Edges() {
			edges = append(edges, operators.Edge{
				Source: stepMap[edge.Source].Name(),
				Target: stepMap[edge.Target].Name(),
			})
		}

		return operators.NewDAG(newSteps, edges)
	}

	return operators.Clone(op), nil
}

// SampleParams draws a value for every described hyperparameter of every
// individual op inside the operator.
func SampleParams(rng *rand.Rand, op operators.Operator) error {
	switch v := op.(type) {
	case *operators.IndividualOp:
		params := make(map[string]any)
		for _, descriptor := range v.Schema() {
			value, ok := sampleDescriptor(rng, descriptor)
			if !ok {
				continue
			}
			params[descriptor.Name] = value
		}
		if len(params) == 0 {
			return nil
		}

		return v.SetParams(params)
	case *operators.Pipeline:
		for _, step := range v.Steps() {
			if err := SampleParams(rng, step); err != nil {
				return err
			}
		}
	}

	return nil
}

func sampleDescriptor(rng *rand.Rand, descriptor operators.ParamDescriptor) (any, bool) {
	switch descriptor.Kind {
	case operators.KindBool:
		return rng.Intn(2) == 0, true
	case operators.KindInt:
		if !descriptor.HasRange {
			return descriptor.Default, descriptor.Default != nil
		}
		low, high := int(descriptor.Min), int(descriptor.Max)

		return low + rng.Intn(high-low+1), true
	case operators.KindFloat:
		if !descriptor.HasRange {
			return descriptor.Default, descriptor.Default != nil
		}

		return descriptor.Min + rng.Float64()*(descriptor.Max-descriptor.Min), true
	case operators.KindEnum:
		if len(descriptor.Enum) == 0 {
			return nil, false
		}

		return descriptor.Enum[rng.Intn(len(descriptor.Enum))], true
	}

	return nil, false
}
