// Package metrics scores predictions with monoid-shaped metric states:
// every batch lifts into a State, states combine associatively, and the
// final state yields the score. The algebra makes batched and parallel
// scoring exact rather than approximate.
package metrics

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/operators"
)

var (
	ErrEmptyInput     = errors.New("no observations to score")
	ErrLengthMismatch = errors.New("y_true and y_pred must have the same length")
	ErrStateMismatch  = errors.New("cannot combine states of different metrics")
	ErrConstantTarget = errors.New("r2 is undefined for a constant target")
	ErrUnknownScorer  = errors.New("unknown scorer")
)

// State is the partial result of a metric over some observations. States
// of the same metric combine associatively; Result folds a state into the
// final score.
type State interface {
	Combine(other State) (State, error)
	Result() (float64, error)
}

// AccuracyState counts label matches.
type AccuracyState struct {
	Match int64
	Total int64
}

func (s AccuracyState) Combine(other State) (State, error) {
	o, ok := other.(AccuracyState)
	if !ok {
		return nil, errors.Wrapf(ErrStateMismatch, "accuracy with %T", other)
	}

	return AccuracyState{Match: s.Match + o.Match, Total: s.Total + o.Total}, nil
}

func (s AccuracyState) Result() (float64, error) {
	if s.Total == 0 {
		return 0, ErrEmptyInput
	}

	return float64(s.Match) / float64(s.Total), nil
}

// R2State carries the sufficient statistics of the coefficient of
// determination: observation count, target sum, target sum of squares and
// residual sum of squares.
type R2State struct {
	N        int64
	Sum      float64
	SumSq    float64
	ResSumSq float64
}

func (s R2State) Combine(other State) (State, error) {
	o, ok := other.(R2State)
	if !ok {
		return nil, errors.Wrapf(ErrStateMismatch, "r2 with %T", other)
	}

	return R2State{
		N:        s.N + o.N,
		Sum:      s.Sum + o.Sum,
		SumSq:    s.SumSq + o.SumSq,
		ResSumSq: s.ResSumSq + o.ResSumSq,
	}, nil
}

func (s R2State) Result() (float64, error) {
	if s.N == 0 {
		return 0, ErrEmptyInput
	}

	// computational form of the total sum of squares
	ssTot := s.SumSq - s.Sum*s.Sum/float64(s.N)
	if ssTot == 0 {
		return 0, ErrConstantTarget
	}

	return 1 - s.ResSumSq/ssTot, nil
}

// Batch pairs observed and predicted targets for batched scoring.
type Batch struct {
	YTrue estimators.Vector
	YPred estimators.Vector
}

// Scorer lifts batches of observations into metric states and folds them
// into scores.
type Scorer struct {
	name string
	lift func(yTrue, yPred estimators.Vector) State
}

// Name returns the registry name of the scorer.
func (s *Scorer) Name() string { return s.name }

// ToState lifts one batch into a metric state.
func (s *Scorer) ToState(yTrue, yPred estimators.Vector) (State, error) {
	if len(yTrue) != len(yPred) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d and %d", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, ErrEmptyInput
	}

	return s.lift(yTrue, yPred), nil
}

// ScoreData scores predictions against observed targets.
func (s *Scorer) ScoreData(yTrue, yPred estimators.Vector) (float64, error) {
	state, err := s.ToState(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	return state.Result()
}

// ScoreEstimator predicts with a trained operator and scores the result.
func (s *Scorer) ScoreEstimator(ctx context.Context, op operators.TrainedOperator, x estimators.Matrix, y estimators.Vector) (float64, error) {
	yPred, err := op.Predict(ctx, x)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to score %s", op.Name())
	}

	return s.ScoreData(y, yPred)
}

// ScoreBatched folds metric states over a channel of batches.
func (s *Scorer) ScoreBatched(ctx context.Context, batches <-chan Batch) (float64, error) {
	var acc State
	for {
		select {
		case <-ctx.Done():
			return 0, errors.Wrap(ctx.Err(), "batched scoring interrupted")
		case batch, ok := <-batches:
			if !ok {
				if acc == nil {
					return 0, ErrEmptyInput
				}

				return acc.Result()
			}
			state, err := s.ToState(batch.YTrue, batch.YPred)
			if err != nil {
				return 0, err
			}
			if acc == nil {
				acc = state

				continue
			}
			acc, err = acc.Combine(state)
			if err != nil {
				return 0, err
			}
		}
	}
}

// ScoreBatchedParallel folds per-worker states concurrently and combines
// them at the end; associativity of Combine keeps the result exact.
func (s *Scorer) ScoreBatchedParallel(ctx context.Context, batches <-chan Batch, workers int) (float64, error) {
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	var acc State

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(workers)
	for i := 0; i < workers; i++ {
		errGrp.Go(func() error {
			var local State
			for {
				select {
				case <-dCtx.Done():
					return errors.Wrap(dCtx.Err(), "batched scoring interrupted")
				case batch, ok := <-batches:
					if !ok {
						if local == nil {
							return nil
						}
						mu.Lock()
						defer mu.Unlock()
						if acc == nil {
							acc = local

							return nil
						}
						combined, err := acc.Combine(local)
						if err != nil {
							return err
						}
						acc = combined

						return nil
					}
					state, err := s.ToState(batch.YTrue, batch.YPred)
					if err != nil {
						return err
					}
					if local == nil {
						local = state

						continue
					}
					local, err = local.Combine(state)
					if err != nil {
						return err
					}
				}
			}
		})
	}
	if err := errGrp.Wait(); err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, ErrEmptyInput
	}

	return acc.Result()
}

func liftAccuracy(yTrue, yPred estimators.Vector) State {
	state := AccuracyState{Total: int64(len(yTrue))}
	for i, observed := range yTrue {
		if observed == yPred[i] {
			state.Match++
		}
	}

	return state
}

func liftR2(yTrue, yPred estimators.Vector) State {
	state := R2State{N: int64(len(yTrue))}
	for i, observed := range yTrue {
		state.Sum += observed
		state.SumSq += observed * observed
		residual := observed - yPred[i]
		state.ResSumSq += residual * residual
	}

	return state
}

var scorers = struct {
	mu    sync.Mutex
	cache map[string]*Scorer
}{cache: make(map[string]*Scorer)}

// Get returns the named scorer ("accuracy" or "r2"), caching instances.
func Get(name string) (*Scorer, error) {
	scorers.mu.Lock()
	defer scorers.mu.Unlock()

	if scorer, ok := scorers.cache[name]; ok {
		return scorer, nil
	}

	var lift func(yTrue, yPred estimators.Vector) State
	switch name {
	case "accuracy":
		lift = liftAccuracy
	case "r2":
		lift = liftR2
	default:
		return nil, errors.Wrap(ErrUnknownScorer, name)
	}

	scorer := &Scorer{name: name, lift: lift}
	scorers.cache[name] = scorer

	return scorer, nil
}

// AccuracyScore scores classification predictions directly.
func AccuracyScore(yTrue, yPred estimators.Vector) (float64, error) {
	scorer, err := Get("accuracy")
	if err != nil {
		return 0, err
	}

	return scorer.ScoreData(yTrue, yPred)
}

// R2Score scores regression predictions directly.
func R2Score(yTrue, yPred estimators.Vector) (float64, error) {
	scorer, err := Get("r2")
	if err != nil {
		return 0, err
	}

	return scorer.ScoreData(yTrue, yPred)
}
