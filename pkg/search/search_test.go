package search_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/metrics"
	"github.com/braidml/braid/pkg/operators"
	"github.com/braidml/braid/pkg/ops"
	"github.com/braidml/braid/pkg/search"
)

// two well-separated clusters, labels 0 and 1
func classificationData(t *testing.T) (estimators.Matrix, estimators.Vector) {
	t.Helper()

	var x estimators.Matrix
	var y estimators.Vector
	for i := 0; i < 20; i++ {
		x = append(x, []float64{float64(i) / 10, float64(i) / 20})
		y = append(y, 0)
		x = append(x, []float64{10 + float64(i)/10, 5 + float64(i)/20})
		y = append(y, 1)
	}

	return x, y
}

func classifierSpace(t *testing.T) operators.Operator {
	t.Helper()

	model, err := operators.MakeChoice(ops.KNNClassifier(), ops.LogisticRegression())
	require.NoError(t, err)

	space, err := operators.MakePipeline(ops.StandardScaler(), model.WithName("model"))
	require.NoError(t, err)

	return space
}

func mustScorer(t *testing.T, name string) *metrics.Scorer {
	t.Helper()

	scorer, err := metrics.Get(name)
	require.NoError(t, err)

	return scorer
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	scorer := mustScorer(t, "accuracy")

	_, err := (&search.RandomSearch{Scorer: scorer}).Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, search.ErrNoSpace)

	_, err = (&search.RandomSearch{Space: ops.KNNClassifier()}).Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, search.ErrNoScorer)
}

func TestRunFindsGoodCandidate(t *testing.T) {
	t.Parallel()

	x, y := classificationData(t)

	rs := &search.RandomSearch{
		Space:  classifierSpace(t),
		Scorer: mustScorer(t, "accuracy"),
		Trials: 8,
		Seed:   3,
	}

	result, err := rs.Run(context.Background(), x, y)
	require.NoError(t, err)
	require.NotNil(t, result.Best)
	assert.Len(t, result.Trials, 8)
	// the clusters are trivially separable
	assert.Greater(t, result.BestTrial.Score, 0.9)
	assert.NotEmpty(t, result.BestTrial.Operator)
	assert.NotEmpty(t, result.BestTrial.Params)
}

func TestRunIsDeterministicPerSeed(t *testing.T) {
	t.Parallel()

	x, y := classificationData(t)

	run := func(parallelism int) *search.Result {
		rs := &search.RandomSearch{
			Space:       classifierSpace(t),
			Scorer:      mustScorer(t, "accuracy"),
			Trials:      6,
			Seed:        11,
			Parallelism: parallelism,
		}
		result, err := rs.Run(context.Background(), x, y)
		require.NoError(t, err)

		return result
	}

	sequential := run(1)
	parallel := run(4)

	require.Len(t, parallel.Trials, len(sequential.Trials))
	for i := range sequential.Trials {
		assert.Equal(t, sequential.Trials[i].Operator, parallel.Trials[i].Operator)
		assert.InDelta(t, sequential.Trials[i].Score, parallel.Trials[i].Score, 1e-9)
	}
	assert.Equal(t, sequential.BestTrial.Index, parallel.BestTrial.Index)
}

func TestRunTieBreaksByTrialIndex(t *testing.T) {
	t.Parallel()

	x, y := classificationData(t)

	// no schema means no parameter sampling: every trial fits the same
	// candidate and ties at the same score
	space := operators.NewIndividualOp("knn", estimators.NewKNNClassifier(), nil)

	for i := 0; i < 10; i++ {
		rs := &search.RandomSearch{
			Space:       space,
			Scorer:      mustScorer(t, "accuracy"),
			Trials:      6,
			Seed:        7,
			Parallelism: 4,
		}

		result, err := rs.Run(context.Background(), x, y)
		require.NoError(t, err)
		assert.Equal(t, 0, result.BestTrial.Index)
	}
}

func TestRunRecordsFailedTrials(t *testing.T) {
	t.Parallel()

	x, y := classificationData(t)

	// every sampled k exceeds the training rows, so every fit fails
	schema := operators.Schema{
		{Name: "k", Kind: operators.KindInt, Default: 500, Min: 500, Max: 600, HasRange: true},
	}
	knn := estimators.NewKNNClassifier()
	knn.K = 500
	space := operators.NewIndividualOp("knn", knn, schema)

	rs := &search.RandomSearch{
		Space:  space,
		Scorer: mustScorer(t, "accuracy"),
		Trials: 3,
		Seed:   1,
	}

	result, err := rs.Run(context.Background(), x, y)
	assert.ErrorIs(t, err, search.ErrNoBestTrial)
	require.Len(t, result.Trials, 3)
	for _, trial := range result.Trials {
		assert.ErrorIs(t, trial.Err, estimators.ErrNotEnoughSamples)
	}
}

type memoryRecorder struct {
	mu     sync.Mutex
	trials []search.Trial
}

func (r *memoryRecorder) Record(_ context.Context, trial search.Trial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trials = append(r.trials, trial)

	return nil
}

func TestRunCallsRecorder(t *testing.T) {
	t.Parallel()

	x, y := classificationData(t)

	recorder := &memoryRecorder{}
	rs := &search.RandomSearch{
		Space:    classifierSpace(t),
		Scorer:   mustScorer(t, "accuracy"),
		Trials:   4,
		Seed:     5,
		Recorder: recorder,
	}

	_, err := rs.Run(context.Background(), x, y)
	require.NoError(t, err)
	assert.Len(t, recorder.trials, 4)
}

func TestResolveChoices(t *testing.T) {
	t.Parallel()

	space := classifierSpace(t)
	require.True(t, operators.ContainsChoice(space))

	rng := rand.New(rand.NewSource(2))
	resolved, err := search.ResolveChoices(rng, space)
	require.NoError(t, err)
	assert.False(t, operators.ContainsChoice(resolved))

	pipe, ok := resolved.(*operators.Pipeline)
	require.True(t, ok)
	assert.Len(t, pipe.Steps(), 2)
}

func TestSampleParamsRespectsSchema(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(9))

	for i := 0; i < 20; i++ {
		op := ops.KNNClassifier()
		require.NoError(t, search.SampleParams(rng, op))

		k, ok := op.Params()["k"].(int)
		require.True(t, ok)
		assert.GreaterOrEqual(t, k, 1)
		assert.LessOrEqual(t, k, 15)
	}
}
