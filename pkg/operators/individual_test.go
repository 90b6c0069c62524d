package operators_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/operators"
)

func TestIndividualOpWrapsEstimator(t *testing.T) {
	t.Parallel()

	op := operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil)

	assert.Equal(t, "scale", op.Name())
	assert.IsType(t, &estimators.StandardScaler{}, op.Impl())
	assert.Equal(t, map[string]any{"with_mean": true, "with_std": true}, op.Params())
}

func TestIndividualOpSetParams(t *testing.T) {
	t.Parallel()

	schema := operators.Schema{
		{Name: "k", Kind: operators.KindInt, Default: 3, Min: 1, Max: 15, HasRange: true},
	}
	op := operators.NewIndividualOp("knn", estimators.NewKNNClassifier(), schema)

	tcs := map[string]struct {
		params  map[string]any
		wantErr error
	}{
		"valid":         {params: map[string]any{"k": 5}},
		"unknown param": {params: map[string]any{"gamma": 1}, wantErr: operators.ErrUnknownParam},
		"out of range":  {params: map[string]any{"k": 100}, wantErr: operators.ErrInvalidParam},
		"wrong kind":    {params: map[string]any{"k": "five"}, wantErr: operators.ErrInvalidParam},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := op.WithName("knn").SetParams(tc.params)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)

				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestIndividualOpFit(t *testing.T) {
	t.Parallel()

	op := operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil)

	trained, err := op.Fit(context.Background(), estimators.Matrix{{1}, {3}}, nil)
	require.NoError(t, err)

	got, err := trained.Transform(context.Background(), estimators.Matrix{{1}, {3}})
	require.NoError(t, err)
	assert.InDelta(t, -1, got[0][0], 1e-9)
	assert.InDelta(t, 1, got[1][0], 1e-9)

	// the prototype never trains, fitting works on a clone
	assert.False(t, op.Impl().Fitted())
}

func TestIndividualOpFitCancelled(t *testing.T) {
	t.Parallel()

	op := operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := op.Fit(ctx, estimators.Matrix{{1}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainedOpCloneDropsState(t *testing.T) {
	t.Parallel()

	op := operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil)
	require.NoError(t, op.SetParams(map[string]any{"with_mean": false}))

	trained, err := op.Fit(context.Background(), estimators.Matrix{{1}, {3}}, nil)
	require.NoError(t, err)

	trainedOp, ok := trained.(*operators.TrainedIndividualOp)
	require.True(t, ok)
	assert.True(t, trainedOp.Impl().Fitted())

	clone := trainedOp.Clone()
	assert.False(t, clone.Impl().Fitted())
	assert.Equal(t, trainedOp.Params(), clone.Params())
	assert.Equal(t, trainedOp.Name(), clone.Name())
}

func TestTrainedOpPredictorRejectsTransform(t *testing.T) {
	t.Parallel()

	op := operators.NewIndividualOp("linreg", estimators.NewLinearRegression(), nil)

	trained, err := op.Fit(context.Background(), estimators.Matrix{{1}, {2}}, estimators.Vector{1, 2})
	require.NoError(t, err)

	_, err = trained.Transform(context.Background(), estimators.Matrix{{1}})
	assert.ErrorIs(t, err, operators.ErrNotATransformer)

	got, err := trained.Predict(context.Background(), estimators.Matrix{{3}})
	require.NoError(t, err)
	assert.InDelta(t, 3, got[0], 1e-6)
}

func TestTrainedOpTransformerRejectsPredict(t *testing.T) {
	t.Parallel()

	op := operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil)

	trained, err := op.Fit(context.Background(), estimators.Matrix{{1}, {2}}, nil)
	require.NoError(t, err)

	_, err = trained.Predict(context.Background(), estimators.Matrix{{1}})
	assert.ErrorIs(t, err, operators.ErrNotAPredictor)
}
