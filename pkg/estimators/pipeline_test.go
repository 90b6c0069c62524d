package estimators_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/pkg/estimators"
)

func TestNewPipelineErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		steps   []estimators.NamedStep
		wantErr error
	}{
		"empty": {
			wantErr: estimators.ErrEmptyPipeline,
		},
		"duplicate name": {
			steps: []estimators.NamedStep{
				{Name: "scale", Est: estimators.NewStandardScaler()},
				{Name: "scale", Est: estimators.NewMinMaxScaler()},
			},
			wantErr: estimators.ErrDuplicateStep,
		},
		"empty name": {
			steps: []estimators.NamedStep{
				{Name: "", Est: estimators.NewStandardScaler()},
			},
			wantErr: estimators.ErrStepName,
		},
		"name holds separator": {
			steps: []estimators.NamedStep{
				{Name: "scale__it", Est: estimators.NewStandardScaler()},
			},
			wantErr: estimators.ErrStepName,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := estimators.NewPipeline(tc.steps...)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestMakePipelineNames(t *testing.T) {
	t.Parallel()

	pipe, err := estimators.MakePipeline(
		estimators.NewStandardScaler(),
		estimators.NewStandardScaler(),
		estimators.NewLinearRegression(),
	)
	require.NoError(t, err)

	var names []string
	for _, step := range pipe.Steps() {
		names = append(names, step.Name)
	}
	assert.Equal(t, []string{"standardscaler", "standardscaler2", "linearregression"}, names)
}

func TestPipelineFitPredict(t *testing.T) {
	t.Parallel()

	pipe, err := estimators.MakePipeline(
		estimators.NewStandardScaler(),
		estimators.NewLinearRegression(),
	)
	require.NoError(t, err)
	assert.False(t, pipe.Fitted())

	x := estimators.Matrix{{0}, {1}, {2}, {3}}
	y := estimators.Vector{1, 3, 5, 7}
	require.NoError(t, pipe.Fit(x, y))
	assert.True(t, pipe.Fitted())

	got, err := pipe.Predict(estimators.Matrix{{2}})
	require.NoError(t, err)
	assert.InDelta(t, 5, got[0], 1e-6)
}

func TestPipelineParamsFlattening(t *testing.T) {
	t.Parallel()

	pipe, err := estimators.MakePipeline(
		estimators.NewStandardScaler(),
		estimators.NewKNNClassifier(),
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"standardscaler__with_mean": true,
		"standardscaler__with_std":  true,
		"knnclassifier__k":          3,
	}, pipe.Params())

	require.NoError(t, pipe.SetParams(map[string]any{
		"standardscaler__with_mean": false,
		"knnclassifier__k":          5,
	}))
	assert.Equal(t, false, pipe.Params()["standardscaler__with_mean"])
	assert.Equal(t, 5, pipe.Params()["knnclassifier__k"])
}

func TestPipelineSetParamsErrors(t *testing.T) {
	t.Parallel()

	pipe, err := estimators.MakePipeline(estimators.NewStandardScaler())
	require.NoError(t, err)

	tcs := map[string]struct {
		params map[string]any
	}{
		"no separator":  {params: map[string]any{"with_mean": false}},
		"unknown step":  {params: map[string]any{"pca__n_components": 2}},
		"unknown param": {params: map[string]any{"standardscaler__gamma": 1}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, pipe.SetParams(tc.params), estimators.ErrUnknownParam)
		})
	}
}

func TestPipelinePredictNeedsPredictor(t *testing.T) {
	t.Parallel()

	pipe, err := estimators.MakePipeline(estimators.NewStandardScaler())
	require.NoError(t, err)
	require.NoError(t, pipe.Fit(estimators.Matrix{{1}, {2}}, nil))

	_, err = pipe.Predict(estimators.Matrix{{1}})
	assert.ErrorIs(t, err, estimators.ErrNotAPredictor)
}

func TestPipelineTransformNeedsTransformer(t *testing.T) {
	t.Parallel()

	pipe, err := estimators.MakePipeline(estimators.NewLinearRegression())
	require.NoError(t, err)
	require.NoError(t, pipe.Fit(estimators.Matrix{{1}, {2}}, estimators.Vector{1, 2}))

	_, err = pipe.Transform(estimators.Matrix{{1}})
	assert.ErrorIs(t, err, estimators.ErrNotATransformer)
}

func TestPipelineCloneDropsState(t *testing.T) {
	t.Parallel()

	pipe, err := estimators.MakePipeline(
		estimators.NewStandardScaler(),
		estimators.NewLinearRegression(),
	)
	require.NoError(t, err)
	require.NoError(t, pipe.Fit(estimators.Matrix{{0}, {1}}, estimators.Vector{0, 2}))
	require.True(t, pipe.Fitted())

	clone := pipe.Clone()
	assert.False(t, clone.Fitted())
	assert.Equal(t, pipe.Params(), clone.Params())
	assert.True(t, pipe.Fitted())
}

func TestDatasetSplit(t *testing.T) {
	t.Parallel()

	ds := estimators.Dataset{
		X: estimators.Matrix{{1}, {2}, {3}, {4}},
		Y: estimators.Vector{1, 2, 3, 4},
	}

	train, test, err := ds.Split(newRand(t), 0.25)
	require.NoError(t, err)
	assert.Len(t, test.X, 1)
	assert.Len(t, train.X, 3)
	assert.Len(t, train.Y, 3)

	_, _, err = ds.Split(newRand(t), 0)
	assert.ErrorIs(t, err, estimators.ErrHoldoutFraction)

	tiny := estimators.Dataset{X: estimators.Matrix{{1}}, Y: estimators.Vector{1}}
	_, _, err = tiny.Split(newRand(t), 0.5)
	assert.ErrorIs(t, err, estimators.ErrNotEnoughSamples)
}
