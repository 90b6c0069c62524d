package operators_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/operators"
)

func TestFromNativeRoundTrip(t *testing.T) {
	t.Parallel()

	native, err := estimators.MakePipeline(
		estimators.NewStandardScaler(),
		estimators.NewLinearRegression(),
	)
	require.NoError(t, err)
	require.NoError(t, native.SetParams(map[string]any{"standardscaler__with_mean": false}))

	wrapped, err := operators.FromNative(native)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"standardscaler__with_mean":       false,
		"standardscaler__with_std":        true,
		"linearregression__fit_intercept": true,
	}, wrapped.Params())

	back, err := operators.ToNative(wrapped)
	require.NoError(t, err)
	assert.Equal(t, native.Params(), back.Params())

	var names []string
	for _, step := range back.Steps() {
		names = append(names, step.Name)
	}
	assert.Equal(t, []string{"standardscaler", "linearregression"}, names)
}

func TestToNativeExportsTrainedImpls(t *testing.T) {
	t.Parallel()

	pipe, err := operators.MakePipeline(
		operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil),
		operators.NewIndividualOp("linreg", estimators.NewLinearRegression(), nil),
	)
	require.NoError(t, err)

	trained, err := pipe.Fit(context.Background(), estimators.Matrix{{0}, {1}, {2}}, estimators.Vector{1, 3, 5})
	require.NoError(t, err)

	trainedPipe, ok := trained.(*operators.TrainedPipeline)
	require.True(t, ok)

	native, err := operators.ToNative(trainedPipe)
	require.NoError(t, err)
	assert.True(t, native.Fitted())

	got, err := native.Predict(estimators.Matrix{{3}})
	require.NoError(t, err)
	assert.InDelta(t, 7, got[0], 1e-6)
}

func TestToNativeConfiguresUnfittedImpls(t *testing.T) {
	t.Parallel()

	op := operators.NewIndividualOp("knn", estimators.NewKNNClassifier(), nil)
	require.NoError(t, op.SetParams(map[string]any{"k": 1}))

	native, err := operators.ToNative(op)
	require.NoError(t, err)
	assert.False(t, native.Fitted())

	impl := native.Steps()[0].Est
	assert.Equal(t, map[string]any{"k": 1}, impl.Params())
}

func TestToNativeRejectsBranching(t *testing.T) {
	t.Parallel()

	union, err := operators.MakeUnion(
		operators.NewIndividualOp("a", estimators.NewStandardScaler(), nil),
		operators.NewIndividualOp("b", estimators.NewMinMaxScaler(), nil),
	)
	require.NoError(t, err)

	_, err = operators.ToNative(union)
	assert.ErrorIs(t, err, operators.ErrNotLinear)
}

func TestToNativeRejectsChoice(t *testing.T) {
	t.Parallel()

	choice, err := operators.MakeChoice(
		operators.NewIndividualOp("a", estimators.NewStandardScaler(), nil),
	)
	require.NoError(t, err)

	_, err = operators.ToNative(choice)
	assert.ErrorIs(t, err, operators.ErrNotLinear)
}

func TestFromNativeEstimator(t *testing.T) {
	t.Parallel()

	op := operators.FromNativeEstimator(estimators.NewMinMaxScaler())
	assert.IsType(t, &estimators.MinMaxScaler{}, op.Impl())
}
