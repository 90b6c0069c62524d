package estimators_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/pkg/estimators"
)

func TestStandardScaler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		withMean bool
		withStd  bool
		want     estimators.Matrix
	}{
		"mean and std": {
			withMean: true,
			withStd:  true,
			want:     estimators.Matrix{{-1, -1}, {1, 1}},
		},
		"mean only": {
			withMean: true,
			want:     estimators.Matrix{{-1, -2}, {1, 2}},
		},
		"std only": {
			withStd: true,
			want:     estimators.Matrix{{1, 1}, {3, 3}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			scaler := &estimators.StandardScaler{WithMean: tc.withMean, WithStd: tc.withStd}
			require.NoError(t, scaler.Fit(estimators.Matrix{{1, 2}, {3, 6}}, nil))

			got, err := scaler.Transform(estimators.Matrix{{1, 2}, {3, 6}})
			require.NoError(t, err)
			for i := range tc.want {
				for j := range tc.want[i] {
					assert.InDelta(t, tc.want[i][j], got[i][j], 1e-9)
				}
			}
		})
	}
}

func TestStandardScalerZeroVariance(t *testing.T) {
	t.Parallel()

	scaler := estimators.NewStandardScaler()
	require.NoError(t, scaler.Fit(estimators.Matrix{{5, 1}, {5, 3}}, nil))

	got, err := scaler.Transform(estimators.Matrix{{5, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 0, got[0][0], 1e-9)
	assert.InDelta(t, -1, got[0][1], 1e-9)
}

func TestStandardScalerErrors(t *testing.T) {
	t.Parallel()

	t.Run("not fitted", func(t *testing.T) {
		t.Parallel()

		_, err := estimators.NewStandardScaler().Transform(estimators.Matrix{{1}})
		assert.ErrorIs(t, err, estimators.ErrNotFitted)
	})

	t.Run("column mismatch", func(t *testing.T) {
		t.Parallel()

		scaler := estimators.NewStandardScaler()
		require.NoError(t, scaler.Fit(estimators.Matrix{{1, 2}}, nil))
		_, err := scaler.Transform(estimators.Matrix{{1}})
		assert.ErrorIs(t, err, estimators.ErrColumnMismatch)
	})

	t.Run("empty matrix", func(t *testing.T) {
		t.Parallel()

		err := estimators.NewStandardScaler().Fit(nil, nil)
		assert.ErrorIs(t, err, estimators.ErrEmptyMatrix)
	})

	t.Run("ragged matrix", func(t *testing.T) {
		t.Parallel()

		err := estimators.NewStandardScaler().Fit(estimators.Matrix{{1, 2}, {3}}, nil)
		assert.ErrorIs(t, err, estimators.ErrRaggedMatrix)
	})
}

func TestStandardScalerParams(t *testing.T) {
	t.Parallel()

	scaler := estimators.NewStandardScaler()
	require.NoError(t, scaler.SetParams(map[string]any{"with_mean": false}))
	assert.Equal(t, map[string]any{"with_mean": false, "with_std": true}, scaler.Params())

	err := scaler.SetParams(map[string]any{"centre": true})
	assert.ErrorIs(t, err, estimators.ErrUnknownParam)

	err = scaler.SetParams(map[string]any{"with_mean": 3})
	assert.ErrorIs(t, err, estimators.ErrParamType)
}

func TestMinMaxScaler(t *testing.T) {
	t.Parallel()

	scaler := estimators.NewMinMaxScaler()
	require.NoError(t, scaler.Fit(estimators.Matrix{{0}, {10}}, nil))

	got, err := scaler.Transform(estimators.Matrix{{5}, {0}, {10}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got[0][0], 1e-9)
	assert.InDelta(t, 0, got[1][0], 1e-9)
	assert.InDelta(t, 1, got[2][0], 1e-9)
}

func TestMinMaxScalerCustomRange(t *testing.T) {
	t.Parallel()

	scaler := estimators.NewMinMaxScaler()
	require.NoError(t, scaler.SetParams(map[string]any{"range_min": -1.0, "range_max": 1.0}))
	require.NoError(t, scaler.Fit(estimators.Matrix{{0}, {10}}, nil))

	got, err := scaler.Transform(estimators.Matrix{{5}})
	require.NoError(t, err)
	assert.InDelta(t, 0, got[0][0], 1e-9)
}

func TestMinMaxScalerConstantColumn(t *testing.T) {
	t.Parallel()

	scaler := estimators.NewMinMaxScaler()
	require.NoError(t, scaler.Fit(estimators.Matrix{{7}, {7}}, nil))

	got, err := scaler.Transform(estimators.Matrix{{7}})
	require.NoError(t, err)
	assert.InDelta(t, 0, got[0][0], 1e-9)
}

func TestScalerCloneDropsState(t *testing.T) {
	t.Parallel()

	scaler := estimators.NewStandardScaler()
	require.NoError(t, scaler.Fit(estimators.Matrix{{1}, {3}}, nil))
	require.True(t, scaler.Fitted())

	clone := scaler.Clone()
	assert.False(t, clone.Fitted())
	assert.Equal(t, scaler.Params(), clone.Params())
}
