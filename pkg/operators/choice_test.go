package operators_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/operators"
)

func TestMakeChoice(t *testing.T) {
	t.Parallel()

	choice, err := operators.MakeChoice(
		operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil),
		operators.NewIndividualOp("minmax", estimators.NewMinMaxScaler(), nil),
	)
	require.NoError(t, err)

	assert.Equal(t, "choice(scale | minmax)", choice.Name())
	assert.Len(t, choice.Alternatives(), 2)

	_, err = operators.MakeChoice()
	assert.ErrorIs(t, err, operators.ErrEmptyChoice)

	_, err = operators.MakeChoice(nil)
	assert.ErrorIs(t, err, operators.ErrStepMustBeSet)
}

func TestContainsChoice(t *testing.T) {
	t.Parallel()

	scale := operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil)
	choice, err := operators.MakeChoice(scale)
	require.NoError(t, err)

	assert.True(t, operators.ContainsChoice(choice))
	assert.False(t, operators.ContainsChoice(scale))

	pipe, err := operators.MakePipeline(choice.WithName("pick"))
	require.NoError(t, err)
	assert.True(t, operators.ContainsChoice(pipe))
}

func TestCloneOperatorKinds(t *testing.T) {
	t.Parallel()

	scale := operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil)
	pipe, err := operators.MakePipeline(scale)
	require.NoError(t, err)
	choice, err := operators.MakeChoice(scale.WithName("a"), scale.WithName("b"))
	require.NoError(t, err)

	tcs := map[string]struct {
		op operators.Operator
	}{
		"individual": {op: scale},
		"pipeline":   {op: pipe},
		"choice":     {op: choice},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			clone := operators.Clone(tc.op)
			require.NotNil(t, clone)
			assert.Equal(t, tc.op.Name(), clone.Name())
		})
	}
}
