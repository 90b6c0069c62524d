package blueprint_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/pkg/blueprint"
	"github.com/braidml/braid/pkg/operators"
	_ "github.com/braidml/braid/pkg/ops"
)

const classifierYAML = `
name: iris
steps:
  - name: scale
    op: standard_scaler
    params:
      with_std: false
  - name: model
    choice:
      - op: knn_classifier
        params:
          k: 3
      - op: logistic_regression
`

func TestParse(t *testing.T) {
	t.Parallel()

	spec, err := blueprint.Parse(strings.NewReader(classifierYAML))
	require.NoError(t, err)

	assert.Equal(t, "iris", spec.Name)
	require.Len(t, spec.Steps, 2)
	assert.Equal(t, "standard_scaler", spec.Steps[0].Op)
	assert.Len(t, spec.Steps[1].Choice, 2)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in string
	}{
		"unknown field": {in: "name: bad\nstages:\n  - op: pca\n"},
		"not yaml":      {in: "{steps: ["},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := blueprint.Parse(strings.NewReader(tc.in))
			assert.Error(t, err)
		})
	}
}

func TestParseNoSteps(t *testing.T) {
	t.Parallel()

	_, err := blueprint.Parse(strings.NewReader("name: empty\nsteps: []\n"))
	assert.ErrorIs(t, err, blueprint.ErrNoSteps)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(classifierYAML), 0o600))

	spec, err := blueprint.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "iris", spec.Name)

	_, err = blueprint.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	spec, err := blueprint.Parse(strings.NewReader(classifierYAML))
	require.NoError(t, err)

	op, err := spec.Build()
	require.NoError(t, err)

	assert.Equal(t, "iris", op.Name())
	assert.True(t, operators.ContainsChoice(op))

	pipe, ok := op.(operators.ParamOperator)
	require.True(t, ok)
	assert.Equal(t, false, pipe.Params()["scale__with_std"])
}

func TestBuildLinear(t *testing.T) {
	t.Parallel()

	spec := &blueprint.Spec{
		Steps: []blueprint.StepSpec{
			{Name: "scale", Op: "standard_scaler"},
			{Name: "model", Op: "knn_classifier", Params: map[string]any{"k": 5}},
		},
	}

	op, err := spec.Build()
	require.NoError(t, err)

	assert.Equal(t, "pipeline(scale >> model)", op.Name())
	assert.False(t, operators.ContainsChoice(op))

	pipe, ok := op.(operators.ParamOperator)
	require.True(t, ok)
	assert.Equal(t, 5, pipe.Params()["model__k"])
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		spec *blueprint.Spec
		want error
	}{
		"op and choice": {
			spec: &blueprint.Spec{Steps: []blueprint.StepSpec{
				{Name: "bad", Op: "pca", Choice: []blueprint.StepSpec{{Op: "pca"}}},
			}},
			want: blueprint.ErrStepShape,
		},
		"nested choice": {
			spec: &blueprint.Spec{Steps: []blueprint.StepSpec{
				{Name: "model", Choice: []blueprint.StepSpec{
					{Name: "inner", Choice: []blueprint.StepSpec{{Op: "pca"}}},
				}},
			}},
			want: blueprint.ErrNestedChoice,
		},
		"missing op": {
			spec: &blueprint.Spec{Steps: []blueprint.StepSpec{{Name: "hollow"}}},
			want: operators.ErrStepMustBeSet,
		},
		"unknown op": {
			spec: &blueprint.Spec{Steps: []blueprint.StepSpec{{Op: "random_forest"}}},
			want: operators.ErrNotRegistered,
		},
		"bad param": {
			spec: &blueprint.Spec{Steps: []blueprint.StepSpec{
				{Op: "knn_classifier", Params: map[string]any{"k": 0}},
			}},
			want: operators.ErrInvalidParam,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := tc.spec.Build()
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
