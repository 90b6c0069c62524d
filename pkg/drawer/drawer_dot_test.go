package drawer_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/pkg/drawer"
	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/observe"
	"github.com/braidml/braid/pkg/operators"
)

func buildPipeline(t *testing.T) *operators.Pipeline {
	t.Helper()

	pipe, err := operators.MakePipeline(
		operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil),
		operators.NewIndividualOp("linreg", estimators.NewLinearRegression(), nil),
	)
	require.NoError(t, err)

	return pipe
}

func TestDrawPipeline(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, drawer.NewDOTDrawer().Draw(buildPipeline(t), &buf))

	out := buf.String()
	assert.Contains(t, out, "strict digraph")
	assert.Contains(t, out, `"scale"`)
	assert.Contains(t, out, `"linreg"`)
	assert.Contains(t, out, `"scale" -> "linreg"`)
	assert.Contains(t, out, `rankdir="LR"`)
	// trainable steps render blue
	assert.Contains(t, out, "#87ceeb")
}

func TestDrawChoiceShape(t *testing.T) {
	t.Parallel()

	choice, err := operators.MakeChoice(
		operators.NewIndividualOp("scale", estimators.NewStandardScaler(), nil),
		operators.NewIndividualOp("minmax", estimators.NewMinMaxScaler(), nil),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, drawer.NewDOTDrawer().Draw(choice, &buf))

	out := buf.String()
	assert.Contains(t, out, "diamond")
	// unresolved choices render as planned
	assert.Contains(t, out, "#f2c14e")
}

func TestDrawTrainedPipeline(t *testing.T) {
	t.Parallel()

	pipe := buildPipeline(t)
	trained, err := pipe.Fit(context.Background(), estimators.Matrix{{1}, {2}}, estimators.Vector{1, 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, drawer.NewDOTDrawer().Draw(trained.(*operators.TrainedPipeline), &buf))

	assert.Contains(t, buf.String(), `"scale" -> "linreg"`)
}

func TestDrawWithMeasureHeat(t *testing.T) {
	t.Parallel()

	measure := observe.NewMeasure()
	measure.StepFitted("scale", "standardscaler", time.Millisecond)
	measure.StepFitted("linreg", "linearregression", 100*time.Millisecond)

	var buf bytes.Buffer
	d := drawer.NewDOTDrawer(drawer.WithMeasure(measure))
	require.NoError(t, d.Draw(buildPipeline(t), &buf))

	out := strings.ToLower(buf.String())
	// duration labels come from the measure
	assert.Contains(t, out, "1ms")
	assert.Contains(t, out, "100ms")
	// the slowest step turns red, the fastest blue
	assert.Contains(t, out, "#f00000")
	assert.Contains(t, out, "#0000f0")
}

func TestDrawFile(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/pipeline.dot"
	require.NoError(t, drawer.NewDOTDrawer().DrawFile(buildPipeline(t), path))
	assert.FileExists(t, path)
}
