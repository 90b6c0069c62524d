package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/braidml/braid/pkg/observe"
	"github.com/braidml/braid/pkg/operators"
)

// lifecycle fill colours
const (
	colorPlanned   = "#f2c14e" // unresolved choices
	colorTrainable = "#87ceeb"
	colorTrained   = "#90ee90"
)

// DOTDrawer writes operator graphs in the Graphviz DOT language.
type DOTDrawer struct {
	measure *observe.Measure
}

// Option configures a DOTDrawer.
type Option func(d *DOTDrawer)

// WithMeasure attaches fit duration stats: steps get duration labels and a
// red/blue heat colour proportional to their average fit time.
func WithMeasure(measure *observe.Measure) Option {
	return func(d *DOTDrawer) {
		d.measure = measure
	}
}

func NewDOTDrawer(opts ...Option) *DOTDrawer {
	d := &DOTDrawer{}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DrawFile renders the operator graph into a file.
func (d *DOTDrawer) DrawFile(op operators.Operator, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}
	defer file.Close()

	return d.Draw(op, file)
}

// Draw renders the operator graph.
func (d *DOTDrawer) Draw(op operators.Operator, wrt io.Writer) error {
	gra := graph.New(graph.StringHash, graph.Directed())

	if err := d.addOperator(gra, op); err != nil {
		return errors.Wrap(err, "unable to build drawing graph")
	}
	if err := d.applyHeat(gra); err != nil {
		return errors.Wrap(err, "unable to colour steps")
	}

	return dot(gra, wrt, graphAttribute("rankdir", "LR"))
}

func (d *DOTDrawer) addOperator(gra graph.Graph[string, string], op operators.Operator) error {
	switch v := op.(type) {
	case *operators.Pipeline:
		for _, step := range v.Steps() {
			if err := d.addVertex(gra, step); err != nil {
				return err
			}
		}
		for _, edge := range v.Edges() {
			if err := gra.AddEdge(edge.Source, edge.Target); err != nil {
				return errors.Wrapf(err, "unable to add edge from %s to %s", edge.Source, edge.Target)
			}
		}

		return nil
	case *operators.TrainedPipeline:
		return d.addOperator(gra, v.Clone())
	}

	return d.addVertex(gra, op)
}

func (d *DOTDrawer) addVertex(gra graph.Graph[string, string], op operators.Operator) error {
	attrs := []func(*graph.VertexProperties){
		graph.VertexAttribute("style", "filled"),
		graph.VertexAttribute("fillcolor", stateColor(op)),
		graph.VertexAttribute("shape", vertexShape(op)),
	}

	if impl, ok := operators.ImplOf(op); ok {
		attrs = append(attrs, graph.VertexAttribute("tooltip", fmt.Sprintf("%T", impl)))
	}
	if d.measure != nil {
		if stats := d.measure.Step(op.Name()); stats != nil {
			attrs = append(attrs, graph.VertexAttribute("xlabel", stats.AVGDuration().String()))
		}
	}

	if err := gra.AddVertex(op.Name(), attrs...); err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", op.Name())
	}

	return nil
}

func stateColor(op operators.Operator) string {
	switch op.(type) {
	case *operators.TrainedPipeline, *operators.TrainedIndividualOp:
		return colorTrained
	}
	if operators.ContainsChoice(op) {
		return colorPlanned
	}
	if _, ok := op.(operators.TrainableOperator); ok {
		return colorTrainable
	}

	return colorPlanned
}

func vertexShape(op operators.Operator) string {
	if _, ok := op.(*operators.Choice); ok {
		return "diamond"
	}

	return "box"
}

const maxRGB = 240

// applyHeat recolours measured steps along a blue-to-red gradient of their
// average fit duration.
func (d *DOTDrawer) applyHeat(gra graph.Graph[string, string]) error {
	if d.measure == nil {
		return nil
	}

	stats := d.measure.AllSteps()
	durations := make([]time.Duration, 0, len(stats))
	for _, step := range stats {
		if step.AVGDuration() > 0 {
			durations = append(durations, step.AVGDuration())
		}
	}
	if len(durations) == 0 {
		return nil
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	minValue := durations[0]
	maxValue := durations[len(durations)-1]

	for name, step := range stats {
		avg := step.AVGDuration()
		if avg == 0 {
			continue
		}

		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(avg-minValue) / float64(maxValue-minValue)
		}
		red := uint8(maxRGB * fraction)
		blue := uint8(maxRGB * (1 - fraction))

		heat, err := colors.RGB(red, 0, blue) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		_, properties, err := gra.VertexWithProperties(name)
		if err != nil {
			// measured steps can belong to a different operator
			continue
		}
		properties.Attributes["fillcolor"] = heat.ToHEX().String()
		properties.Attributes["fontcolor"] = "white"
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
