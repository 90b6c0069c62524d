package operators

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/braidml/braid/internal/graphstore"
	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/observe"
)

// Edge connects two steps of a pipeline by name; data flows from Source to
// Target.
type Edge struct {
	Source string
	Target string
}

// Pipeline is a DAG of operators. Steps keep their insertion order for
// deterministic traversal; the topology lives in a directed graph that
// rejects cycles on edge insertion.
type Pipeline struct {
	name  string
	steps []Operator
	index map[string]int
	edges []Edge
	store *graphstore.MemoryStore[string, Operator]
	graph graph.Graph[string, Operator]
}

func operatorHash(op Operator) string { return op.Name() }

func newEmptyPipeline() *Pipeline {
	store := graphstore.New[string, Operator]()

	return &Pipeline{
		index: make(map[string]int),
		store: store,
		graph: graph.NewWithStore(operatorHash, graph.Store[string, Operator](store), graph.Directed(), graph.PreventCycles()),
	}
}

// NewDAG builds a pipeline from explicit steps and edges. Step names must
// be unique, non-empty and free of the parameter separator; edges must
// reference known steps and may not create a cycle.
func NewDAG(steps []Operator, edges []Edge) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyPipeline
	}

	p := newEmptyPipeline()
	for _, op := range steps {
		if err := p.addStep(op); err != nil {
			return nil, err
		}
	}
	for _, edge := range edges {
		if err := p.addEdge(edge); err != nil {
			return nil, err
		}
	}
	p.name = "pipeline(" + strings.Join(p.stepNames(), " >> ") + ")"

	return p, nil
}

// MakePipeline chains the operators into a linear dataflow.
func MakePipeline(ops ...Operator) (*Pipeline, error) {
	edges := make([]Edge, 0, len(ops))
	for i := 1; i < len(ops); i++ {
		edges = append(edges, Edge{Source: ops[i-1].Name(), Target: ops[i].Name()})
	}

	return NewDAG(ops, edges)
}

// MakeUnion runs the operators as parallel branches over the same input and
// concatenates their outputs column-wise through a ConcatFeatures sink.
func MakeUnion(branches ...Operator) (*Pipeline, error) {
	if len(branches) == 0 {
		return nil, ErrEmptyPipeline
	}

	concat := NewIndividualOp("concatfeatures", estimators.NewConcatFeatures(), nil)
	steps := append(append([]Operator{}, branches...), concat)
	edges := make([]Edge, 0, len(branches))
	for _, branch := range branches {
		edges = append(edges, Edge{Source: branch.Name(), Target: concat.Name()})
	}

	return NewDAG(steps, edges)
}

func (p *Pipeline) addStep(op Operator) error {
	if op == nil {
		return ErrStepMustBeSet
	}

	name := op.Name()
	if name == "" || strings.Contains(name, estimators.ParamSeparator) {
		return errors.Wrap(ErrStepName, name)
	}

	err := p.graph.AddVertex(op)
	if err != nil {
		if errors.Is(err, graph.ErrVertexAlreadyExists) {
			return errors.Wrap(ErrDuplicateStep, name)
		}

		return errors.Wrapf(err, "unable to add step %s", name)
	}

	p.index[name] = len(p.steps)
	p.steps = append(p.steps, op)

	return nil
}

func (p *Pipeline) addEdge(edge Edge) error {
	if _, ok := p.index[edge.Source]; !ok {
		return errors.Wrap(ErrUnknownStep, edge.Source)
	}
	if _, ok := p.index[edge.Target]; !ok {
		return errors.Wrap(ErrUnknownStep, edge.Target)
	}

	err := p.graph.AddEdge(edge.Source, edge.Target)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", edge.Source, edge.Target)
	}
	p.edges = append(p.edges, edge)

	return nil
}

// Name returns the pipeline's display name.
func (p *Pipeline) Name() string { return p.name }

// WithName returns a renamed copy of the pipeline.
func (p *Pipeline) WithName(name string) *Pipeline {
	clone := p.clonePipeline()
	clone.name = name

	return clone
}

// Steps returns the operators in insertion order.
func (p *Pipeline) Steps() []Operator {
	return append([]Operator(nil), p.steps...)
}

// Edges returns the dataflow edges in insertion order.
func (p *Pipeline) Edges() []Edge {
	return append([]Edge(nil), p.edges...)
}

func (p *Pipeline) stepNames() []string {
	names := make([]string, len(p.steps))
	for i, op := range p.steps {
		names[i] = op.Name()
	}

	return names
}

// ordered sorts step names by insertion order. Fan-in inputs rely on it for
// a deterministic column layout.
func (p *Pipeline) ordered(names []string) []string {
	out := append([]string(nil), names...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && p.index[out[j-1]] > p.index[out[j]]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}

	return out
}

// Sources returns the steps without predecessors in insertion order.
func (p *Pipeline) Sources() []Operator {
	var out []Operator
	for _, op := range p.steps {
		if p.store.InDegree(op.Name()) == 0 {
			out = append(out, op)
		}
	}

	return out
}

// Sinks returns the steps without successors in insertion order.
func (p *Pipeline) Sinks() []Operator {
	var out []Operator
	for _, op := range p.steps {
		if p.store.OutDegree(op.Name()) == 0 {
			out = append(out, op)
		}
	}

	return out
}

func (p *Pipeline) sink() (Operator, error) {
	sinks := p.Sinks()
	if len(sinks) != 1 {
		return nil, errors.Wrapf(ErrNoSink, "found %d", len(sinks))
	}

	return sinks[0], nil
}

// Then extends the pipeline's dataflow with the next operator: every sink
// of the receiver feeds into next (or into next's sources when next is
// itself a pipeline). It returns a new pipeline.
func (p *Pipeline) Then(next Operator) (*Pipeline, error) {
	if next == nil {
		return nil, ErrStepMustBeSet
	}

	steps := p.Steps()
	edges := p.Edges()
	sinks := p.Sinks()

	targets := []string{next.Name()}
	if nested, ok := next.(*Pipeline); ok {
		steps = append(steps, nested.Steps()...)
		edges = append(edges, nested.Edges()...)
		targets = targets[:0]
		for _, source := range nested.Sources() {
			targets = append(targets, source.Name())
		}
	} else {
		steps = append(steps, next)
	}

	for _, sink := range sinks {
		for _, target := range targets {
			edges = append(edges, Edge{Source: sink.Name(), Target: target})
		}
	}

	return NewDAG(steps, edges)
}

// nodeFn computes one step's output from the outputs of its predecessors.
// A nil result marks a step with nothing to feed downstream.
type nodeFn func(ctx context.Context, op Operator, inputs []estimators.Matrix) (estimators.Matrix, error)

// walk visits the DAG in topological levels, running the steps of each
// level through an errgroup. Pipeline input x feeds every source step.
func (p *Pipeline) walk(ctx context.Context, x estimators.Matrix, parallelism int, fn nodeFn) (map[string]estimators.Matrix, error) {
	indegree := make(map[string]int, len(p.steps))
	for _, op := range p.steps {
		indegree[op.Name()] = p.store.InDegree(op.Name())
	}

	outputs := make(map[string]estimators.Matrix, len(p.steps))
	var mu sync.Mutex
	done := make(map[string]struct{}, len(p.steps))

	for len(done) < len(p.steps) {
		var level []Operator
		for _, op := range p.steps {
			if _, ok := done[op.Name()]; ok {
				continue
			}
			if indegree[op.Name()] == 0 {
				level = append(level, op)
			}
		}
		if len(level) == 0 {
			return nil, errors.New("pipeline graph is not acyclic")
		}

		// inputs for the whole level are gathered before any worker starts,
		// so running goroutines are the only ones touching the outputs map
		levelInputs := make([][]estimators.Matrix, len(level))
		for i, op := range level {
			inputs, err := p.gatherInputs(op, x, outputs)
			if err != nil {
				return nil, err
			}
			levelInputs[i] = inputs
		}

		errGrp, dCtx := errgroup.WithContext(ctx)
		errGrp.SetLimit(parallelism)
		for i, op := range level {
			op, inputs := op, levelInputs[i]
			errGrp.Go(func() error {
				out, err := fn(dCtx, op, inputs)
				if err != nil {
					return err
				}
				mu.Lock()
				outputs[op.Name()] = out
				mu.Unlock()

				return nil
			})
		}
		if err := errGrp.Wait(); err != nil {
			return nil, err
		}

		for _, op := range level {
			done[op.Name()] = struct{}{}
			for _, succ := range p.store.Successors(op.Name()) {
				indegree[succ]--
			}
		}
	}

	return outputs, nil
}

func (p *Pipeline) gatherInputs(op Operator, x estimators.Matrix, outputs map[string]estimators.Matrix) ([]estimators.Matrix, error) {
	preds := p.ordered(p.store.Predecessors(op.Name()))
	if len(preds) == 0 {
		return []estimators.Matrix{x}, nil
	}

	inputs := make([]estimators.Matrix, len(preds))
	for i, pred := range preds {
		out, ok := outputs[pred]
		if !ok || out == nil {
			return nil, errors.Wrap(ErrNotATransformer, pred)
		}
		inputs[i] = out
	}

	return inputs, nil
}

// Params flattens every step's hyperparameters under
// `stepname__paramname` keys. Nested pipelines chain their prefixes.
func (p *Pipeline) Params() map[string]any {
	out := make(map[string]any)
	for _, op := range p.steps {
		po, ok := op.(ParamOperator)
		if !ok {
			continue
		}
		for key, value := range po.Params() {
			out[op.Name()+estimators.ParamSeparator+key] = value
		}
	}

	return out
}

// SetParams routes flattened keys to the matching steps, rejecting unknown
// steps and unknown parameters.
func (p *Pipeline) SetParams(params map[string]any) error {
	grouped := make(map[string]map[string]any)
	for key, value := range params {
		stepName, paramName, ok := strings.Cut(key, estimators.ParamSeparator)
		if !ok {
			return errors.Wrapf(ErrUnknownParam, "%s is not a step%sparam key", key, estimators.ParamSeparator)
		}
		if grouped[stepName] == nil {
			grouped[stepName] = make(map[string]any)
		}
		grouped[stepName][paramName] = value
	}

	for stepName, stepParams := range grouped {
		idx, ok := p.index[stepName]
		if !ok {
			return errors.Wrap(ErrUnknownStep, stepName)
		}
		po, ok := p.steps[idx].(ParamOperator)
		if !ok {
			return errors.Wrapf(ErrUnknownParam, "step %s has no hyperparameters", stepName)
		}
		if err := po.SetParams(stepParams); err != nil {
			return errors.Wrapf(err, "unable to set params on step %s", stepName)
		}
	}

	return nil
}

func (p *Pipeline) clonePipeline() *Pipeline {
	steps := make([]Operator, len(p.steps))
	for i, op := range p.steps {
		steps[i] = Clone(op)
	}

	clone, err := NewDAG(steps, p.Edges())
	if err != nil {
		// the receiver was already a valid DAG and Clone preserves names
		panic(err)
	}
	clone.name = p.name

	return clone
}

// Fit trains the DAG in topological order. Parallel branches fit
// concurrently up to the configured parallelism; fan-in steps receive the
// outputs of all their predecessors in insertion order.
func (p *Pipeline) Fit(ctx context.Context, x estimators.Matrix, y estimators.Vector, opts ...FitOption) (TrainedOperator, error) {
	cfg := newFitConfig(opts)

	if len(p.steps) == 0 {
		return nil, ErrEmptyPipeline
	}
	if ContainsChoice(p) {
		return nil, errors.Wrap(ErrNotTrainable, "pipeline contains an unresolved choice")
	}

	if cfg.observer != nil {
		cfg.observer.FitStart(p.name)
	}
	start := time.Now()

	trained := make(map[string]TrainedOperator, len(p.steps))
	var mu sync.Mutex
	_, err := p.walk(ctx, x, cfg.parallelism, func(ctx context.Context, op Operator, inputs []estimators.Matrix) (estimators.Matrix, error) {
		trainedOp, out, err := fitNode(ctx, op, inputs, y, cfg.observer)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		trained[op.Name()] = trainedOp
		mu.Unlock()

		return out, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fit %s", p.name)
	}

	if cfg.observer != nil {
		cfg.observer.FitEnd(p.name, time.Since(start))
	}

	return &TrainedPipeline{pipeline: p.clonePipeline(), trained: trained}, nil
}

func fitNode(ctx context.Context, op Operator, inputs []estimators.Matrix, y estimators.Vector, obs observe.Observer) (TrainedOperator, estimators.Matrix, error) {
	switch v := op.(type) {
	case *IndividualOp:
		trainedOp, err := v.fit(ctx, inputs, y, obs)
		if err != nil {
			return nil, nil, err
		}
		if len(inputs) > 1 {
			out, err := trainedOp.transformMany(ctx, inputs)

			return trainedOp, out, err
		}
		if _, ok := trainedOp.impl.(estimators.Transformer); ok {
			out, err := trainedOp.Transform(ctx, inputs[0])

			return trainedOp, out, err
		}
		// predictor sink, nothing flows downstream

		return trainedOp, nil, nil
	case TrainableOperator:
		if len(inputs) > 1 {
			return nil, nil, errors.Wrap(ErrFanIn, op.Name())
		}
		fitOpts := []FitOption{}
		if obs != nil {
			fitOpts = append(fitOpts, WithObserver(obs))
		}
		trainedOp, err := v.Fit(ctx, inputs[0], y, fitOpts...)
		if err != nil {
			return nil, nil, err
		}
		out, err := trainedOp.Transform(ctx, inputs[0])
		if err != nil {
			if errors.Is(err, ErrNotATransformer) {
				return trainedOp, nil, nil
			}

			return nil, nil, err
		}

		return trainedOp, out, nil
	}

	return nil, nil, errors.Wrap(ErrNotTrainable, op.Name())
}

// TrainedPipeline holds the trained form of every step plus the pipeline
// structure they were trained in.
type TrainedPipeline struct {
	pipeline *Pipeline
	trained  map[string]TrainedOperator
}

func (t *TrainedPipeline) Name() string { return t.pipeline.name }

// Step returns the trained operator behind a step name.
func (t *TrainedPipeline) Step(name string) (TrainedOperator, bool) {
	op, ok := t.trained[name]

	return op, ok
}

// Params returns the flattened hyperparameters the pipeline was trained
// with.
func (t *TrainedPipeline) Params() map[string]any { return t.pipeline.Params() }

// SetParams mutates the trainable form used by Clone.
func (t *TrainedPipeline) SetParams(params map[string]any) error {
	return t.pipeline.SetParams(params)
}

// Clone returns the trainable form of the pipeline: same steps and edges,
// no learned state.
func (t *TrainedPipeline) Clone() *Pipeline { return t.pipeline.clonePipeline() }

func (t *TrainedPipeline) apply(ctx context.Context, op Operator, inputs []estimators.Matrix) (estimators.Matrix, error) {
	trainedOp, ok := t.trained[op.Name()]
	if !ok {
		return nil, errors.Wrap(ErrUnknownStep, op.Name())
	}
	if len(inputs) > 1 {
		tio, ok := trainedOp.(*TrainedIndividualOp)
		if !ok {
			return nil, errors.Wrap(ErrFanIn, op.Name())
		}

		return tio.transformMany(ctx, inputs)
	}

	return trainedOp.Transform(ctx, inputs[0])
}

// Transform threads x through the DAG; the single sink must be a
// transformer.
func (t *TrainedPipeline) Transform(ctx context.Context, x estimators.Matrix) (estimators.Matrix, error) {
	sink, err := t.pipeline.sink()
	if err != nil {
		return nil, err
	}

	outputs, err := t.pipeline.walk(ctx, x, 1, t.apply)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to transform %s", t.pipeline.name)
	}

	return outputs[sink.Name()], nil
}

// Predict threads x through the DAG and predicts with the single sink.
func (t *TrainedPipeline) Predict(ctx context.Context, x estimators.Matrix) (estimators.Vector, error) {
	sink, err := t.pipeline.sink()
	if err != nil {
		return nil, err
	}

	var prediction estimators.Vector
	_, err = t.pipeline.walk(ctx, x, 1, func(ctx context.Context, op Operator, inputs []estimators.Matrix) (estimators.Matrix, error) {
		if op.Name() != sink.Name() {
			return t.apply(ctx, op, inputs)
		}

		if len(inputs) > 1 {
			return nil, errors.Wrap(ErrFanIn, op.Name())
		}
		trainedOp := t.trained[op.Name()]
		out, err := trainedOp.Predict(ctx, inputs[0])
		if err != nil {
			return nil, err
		}
		prediction = out

		return nil, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to predict %s", t.pipeline.name)
	}

	return prediction, nil
}

var (
	_ TrainableOperator = (*Pipeline)(nil)
	_ ParamOperator     = (*Pipeline)(nil)
	_ TrainedOperator   = (*TrainedPipeline)(nil)
	_ ParamOperator     = (*TrainedPipeline)(nil)
)
