package estimators

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// ParamSeparator joins a step name and a hyperparameter name in the
// flattened `stepname__paramname` convention.
const ParamSeparator = "__"

// NamedStep binds an estimator to its name inside a pipeline.
type NamedStep struct {
	Name string
	Est  Estimator
}

// Pipeline is an ordered composition of named estimator steps. Every step
// but the last must be a Transformer; the last one may be a Transformer or
// a Predictor.
type Pipeline struct {
	steps []NamedStep
}

// NewPipeline builds a pipeline from explicitly named steps.
func NewPipeline(steps ...NamedStep) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyPipeline
	}

	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if step.Name == "" || strings.Contains(step.Name, ParamSeparator) {
			return nil, errors.Wrap(ErrStepName, step.Name)
		}
		if _, ok := seen[step.Name]; ok {
			return nil, errors.Wrap(ErrDuplicateStep, step.Name)
		}
		seen[step.Name] = struct{}{}
	}

	return &Pipeline{steps: steps}, nil
}

// MakePipeline builds a pipeline with auto-generated step names: the
// lowercased type name of each estimator, deduplicated with a numeric
// suffix on repeats.
func MakePipeline(ests ...Estimator) (*Pipeline, error) {
	if len(ests) == 0 {
		return nil, ErrEmptyPipeline
	}

	counts := make(map[string]int, len(ests))
	steps := make([]NamedStep, len(ests))
	for i, est := range ests {
		name := TypeName(est)
		counts[name]++
		if counts[name] > 1 {
			name = fmt.Sprintf("%s%d", name, counts[name])
		}
		steps[i] = NamedStep{Name: name, Est: est}
	}

	return NewPipeline(steps...)
}

// TypeName returns the lowercased concrete type name of an estimator,
// e.g. "standardscaler" for *StandardScaler.
func TypeName(est Estimator) string {
	t := reflect.TypeOf(est)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return strings.ToLower(t.Name())
}

// Steps returns the named steps in order.
func (p *Pipeline) Steps() []NamedStep { return p.steps }

// Fitted reports whether every step has been fitted.
func (p *Pipeline) Fitted() bool {
	for _, step := range p.steps {
		if !step.Est.Fitted() {
			return false
		}
	}

	return true
}

// Fit fits every step in order, threading the transformed output of each
// step into the next one.
func (p *Pipeline) Fit(x Matrix, y Vector) error {
	if err := checkFitInput(x, y); err != nil {
		return errors.Wrap(err, "unable to fit pipeline")
	}

	current := x
	for i, step := range p.steps {
		if err := step.Est.Fit(current, y); err != nil {
			return errors.Wrapf(err, "unable to fit step %s", step.Name)
		}
		if i == len(p.steps)-1 {
			break
		}
		transformer, ok := step.Est.(Transformer)
		if !ok {
			return errors.Wrap(ErrNotATransformer, step.Name)
		}
		next, err := transformer.Transform(current)
		if err != nil {
			return errors.Wrapf(err, "unable to transform step %s", step.Name)
		}
		current = next
	}

	return nil
}

func (p *Pipeline) thread(x Matrix) (Matrix, error) {
	current := x
	for _, step := range p.steps[:len(p.steps)-1] {
		transformer, ok := step.Est.(Transformer)
		if !ok {
			return nil, errors.Wrap(ErrNotATransformer, step.Name)
		}
		next, err := transformer.Transform(current)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to transform step %s", step.Name)
		}
		current = next
	}

	return current, nil
}

// Transform threads x through every step; the last one must be a
// Transformer.
func (p *Pipeline) Transform(x Matrix) (Matrix, error) {
	current, err := p.thread(x)
	if err != nil {
		return nil, err
	}

	last := p.steps[len(p.steps)-1]
	transformer, ok := last.Est.(Transformer)
	if !ok {
		return nil, errors.Wrap(ErrNotATransformer, last.Name)
	}

	return transformer.Transform(current)
}

// Predict threads x through every intermediate step and predicts with the
// last one, which must be a Predictor.
func (p *Pipeline) Predict(x Matrix) (Vector, error) {
	current, err := p.thread(x)
	if err != nil {
		return nil, err
	}

	last := p.steps[len(p.steps)-1]
	predictor, ok := last.Est.(Predictor)
	if !ok {
		return nil, errors.Wrap(ErrNotAPredictor, last.Name)
	}

	return predictor.Predict(current)
}

// Params flattens every step's hyperparameters under `stepname__paramname`
// keys.
func (p *Pipeline) Params() map[string]any {
	out := make(map[string]any)
	for _, step := range p.steps {
		for name, value := range step.Est.Params() {
			out[step.Name+ParamSeparator+name] = value
		}
	}

	return out
}

// SetParams routes flattened `stepname__paramname` keys to the matching
// step. Unknown steps and unknown parameters are rejected.
func (p *Pipeline) SetParams(params map[string]any) error {
	grouped := make(map[string]map[string]any)
	for key, value := range params {
		stepName, paramName, ok := strings.Cut(key, ParamSeparator)
		if !ok {
			return errors.Wrapf(ErrUnknownParam, "%s is not a step%sparam key", key, ParamSeparator)
		}
		if grouped[stepName] == nil {
			grouped[stepName] = make(map[string]any)
		}
		grouped[stepName][paramName] = value
	}

	for stepName, stepParams := range grouped {
		step, ok := p.step(stepName)
		if !ok {
			return errors.Wrapf(ErrUnknownParam, "no step named %s", stepName)
		}
		if err := step.Est.SetParams(stepParams); err != nil {
			return errors.Wrapf(err, "unable to set params on step %s", stepName)
		}
	}

	return nil
}

func (p *Pipeline) step(name string) (NamedStep, bool) {
	for _, step := range p.steps {
		if step.Name == name {
			return step, true
		}
	}

	return NamedStep{}, false
}

// Clone returns an unfitted pipeline with the same step names and
// configurations.
func (p *Pipeline) Clone() *Pipeline {
	steps := make([]NamedStep, len(p.steps))
	for i, step := range p.steps {
		steps[i] = NamedStep{Name: step.Name, Est: step.Est.Clone()}
	}

	return &Pipeline{steps: steps}
}
