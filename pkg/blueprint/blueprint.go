// Package blueprint builds operators from declarative YAML pipeline specs.
package blueprint

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/braidml/braid/pkg/operators"
)

var (
	ErrNoSteps      = errors.New("blueprint has no steps")
	ErrStepShape    = errors.New("step must set either op or choice, not both")
	ErrEmptyChoice  = errors.New("choice must list at least one alternative")
	ErrNestedChoice = errors.New("choice alternatives cannot be choices themselves")
)

// StepSpec is one pipeline step: either a single operator or a choice
// between alternatives.
type StepSpec struct {
	Name   string         `yaml:"name"`
	Op     string         `yaml:"op"`
	Params map[string]any `yaml:"params"`
	Choice []StepSpec     `yaml:"choice"`
}

// Spec is a declarative linear pipeline.
type Spec struct {
	Name  string     `yaml:"name"`
	Steps []StepSpec `yaml:"steps"`
}

// Load reads and parses a blueprint file.
func Load(path string) (*Spec, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open blueprint")
	}
	defer fd.Close()

	return Parse(fd)
}

// Parse decodes a blueprint from YAML.
func Parse(rd io.Reader) (*Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, errors.Wrap(err, "unable to decode blueprint")
	}
	if len(spec.Steps) == 0 {
		return nil, ErrNoSteps
	}

	return &spec, nil
}

// Build assembles the pipeline the spec describes. Steps holding a choice
// produce a Choice operator, so the result may need a search to resolve
// before it can be trained.
func (s *Spec) Build() (operators.Operator, error) {
	steps := make([]operators.Operator, 0, len(s.Steps))
	for _, step := range s.Steps {
		op, err := buildStep(step, true)
		if err != nil {
			return nil, err
		}
		steps = append(steps, op)
	}

	pipe, err := operators.MakePipeline(steps...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to assemble pipeline")
	}
	if s.Name != "" {
		pipe = pipe.WithName(s.Name)
	}

	return pipe, nil
}

func buildStep(step StepSpec, allowChoice bool) (operators.Operator, error) {
	switch {
	case step.Op != "" && len(step.Choice) > 0:
		return nil, errors.Wrap(ErrStepShape, step.Name)
	case len(step.Choice) > 0:
		if !allowChoice {
			return nil, errors.Wrap(ErrNestedChoice, step.Name)
		}

		return buildChoice(step)
	case step.Op == "":
		return nil, errors.Wrap(operators.ErrStepMustBeSet, step.Name)
	}

	op, err := buildOp(step.Op, step.Params)
	if err != nil {
		return nil, err
	}
	if step.Name != "" {
		op = op.WithName(step.Name)
	}

	return op, nil
}

func buildChoice(step StepSpec) (operators.Operator, error) {
	if len(step.Choice) == 0 {
		return nil, errors.Wrap(ErrEmptyChoice, step.Name)
	}

	alternatives := make([]operators.Operator, 0, len(step.Choice))
	for _, alt := range step.Choice {
		op, err := buildStep(alt, false)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, op)
	}

	choice, err := operators.MakeChoice(alternatives...)
	if err != nil {
		return nil, err
	}
	if step.Name != "" {
		choice = choice.WithName(step.Name)
	}

	return choice, nil
}

func buildOp(name string, params map[string]any) (*operators.IndividualOp, error) {
	reg, ok := operators.LookupName(name)
	if !ok {
		return nil, errors.Wrap(operators.ErrNotRegistered, name)
	}

	op := operators.NewIndividualOp(reg.Name, reg.Factory(), reg.Schema)
	if len(params) > 0 {
		if err := op.SetParams(params); err != nil {
			return nil, errors.Wrapf(err, "unable to configure %s", name)
		}
	}

	return op, nil
}
