package operators

import (
	"github.com/pkg/errors"

	"github.com/braidml/braid/pkg/estimators"
)

// FromNative wraps a native pipeline into an operator pipeline, preserving
// step names, order and current hyperparameters. Steps with a registered
// impl type get their catalog schema; other estimators wrap generically.
func FromNative(np *estimators.Pipeline) (*Pipeline, error) {
	if np == nil {
		return nil, ErrEmptyPipeline
	}

	steps := np.Steps()
	ops := make([]Operator, len(steps))
	for i, step := range steps {
		ops[i] = Wrap(step.Est).WithName(step.Name)
	}

	return MakePipeline(ops...)
}

// FromNativeEstimator wraps a single native estimator.
func FromNativeEstimator(est estimators.Estimator) *IndividualOp {
	return Wrap(est)
}

// ToNative exports an operator back to the native pipeline representation.
// The operator must be a linear chain of individual ops; a trained wrapper
// exports its fitted impls, so the native pipeline stays trained, while a
// trainable wrapper exports configured unfitted impls.
func ToNative(op Operator) (*estimators.Pipeline, error) {
	switch v := op.(type) {
	case *IndividualOp:
		impl, err := v.configuredImpl()
		if err != nil {
			return nil, err
		}

		return estimators.NewPipeline(estimators.NamedStep{Name: v.name, Est: impl})
	case *TrainedIndividualOp:
		return estimators.NewPipeline(estimators.NamedStep{Name: v.op.name, Est: v.impl})
	case *Pipeline:
		chain, err := v.linearChain()
		if err != nil {
			return nil, err
		}
		steps := make([]estimators.NamedStep, len(chain))
		for i, step := range chain {
			iop, ok := step.(*IndividualOp)
			if !ok {
				return nil, errors.Wrap(ErrNotLinear, step.Name())
			}
			impl, err := iop.configuredImpl()
			if err != nil {
				return nil, err
			}
			steps[i] = estimators.NamedStep{Name: iop.name, Est: impl}
		}

		return estimators.NewPipeline(steps...)
	case *TrainedPipeline:
		chain, err := v.pipeline.linearChain()
		if err != nil {
			return nil, err
		}
		steps := make([]estimators.NamedStep, len(chain))
		for i, step := range chain {
			trainedOp, ok := v.trained[step.Name()]
			if !ok {
				return nil, errors.Wrap(ErrUnknownStep, step.Name())
			}
			tio, ok := trainedOp.(*TrainedIndividualOp)
			if !ok {
				return nil, errors.Wrap(ErrNotLinear, step.Name())
			}
			steps[i] = estimators.NamedStep{Name: tio.op.name, Est: tio.impl}
		}

		return estimators.NewPipeline(steps...)
	}

	return nil, errors.Wrap(ErrNotLinear, op.Name())
}

// linearChain returns the steps as a single source-to-sink path, or
// ErrNotLinear when the DAG branches.
func (p *Pipeline) linearChain() ([]Operator, error) {
	if len(p.steps) == 0 {
		return nil, ErrEmptyPipeline
	}

	sources := p.Sources()
	if len(sources) != 1 {
		return nil, errors.Wrapf(ErrNotLinear, "%d sources", len(sources))
	}

	chain := make([]Operator, 0, len(p.steps))
	current := sources[0]
	for {
		chain = append(chain, current)
		successors := p.store.Successors(current.Name())
		if len(successors) == 0 {
			break
		}
		if len(successors) > 1 || p.store.InDegree(successors[0]) > 1 {
			return nil, errors.Wrap(ErrNotLinear, current.Name())
		}
		current = p.steps[p.index[successors[0]]]
	}

	if len(chain) != len(p.steps) {
		return nil, errors.Wrapf(ErrNotLinear, "%d of %d steps reachable", len(chain), len(p.steps))
	}

	return chain, nil
}
