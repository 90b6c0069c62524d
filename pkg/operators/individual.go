package operators

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/observe"
)

// IndividualOp is a trainable wrapper around a single native estimator. It
// holds the estimator prototype, the current hyperparameter values, and the
// catalog schema describing them. Fitting clones the prototype, so an op
// can be fitted many times with different parameters.
type IndividualOp struct {
	name   string
	proto  estimators.Estimator
	schema Schema
	params map[string]any
}

// NewIndividualOp wraps a native estimator prototype. The initial
// hyperparameter values are snapshot from the prototype.
func NewIndividualOp(name string, proto estimators.Estimator, schema Schema) *IndividualOp {
	params := make(map[string]any)
	for key, value := range proto.Params() {
		params[key] = value
	}

	return &IndividualOp{name: name, proto: proto, schema: schema, params: params}
}

func (o *IndividualOp) Name() string { return o.name }

// WithName returns a renamed copy of the op.
func (o *IndividualOp) WithName(name string) *IndividualOp {
	clone := o.clone()
	clone.name = name

	return clone
}

// Impl returns the underlying native estimator prototype.
func (o *IndividualOp) Impl() estimators.Estimator { return o.proto }

// Schema returns the hyperparameter descriptors of the op.
func (o *IndividualOp) Schema() Schema { return o.schema }

// Params returns a copy of the current hyperparameter values.
func (o *IndividualOp) Params() map[string]any {
	out := make(map[string]any, len(o.params))
	for key, value := range o.params {
		out[key] = value
	}

	return out
}

// SetParams mutates hyperparameter values. Keys must exist on the wrapped
// estimator, and values are validated against the catalog descriptors.
func (o *IndividualOp) SetParams(params map[string]any) error {
	for key, value := range params {
		if _, ok := o.params[key]; !ok {
			return errors.Wrapf(ErrUnknownParam, "%s on %s", key, o.name)
		}
		if descriptor, ok := o.schema.Find(key); ok {
			if err := descriptor.Validate(value); err != nil {
				return errors.Wrapf(err, "unable to set %s on %s", key, o.name)
			}
		}
	}
	for key, value := range params {
		o.params[key] = value
	}

	return nil
}

func (o *IndividualOp) clone() *IndividualOp {
	params := make(map[string]any, len(o.params))
	for key, value := range o.params {
		params[key] = value
	}

	return &IndividualOp{name: o.name, proto: o.proto, schema: o.schema, params: params}
}

// configuredImpl returns an unfitted clone of the prototype with the
// current hyperparameter values applied.
func (o *IndividualOp) configuredImpl() (estimators.Estimator, error) {
	impl := o.proto.Clone()
	if err := impl.SetParams(o.params); err != nil {
		return nil, errors.Wrapf(err, "unable to configure %s", o.name)
	}

	return impl, nil
}

// Fit clones the prototype, applies the hyperparameters, and fits the clone.
func (o *IndividualOp) Fit(ctx context.Context, x estimators.Matrix, y estimators.Vector, opts ...FitOption) (TrainedOperator, error) {
	cfg := newFitConfig(opts)

	return o.fit(ctx, []estimators.Matrix{x}, y, cfg.observer)
}

func (o *IndividualOp) fit(ctx context.Context, inputs []estimators.Matrix, y estimators.Vector, obs observe.Observer) (*TrainedIndividualOp, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "fit %s", o.name)
	}

	impl, err := o.configuredImpl()
	if err != nil {
		return nil, err
	}

	if obs != nil {
		obs.FitStart(o.name)
	}
	start := time.Now()

	fitX := inputs[0]
	if len(inputs) > 1 {
		if _, ok := impl.(estimators.MultiTransformer); !ok {
			return nil, errors.Wrap(ErrFanIn, o.name)
		}
		// fan-in steps train on the same columns they will transform
		fitX, err = estimators.ConcatColumns(inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to fit %s", o.name)
		}
	}
	if err := impl.Fit(fitX, y); err != nil {
		return nil, errors.Wrapf(err, "unable to fit %s", o.name)
	}

	elapsed := time.Since(start)
	if obs != nil {
		obs.StepFitted(o.name, estimators.TypeName(impl), elapsed)
		obs.FitEnd(o.name, elapsed)
	}

	return &TrainedIndividualOp{op: o.clone(), impl: impl}, nil
}

// TrainedIndividualOp wraps the fitted impl of an IndividualOp.
type TrainedIndividualOp struct {
	op   *IndividualOp
	impl estimators.Estimator
}

func (t *TrainedIndividualOp) Name() string { return t.op.name }

// Impl returns the fitted native estimator.
func (t *TrainedIndividualOp) Impl() estimators.Estimator { return t.impl }

// Params returns the hyperparameters the impl was fitted with.
func (t *TrainedIndividualOp) Params() map[string]any { return t.op.Params() }

// SetParams on a trained op mutates the trainable form used by Clone; the
// fitted impl keeps the values it was trained with.
func (t *TrainedIndividualOp) SetParams(params map[string]any) error {
	return t.op.SetParams(params)
}

// Clone returns the trainable form of the op: same configuration, no
// learned state.
func (t *TrainedIndividualOp) Clone() *IndividualOp { return t.op.clone() }

func (t *TrainedIndividualOp) Transform(ctx context.Context, x estimators.Matrix) (estimators.Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "transform %s", t.op.name)
	}

	transformer, ok := t.impl.(estimators.Transformer)
	if !ok {
		return nil, errors.Wrap(ErrNotATransformer, t.op.name)
	}

	out, err := transformer.Transform(x)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to transform %s", t.op.name)
	}

	return out, nil
}

func (t *TrainedIndividualOp) transformMany(ctx context.Context, inputs []estimators.Matrix) (estimators.Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "transform %s", t.op.name)
	}

	multi, ok := t.impl.(estimators.MultiTransformer)
	if !ok {
		return nil, errors.Wrap(ErrFanIn, t.op.name)
	}

	out, err := multi.TransformMany(inputs)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to transform %s", t.op.name)
	}

	return out, nil
}

func (t *TrainedIndividualOp) Predict(ctx context.Context, x estimators.Matrix) (estimators.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "predict %s", t.op.name)
	}

	predictor, ok := t.impl.(estimators.Predictor)
	if !ok {
		return nil, errors.Wrap(ErrNotAPredictor, t.op.name)
	}

	out, err := predictor.Predict(x)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to predict %s", t.op.name)
	}

	return out, nil
}

var (
	_ TrainableOperator = (*IndividualOp)(nil)
	_ ParamOperator     = (*IndividualOp)(nil)
	_ TrainedOperator   = (*TrainedIndividualOp)(nil)
	_ ParamOperator     = (*TrainedIndividualOp)(nil)
)
