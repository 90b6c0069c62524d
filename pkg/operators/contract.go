package operators

import (
	"context"

	"github.com/braidml/braid/pkg/estimators"
)

// Operator is any node of a pipeline: an individual op, a pipeline, a
// choice, or an external planned form such as a grammar nonterminal.
type Operator interface {
	Name() string
}

// TrainableOperator can be fitted into a trained form. Planned-only
// operators (choices, nonterminals) do not implement it.
type TrainableOperator interface {
	Operator
	Fit(ctx context.Context, x estimators.Matrix, y estimators.Vector, opts ...FitOption) (TrainedOperator, error)
}

// TrainedOperator applies a fitted operator to new data.
type TrainedOperator interface {
	Operator
	Transform(ctx context.Context, x estimators.Matrix) (estimators.Matrix, error)
	Predict(ctx context.Context, x estimators.Matrix) (estimators.Vector, error)
}

// ParamOperator exposes hyperparameters for introspection and mutation.
// Pipelines flatten the keys of their steps with the
// `stepname__paramname` convention.
type ParamOperator interface {
	Operator
	Params() map[string]any
	SetParams(params map[string]any) error
}

// Cloner lets operator kinds defined outside this package take part in
// Clone.
type Cloner interface {
	CloneOperator() Operator
}
