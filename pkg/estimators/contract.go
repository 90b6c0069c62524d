package estimators

// Estimator is the common surface of every native toolkit object.
//
// Params returns the current hyperparameter values keyed by their canonical
// snake_case names. SetParams mutates them and must reject unknown keys.
// Clone returns an unfitted copy carrying the same configuration.
type Estimator interface {
	Params() map[string]any
	SetParams(params map[string]any) error
	Fit(x Matrix, y Vector) error
	Fitted() bool
	Clone() Estimator
}

// Transformer is an estimator that maps a matrix to another matrix.
type Transformer interface {
	Estimator
	Transform(x Matrix) (Matrix, error)
}

// Predictor is an estimator that maps a matrix to a target vector.
type Predictor interface {
	Estimator
	Predict(x Matrix) (Vector, error)
}

// MultiTransformer is an estimator that consumes several matrices at once.
// Fan-in nodes of an operator DAG require their impl to support it.
type MultiTransformer interface {
	Estimator
	TransformMany(inputs []Matrix) (Matrix, error)
}
