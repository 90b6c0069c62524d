package estimators

import "github.com/pkg/errors"

// NoOp passes its input through unchanged. It is the identity element of
// pipeline composition and the fallback result of an empty grammar unfold.
type NoOp struct {
	fitted bool
}

func NewNoOp() *NoOp { return &NoOp{} }

func (n *NoOp) Params() map[string]any { return map[string]any{} }

func (n *NoOp) SetParams(params map[string]any) error {
	return unknownParams(params)
}

func (n *NoOp) Fit(x Matrix, _ Vector) error {
	if err := checkMatrix(x); err != nil {
		return errors.Wrap(err, "unable to fit noop")
	}
	n.fitted = true

	return nil
}

func (n *NoOp) Transform(x Matrix) (Matrix, error) {
	if err := checkMatrix(x); err != nil {
		return nil, err
	}

	return x, nil
}

func (n *NoOp) Fitted() bool { return n.fitted }

func (n *NoOp) Clone() Estimator { return &NoOp{} }

// ConcatFeatures concatenates the columns of several matrices with the same
// row count. It is the canonical sink of a union of parallel branches.
type ConcatFeatures struct {
	fitted bool
}

func NewConcatFeatures() *ConcatFeatures { return &ConcatFeatures{} }

func (c *ConcatFeatures) Params() map[string]any { return map[string]any{} }

func (c *ConcatFeatures) SetParams(params map[string]any) error {
	return unknownParams(params)
}

func (c *ConcatFeatures) Fit(x Matrix, _ Vector) error {
	if err := checkMatrix(x); err != nil {
		return errors.Wrap(err, "unable to fit concat features")
	}
	c.fitted = true

	return nil
}

func (c *ConcatFeatures) Transform(x Matrix) (Matrix, error) {
	return c.TransformMany([]Matrix{x})
}

func (c *ConcatFeatures) TransformMany(inputs []Matrix) (Matrix, error) {
	return ConcatColumns(inputs)
}

func (c *ConcatFeatures) Fitted() bool { return c.fitted }

func (c *ConcatFeatures) Clone() Estimator { return &ConcatFeatures{} }
