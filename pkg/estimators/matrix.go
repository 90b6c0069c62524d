package estimators

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Matrix is a row-major dense matrix.
type Matrix [][]float64

// Vector is a dense target or coefficient vector.
type Vector []float64

// Clone returns a deep copy of the matrix.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append(Vector(nil), row...)
	}

	return out
}

// Cols returns the number of columns, or 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}

	return len(m[0])
}

// ConcatColumns joins matrices column-wise. Every input must have the same
// number of rows.
func ConcatColumns(inputs []Matrix) (Matrix, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyMatrix
	}
	for _, in := range inputs {
		if err := checkMatrix(in); err != nil {
			return nil, err
		}
		if len(in) != len(inputs[0]) {
			return nil, errors.Wrapf(ErrLengthMismatch, "inputs have %d and %d rows", len(inputs[0]), len(in))
		}
	}

	out := make(Matrix, len(inputs[0]))
	for i := range out {
		row := Vector{}
		for _, in := range inputs {
			row = append(row, in[i]...)
		}
		out[i] = row
	}

	return out, nil
}

func checkMatrix(x Matrix) error {
	if len(x) == 0 {
		return ErrEmptyMatrix
	}

	cols := len(x[0])
	for i, row := range x {
		if len(row) != cols {
			return errors.Wrapf(ErrRaggedMatrix, "row %d has %d columns, expected %d", i, len(row), cols)
		}
	}

	return nil
}

func checkFitInput(x Matrix, y Vector) error {
	if err := checkMatrix(x); err != nil {
		return err
	}
	if y != nil && len(y) != len(x) {
		return errors.Wrapf(ErrLengthMismatch, "%d rows, %d targets", len(x), len(y))
	}

	return nil
}

// Dataset couples a feature matrix with an optional target vector.
type Dataset struct {
	X Matrix
	Y Vector
}

// Split shuffles the dataset and carves off a holdout fraction.
// The remainder becomes the training part.
func (d Dataset) Split(rng *rand.Rand, holdout float64) (train, test Dataset, err error) {
	if holdout <= 0 || holdout >= 1 {
		return train, test, ErrHoldoutFraction
	}
	if err := checkFitInput(d.X, d.Y); err != nil {
		return train, test, err
	}

	n := len(d.X)
	testSize := int(float64(n) * holdout)
	if testSize == 0 || testSize == n {
		return train, test, errors.Wrapf(ErrNotEnoughSamples, "%d rows with holdout %g", n, holdout)
	}

	perm := rng.Perm(n)
	for idx, i := range perm {
		part := &train
		if idx < testSize {
			part = &test
		}
		part.X = append(part.X, d.X[i])
		if d.Y != nil {
			part.Y = append(part.Y, d.Y[i])
		}
	}

	return train, test, nil
}
