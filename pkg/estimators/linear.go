package estimators

import (
	"math"

	"github.com/pkg/errors"
)

// LinearRegression fits an ordinary least squares model through the normal
// equations, solved with Gaussian elimination.
type LinearRegression struct {
	FitIntercept bool

	coef      Vector
	intercept float64
	fitted    bool
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{FitIntercept: true}
}

func (l *LinearRegression) Params() map[string]any {
	return map[string]any{"fit_intercept": l.FitIntercept}
}

func (l *LinearRegression) SetParams(params map[string]any) error {
	if err := unknownParams(params, "fit_intercept"); err != nil {
		return err
	}
	if value, ok := params["fit_intercept"]; ok {
		b, err := asBool("fit_intercept", value)
		if err != nil {
			return err
		}
		l.FitIntercept = b
	}

	return nil
}

func (l *LinearRegression) Fit(x Matrix, y Vector) error {
	if err := checkFitInput(x, y); err != nil {
		return errors.Wrap(err, "unable to fit linear regression")
	}
	if y == nil {
		return errors.Wrap(ErrLengthMismatch, "linear regression requires targets")
	}

	design := x
	if l.FitIntercept {
		design = make(Matrix, len(x))
		for i, row := range x {
			design[i] = append(Vector{1}, row...)
		}
	}

	dim := design.Cols()
	// normal equations: (X'X) w = X'y
	ata := make(Matrix, dim)
	atb := make(Vector, dim)
	for i := range ata {
		ata[i] = make(Vector, dim)
	}
	for r, row := range design {
		for i := 0; i < dim; i++ {
			atb[i] += row[i] * y[r]
			for j := i; j < dim; j++ {
				ata[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < dim; i++ {
		for j := 0; j < i; j++ {
			ata[i][j] = ata[j][i]
		}
	}

	weights, err := solveLinearSystem(ata, atb)
	if err != nil {
		return errors.Wrap(err, "unable to solve normal equations")
	}

	if l.FitIntercept {
		l.intercept = weights[0]
		l.coef = weights[1:]
	} else {
		l.intercept = 0
		l.coef = weights
	}
	l.fitted = true

	return nil
}

// solveLinearSystem solves a*x = b in place with partial pivoting.
func solveLinearSystem(a Matrix, b Vector) (Vector, error) {
	dim := len(a)
	for col := 0; col < dim; col++ {
		pivot := col
		for r := col + 1; r < dim; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, ErrSingularMatrix
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < dim; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < dim; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make(Vector, dim)
	for i := dim - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < dim; j++ {
			sum -= a[i][j] * x[j]
		}
		x[i] = sum / a[i][i]
	}

	return x, nil
}

func (l *LinearRegression) Predict(x Matrix) (Vector, error) {
	if !l.fitted {
		return nil, errors.Wrap(ErrNotFitted, "linear regression")
	}
	if err := checkMatrix(x); err != nil {
		return nil, err
	}
	if x.Cols() != len(l.coef) {
		return nil, errors.Wrapf(ErrColumnMismatch, "%d columns, fitted with %d", x.Cols(), len(l.coef))
	}

	out := make(Vector, len(x))
	for i, row := range x {
		sum := l.intercept
		for j, v := range row {
			sum += v * l.coef[j]
		}
		out[i] = sum
	}

	return out, nil
}

func (l *LinearRegression) Fitted() bool { return l.fitted }

func (l *LinearRegression) Clone() Estimator {
	return &LinearRegression{FitIntercept: l.FitIntercept}
}

// Coef returns the fitted coefficients.
func (l *LinearRegression) Coef() Vector { return l.coef }

// Intercept returns the fitted intercept.
func (l *LinearRegression) Intercept() float64 { return l.intercept }
