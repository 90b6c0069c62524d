package estimators

import (
	"math"

	"github.com/pkg/errors"
)

// LogisticRegression is a binary classifier trained with full-batch gradient
// descent and optional L2 regularisation. Targets must be 0 or 1; Predict
// returns the class, PredictProba the positive-class probability.
type LogisticRegression struct {
	LearningRate float64
	Epochs       int
	L2           float64

	coef      Vector
	intercept float64
	fitted    bool
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, Epochs: 200, L2: 0}
}

func (l *LogisticRegression) Params() map[string]any {
	return map[string]any{
		"lr":     l.LearningRate,
		"epochs": l.Epochs,
		"l2":     l.L2,
	}
}

func (l *LogisticRegression) SetParams(params map[string]any) error {
	if err := unknownParams(params, "lr", "epochs", "l2"); err != nil {
		return err
	}
	if value, ok := params["lr"]; ok {
		f, err := asFloat("lr", value)
		if err != nil {
			return err
		}
		l.LearningRate = f
	}
	if value, ok := params["epochs"]; ok {
		n, err := asInt("epochs", value)
		if err != nil {
			return err
		}
		l.Epochs = n
	}
	if value, ok := params["l2"]; ok {
		f, err := asFloat("l2", value)
		if err != nil {
			return err
		}
		l.L2 = f
	}

	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func (l *LogisticRegression) Fit(x Matrix, y Vector) error {
	if err := checkFitInput(x, y); err != nil {
		return errors.Wrap(err, "unable to fit logistic regression")
	}
	if y == nil {
		return errors.Wrap(ErrLengthMismatch, "logistic regression requires targets")
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return errors.Wrapf(ErrParamType, "target %d must be 0 or 1, got %g", i, label)
		}
	}

	cols := x.Cols()
	l.coef = make(Vector, cols)
	l.intercept = 0
	n := float64(len(x))

	for epoch := 0; epoch < l.Epochs; epoch++ {
		grad := make(Vector, cols)
		gradIntercept := 0.0
		for r, row := range x {
			z := l.intercept
			for j, v := range row {
				z += v * l.coef[j]
			}
			diff := sigmoid(z) - y[r]
			gradIntercept += diff
			for j, v := range row {
				grad[j] += diff * v
			}
		}
		for j := range grad {
			grad[j] = grad[j]/n + l.L2*l.coef[j]
			l.coef[j] -= l.LearningRate * grad[j]
		}
		l.intercept -= l.LearningRate * gradIntercept / n
	}
	l.fitted = true

	return nil
}

// PredictProba returns the probability of the positive class per row.
func (l *LogisticRegression) PredictProba(x Matrix) (Vector, error) {
	if !l.fitted {
		return nil, errors.Wrap(ErrNotFitted, "logistic regression")
	}
	if err := checkMatrix(x); err != nil {
		return nil, err
	}
	if x.Cols() != len(l.coef) {
		return nil, errors.Wrapf(ErrColumnMismatch, "%d columns, fitted with %d", x.Cols(), len(l.coef))
	}

	out := make(Vector, len(x))
	for i, row := range x {
		z := l.intercept
		for j, v := range row {
			z += v * l.coef[j]
		}
		out[i] = sigmoid(z)
	}

	return out, nil
}

func (l *LogisticRegression) Predict(x Matrix) (Vector, error) {
	probs, err := l.PredictProba(x)
	if err != nil {
		return nil, err
	}
	for i, p := range probs {
		if p >= 0.5 {
			probs[i] = 1
		} else {
			probs[i] = 0
		}
	}

	return probs, nil
}

func (l *LogisticRegression) Fitted() bool { return l.fitted }

func (l *LogisticRegression) Clone() Estimator {
	return &LogisticRegression{LearningRate: l.LearningRate, Epochs: l.Epochs, L2: l.L2}
}

// Coef returns the fitted coefficients.
func (l *LogisticRegression) Coef() Vector { return l.coef }

// Intercept returns the fitted intercept.
func (l *LogisticRegression) Intercept() float64 { return l.intercept }
