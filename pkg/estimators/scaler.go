package estimators

import (
	"math"

	"github.com/pkg/errors"
)

// StandardScaler centres each column on its mean and scales it to unit
// variance. Zero-variance columns pass through unscaled.
type StandardScaler struct {
	WithMean bool
	WithStd  bool

	mean   Vector
	std    Vector
	fitted bool
}

// NewStandardScaler returns a scaler that both centres and scales.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{WithMean: true, WithStd: true}
}

func (s *StandardScaler) Params() map[string]any {
	return map[string]any{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) SetParams(params map[string]any) error {
	if err := unknownParams(params, "with_mean", "with_std"); err != nil {
		return err
	}
	for name, value := range params {
		b, err := asBool(name, value)
		if err != nil {
			return err
		}
		switch name {
		case "with_mean":
			s.WithMean = b
		case "with_std":
			s.WithStd = b
		}
	}

	return nil
}

func (s *StandardScaler) Fit(x Matrix, _ Vector) error {
	if err := checkMatrix(x); err != nil {
		return errors.Wrap(err, "unable to fit standard scaler")
	}

	cols := x.Cols()
	s.mean = make(Vector, cols)
	s.std = make(Vector, cols)

	for j := 0; j < cols; j++ {
		sum := 0.0
		for _, row := range x {
			sum += row[j]
		}
		s.mean[j] = sum / float64(len(x))

		varSum := 0.0
		for _, row := range x {
			d := row[j] - s.mean[j]
			varSum += d * d
		}
		s.std[j] = math.Sqrt(varSum / float64(len(x)))
	}
	s.fitted = true

	return nil
}

func (s *StandardScaler) Transform(x Matrix) (Matrix, error) {
	if !s.fitted {
		return nil, errors.Wrap(ErrNotFitted, "standard scaler")
	}
	if err := checkMatrix(x); err != nil {
		return nil, err
	}
	if x.Cols() != len(s.mean) {
		return nil, errors.Wrapf(ErrColumnMismatch, "%d columns, fitted with %d", x.Cols(), len(s.mean))
	}

	out := make(Matrix, len(x))
	for i, row := range x {
		newRow := make(Vector, len(row))
		for j, v := range row {
			if s.WithMean {
				v -= s.mean[j]
			}
			if s.WithStd && s.std[j] != 0 {
				v /= s.std[j]
			}
			newRow[j] = v
		}
		out[i] = newRow
	}

	return out, nil
}

func (s *StandardScaler) Fitted() bool { return s.fitted }

func (s *StandardScaler) Clone() Estimator {
	return &StandardScaler{WithMean: s.WithMean, WithStd: s.WithStd}
}

// Mean returns the per-column means learnt during Fit.
func (s *StandardScaler) Mean() Vector { return s.mean }

// Std returns the per-column standard deviations learnt during Fit.
func (s *StandardScaler) Std() Vector { return s.std }

// MinMaxScaler rescales each column into a target range, [0, 1] by default.
type MinMaxScaler struct {
	RangeMin float64
	RangeMax float64

	min    Vector
	max    Vector
	fitted bool
}

func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{RangeMin: 0, RangeMax: 1}
}

func (s *MinMaxScaler) Params() map[string]any {
	return map[string]any{
		"range_min": s.RangeMin,
		"range_max": s.RangeMax,
	}
}

func (s *MinMaxScaler) SetParams(params map[string]any) error {
	if err := unknownParams(params, "range_min", "range_max"); err != nil {
		return err
	}
	for name, value := range params {
		f, err := asFloat(name, value)
		if err != nil {
			return err
		}
		switch name {
		case "range_min":
			s.RangeMin = f
		case "range_max":
			s.RangeMax = f
		}
	}

	return nil
}

func (s *MinMaxScaler) Fit(x Matrix, _ Vector) error {
	if err := checkMatrix(x); err != nil {
		return errors.Wrap(err, "unable to fit min-max scaler")
	}

	cols := x.Cols()
	s.min = make(Vector, cols)
	s.max = make(Vector, cols)
	for j := 0; j < cols; j++ {
		s.min[j] = math.Inf(1)
		s.max[j] = math.Inf(-1)
		for _, row := range x {
			s.min[j] = math.Min(s.min[j], row[j])
			s.max[j] = math.Max(s.max[j], row[j])
		}
	}
	s.fitted = true

	return nil
}

func (s *MinMaxScaler) Transform(x Matrix) (Matrix, error) {
	if !s.fitted {
		return nil, errors.Wrap(ErrNotFitted, "min-max scaler")
	}
	if err := checkMatrix(x); err != nil {
		return nil, err
	}
	if x.Cols() != len(s.min) {
		return nil, errors.Wrapf(ErrColumnMismatch, "%d columns, fitted with %d", x.Cols(), len(s.min))
	}

	span := s.RangeMax - s.RangeMin
	out := make(Matrix, len(x))
	for i, row := range x {
		newRow := make(Vector, len(row))
		for j, v := range row {
			if s.max[j] == s.min[j] {
				newRow[j] = s.RangeMin

				continue
			}
			newRow[j] = s.RangeMin + (v-s.min[j])/(s.max[j]-s.min[j])*span
		}
		out[i] = newRow
	}

	return out, nil
}

func (s *MinMaxScaler) Fitted() bool { return s.fitted }

func (s *MinMaxScaler) Clone() Estimator {
	return &MinMaxScaler{RangeMin: s.RangeMin, RangeMax: s.RangeMax}
}
