package estimators

import "github.com/pkg/errors"

var (
	ErrNotFitted        = errors.New("estimator is not fitted")
	ErrUnknownParam     = errors.New("unknown hyperparameter")
	ErrEmptyMatrix      = errors.New("matrix must have at least one row")
	ErrRaggedMatrix     = errors.New("matrix rows must have the same number of columns")
	ErrLengthMismatch   = errors.New("x and y must have the same number of rows")
	ErrColumnMismatch   = errors.New("column count does not match the fitted data")
	ErrEmptyPipeline    = errors.New("pipeline must have at least one step")
	ErrDuplicateStep    = errors.New("step names must be unique")
	ErrStepName         = errors.New("step name must not be empty or contain '__'")
	ErrNotATransformer  = errors.New("estimator is not a transformer")
	ErrNotAPredictor    = errors.New("estimator is not a predictor")
	ErrParamType        = errors.New("invalid hyperparameter value type")
	ErrSingularMatrix   = errors.New("matrix is singular")
	ErrHoldoutFraction  = errors.New("holdout fraction must be in (0, 1)")
	ErrNotEnoughSamples = errors.New("not enough samples")
)
