package operators

import "github.com/pkg/errors"

var (
	ErrNotTrainable      = errors.New("operator is not trainable")
	ErrNotLinear         = errors.New("operator is not a linear chain of individual ops")
	ErrEmptyPipeline     = errors.New("pipeline must have at least one step")
	ErrEmptyChoice       = errors.New("choice must have at least one alternative")
	ErrDuplicateStep     = errors.New("step names must be unique")
	ErrStepName          = errors.New("step name must not be empty or contain '__'")
	ErrUnknownStep       = errors.New("unknown step")
	ErrUnknownParam      = errors.New("unknown hyperparameter")
	ErrInvalidParam      = errors.New("invalid hyperparameter value")
	ErrFanIn             = errors.New("fan-in step requires a multi-transformer impl")
	ErrNotATransformer   = errors.New("operator impl is not a transformer")
	ErrNotAPredictor     = errors.New("operator impl is not a predictor")
	ErrNoSink            = errors.New("pipeline must have exactly one sink")
	ErrAlreadyRegistered = errors.New("impl type is already registered")
	ErrNotRegistered     = errors.New("no registration for operator name")
	ErrStepMustBeSet     = errors.New("step must be set")
)
