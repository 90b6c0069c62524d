package operators

import "github.com/pkg/errors"

// Kind is the value kind of a hyperparameter descriptor.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindEnum:
		return "enum"
	}

	return "unknown"
}

// ParamDescriptor describes one hyperparameter of a wrapped estimator: its
// kind, default, and the numeric range or enum values search sampling draws
// from.
type ParamDescriptor struct {
	Name     string
	Kind     Kind
	Default  any
	Min      float64
	Max      float64
	HasRange bool
	Enum     []any
}

// Validate checks a candidate value against the descriptor.
func (d ParamDescriptor) Validate(value any) error {
	switch d.Kind {
	case KindBool:
		if _, ok := value.(bool); !ok {
			return errors.Wrapf(ErrInvalidParam, "%s expects a bool, got %T", d.Name, value)
		}
	case KindInt:
		n, ok := intValue(value)
		if !ok {
			return errors.Wrapf(ErrInvalidParam, "%s expects an int, got %T(%v)", d.Name, value, value)
		}
		if d.HasRange && (float64(n) < d.Min || float64(n) > d.Max) {
			return errors.Wrapf(ErrInvalidParam, "%s=%d outside [%g, %g]", d.Name, n, d.Min, d.Max)
		}
	case KindFloat:
		f, ok := floatValue(value)
		if !ok {
			return errors.Wrapf(ErrInvalidParam, "%s expects a float, got %T", d.Name, value)
		}
		if d.HasRange && (f < d.Min || f > d.Max) {
			return errors.Wrapf(ErrInvalidParam, "%s=%g outside [%g, %g]", d.Name, f, d.Min, d.Max)
		}
	case KindEnum:
		for _, allowed := range d.Enum {
			if value == allowed {
				return nil
			}
		}

		return errors.Wrapf(ErrInvalidParam, "%s=%v is not one of %v", d.Name, value, d.Enum)
	}

	return nil
}

func intValue(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}

	return 0, false
}

func floatValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}

	return 0, false
}

// Schema is the ordered descriptor list of one operator.
type Schema []ParamDescriptor

// Find returns the descriptor with the given name.
func (s Schema) Find(name string) (ParamDescriptor, bool) {
	for _, d := range s {
		if d.Name == name {
			return d, true
		}
	}

	return ParamDescriptor{}, false
}
