package estimators

import "github.com/pkg/errors"

// Hyperparameter values travel as `any` through Params/SetParams and may
// originate from YAML or JSON, so numeric kinds need a little coercion.

func asBool(name string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, errors.Wrapf(ErrParamType, "%s expects a bool, got %T", name, value)
	}

	return b, nil
}

func asInt(name string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}

	return 0, errors.Wrapf(ErrParamType, "%s expects an int, got %T(%v)", name, value, value)
}

func asFloat(name string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}

	return 0, errors.Wrapf(ErrParamType, "%s expects a float, got %T", name, value)
}

func unknownParams(params map[string]any, known ...string) error {
	for key := range params {
		found := false
		for _, k := range known {
			if key == k {
				found = true

				break
			}
		}
		if !found {
			return errors.Wrap(ErrUnknownParam, key)
		}
	}

	return nil
}
