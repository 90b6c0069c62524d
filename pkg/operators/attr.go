package operators

import (
	"reflect"

	"github.com/braidml/braid/pkg/estimators"
)

// ImplOf unwraps an operator to its native estimator: the prototype for a
// trainable op, the fitted impl for a trained one.
func ImplOf(op Operator) (estimators.Estimator, bool) {
	switch v := op.(type) {
	case *IndividualOp:
		return v.proto, true
	case *TrainedIndividualOp:
		return v.impl, true
	}

	return nil, false
}

// As unwraps the operator's native impl into target, following the
// errors.As convention: target must be a non-nil pointer to a type the impl
// is assignable to. It reports whether the assignment happened.
func As(op Operator, target any) bool {
	impl, ok := ImplOf(op)
	if !ok {
		return false
	}

	val := reflect.ValueOf(target)
	if !val.IsValid() || val.Kind() != reflect.Pointer || val.IsNil() {
		panic("operators: target must be a non-nil pointer")
	}

	elem := val.Elem()
	implVal := reflect.ValueOf(impl)
	if !implVal.Type().AssignableTo(elem.Type()) {
		return false
	}
	elem.Set(implVal)

	return true
}

// IsA reports whether the operator wraps a native impl of type T.
func IsA[T estimators.Estimator](op Operator) bool {
	impl, ok := ImplOf(op)
	if !ok {
		return false
	}
	_, ok = impl.(T)

	return ok
}

// Attr resolves an attribute name against the wrapped native impl: first an
// exported zero-argument method, then an exported struct field. It returns
// the value and whether the name resolved.
func Attr(op Operator, name string) (any, bool) {
	impl, ok := ImplOf(op)
	if !ok {
		return nil, false
	}

	val := reflect.ValueOf(impl)
	method := val.MethodByName(name)
	if method.IsValid() && method.Type().NumIn() == 0 && method.Type().NumOut() >= 1 {
		return method.Call(nil)[0].Interface(), true
	}

	for val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	if val.Kind() == reflect.Struct {
		if field, ok := val.Type().FieldByName(name); ok && field.IsExported() {
			return val.FieldByName(name).Interface(), true
		}
	}

	return nil, false
}
