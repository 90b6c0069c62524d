package operators

import (
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/braidml/braid/pkg/estimators"
)

// Registration describes how a native impl type surfaces in the catalog:
// its operator name, the hyperparameter schema, and a factory producing a
// fresh prototype.
type Registration struct {
	Name    string
	Schema  Schema
	Factory func() estimators.Estimator
}

var catalog = struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Registration
	byName map[string]Registration
}{
	byType: make(map[reflect.Type]Registration),
	byName: make(map[string]Registration),
}

// Register binds a native impl type to its catalog registration. Packages
// of wrapped operators call it from init, so importing them populates the
// catalog.
func Register(proto estimators.Estimator, reg Registration) error {
	implType := reflect.TypeOf(proto)

	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	if _, ok := catalog.byType[implType]; ok {
		return errors.Wrap(ErrAlreadyRegistered, implType.String())
	}
	if _, ok := catalog.byName[reg.Name]; ok {
		return errors.Wrap(ErrAlreadyRegistered, reg.Name)
	}

	catalog.byType[implType] = reg
	catalog.byName[reg.Name] = reg

	return nil
}

// Lookup returns the registration of an impl's concrete type.
func Lookup(est estimators.Estimator) (Registration, bool) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	reg, ok := catalog.byType[reflect.TypeOf(est)]

	return reg, ok
}

// LookupName returns the registration behind an operator name.
func LookupName(name string) (Registration, bool) {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	reg, ok := catalog.byName[name]

	return reg, ok
}

// RegisteredNames returns all registered operator names, sorted.
func RegisteredNames() []string {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	names := make([]string, 0, len(catalog.byName))
	for name := range catalog.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Wrap turns a native estimator into an IndividualOp. Registered impl
// types get their catalog name and schema; unknown types wrap generically
// under their lowercased type name with a schema inferred from the current
// parameter values.
func Wrap(est estimators.Estimator) *IndividualOp {
	if reg, ok := Lookup(est); ok {
		return NewIndividualOp(reg.Name, est, reg.Schema)
	}

	return NewIndividualOp(estimators.TypeName(est), est, inferSchema(est.Params()))
}

func inferSchema(params map[string]any) Schema {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := make(Schema, 0, len(names))
	for _, name := range names {
		descriptor := ParamDescriptor{Name: name, Default: params[name]}
		switch params[name].(type) {
		case bool:
			descriptor.Kind = KindBool
		case int, int64:
			descriptor.Kind = KindInt
		case float32, float64:
			descriptor.Kind = KindFloat
		default:
			descriptor.Kind = KindEnum
			descriptor.Enum = []any{params[name]}
		}
		schema = append(schema, descriptor)
	}

	return schema
}
