// Package operators wraps the native estimators toolkit with an operator
// object model: DAG composition of named steps, a planned/trainable/trained
// lifecycle, operator choices for search spaces, hyperparameter
// introspection with flattened `stepname__paramname` keys, structural
// cloning that drops trained state, and converters to and from the native
// pipeline representation.
//
// Wrappers stay thin. An IndividualOp holds a native estimator prototype
// plus its hyperparameter values; fitting clones the prototype and returns a
// trained wrapper exposing the fitted impl through Impl. Attribute lookups
// the wrapper does not define resolve against the impl with Attr, and type
// identity checks against a wrapped impl go through As or IsA.
package operators
