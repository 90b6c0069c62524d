// Package ops is the catalog of wrapped operators. Each constructor
// returns an operators.IndividualOp around the matching native estimator,
// with the hyperparameter schema attached. Registrations happen at import
// time, so importing this package also teaches operators.FromNative how to
// wrap the native impl types.
package ops

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/braidml/braid/pkg/estimators"
	"github.com/braidml/braid/pkg/operators"
)

type entry struct {
	proto estimators.Estimator
	reg   operators.Registration
}

var entries = []entry{
	{
		proto: estimators.NewStandardScaler(),
		reg: operators.Registration{
			Name: "standard_scaler",
			Schema: operators.Schema{
				{Name: "with_mean", Kind: operators.KindBool, Default: true},
				{Name: "with_std", Kind: operators.KindBool, Default: true},
			},
			Factory: func() estimators.Estimator { return estimators.NewStandardScaler() },
		},
	},
	{
		proto: estimators.NewMinMaxScaler(),
		reg: operators.Registration{
			Name: "min_max_scaler",
			Schema: operators.Schema{
				{Name: "range_min", Kind: operators.KindFloat, Default: 0.0, Min: -10, Max: 0, HasRange: true},
				{Name: "range_max", Kind: operators.KindFloat, Default: 1.0, Min: 0.5, Max: 10, HasRange: true},
			},
			Factory: func() estimators.Estimator { return estimators.NewMinMaxScaler() },
		},
	},
	{
		proto: estimators.NewPCA(2),
		reg: operators.Registration{
			Name: "pca",
			Schema: operators.Schema{
				{Name: "n_components", Kind: operators.KindInt, Default: 2, Min: 1, Max: 16, HasRange: true},
			},
			Factory: func() estimators.Estimator { return estimators.NewPCA(2) },
		},
	},
	{
		proto: estimators.NewLinearRegression(),
		reg: operators.Registration{
			Name: "linear_regression",
			Schema: operators.Schema{
				{Name: "fit_intercept", Kind: operators.KindBool, Default: true},
			},
			Factory: func() estimators.Estimator { return estimators.NewLinearRegression() },
		},
	},
	{
		proto: estimators.NewLogisticRegression(),
		reg: operators.Registration{
			Name: "logistic_regression",
			Schema: operators.Schema{
				{Name: "lr", Kind: operators.KindFloat, Default: 0.1, Min: 0.001, Max: 1, HasRange: true},
				{Name: "epochs", Kind: operators.KindInt, Default: 200, Min: 10, Max: 2000, HasRange: true},
				{Name: "l2", Kind: operators.KindFloat, Default: 0.0, Min: 0, Max: 1, HasRange: true},
			},
			Factory: func() estimators.Estimator { return estimators.NewLogisticRegression() },
		},
	},
	{
		proto: estimators.NewKNNClassifier(),
		reg: operators.Registration{
			Name: "knn_classifier",
			Schema: operators.Schema{
				{Name: "k", Kind: operators.KindInt, Default: 3, Min: 1, Max: 15, HasRange: true},
			},
			Factory: func() estimators.Estimator { return estimators.NewKNNClassifier() },
		},
	},
	{
		proto: estimators.NewNoOp(),
		reg: operators.Registration{
			Name:    "no_op",
			Schema:  operators.Schema{},
			Factory: func() estimators.Estimator { return estimators.NewNoOp() },
		},
	},
	{
		proto: estimators.NewConcatFeatures(),
		reg: operators.Registration{
			Name:    "concat_features",
			Schema:  operators.Schema{},
			Factory: func() estimators.Estimator { return estimators.NewConcatFeatures() },
		},
	},
}

func init() {
	for _, e := range entries {
		if err := operators.Register(e.proto, e.reg); err != nil {
			panic(fmt.Sprintf("ops: %v", err))
		}
	}
}

func mustWrap(name string) *operators.IndividualOp {
	reg, ok := operators.LookupName(name)
	if !ok {
		panic("ops: " + name + " is not registered")
	}

	return operators.NewIndividualOp(reg.Name, reg.Factory(), reg.Schema)
}

// StandardScaler returns the wrapped standard scaler operator.
func StandardScaler() *operators.IndividualOp { return mustWrap("standard_scaler") }

// MinMaxScaler returns the wrapped min-max scaler operator.
func MinMaxScaler() *operators.IndividualOp { return mustWrap("min_max_scaler") }

// PCA returns the wrapped principal component analysis operator.
func PCA() *operators.IndividualOp { return mustWrap("pca") }

// LinearRegression returns the wrapped linear regression operator.
func LinearRegression() *operators.IndividualOp { return mustWrap("linear_regression") }

// LogisticRegression returns the wrapped logistic regression operator.
func LogisticRegression() *operators.IndividualOp { return mustWrap("logistic_regression") }

// KNNClassifier returns the wrapped k-nearest-neighbours classifier.
func KNNClassifier() *operators.IndividualOp { return mustWrap("knn_classifier") }

// NoOp returns the wrapped identity operator.
func NoOp() *operators.IndividualOp { return mustWrap("no_op") }

// ConcatFeatures returns the wrapped column concatenation operator.
func ConcatFeatures() *operators.IndividualOp { return mustWrap("concat_features") }

// Build resolves an operator name through the catalog.
func Build(name string) (*operators.IndividualOp, error) {
	reg, ok := operators.LookupName(name)
	if !ok {
		return nil, errors.Wrapf(operators.ErrNotRegistered, "%s (known: %v)", name, operators.RegisteredNames())
	}

	return operators.NewIndividualOp(reg.Name, reg.Factory(), reg.Schema), nil
}
