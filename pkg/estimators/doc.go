// Package estimators is a small native toolkit of data transformers and
// predictors with a compact Fit/Transform/Predict surface.
//
// Every estimator exposes its hyperparameters through Params and SetParams,
// reports whether it has been fitted, and can produce an unfitted copy of
// itself with Clone. Estimators compose into a Pipeline of named steps where
// each step transforms the data before handing it to the next one; the last
// step may be a predictor.
//
// The package is deliberately self-contained. The operators package wraps
// these types to add lifecycle tracking, DAG composition and search
// constructs on top of them.
package estimators
