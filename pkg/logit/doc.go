// Package logit implements maximum-likelihood logistic regression via
// iteratively reweighted least squares (Newton-Raphson). It exposes
// [Fit], the immutable [Model] it produces, and the typed errors the
// solver can return. Models carry their coefficient covariance and
// log-likelihood so significance tests and goodness-of-fit measures can
// be computed without refitting.
package logit
