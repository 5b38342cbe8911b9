// Package workflow declares the pipelines external callers run. Each
// declaration takes its top-level parameters, drives a builder.Builder and
// returns the ids of the sink nodes it declared.
//
// Sweeps are expressed with sweep axes; node ids carry the combination
// suffix, so declaring the same parameters twice yields identical graphs.
package workflow
