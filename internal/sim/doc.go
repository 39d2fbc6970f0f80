// Package sim implements the two-sided marketplace experiment pipeline.
//
// The pipeline generates synthetic potential outcomes for every
// (viewer, creator) pair under a control and a treatment ad policy,
// computes the true average treatment effect (ATE) from the full
// potential-outcome matrices, and then simulates a viewer-randomized
// experiment whose naive difference-in-means estimate is contaminated
// by creator-side spillovers.
//
// # Determinism
//
// Every random draw comes from a single seeded source consumed in a
// fixed order:
//
//  1. baseline matrix, row-major; per entry the engagement draw
//     precedes the gamma draw, and the gamma draw is consumed even
//     when the entry is zero so the stream position never depends on
//     sampled values
//  2. dispersion matrix, row-major
//  3. premium matrix, row-major
//  4. treatment assignment, one draw per viewer in viewer order
//
// Two calls to Run with identical Params produce identical Results.
// Any reordering of draws changes all downstream values, so the order
// above is part of the package contract.
//
// # Model
//
// Baseline watch time is a zero-inflated gamma: exact zero with
// probability ZeroProb (no engagement), otherwise a Gamma draw whose
// mean and standard deviation match the configured targets. Treatment
// outcomes are control × (1 + premium − dispersion) elementwise, with
// premium and dispersion drawn from Beta distributions whose shapes
// are back-solved from target moments. The multiplicative form keeps
// outcomes non-negative and makes percentage effects composable.
package sim
