// Package harness runs conformance scenarios for the simulation
// pipeline.
//
// A scenario is a YAML file naming a parameter set and the statistical
// properties its run must satisfy:
//
//	name: reference
//	description: "Reference run reproduces the overstatement finding"
//	params:
//	  viewers: 4000
//	  creators: 100
//	  seed: 42
//	expect:
//	  true_ate_sign: negative
//	  true_ate_between: [-12, -5]
//	  overstates: true
//	  zero_fraction_tolerance: 0.01
//
// Params omitted by the file take the reference defaults. Expectations
// are evaluated against a single seeded run, so a scenario either
// always passes or always fails for a given binary - there is no
// flakiness to tolerate.
//
// # Golden snapshots
//
// The analytically derived configuration (method-of-moments Gamma and
// Beta shapes) is snapshotted with goldie. Sampled outputs are NOT
// golden-tested: they are exercised through the expectation checks
// above, which encode tolerances instead of exact values. To
// regenerate golden files:
//
//	go test ./internal/harness -update
package harness
