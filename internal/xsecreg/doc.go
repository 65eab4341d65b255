// Package xsecreg is the cross-section registry (C1): a pure, read-only,
// process-wide lookup from parent PDG code to production cross-section in
// picobarns, plus the auxiliary parent-to-tau-neutrino branching table used
// for fromTau weighting.
//
// What:
//
//   - Registry.Sigma(pdg) returns sigma_parent in pb, 0 for unknown PDGs.
//   - Registry.BRToTauNu(pdg) returns BR(parent -> tau nu), 0 if none.
//   - NewRegistry builds the world-average constant table exactly once;
//     the returned Registry is never mutated afterward.
//
// Why:
//
//   - Every (mass, flavour) worker needs the same constants; building one
//     immutable table at startup avoids recomputation races.
//
// Errors:
//
//   - None intrinsic. A zero return means "no coverage for this PDG" and
//     callers in internal/signal log it as a missing-coverage diagnostic
//     rather than treating it as an error.
package xsecreg
