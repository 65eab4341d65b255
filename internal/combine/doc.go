// Package combine is the sample combiner (C3): at a given (mass,
// flavour), several production CSVs may exist — kaon/charm/beauty/EW
// regimes, optional form-factor variants, and tau-cascade variants — and
// this package merges them into one unified event table without
// double-counting.
//
// Merge policy (spec.md §4.3), in order:
//
//  1. Enumerate files matching the (mass, flavour) naming convention.
//  2. Form-factor precedence: a "_ff" file replaces the phase-space file
//     of the same parent-class regime.
//  3. Regime addition: distinct regimes (kaon/charm/beauty/EW) concatenate.
//  4. fromTau inclusion: included by default, tracked as a separate table
//     because its weighting formula differs (BR(parent->tau nu) *
//     BR(tau->NX) rather than BR(parent->lepton N)).
//  5. Overlapping duplicates (two files claiming the same regime/variant
//     rank) are a fatal error, never silently resolved.
package combine
