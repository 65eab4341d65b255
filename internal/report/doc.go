// Package report writes the scan summary CSV: one row per (mass,
// flavour) unit giving its exclusion island and geometric acceptance
// (spec.md §6's "Summary output" schema). It carries no physics logic of
// its own — everything here is presentation over internal/signal.UnitResult.
package report
