// Package signal is the signal kernel and exclusion solver (C5): given a
// combined event table, a theory anchor, and the cross-section registry,
// it computes expected N_sig over a |U|^2 scan and inverts that function
// into an exclusion island (spec.md §4.5). This is the physics-bearing
// core; every other package exists to feed it clean inputs.
//
// What:
//
//   - Evaluate: the per-coupling signal kernel, accumulated per physical
//     parent species (never per event) with fromTau channels partitioned
//     by grandparent.
//   - Solve: the |U|^2 grid scan and island-finding exclusion solver.
//   - RunUnit: orchestrates one (mass, flavour) scan unit end to end,
//     pulling from the geometry cache, invoking the theory adapter once,
//     then scanning the grid.
//   - RunAll: fans RunUnit out across every configured unit using a
//     bounded worker pool, cancellable via context.
package signal
