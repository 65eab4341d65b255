// Package theory is the theory adapter (C4): it hides the opaque theory
// calculator behind a stable interface so the signal kernel never depends
// on a particular model's identity (spec.md §9 design note: "tagged-
// variant or single-trait abstraction over {anchor-based analytic model,
// table-lookup model, future models}").
//
// What:
//
//   - Adapter: Anchor(ctx, massGeV, uRef) -> AnchorResult, the one call
//     made per (mass, flavour) unit at the reference coupling.
//   - AnchorResult: ctau0_ref, per-parent BR at U_ref, and BR(tau -> N X).
//   - ScaleCtau0 / ScaleBR: the analytic scaling laws spec.md §4.4
//     exploits so a single anchor call suffices for an entire |U|^2 scan.
//   - AnalyticAdapter: one concrete, closed-form implementation used for
//     testing and as the default; production deployments can substitute
//     any other Adapter (e.g. an RPC client to the real calculator).
//
// Concurrency: the opaque calculator "may itself be non-thread-safe"
// (spec.md §5); SerializedAdapter wraps any Adapter with a single-slot
// semaphore so callers never need their own discipline around this.
package theory
