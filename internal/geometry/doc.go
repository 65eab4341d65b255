// Package geometry is the ray-tracing engine (C2): given a fixed detector
// volume, it computes per-HNL entry distance, path length through the
// volume, and boost factor — the inputs the decay-probability integral in
// internal/signal needs.
//
// What:
//
//   - Mesh: a detector-volume intersection primitive, (t_entry, t_exit, hit).
//   - CurvedTube: the analytic "curved tube above the IP" detector from
//     spec.md §6, built from config.Detector's named parameters.
//   - ComputeGeometry: augments a []events.Record with hits_tube,
//     entry_distance, path_length, beta_gamma.
//   - Cache: a read-through disk cache keyed by (mass, flavour, detector
//     hash), written via atomic rename so concurrent scan workers never
//     observe a partially-written cache file.
//
// Why:
//
//   - Ray-tracing is the same arithmetic for every (mass, flavour) unit;
//     computing and caching it once per unit avoids repeating the work
//     across every |U|^2 grid point of the exclusion scan.
//
// Errors:
//
//   - A missing detector mesh is a configuration error (fatal at startup).
//   - A row whose ray misses the volume (including a degenerate or
//     axis-parallel direction vector) is marked hits_tube=false with zero
//     entry distance and path length; such rows are not logged one by one
//     and never abort a whole sample.
package geometry
