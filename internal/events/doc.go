// Package events defines the per-simulated-HNL event record (spec.md §3),
// its CSV (de)serialisation, and the file-naming convention (spec.md §6)
// used to discover production samples on disk.
//
// What:
//
//   - Record: one row per simulated HNL (not per collision).
//   - Load: reads one CSV file into a sorted, validated []Record.
//   - ParseName / FileName: the HNL_<mass>GeV_<flavour>_<regime>[...] codec.
//
// Errors:
//
//   - Load drops rows with non-finite numerics (NaN/Inf) and aggregates
//     them into one warning, per the data-corruption error policy; it
//     never fails outright on a single bad row.
package events
