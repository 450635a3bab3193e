// Package core provides the export service that ties the pipeline together.
//
// This package holds the orchestration logic independent of any transport
// layer. The CLI, the HTTP server and the scheduler all drive the same
// [Service].
//
// # Pipeline
//
// A run moves through fixed stages:
//
//  1. Load both CSV files ([records.LoadCSV]) with BOM skipping and UTF-8 sanitization
//  2. Normalize text cells ([records.Normalize])
//  3. Resolve work identities and drop duplicates ([identity.Resolve])
//  4. Match work author lists against the author registry ([relate.Builder])
//  5. Write the dataset to each configured target ([export.Exporter])
//
// Each stage returns counts instead of logging; the service logs them once
// per run under the run's ID.
//
// # Targets
//
// Targets are registered by name ([RegisterTarget]) and built from
// configuration for each run. The built-in targets are sqlite, postgres,
// mysql and script.
//
// # Runs
//
// Every run gets a UUID and is kept in an in-memory [History]. A run is
// complete when every row landed, partial when rows were skipped or
// associations filtered, and failed when a target aborted or the dataset
// could not be prepared. At most EXPORT_MAX_CONCURRENT runs execute at once
// ([ExportLimiter]).
//
// # Error Handling
//
// Technical errors are mapped to support codes using [MapError]:
//
//   - DB001-DB013: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL003: Validation errors (missing columns, bad requests)
//   - FILE001-FILE004: File errors (missing, malformed CSV)
//   - EXP001-EXP007: Export errors (existing tables, locks, busy)
package core
