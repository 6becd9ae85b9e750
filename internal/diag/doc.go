// Package diag defines the diagnostic model shared by all pipeline phases.
//
// Diagnostics are deterministic, serialisable data: a Severity, a stable
// numeric Code, a message, a primary source.Span and optional notes. Phases
// emit through a Reporter so that producers stay decoupled from storage and
// formatting; BagReporter aggregates into a Bag which supports sorting,
// deduplication and merging.
//
// No condition modelled here is fatal to the process. Lowering and resolution
// errors are attached to the offending node's span and never abort sibling
// work; rendering lives in the CLI layer.
package diag
