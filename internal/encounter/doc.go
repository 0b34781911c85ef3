// Package encounter provides the business boundary for the triage pipeline.
// It defines the Service (intake orchestration, lifecycle transitions),
// the work queue assembler, the Store interface (persistence), and the
// domain models.
package encounter
