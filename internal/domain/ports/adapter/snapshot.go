package adapter

import "clinical-consult-assistant/internal/domain/model"

// SnapshotExtractor mines best-effort structured display fields from
// unstructured text. It sits behind a port so the pattern-matching
// implementation can be swapped without touching session or pipeline logic.
type SnapshotExtractor interface {
	Extract(text string) model.PatientSnapshot
}
