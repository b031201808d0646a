package models

import (
	"time"

	"minbar/pkg/domain"
)

// HistoryEntry records one episode that took the account out of the pipeline.
// History is append-only; entries are never edited or removed.
type HistoryEntry struct {
	Status        Status               `json:"status"`
	InstitutionID domain.InstitutionID `json:"institution_id"`
	// Institution is only set for InstitutionDeleted episodes.
	Institution *InstitutionSnapshot `json:"institution,omitempty"`
	Reason      string               `json:"reason"`
	PerformedBy string               `json:"performed_by"`
	Timestamp   time.Time            `json:"timestamp"`
}
