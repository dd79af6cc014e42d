package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
)

// BatchRecord represents a stored extraction batch for data transfer between layers.
type BatchRecord struct {
	ID            uuid.UUID             `json:"id"`
	Mode          constants.Mode        `json:"mode"`
	Status        constants.BatchStatus `json:"status"`
	FragmentCount int                   `json:"fragment_count"`
	SuccessCount  int                   `json:"success_count"`
	StartedAt     time.Time             `json:"started_at"`
	FinishedAt    *time.Time            `json:"finished_at,omitempty"`
	ErrorMessage  *string               `json:"error_message,omitempty"`
	ResultJSON    json.RawMessage       `json:"result_json,omitempty"`
}

// StoredPayment is one persisted payment row.
type StoredPayment struct {
	BatchID uuid.UUID `json:"batch_id"`
	Ordinal int       `json:"ordinal"`
	ExtractedPayment
	Confidence *int `json:"confidence,omitempty"`
}
