package constants

// BatchStatus is the canonical status for rows in extract_batch.
type BatchStatus string

// Stable values (store these exact strings in DB).
const (
	BatchStatusQueued  BatchStatus = "QUEUED"  // accepted by the async queue
	BatchStatusRunning BatchStatus = "RUNNING" // in progress
	BatchStatusDone    BatchStatus = "DONE"    // processed and persisted
	BatchStatusFailed  BatchStatus = "FAILED"  // terminal failure
)
