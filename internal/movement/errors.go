package movement

import "fmt"

// ValidationError is a recoverable, user-correctable rejection: empty
// batch, missing selection, duplicate scan, or an illegal status
// transition. Validation errors block submission and nothing is written.
type ValidationError struct {
	InventoryID int64
	RFIDTag     string
	Reason      string
}

func (e *ValidationError) Error() string {
	if e.InventoryID == 0 && e.RFIDTag == "" {
		return e.Reason
	}
	if e.RFIDTag != "" {
		return fmt.Sprintf("item %s: %s", e.RFIDTag, e.Reason)
	}
	return fmt.Sprintf("item %d: %s", e.InventoryID, e.Reason)
}

// ConflictError means an item's persisted status changed between the
// validation read and the write (another operator submitted first). The
// whole batch is rolled back; the caller should rescan and retry.
type ConflictError struct {
	InventoryID int64
	RFIDTag     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("item %s: status changed concurrently, rescan and retry", e.RFIDTag)
}

// IntegrityError means the ledger write and the registry update could not
// be applied together. It is fatal and distinct from validation errors:
// the batch is rolled back and the condition must be surfaced for manual
// audit, never retried blindly (a blind retry risks duplicate ledger rows).
type IntegrityError struct {
	InventoryID int64
	Op          string
	Err         error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity failure on item %d (%s): %v", e.InventoryID, e.Op, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Warning is a non-fatal condition surfaced alongside a successful
// validation or submission: the movement is unusual but allowed.
type Warning struct {
	InventoryID int64  `json:"inventory_id"`
	RFIDTag     string `json:"rfid_tag"`
	Reason      string `json:"reason"`
}
