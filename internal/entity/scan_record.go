package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/swiftscan/constants"
)

// ScanRecord is one history entry: what was scanned and what was done with it.
type ScanRecord struct {
	ID         uuid.UUID            `json:"id"`
	Timestamp  int64                `json:"timestamp"` // unix millis
	Contact    Contact              `json:"contact"`
	EmailDraft *Draft               `json:"emailDraft,omitempty"`
	ImageURI   string               `json:"imageUri,omitempty"`
	Status     constants.ScanStatus `json:"status"`
}

// NewScanRecord stamps a record with a fresh id and the current time.
func NewScanRecord(c Contact, d *Draft, imageURI string, status constants.ScanStatus) *ScanRecord {
	return &ScanRecord{
		ID:         uuid.New(),
		Timestamp:  time.Now().UnixMilli(),
		Contact:    c,
		EmailDraft: d,
		ImageURI:   imageURI,
		Status:     status,
	}
}

// Time returns the record timestamp as a time.Time in UTC.
func (r *ScanRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}
