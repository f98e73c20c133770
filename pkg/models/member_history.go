package models

import (
	"encoding/json"
	"time"
)

type HistoryAction string

const (
	HistoryActionCreated HistoryAction = "created"
	HistoryActionUpdated HistoryAction = "updated"
	HistoryActionMerged  HistoryAction = "merged"
	HistoryActionDeleted HistoryAction = "deleted"
)

// MemberHistory is an append-only audit record. Snapshot holds the member as
// it looked before the change, so merges stay reconstructable after the
// removed member row is gone.
type MemberHistory struct {
	ID        string          `json:"id" db:"id"`
	MemberID  string          `json:"memberId" db:"member_id"`
	Action    HistoryAction   `json:"action" db:"action"`
	Snapshot  json.RawMessage `json:"snapshot" db:"snapshot"`
	Note      string          `json:"note" db:"note"`
	BatchID   string          `json:"batchId" db:"batch_id"`
	ChangedBy string          `json:"changedBy" db:"changed_by"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// Photo is an uploaded image owned by a member.
type Photo struct {
	ID        string    `json:"id" db:"id"`
	MemberID  string    `json:"memberId" db:"member_id"`
	URL       string    `json:"url" db:"url"`
	Caption   string    `json:"caption" db:"caption"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
