package models

import (
	"time"

	"github.com/Khalid-A/sidra/pkg/database"
)

type DuplicateFlagStatus string

const (
	FlagStatusPending      DuplicateFlagStatus = "PENDING"
	FlagStatusMoreInfo     DuplicateFlagStatus = "MORE_INFO"
	FlagStatusConfirmed    DuplicateFlagStatus = "CONFIRMED"
	FlagStatusNotDuplicate DuplicateFlagStatus = "NOT_DUPLICATE"
	FlagStatusMerged       DuplicateFlagStatus = "MERGED"
)

// Active reports whether the flag still needs a reviewer decision. Only
// active flags can be resolved, and only one active flag may exist per
// member pair.
func (s DuplicateFlagStatus) Active() bool {
	return s == FlagStatusPending || s == FlagStatusMoreInfo
}

// DuplicateFlag records that the scanner (or a reviewer) suspects two
// members describe the same person.
type DuplicateFlag struct {
	ID             string                            `json:"id" db:"id"`
	SourceMemberID string                            `json:"sourceMemberId" db:"source_member_id"`
	TargetMemberID string                            `json:"targetMemberId" db:"target_member_id"`
	Score          int                               `json:"score" db:"score"`
	Reasons        database.JSONB[[]string]          `json:"reasons" db:"reasons"`
	Status         DuplicateFlagStatus               `json:"status" db:"status"`
	Resolution     *database.JSONB[FlagResolution]   `json:"resolution,omitempty" db:"resolution"`
	ResolvedBy     *string                           `json:"resolvedBy,omitempty" db:"resolved_by"`
	ResolvedAt     *time.Time                        `json:"resolvedAt,omitempty" db:"resolved_at"`
	CreatedAt      time.Time                         `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time                         `json:"updatedAt" db:"updated_at"`
}

// FlagResolution captures how a flag left the active state.
type FlagResolution struct {
	Action          ResolveAction     `json:"action"`
	KeptMemberID    string            `json:"keptMemberId,omitempty"`
	RemovedMemberID string            `json:"removedMemberId,omitempty"`
	MergeStrategy   MergeStrategyType `json:"mergeStrategy,omitempty"`
	MergedFields    []string          `json:"mergedFields,omitempty"`
	Note            string            `json:"note,omitempty"`
}

// DuplicatePair is a scanner hit before persistence.
type DuplicatePair struct {
	SourceMemberID string   `json:"sourceMemberId"`
	TargetMemberID string   `json:"targetMemberId"`
	Score          int      `json:"score"`
	Reasons        []string `json:"reasons"`
}

type ScanSummary struct {
	MembersScanned int `json:"membersScanned"`
	PairsCompared  int `json:"pairsCompared"`
	PairsFlagged   int `json:"pairsFlagged"`
	FlagsCreated   int `json:"flagsCreated"`
	FlagsSkipped   int `json:"flagsSkipped"`
}
