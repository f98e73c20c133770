package models

type MergeStrategyType string

const (
	MergeStrategyFillEmpty    MergeStrategyType = "fill_empty"
	MergeStrategyPreferSource MergeStrategyType = "prefer_source"
	MergeStrategyPreferTarget MergeStrategyType = "prefer_target"
)

type ResolveAction string

const (
	ResolveActionNotDuplicate ResolveAction = "not_duplicate"
	ResolveActionConfirm      ResolveAction = "confirmed"
	ResolveActionMerge        ResolveAction = "merge"
)

type ResolveDuplicateRequest struct {
	Action        ResolveAction     `json:"action" validate:"required,oneof=not_duplicate confirmed merge"`
	KeepMemberID  string            `json:"keepMemberId" validate:"required_if=Action merge"`
	MergeStrategy MergeStrategyType `json:"mergeStrategy" validate:"omitempty,oneof=fill_empty prefer_source prefer_target"`
	Note          string            `json:"note"`
}

// MergeOutcome summarizes a completed member merge.
type MergeOutcome struct {
	FlagID            string            `json:"flagId"`
	KeptMemberID      string            `json:"keptMemberId"`
	RemovedMemberID   string            `json:"removedMemberId"`
	MergeStrategy     MergeStrategyType `json:"mergeStrategy"`
	MergedFields      []string          `json:"mergedFields"`
	ChildrenRepointed int               `json:"childrenRepointed"`
	PhotosTransferred int               `json:"photosTransferred"`
	FlagsCleared      int               `json:"flagsCleared"`
}
