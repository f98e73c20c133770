// Package events handles event emission for member lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Khalid-A/sidra/pkg/kafka"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes member lifecycle events. A nil producer disables
// emission so callers never have to branch on whether Kafka is configured.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func (e *Emitter) enabled() bool {
	return e != nil && e.producer != nil
}

// MemberCreated emits a member.created event
func (e *Emitter) MemberCreated(ctx context.Context, member *models.Member) error {
	if !e.enabled() {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MemberCreated")
	defer span.End()

	return e.publishMemberSnapshot(ctx, "member.created", member)
}

// MemberUpdated emits a member.updated event
func (e *Emitter) MemberUpdated(ctx context.Context, member *models.Member) error {
	if !e.enabled() {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MemberUpdated")
	defer span.End()

	return e.publishMemberSnapshot(ctx, "member.updated", member)
}

// MemberDeleted emits a member.deleted event
func (e *Emitter) MemberDeleted(ctx context.Context, memberID string) error {
	if !e.enabled() {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MemberDeleted")
	defer span.End()

	event := &kafka.MemberEvent{
		EventType: "member.deleted",
		MemberID:  memberID,
	}

	if err := e.producer.PublishMemberEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit member.deleted event")
		return err
	}

	return nil
}

// MemberMerged emits a member.merged event describing a completed merge
func (e *Emitter) MemberMerged(ctx context.Context, outcome *models.MergeOutcome) error {
	if !e.enabled() {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.MemberMerged")
	defer span.End()

	data := map[string]any{
		"schema_version":     SchemaVersion,
		"flag_id":            outcome.FlagID,
		"kept_member_id":     outcome.KeptMemberID,
		"removed_member_id":  outcome.RemovedMemberID,
		"merge_strategy":     outcome.MergeStrategy,
		"merged_fields":      outcome.MergedFields,
		"children_repointed": outcome.ChildrenRepointed,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.MemberEvent{
		EventType: "member.merged",
		MemberID:  outcome.KeptMemberID,
		Data:      dataJSON,
	}

	if err := e.producer.PublishMemberEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit member.merged event")
		return err
	}

	return nil
}

// DuplicateFlagged emits a duplicate.flagged event for a newly created flag
func (e *Emitter) DuplicateFlagged(ctx context.Context, flag *models.DuplicateFlag) error {
	if !e.enabled() {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.DuplicateFlagged")
	defer span.End()

	data := map[string]any{
		"schema_version":   SchemaVersion,
		"flag_id":          flag.ID,
		"source_member_id": flag.SourceMemberID,
		"target_member_id": flag.TargetMemberID,
		"score":            flag.Score,
		"reasons":          flag.Reasons.Data,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.MemberEvent{
		EventType: "duplicate.flagged",
		MemberID:  flag.SourceMemberID,
		Data:      dataJSON,
	}

	if err := e.producer.PublishMemberEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit duplicate.flagged event")
		return err
	}

	return nil
}

// FlagResolved emits a flag.resolved event once a reviewer decides a flag
func (e *Emitter) FlagResolved(ctx context.Context, flagID string, action models.ResolveAction) error {
	if !e.enabled() {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.FlagResolved")
	defer span.End()

	data := map[string]any{
		"schema_version": SchemaVersion,
		"flag_id":        flagID,
		"action":         action,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.MemberEvent{
		EventType: "flag.resolved",
		MemberID:  flagID,
		Data:      dataJSON,
	}

	if err := e.producer.PublishMemberEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit flag.resolved event")
		return err
	}

	return nil
}

func (e *Emitter) publishMemberSnapshot(ctx context.Context, eventType string, member *models.Member) error {
	snapshot, _ := json.Marshal(member)

	event := &kafka.MemberEvent{
		EventType: eventType,
		MemberID:  member.ID,
		Data:      snapshot,
	}

	if err := e.producer.PublishMemberEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
		}).Error("Failed to emit member event")
		return err
	}

	return nil
}
