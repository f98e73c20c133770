// Package memberhistory persists the append-only member audit trail.
package memberhistory

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Khalid-A/sidra/pkg/database"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/tracing"
	"github.com/google/uuid"
)

var historyColumns = []string{
	"id", "member_id", "action", "snapshot", "note", "batch_id", "changed_by", "created_at",
}

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history record.
func (r *Repository) Create(ctx context.Context, record *models.MemberHistory) error {
	ctx, span := tracing.StartSpan(ctx, "memberhistory.Repository.Create")
	defer span.End()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto("member_history")
	sb.Cols(historyColumns...)
	sb.Values(
		record.ID, record.MemberID, record.Action, record.Snapshot,
		record.Note, record.BatchID, record.ChangedBy, record.CreatedAt,
	)

	query, args := sb.Build()
	if _, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"member_id": record.MemberID}).Error("Failed to create history record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create history record")
	}

	return nil
}

// ListByMember returns a member's audit trail, newest first.
func (r *Repository) ListByMember(ctx context.Context, memberID string) ([]*models.MemberHistory, error) {
	ctx, span := tracing.StartSpan(ctx, "memberhistory.Repository.ListByMember")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(historyColumns...)
	sb.From("member_history")
	sb.Where(sb.Equal("member_id", memberID))
	sb.OrderBy("created_at").Desc()

	query, args := sb.Build()
	records := []*models.MemberHistory{}
	if err := database.ExecutorFrom(ctx, r.db).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list history records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list history records")
	}

	return records, nil
}

// Repoint moves every history record from one member to another. Returns how
// many rows moved.
func (r *Repository) Repoint(ctx context.Context, fromMemberID, toMemberID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "memberhistory.Repository.Repoint")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("member_history")
	ub.Set(ub.Assign("member_id", toMemberID))
	ub.Where(ub.Equal("member_id", fromMemberID))

	query, args := ub.Build()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to repoint history records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to repoint history records")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}
