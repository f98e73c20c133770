// Package duplicateflag persists duplicate suspicions and their resolution
// lifecycle.
package duplicateflag

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Khalid-A/sidra/pkg/database"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/tracing"
	"github.com/google/uuid"
)

var flagColumns = []string{
	"id", "source_member_id", "target_member_id", "score", "reasons",
	"status", "resolution", "resolved_by", "resolved_at", "created_at", "updated_at",
}

var activeStatuses = []any{models.FlagStatusPending, models.FlagStatusMoreInfo}

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

// Create inserts a new pending flag. The pair is stored with the smaller id
// first so the one-active-flag-per-pair constraint holds regardless of the
// order the scanner saw the members in.
func (r *Repository) Create(ctx context.Context, flag *models.DuplicateFlag) (*models.DuplicateFlag, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.Create")
	defer span.End()

	if flag.ID == "" {
		flag.ID = uuid.New().String()
	}
	if flag.Status == "" {
		flag.Status = models.FlagStatusPending
	}
	if flag.TargetMemberID < flag.SourceMemberID {
		flag.SourceMemberID, flag.TargetMemberID = flag.TargetMemberID, flag.SourceMemberID
	}
	flag.CreatedAt = time.Now().UTC()
	flag.UpdatedAt = flag.CreatedAt

	sb := database.NewInsertBuilder()
	sb.InsertInto("duplicate_flags")
	sb.Cols(flagColumns...)
	sb.Values(
		flag.ID, flag.SourceMemberID, flag.TargetMemberID, flag.Score, flag.Reasons,
		flag.Status, flag.Resolution, flag.ResolvedBy, flag.ResolvedAt, flag.CreatedAt, flag.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"source_member_id": flag.SourceMemberID,
			"target_member_id": flag.TargetMemberID,
		}).Error("Failed to create duplicate flag")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create duplicate flag")
	}

	return flag, nil
}

// Get retrieves a flag by ID.
func (r *Repository) Get(ctx context.Context, id string) (*models.DuplicateFlag, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(flagColumns...)
	sb.From("duplicate_flags")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var flag models.DuplicateFlag
	if err := database.ExecutorFrom(ctx, r.db).GetContext(ctx, &flag, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("duplicate flag %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get duplicate flag")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get duplicate flag")
	}

	return &flag, nil
}

// List returns flags, optionally filtered to one status, newest first.
func (r *Repository) List(ctx context.Context, status models.DuplicateFlagStatus) ([]*models.DuplicateFlag, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.List")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(flagColumns...)
	sb.From("duplicate_flags")
	if status != "" {
		sb.Where(sb.Equal("status", status))
	}
	sb.OrderBy("created_at").Desc()

	query, args := sb.Build()
	flags := []*models.DuplicateFlag{}
	if err := database.ExecutorFrom(ctx, r.db).SelectContext(ctx, &flags, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list duplicate flags")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate flags")
	}

	return flags, nil
}

// ActiveFlagExists reports whether an active flag already covers the
// unordered member pair.
func (r *Repository) ActiveFlagExists(ctx context.Context, memberA, memberB string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.ActiveFlagExists")
	defer span.End()

	if memberB < memberA {
		memberA, memberB = memberB, memberA
	}

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("duplicate_flags")
	sb.Where(
		sb.Equal("source_member_id", memberA),
		sb.Equal("target_member_id", memberB),
		sb.In("status", activeStatuses...),
	)

	query, args := sb.Build()
	var count int
	if err := database.ExecutorFrom(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check for active duplicate flag")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check for active duplicate flag")
	}

	return count > 0, nil
}

// ResolveConditional transitions a flag to a terminal status only if it is
// still active. The WHERE clause on the active statuses is the concurrency
// gate: a racer that lost sees zero rows affected.
func (r *Repository) ResolveConditional(ctx context.Context, id string, status models.DuplicateFlagStatus, resolution *models.FlagResolution, resolvedBy string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.ResolveConditional")
	defer span.End()

	now := time.Now().UTC()

	ub := database.NewUpdateBuilder()
	ub.Update("duplicate_flags")
	assignments := []string{
		ub.Assign("status", status),
		ub.Assign("resolved_by", resolvedBy),
		ub.Assign("resolved_at", now),
		ub.Assign("updated_at", now),
	}
	if resolution != nil {
		assignments = append(assignments, ub.Assign("resolution", database.NewJSONB(*resolution)))
	}
	ub.Set(assignments...)
	ub.Where(
		ub.Equal("id", id),
		ub.In("status", activeStatuses...),
	)

	query, args := ub.Build()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"flag_id": id}).Error("Failed to resolve duplicate flag")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve duplicate flag")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to read resolve result")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve duplicate flag")
	}

	return rows > 0, nil
}

// DeleteActiveByMember removes every still-active flag touching the given
// member, except the one being resolved. Returns how many were removed.
func (r *Repository) DeleteActiveByMember(ctx context.Context, memberID, excludeFlagID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicateflag.Repository.DeleteActiveByMember")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom("duplicate_flags")
	db.Where(
		db.Or(
			db.Equal("source_member_id", memberID),
			db.Equal("target_member_id", memberID),
		),
		db.NotEqual("id", excludeFlagID),
		db.In("status", activeStatuses...),
	)

	query, args := db.Build()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"member_id": memberID}).Error("Failed to clear duplicate flags")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear duplicate flags")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}
