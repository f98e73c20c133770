// Package photo persists member photo ownership.
package photo

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

var photoColumns = []string{"id", "member_id", "url", "caption", "created_at"}

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

// Create registers a photo under a member.
func (r *Repository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	ctx, span := tracing.StartSpan(ctx, "photo.Repository.Create")
	defer span.End()

	if photo.ID == "" {
		photo.ID = uuid.New().String()
	}
	photo.CreatedAt = time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto("member_photos")
	sb.Cols(photoColumns...)
	sb.Values(photo.ID, photo.MemberID, photo.URL, photo.Caption, photo.CreatedAt)

	query, args := sb.Build()
	if _, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"member_id": photo.MemberID}).Error("Failed to create photo")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create photo")
	}

	return photo, nil
}

// ListByMember returns a member's photos, oldest first.
func (r *Repository) ListByMember(ctx context.Context, memberID string) ([]*models.Photo, error) {
	ctx, span := tracing.StartSpan(ctx, "photo.Repository.ListByMember")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(photoColumns...)
	sb.From("member_photos")
	sb.Where(sb.Equal("member_id", memberID))
	sb.OrderBy("created_at")

	query, args := sb.Build()
	photos := []*models.Photo{}
	if err := database.ExecutorFrom(ctx, r.db).SelectContext(ctx, &photos, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list photos")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list photos")
	}

	return photos, nil
}

// TransferOwnership moves every photo from one member to another. Returns
// how many rows moved.
func (r *Repository) TransferOwnership(ctx context.Context, fromMemberID, toMemberID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "photo.Repository.TransferOwnership")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("member_photos")
	ub.Set(ub.Assign("member_id", toMemberID))
	ub.Where(ub.Equal("member_id", fromMemberID))

	query, args := ub.Build()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to transfer photo ownership")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to transfer photo ownership")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}
