// Package member persists family tree member records.
package member

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

var memberColumns = []string{
	"id", "first_name", "father_name", "grandfather_name", "great_grandfather_name",
	"family_name", "gender", "generation", "father_id", "birth_year", "death_year",
	"city", "occupation", "phone", "email", "biography", "photo_url",
	"created_at", "updated_at",
}

// Repository handles member persistence. Every method runs against the open
// context transaction when one exists.
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

// Create inserts a new member.
func (r *Repository) Create(ctx context.Context, member *models.Member) (*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.Create")
	defer span.End()

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.CreatedAt = time.Now().UTC()
	member.UpdatedAt = member.CreatedAt

	sb := database.NewInsertBuilder()
	sb.InsertInto("members")
	sb.Cols(memberColumns...)
	sb.Values(
		member.ID, member.FirstName, member.FatherName, member.GrandfatherName, member.GreatGrandfatherName,
		member.FamilyName, member.Gender, member.Generation, member.FatherID, member.BirthYear, member.DeathYear,
		member.City, member.Occupation, member.Phone, member.Email, member.Biography, member.PhotoURL,
		member.CreatedAt, member.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"member_id": member.ID}).Error("Failed to create member")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create member")
	}

	return member, nil
}

// Get retrieves a member by ID.
func (r *Repository) Get(ctx context.Context, id string) (*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(memberColumns...)
	sb.From("members")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var member models.Member
	if err := database.ExecutorFrom(ctx, r.db).GetContext(ctx, &member, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("member %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get member")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get member")
	}

	return &member, nil
}

// List returns the full member corpus ordered by generation then name.
func (r *Repository) List(ctx context.Context) ([]*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.List")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(memberColumns...)
	sb.From("members")
	sb.OrderBy("generation", "first_name")

	query, args := sb.Build()
	members := []*models.Member{}
	if err := database.ExecutorFrom(ctx, r.db).SelectContext(ctx, &members, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list members")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list members")
	}

	return members, nil
}

// ListChildren returns the members whose fatherId references the given member.
func (r *Repository) ListChildren(ctx context.Context, fatherID string) ([]*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.ListChildren")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(memberColumns...)
	sb.From("members")
	sb.Where(sb.Equal("father_id", fatherID))
	sb.OrderBy("birth_year")

	query, args := sb.Build()
	children := []*models.Member{}
	if err := database.ExecutorFrom(ctx, r.db).SelectContext(ctx, &children, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list children")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list children")
	}

	return children, nil
}

// Update rewrites all mutable columns of a member.
func (r *Repository) Update(ctx context.Context, member *models.Member) error {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.Update")
	defer span.End()

	member.UpdatedAt = time.Now().UTC()

	ub := database.NewUpdateBuilder()
	ub.Update("members")
	ub.Set(
		ub.Assign("first_name", member.FirstName),
		ub.Assign("father_name", member.FatherName),
		ub.Assign("grandfather_name", member.GrandfatherName),
		ub.Assign("great_grandfather_name", member.GreatGrandfatherName),
		ub.Assign("family_name", member.FamilyName),
		ub.Assign("gender", member.Gender),
		ub.Assign("generation", member.Generation),
		ub.Assign("father_id", member.FatherID),
		ub.Assign("birth_year", member.BirthYear),
		ub.Assign("death_year", member.DeathYear),
		ub.Assign("city", member.City),
		ub.Assign("occupation", member.Occupation),
		ub.Assign("phone", member.Phone),
		ub.Assign("email", member.Email),
		ub.Assign("biography", member.Biography),
		ub.Assign("photo_url", member.PhotoURL),
		ub.Assign("updated_at", member.UpdatedAt),
	)
	ub.Where(ub.Equal("id", member.ID))

	query, args := ub.Build()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"member_id": member.ID}).Error("Failed to update member")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update member")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("member %s not found", member.ID))
	}

	return nil
}

// RepointChildren moves every child of fromFatherID under toFatherID and
// assigns the generation that position implies. Returns how many rows moved.
func (r *Repository) RepointChildren(ctx context.Context, fromFatherID, toFatherID string, generation int) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.RepointChildren")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("members")
	ub.Set(
		ub.Assign("father_id", toFatherID),
		ub.Assign("generation", generation),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("father_id", fromFatherID))

	query, args := ub.Build()
	result, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to repoint children")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to repoint children")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

// Delete removes a member record permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "member.Repository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom("members")
	db.Where(db.Equal("id", id))

	query, args := db.Build()
	if _, err := database.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"member_id": id}).Error("Failed to delete member")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete member")
	}

	return nil
}

// DB exposes the underlying handle for transaction management.
func (r *Repository) DB() database.DB {
	return r.db
}
