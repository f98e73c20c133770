// Package members owns the member lifecycle: CRUD, history journaling, and
// projection into the lineage graph.
package members

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	sidracontext "github.com/Khalid-A/sidra/pkg/context"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/tracing"
)

type MemberStore interface {
	Create(ctx context.Context, member *models.Member) (*models.Member, error)
	Get(ctx context.Context, id string) (*models.Member, error)
	List(ctx context.Context) ([]*models.Member, error)
	ListChildren(ctx context.Context, fatherID string) ([]*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id string) error
}

type HistoryStore interface {
	Create(ctx context.Context, record *models.MemberHistory) error
	ListByMember(ctx context.Context, memberID string) ([]*models.MemberHistory, error)
}

type PhotoStore interface {
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	ListByMember(ctx context.Context, memberID string) ([]*models.Photo, error)
}

// Events receives lifecycle notifications. Failures are logged, never
// surfaced to the caller.
type Events interface {
	MemberCreated(ctx context.Context, member *models.Member) error
	MemberUpdated(ctx context.Context, member *models.Member) error
	MemberDeleted(ctx context.Context, memberID string) error
}

// GraphWriter mirrors member changes into the lineage graph read model.
type GraphWriter interface {
	UpsertMember(ctx context.Context, member *models.Member) error
	RemoveMember(ctx context.Context, memberID string) error
}

type Service struct {
	members  MemberStore
	history  HistoryStore
	photos   PhotoStore
	events   Events
	graph    GraphWriter
	validate *validator.Validate
	logger   ectologger.Logger
}

func NewService(members MemberStore, history HistoryStore, photos PhotoStore, events Events, graph GraphWriter, logger ectologger.Logger) *Service {
	return &Service{
		members:  members,
		history:  history,
		photos:   photos,
		events:   events,
		graph:    graph,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create validates and persists a new member, journals the creation, and
// projects the member into the graph.
func (s *Service) Create(ctx context.Context, req *models.CreateMemberRequest) (*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "members.Service.Create")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var father *models.Member
	if req.FatherID != nil {
		var err error
		father, err = s.members.Get(ctx, *req.FatherID)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "fatherId does not reference an existing member")
		}
	}

	member := &models.Member{
		FirstName:            req.FirstName,
		FatherName:           req.FatherName,
		GrandfatherName:      req.GrandfatherName,
		GreatGrandfatherName: req.GreatGrandfatherName,
		FamilyName:           req.FamilyName,
		Gender:               req.Gender,
		Generation:           req.Generation,
		FatherID:             req.FatherID,
		BirthYear:            req.BirthYear,
		DeathYear:            req.DeathYear,
		City:                 req.City,
		Occupation:           req.Occupation,
		Phone:                req.Phone,
		Email:                req.Email,
		Biography:            req.Biography,
		PhotoURL:             req.PhotoURL,
	}
	if father != nil {
		member.Generation = father.Generation + 1
	}

	created, err := s.members.Create(ctx, member)
	if err != nil {
		return nil, err
	}

	s.journal(ctx, created, models.HistoryActionCreated, "")
	s.project(ctx, created)
	if s.events != nil {
		if err := s.events.MemberCreated(ctx, created); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to emit member created event")
		}
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "members.Service.Get")
	defer span.End()

	return s.members.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "members.Service.List")
	defer span.End()

	return s.members.List(ctx)
}

func (s *Service) Children(ctx context.Context, id string) ([]*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "members.Service.Children")
	defer span.End()

	if _, err := s.members.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.members.ListChildren(ctx, id)
}

// Update applies the non-nil fields of the request, journals the previous
// state, and reprojects the member.
func (s *Service) Update(ctx context.Context, id string, req *models.UpdateMemberRequest) (*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "members.Service.Update")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	member, err := s.members.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var father *models.Member
	if req.FatherID != nil {
		if *req.FatherID == id {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "a member cannot be their own father")
		}
		father, err = s.checkLineage(ctx, id, *req.FatherID)
		if err != nil {
			return nil, err
		}
	}

	s.journal(ctx, member, models.HistoryActionUpdated, "")

	applyUpdate(member, req)
	if father != nil {
		member.Generation = father.Generation + 1
	}

	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}

	s.project(ctx, member)
	if s.events != nil {
		if err := s.events.MemberUpdated(ctx, member); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to emit member updated event")
		}
	}

	return member, nil
}

// Delete removes a member. Members with children cannot be deleted; they have
// to be merged or have their children reassigned first.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "members.Service.Delete")
	defer span.End()

	member, err := s.members.Get(ctx, id)
	if err != nil {
		return err
	}

	children, err := s.members.ListChildren(ctx, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return httperror.NewHTTPError(http.StatusConflict, "member has children; reassign them before deleting")
	}

	s.journal(ctx, member, models.HistoryActionDeleted, "")

	if err := s.members.Delete(ctx, id); err != nil {
		return err
	}

	if s.graph != nil {
		if err := s.graph.RemoveMember(ctx, id); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to remove member from graph")
		}
	}
	if s.events != nil {
		if err := s.events.MemberDeleted(ctx, id); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to emit member deleted event")
		}
	}

	return nil
}

func (s *Service) History(ctx context.Context, memberID string) ([]*models.MemberHistory, error) {
	ctx, span := tracing.StartSpan(ctx, "members.Service.History")
	defer span.End()

	return s.history.ListByMember(ctx, memberID)
}

func (s *Service) Photos(ctx context.Context, memberID string) ([]*models.Photo, error) {
	ctx, span := tracing.StartSpan(ctx, "members.Service.Photos")
	defer span.End()

	if _, err := s.members.Get(ctx, memberID); err != nil {
		return nil, err
	}
	return s.photos.ListByMember(ctx, memberID)
}

func (s *Service) AddPhoto(ctx context.Context, memberID, url, caption string) (*models.Photo, error) {
	ctx, span := tracing.StartSpan(ctx, "members.Service.AddPhoto")
	defer span.End()

	if url == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	if _, err := s.members.Get(ctx, memberID); err != nil {
		return nil, err
	}

	return s.photos.Create(ctx, &models.Photo{
		MemberID: memberID,
		URL:      url,
		Caption:  caption,
	})
}

// journal records a snapshot of the member at the time of the action. A
// failed journal write is logged but never blocks the member operation.
// checkLineage loads the proposed father and walks his ancestor chain; the
// chain must not lead back to the member, or reparenting would close a cycle.
func (s *Service) checkLineage(ctx context.Context, memberID, fatherID string) (*models.Member, error) {
	father, err := s.members.Get(ctx, fatherID)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "fatherId does not reference an existing member")
	}

	seen := map[string]bool{fatherID: true}
	for cursor := father; cursor.FatherID != nil; {
		next := *cursor.FatherID
		if next == memberID {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "fatherId would create a lineage cycle")
		}
		if seen[next] {
			break
		}
		seen[next] = true
		cursor, err = s.members.Get(ctx, next)
		if err != nil {
			break
		}
	}
	return father, nil
}

func (s *Service) journal(ctx context.Context, member *models.Member, action models.HistoryAction, note string) {
	snapshot, err := json.Marshal(member)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to snapshot member for history")
		return
	}

	record := &models.MemberHistory{
		MemberID:  member.ID,
		Action:    action,
		Snapshot:  snapshot,
		Note:      note,
		ChangedBy: sidracontext.GetUserID(ctx),
	}

	if err := s.history.Create(ctx, record); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": member.ID,
			"action":    action,
		}).Warn("failed to record member history")
	}
}

func (s *Service) project(ctx context.Context, member *models.Member) {
	if s.graph == nil {
		return
	}
	if err := s.graph.UpsertMember(ctx, member); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": member.ID,
		}).Warn("failed to project member into graph")
	}
}

func applyUpdate(member *models.Member, req *models.UpdateMemberRequest) {
	if req.FirstName != nil {
		member.FirstName = *req.FirstName
	}
	if req.FatherName != nil {
		member.FatherName = *req.FatherName
	}
	if req.GrandfatherName != nil {
		member.GrandfatherName = *req.GrandfatherName
	}
	if req.GreatGrandfatherName != nil {
		member.GreatGrandfatherName = *req.GreatGrandfatherName
	}
	if req.FamilyName != nil {
		member.FamilyName = *req.FamilyName
	}
	if req.Generation != nil {
		member.Generation = *req.Generation
	}
	if req.FatherID != nil {
		member.FatherID = req.FatherID
	}
	if req.BirthYear != nil {
		member.BirthYear = req.BirthYear
	}
	if req.DeathYear != nil {
		member.DeathYear = req.DeathYear
	}
	if req.City != nil {
		member.City = *req.City
	}
	if req.Occupation != nil {
		member.Occupation = *req.Occupation
	}
	if req.Phone != nil {
		member.Phone = *req.Phone
	}
	if req.Email != nil {
		member.Email = *req.Email
	}
	if req.Biography != nil {
		member.Biography = *req.Biography
	}
	if req.PhotoURL != nil {
		member.PhotoURL = *req.PhotoURL
	}
}
