package matching

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/tracing"
	"github.com/go-playground/validator/v10"
)

// MemberLister provides the corpus the matcher scores against.
type MemberLister interface {
	List(ctx context.Context) ([]*models.Member, error)
}

// Service wires corpus loading to the lineage matcher and owns the error
// taxonomy for match requests.
type Service struct {
	members  MemberLister
	matcher  *LineageMatcher
	validate *validator.Validate
	logger   ectologger.Logger
}

func NewService(members MemberLister, matcher *LineageMatcher, logger ectologger.Logger) *Service {
	return &Service{
		members:  members,
		matcher:  matcher,
		validate: validator.New(),
		logger:   logger,
	}
}

// FindMatches validates the input, loads the corpus, and returns bucketed
// lineage candidates. Bad input fails before the corpus is touched; an empty
// corpus fails distinctly so callers can tell "bad request" from "no data
// yet".
func (s *Service) FindMatches(ctx context.Context, input models.NameInput) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.FindMatches")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		s.logger.WithContext(ctx).WithError(err).Debug("rejected match input")
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "firstName and fatherName are required")
	}

	corpus, err := s.members.List(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to load member corpus")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load member corpus")
	}

	if len(corpus) == 0 {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "member corpus is empty")
	}

	result := s.matcher.FindMatches(input, corpus)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"corpus_size": len(corpus),
		"matches":     result.Total(),
	}).Debug("lineage match complete")

	return result, nil
}
