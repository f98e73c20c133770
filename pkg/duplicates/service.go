// Package duplicates runs corpus-wide duplicate detection and owns the flag
// review queue.
package duplicates

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Khalid-A/sidra/pkg/database"
	"github.com/Khalid-A/sidra/pkg/matching"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/tracing"
)

type MemberLister interface {
	List(ctx context.Context) ([]*models.Member, error)
}

type FlagWriter interface {
	Create(ctx context.Context, flag *models.DuplicateFlag) (*models.DuplicateFlag, error)
	ActiveFlagExists(ctx context.Context, memberA, memberB string) (bool, error)
	List(ctx context.Context, status models.DuplicateFlagStatus) ([]*models.DuplicateFlag, error)
}

// Events receives a notification per created flag. Failures are logged and
// do not fail the scan.
type Events interface {
	DuplicateFlagged(ctx context.Context, flag *models.DuplicateFlag) error
}

type Service struct {
	members   MemberLister
	flags     FlagWriter
	scanner   *matching.Scanner
	events    Events
	threshold int
	logger    ectologger.Logger
}

func NewService(members MemberLister, flags FlagWriter, scanner *matching.Scanner, events Events, threshold int, logger ectologger.Logger) *Service {
	return &Service{
		members:   members,
		flags:     flags,
		scanner:   scanner,
		events:    events,
		threshold: threshold,
		logger:    logger,
	}
}

// RunScan compares the whole corpus pairwise and persists a PENDING flag for
// every hit that does not already have an active flag. The scan itself is
// read-only; only this persistence step writes.
func (s *Service) RunScan(ctx context.Context, threshold int) (*models.ScanSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicates.Service.RunScan")
	defer span.End()

	if threshold <= 0 {
		threshold = s.threshold
	}

	corpus, err := s.members.List(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to load member corpus for scan")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load member corpus")
	}

	pairs := s.scanner.Scan(corpus, threshold)

	summary := &models.ScanSummary{
		MembersScanned: len(corpus),
		PairsCompared:  len(corpus) * (len(corpus) - 1) / 2,
		PairsFlagged:   len(pairs),
	}

	for _, pair := range pairs {
		exists, err := s.flags.ActiveFlagExists(ctx, pair.SourceMemberID, pair.TargetMemberID)
		if err != nil {
			return nil, err
		}
		if exists {
			summary.FlagsSkipped++
			continue
		}

		flag := &models.DuplicateFlag{
			SourceMemberID: pair.SourceMemberID,
			TargetMemberID: pair.TargetMemberID,
			Score:          pair.Score,
			Reasons:        database.NewJSONB(pair.Reasons),
			Status:         models.FlagStatusPending,
		}

		created, err := s.flags.Create(ctx, flag)
		if err != nil {
			return nil, err
		}
		summary.FlagsCreated++

		if s.events != nil {
			if err := s.events.DuplicateFlagged(ctx, created); err != nil {
				s.logger.WithContext(ctx).WithError(err).Warn("failed to emit duplicate flagged event")
			}
		}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"members_scanned": summary.MembersScanned,
		"pairs_flagged":   summary.PairsFlagged,
		"flags_created":   summary.FlagsCreated,
		"flags_skipped":   summary.FlagsSkipped,
		"threshold":       threshold,
	}).Info("duplicate scan complete")

	return summary, nil
}

// ListFlags returns flags for review, optionally filtered by status.
func (s *Service) ListFlags(ctx context.Context, status models.DuplicateFlagStatus) ([]*models.DuplicateFlag, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicates.Service.ListFlags")
	defer span.End()

	return s.flags.List(ctx, status)
}
