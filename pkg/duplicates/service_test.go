package duplicates

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Khalid-A/sidra/pkg/matching"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMembers struct {
	members []*models.Member
	err     error
}

func (f *fakeMembers) List(_ context.Context) ([]*models.Member, error) {
	return f.members, f.err
}

type fakeFlags struct {
	created   []*models.DuplicateFlag
	active    map[string]bool
	createErr error
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (f *fakeFlags) Create(_ context.Context, flag *models.DuplicateFlag) (*models.DuplicateFlag, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	flag.ID = fmt.Sprintf("flag-%d", len(f.created)+1)
	f.created = append(f.created, flag)
	return flag, nil
}

func (f *fakeFlags) ActiveFlagExists(_ context.Context, memberA, memberB string) (bool, error) {
	return f.active[pairKey(memberA, memberB)], nil
}

func (f *fakeFlags) List(_ context.Context, status models.DuplicateFlagStatus) ([]*models.DuplicateFlag, error) {
	if status == "" {
		return f.created, nil
	}
	var out []*models.DuplicateFlag
	for _, flag := range f.created {
		if flag.Status == status {
			out = append(out, flag)
		}
	}
	return out, nil
}

type recordingEvents struct {
	flagged []string
	err     error
}

func (r *recordingEvents) DuplicateFlagged(_ context.Context, flag *models.DuplicateFlag) error {
	if r.err != nil {
		return r.err
	}
	r.flagged = append(r.flagged, flag.ID)
	return nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func yearPtr(y int) *int { return &y }

func scanCorpus() []*models.Member {
	return []*models.Member{
		{
			ID:         "m-1",
			FirstName:  "محمد",
			FatherName: "عبدالله",
			Generation: 4,
			BirthYear:  yearPtr(1960),
			Phone:      "0501234567",
		},
		{
			ID:         "m-2",
			FirstName:  "محمد",
			FatherName: "عبدالله",
			Generation: 4,
			BirthYear:  yearPtr(1960),
			Phone:      "0501234567",
		},
		{
			ID:         "m-3",
			FirstName:  "سالم",
			FatherName: "خالد",
			Generation: 2,
			BirthYear:  yearPtr(1910),
		},
	}
}

func newTestService(members *fakeMembers, flags *fakeFlags, events Events) *Service {
	scanner := matching.NewScanner(matching.NewScorer(0))
	return NewService(members, flags, scanner, events, 75, noopLogger())
}

func TestRunScanCreatesPendingFlags(t *testing.T) {
	flags := &fakeFlags{active: map[string]bool{}}
	events := &recordingEvents{}
	svc := newTestService(&fakeMembers{members: scanCorpus()}, flags, events)

	summary, err := svc.RunScan(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.MembersScanned)
	assert.Equal(t, 3, summary.PairsCompared)
	assert.Equal(t, 1, summary.PairsFlagged)
	assert.Equal(t, 1, summary.FlagsCreated)
	assert.Equal(t, 0, summary.FlagsSkipped)

	require.Len(t, flags.created, 1)
	flag := flags.created[0]
	assert.Equal(t, "m-1", flag.SourceMemberID)
	assert.Equal(t, "m-2", flag.TargetMemberID)
	assert.Equal(t, models.FlagStatusPending, flag.Status)
	assert.NotEmpty(t, flag.Reasons.Data)
	assert.GreaterOrEqual(t, flag.Score, 75)

	assert.Equal(t, []string{"flag-1"}, events.flagged)
}

func TestRunScanSkipsPairsWithActiveFlags(t *testing.T) {
	flags := &fakeFlags{active: map[string]bool{pairKey("m-1", "m-2"): true}}
	svc := newTestService(&fakeMembers{members: scanCorpus()}, flags, nil)

	summary, err := svc.RunScan(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PairsFlagged)
	assert.Equal(t, 0, summary.FlagsCreated)
	assert.Equal(t, 1, summary.FlagsSkipped)
	assert.Empty(t, flags.created)
}

func TestRunScanThresholdOverride(t *testing.T) {
	flags := &fakeFlags{active: map[string]bool{}}
	svc := newTestService(&fakeMembers{members: scanCorpus()}, flags, nil)

	// A threshold above the pair's score flags nothing.
	summary, err := svc.RunScan(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.PairsFlagged)
	assert.Empty(t, flags.created)
}

func TestRunScanEventFailureDoesNotFailScan(t *testing.T) {
	flags := &fakeFlags{active: map[string]bool{}}
	events := &recordingEvents{err: fmt.Errorf("broker unavailable")}
	svc := newTestService(&fakeMembers{members: scanCorpus()}, flags, events)

	summary, err := svc.RunScan(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FlagsCreated)
}

func TestRunScanCorpusLoadFailure(t *testing.T) {
	svc := newTestService(&fakeMembers{err: fmt.Errorf("connection refused")}, &fakeFlags{}, nil)

	_, err := svc.RunScan(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
}

func TestRunScanEmptyCorpus(t *testing.T) {
	flags := &fakeFlags{active: map[string]bool{}}
	svc := newTestService(&fakeMembers{}, flags, nil)

	summary, err := svc.RunScan(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MembersScanned)
	assert.Equal(t, 0, summary.PairsCompared)
	assert.Empty(t, flags.created)
}
