package merging

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Khalid-A/sidra/pkg/database"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/google/uuid"
)

// fakeStore is an in-memory record store with real transaction semantics:
// GetTx serializes writers and snapshots state, rollback restores the
// snapshot. failOn lets tests inject a store failure mid-merge.
type fakeStore struct {
	txMu    sync.Mutex
	stateMu sync.Mutex

	members map[string]*models.Member
	flags   map[string]*models.DuplicateFlag
	history map[string]*models.MemberHistory
	photos  map[string]*models.Photo

	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members: map[string]*models.Member{},
		flags:   map[string]*models.DuplicateFlag{},
		history: map[string]*models.MemberHistory{},
		photos:  map[string]*models.Photo{},
	}
}

type fakeTx struct {
	database.Tx
	store    *fakeStore
	snapshot *fakeSnapshot
	closed   bool
}

type fakeSnapshot struct {
	members map[string]*models.Member
	flags   map[string]*models.DuplicateFlag
	history map[string]*models.MemberHistory
	photos  map[string]*models.Photo
}

func (s *fakeStore) takeSnapshot() *fakeSnapshot {
	snap := &fakeSnapshot{
		members: map[string]*models.Member{},
		flags:   map[string]*models.DuplicateFlag{},
		history: map[string]*models.MemberHistory{},
		photos:  map[string]*models.Photo{},
	}
	for id, m := range s.members {
		copied := *m
		snap.members[id] = &copied
	}
	for id, f := range s.flags {
		copied := *f
		snap.flags[id] = &copied
	}
	for id, h := range s.history {
		copied := *h
		snap.history[id] = &copied
	}
	for id, p := range s.photos {
		copied := *p
		snap.photos[id] = &copied
	}
	return snap
}

func (s *fakeStore) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	s.txMu.Lock()
	s.stateMu.Lock()
	snap := s.takeSnapshot()
	s.stateMu.Unlock()
	return ctx, &fakeTx{store: s, snapshot: snap}, nil
}

func (t *fakeTx) IsOpen() bool { return !t.closed }

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.store.txMu.Unlock()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.store.stateMu.Lock()
	t.store.members = t.snapshot.members
	t.store.flags = t.snapshot.flags
	t.store.history = t.snapshot.history
	t.store.photos = t.snapshot.photos
	t.store.stateMu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (s *fakeStore) fail(op string) error {
	if s.failOn == op {
		return httperror.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("injected %s failure", op))
	}
	return nil
}

// MemberStore

func (s *fakeStore) Get(ctx context.Context, id string) (*models.Member, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "member not found")
	}
	copied := *m
	return &copied, nil
}

func (s *fakeStore) Update(ctx context.Context, member *models.Member) error {
	if err := s.fail("member.update"); err != nil {
		return err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if _, ok := s.members[member.ID]; !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "member not found")
	}
	copied := *member
	s.members[member.ID] = &copied
	return nil
}

func (s *fakeStore) RepointChildren(ctx context.Context, fromFatherID, toFatherID string, generation int) (int, error) {
	if err := s.fail("member.repoint"); err != nil {
		return 0, err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	count := 0
	for _, m := range s.members {
		if m.FatherID != nil && *m.FatherID == fromFatherID {
			to := toFatherID
			m.FatherID = &to
			m.Generation = generation
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	if err := s.fail("member.delete"); err != nil {
		return err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	delete(s.members, id)
	return nil
}

// FlagStore

func (s *fakeStore) GetFlag(ctx context.Context, id string) (*models.DuplicateFlag, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	f, ok := s.flags[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "duplicate flag not found")
	}
	copied := *f
	return &copied, nil
}

func (s *fakeStore) ResolveConditional(ctx context.Context, id string, status models.DuplicateFlagStatus, resolution *models.FlagResolution, resolvedBy string) (bool, error) {
	if err := s.fail("flag.resolve"); err != nil {
		return false, err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	f, ok := s.flags[id]
	if !ok {
		return false, httperror.NewHTTPError(http.StatusNotFound, "duplicate flag not found")
	}
	if !f.Status.Active() {
		return false, nil
	}
	now := time.Now()
	f.Status = status
	f.ResolvedBy = &resolvedBy
	f.ResolvedAt = &now
	if resolution != nil {
		res := database.NewJSONB(*resolution)
		f.Resolution = &res
	}
	return true, nil
}

func (s *fakeStore) DeleteActiveByMember(ctx context.Context, memberID, excludeFlagID string) (int, error) {
	if err := s.fail("flag.deleteActive"); err != nil {
		return 0, err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	count := 0
	for id, f := range s.flags {
		if id == excludeFlagID || !f.Status.Active() {
			continue
		}
		if f.SourceMemberID == memberID || f.TargetMemberID == memberID {
			delete(s.flags, id)
			count++
		}
	}
	return count, nil
}

// HistoryStore

func (s *fakeStore) Create(ctx context.Context, record *models.MemberHistory) error {
	if err := s.fail("history.create"); err != nil {
		return err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	copied := *record
	if copied.ID == "" {
		copied.ID = uuid.New().String()
	}
	copied.CreatedAt = time.Now()
	s.history[copied.ID] = &copied
	return nil
}

func (s *fakeStore) Repoint(ctx context.Context, fromMemberID, toMemberID string) (int, error) {
	if err := s.fail("history.repoint"); err != nil {
		return 0, err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	count := 0
	for _, h := range s.history {
		if h.MemberID == fromMemberID {
			h.MemberID = toMemberID
			count++
		}
	}
	return count, nil
}

// PhotoStore

func (s *fakeStore) TransferOwnership(ctx context.Context, fromMemberID, toMemberID string) (int, error) {
	if err := s.fail("photo.transfer"); err != nil {
		return 0, err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	count := 0
	for _, p := range s.photos {
		if p.MemberID == fromMemberID {
			p.MemberID = toMemberID
			count++
		}
	}
	return count, nil
}
