package members

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khalid-A/sidra/pkg/models"
)

type fakeMemberStore struct {
	members map[string]*models.Member
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{members: map[string]*models.Member{}}
}

func (f *fakeMemberStore) Create(_ context.Context, member *models.Member) (*models.Member, error) {
	member.ID = uuid.New().String()
	member.CreatedAt = time.Now().UTC()
	member.UpdatedAt = member.CreatedAt
	f.members[member.ID] = member
	return member, nil
}

func (f *fakeMemberStore) Get(_ context.Context, id string) (*models.Member, error) {
	member, ok := f.members[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "member not found")
	}
	copied := *member
	return &copied, nil
}

func (f *fakeMemberStore) List(_ context.Context) ([]*models.Member, error) {
	out := make([]*models.Member, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMemberStore) ListChildren(_ context.Context, fatherID string) ([]*models.Member, error) {
	var out []*models.Member
	for _, m := range f.members {
		if m.FatherID != nil && *m.FatherID == fatherID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMemberStore) Update(_ context.Context, member *models.Member) error {
	if _, ok := f.members[member.ID]; !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "member not found")
	}
	member.UpdatedAt = time.Now().UTC()
	f.members[member.ID] = member
	return nil
}

func (f *fakeMemberStore) Delete(_ context.Context, id string) error {
	if _, ok := f.members[id]; !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "member not found")
	}
	delete(f.members, id)
	return nil
}

type fakeHistoryStore struct {
	records []*models.MemberHistory
}

func (f *fakeHistoryStore) Create(_ context.Context, record *models.MemberHistory) error {
	record.ID = uuid.New().String()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistoryStore) ListByMember(_ context.Context, memberID string) ([]*models.MemberHistory, error) {
	var out []*models.MemberHistory
	for _, r := range f.records {
		if r.MemberID == memberID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePhotoStore struct {
	photos []*models.Photo
}

func (f *fakePhotoStore) Create(_ context.Context, photo *models.Photo) (*models.Photo, error) {
	photo.ID = uuid.New().String()
	f.photos = append(f.photos, photo)
	return photo, nil
}

func (f *fakePhotoStore) ListByMember(_ context.Context, memberID string) ([]*models.Photo, error) {
	var out []*models.Photo
	for _, p := range f.photos {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeGraph struct {
	upserts []string
	removes []string
	err     error
}

func (f *fakeGraph) UpsertMember(_ context.Context, member *models.Member) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, member.ID)
	return nil
}

func (f *fakeGraph) RemoveMember(_ context.Context, memberID string) error {
	if f.err != nil {
		return f.err
	}
	f.removes = append(f.removes, memberID)
	return nil
}

type lifecycleEvents struct {
	created, updated, deleted []string
}

func (e *lifecycleEvents) MemberCreated(_ context.Context, m *models.Member) error {
	e.created = append(e.created, m.ID)
	return nil
}

func (e *lifecycleEvents) MemberUpdated(_ context.Context, m *models.Member) error {
	e.updated = append(e.updated, m.ID)
	return nil
}

func (e *lifecycleEvents) MemberDeleted(_ context.Context, id string) error {
	e.deleted = append(e.deleted, id)
	return nil
}

type fixture struct {
	svc     *Service
	store   *fakeMemberStore
	history *fakeHistoryStore
	photos  *fakePhotoStore
	graph   *fakeGraph
	events  *lifecycleEvents
}

func newFixture() *fixture {
	f := &fixture{
		store:   newFakeMemberStore(),
		history: &fakeHistoryStore{},
		photos:  &fakePhotoStore{},
		graph:   &fakeGraph{},
		events:  &lifecycleEvents{},
	}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	f.svc = NewService(f.store, f.history, f.photos, f.events, f.graph, logger)
	return f
}

func createReq() *models.CreateMemberRequest {
	return &models.CreateMemberRequest{
		FirstName:  "محمد",
		FatherName: "عبدالله",
		FamilyName: "السدرة",
		Gender:     models.GenderMale,
		Generation: 3,
	}
}

func TestCreateMember(t *testing.T) {
	f := newFixture()

	member, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)
	assert.NotEmpty(t, member.ID)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, models.HistoryActionCreated, f.history.records[0].Action)
	assert.Equal(t, member.ID, f.history.records[0].MemberID)
	assert.NotEmpty(t, f.history.records[0].Snapshot)

	assert.Equal(t, []string{member.ID}, f.graph.upserts)
	assert.Equal(t, []string{member.ID}, f.events.created)
}

func TestCreateMemberValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		mutate func(*models.CreateMemberRequest)
	}{
		{"missing first name", func(r *models.CreateMemberRequest) { r.FirstName = "" }},
		{"invalid gender", func(r *models.CreateMemberRequest) { r.Gender = "other" }},
		{"negative generation", func(r *models.CreateMemberRequest) { r.Generation = -1 }},
		{"invalid email", func(r *models.CreateMemberRequest) { r.Email = "not-an-email" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createReq()
			tt.mutate(req)
			_, err := f.svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		})
	}
}

func TestCreateMemberUnknownFather(t *testing.T) {
	f := newFixture()

	req := createReq()
	unknown := uuid.New().String()
	req.FatherID = &unknown

	_, err := f.svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestUpdateMember(t *testing.T) {
	f := newFixture()
	member, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	city := "الرياض"
	updated, err := f.svc.Update(context.Background(), member.ID, &models.UpdateMemberRequest{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "الرياض", updated.City)
	assert.Equal(t, member.FirstName, updated.FirstName)

	// One created record plus one pre-update snapshot.
	require.Len(t, f.history.records, 2)
	assert.Equal(t, models.HistoryActionUpdated, f.history.records[1].Action)
	assert.Equal(t, []string{member.ID}, f.events.updated)
}

func TestUpdateMemberSelfFather(t *testing.T) {
	f := newFixture()
	member, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), member.ID, &models.UpdateMemberRequest{FatherID: &member.ID})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestUpdateMemberRejectsLineageCycle(t *testing.T) {
	f := newFixture()
	grandfather, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	fatherReq := createReq()
	fatherReq.FirstName = "عبدالله"
	fatherReq.FatherID = &grandfather.ID
	father, err := f.svc.Create(context.Background(), fatherReq)
	require.NoError(t, err)

	sonReq := createReq()
	sonReq.FirstName = "سالم"
	sonReq.FatherID = &father.ID
	son, err := f.svc.Create(context.Background(), sonReq)
	require.NoError(t, err)

	// Hanging the grandfather under his own grandson closes a cycle.
	_, err = f.svc.Update(context.Background(), grandfather.ID, &models.UpdateMemberRequest{FatherID: &son.ID})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	stored, err := f.svc.Get(context.Background(), grandfather.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FatherID)
}

func TestGenerationDerivedFromFather(t *testing.T) {
	f := newFixture()
	father, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	childReq := createReq()
	childReq.FirstName = "خالد"
	childReq.FatherID = &father.ID
	childReq.Generation = 9
	child, err := f.svc.Create(context.Background(), childReq)
	require.NoError(t, err)
	assert.Equal(t, father.Generation+1, child.Generation)

	orphanReq := createReq()
	orphanReq.FirstName = "ناصر"
	orphan, err := f.svc.Create(context.Background(), orphanReq)
	require.NoError(t, err)

	adopted, err := f.svc.Update(context.Background(), orphan.ID, &models.UpdateMemberRequest{FatherID: &father.ID})
	require.NoError(t, err)
	assert.Equal(t, father.Generation+1, adopted.Generation)
}

func TestDeleteMember(t *testing.T) {
	f := newFixture()
	member, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), member.ID))

	_, err = f.svc.Get(context.Background(), member.ID)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	assert.Equal(t, []string{member.ID}, f.graph.removes)
	assert.Equal(t, []string{member.ID}, f.events.deleted)
}

func TestDeleteMemberWithChildrenConflicts(t *testing.T) {
	f := newFixture()
	father, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	childReq := createReq()
	childReq.FirstName = "سالم"
	childReq.FatherID = &father.ID
	_, err = f.svc.Create(context.Background(), childReq)
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), father.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))

	// Father must still exist.
	_, err = f.svc.Get(context.Background(), father.ID)
	assert.NoError(t, err)
}

func TestGraphFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture()
	f.graph.err = fmt.Errorf("bolt connection refused")

	member, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)
	assert.NotEmpty(t, member.ID)
}

func TestPhotos(t *testing.T) {
	f := newFixture()
	member, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	photo, err := f.svc.AddPhoto(context.Background(), member.ID, "https://cdn.example.com/p.jpg", "portrait")
	require.NoError(t, err)
	assert.NotEmpty(t, photo.ID)

	photos, err := f.svc.Photos(context.Background(), member.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)

	_, err = f.svc.AddPhoto(context.Background(), member.ID, "", "")
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	_, err = f.svc.AddPhoto(context.Background(), uuid.New().String(), "https://cdn.example.com/x.jpg", "")
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestChildren(t *testing.T) {
	f := newFixture()
	father, err := f.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	childReq := createReq()
	childReq.FirstName = "خالد"
	childReq.FatherID = &father.ID
	child, err := f.svc.Create(context.Background(), childReq)
	require.NoError(t, err)

	children, err := f.svc.Children(context.Background(), father.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	_, err = f.svc.Children(context.Background(), uuid.New().String())
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}
