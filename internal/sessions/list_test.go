package sessions

import (
	"context"
	"net/http"
	"testing"
	"time"

	"codex/internal/api"
	"codex/internal/api/apitest"
	"codex/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "ada@example.com"

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newList(t *testing.T) (*List, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.AddUser("Ada", owner, "secret1")
	client, err := api.New(srv.URL)
	require.NoError(t, err)
	_, err = client.Login(context.Background(), owner, "secret1")
	require.NoError(t, err)
	return NewList(client, nil), srv
}

func ids(in []models.Session) []int64 {
	out := make([]int64, 0, len(in))
	for _, s := range in {
		out = append(out, s.ID)
	}
	return out
}

func TestSort_DraftsFirstThenNewest(t *testing.T) {
	sessions := []models.Session{
		{ID: 1, CreatedAt: "2024-03-01T10:00:00", Documents: []models.Document{{ID: 9, Filename: "a.pdf"}}},
		{ID: 2, CreatedAt: "2024-03-01T09:00:00"},
		{ID: 3, CreatedAt: "2024-03-02T10:00:00", Documents: []models.Document{{ID: 8, Filename: "b.pdf"}}},
		{ID: 4, CreatedAt: "2024-03-01T08:00:00.123456", Documents: []models.Document{{ID: 7, Filename: "c.pdf"}}},
	}
	assert.Equal(t, []int64{2, 3, 1, 4}, ids(Sort(sessions)))
	assert.Equal(t, int64(1), sessions[0].ID, "input left untouched")
}

func TestLoad_ReplacesAndDropsVanishedSelection(t *testing.T) {
	l, srv := newList(t)
	a := srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	srv.AddSession("someone@else.com", base, []string{"x.pdf"}, 0)

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, []int64{a.ID}, ids(l.Sorted()))

	l.Select(a.ID)
	l.Replace(nil)
	assert.Zero(t, l.ActiveID())
}

func TestLoad_FailureKeepsList(t *testing.T) {
	l, srv := newList(t)
	srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	require.NoError(t, l.Load(context.Background()))

	srv.Fail("GET /sessions", http.StatusInternalServerError, "db down")
	assert.Error(t, l.Load(context.Background()))
	assert.Equal(t, 1, l.Len())
}

func TestCreate_ReusesDraft(t *testing.T) {
	l, srv := newList(t)
	draft := srv.AddSession(owner, base, nil, 0)
	srv.AddSession(owner, base.Add(time.Hour), []string{"a.pdf"}, 1)
	require.NoError(t, l.Load(context.Background()))

	got, err := l.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
	assert.Equal(t, draft.ID, l.ActiveID())
	assert.Zero(t, srv.Hits("POST /sessions/new"))
	assert.Equal(t, 2, l.Len())
}

func TestCreate_PrependsNew(t *testing.T) {
	l, srv := newList(t)
	srv.AddSession(owner, base, []string{"a.pdf"}, 1)
	require.NoError(t, l.Load(context.Background()))

	got, err := l.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("POST /sessions/new"))
	assert.Equal(t, got.ID, l.ActiveID())
	assert.Equal(t, got.ID, l.Sorted()[0].ID)

	_, err = l.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("POST /sessions/new"), "second create reuses the new draft")
}

func TestRename_TrimsAndApplies(t *testing.T) {
	l, srv := newList(t)
	s := srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	require.NoError(t, l.Load(context.Background()))

	require.NoError(t, l.Rename(context.Background(), s.ID, "  Budget 2024  "))
	got, _ := l.Get(s.ID)
	assert.Equal(t, "Budget 2024", got.DisplayName())

	remote, _ := srv.Session(s.ID)
	require.NotNil(t, remote.Name)
	assert.Equal(t, "Budget 2024", *remote.Name)
}

func TestRename_FailureDiscardsChange(t *testing.T) {
	l, srv := newList(t)
	s := srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	require.NoError(t, l.Load(context.Background()))

	srv.Fail("PATCH /sessions/{id}", http.StatusInternalServerError, "nope")
	err := l.Rename(context.Background(), s.ID, "Other")
	require.Error(t, err)
	got, _ := l.Get(s.ID)
	assert.Equal(t, "a.pdf", got.DisplayName())
}

func TestRename_RejectsBlankAndLong(t *testing.T) {
	l, srv := newList(t)
	s := srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	require.NoError(t, l.Load(context.Background()))

	assert.Error(t, l.Rename(context.Background(), s.ID, "   "))
	long := make([]rune, MaxNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	assert.Error(t, l.Rename(context.Background(), s.ID, string(long)))
	assert.Zero(t, srv.Hits("PATCH /sessions/{id}"))
}

func TestDelete_ActiveSelectsFirstRemaining(t *testing.T) {
	l, srv := newList(t)
	older := srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	newer := srv.AddSession(owner, base.Add(time.Hour), []string{"b.pdf"}, 0)
	draft := srv.AddSession(owner, base.Add(-time.Hour), nil, 0)
	require.NoError(t, l.Load(context.Background()))

	l.Select(newer.ID)
	require.NoError(t, l.Delete(context.Background(), newer.ID))
	assert.Equal(t, draft.ID, l.ActiveID())
	assert.Equal(t, []int64{draft.ID, older.ID}, ids(l.Sorted()))
}

func TestDelete_InactiveKeepsSelection(t *testing.T) {
	l, srv := newList(t)
	a := srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	b := srv.AddSession(owner, base.Add(time.Hour), []string{"b.pdf"}, 0)
	require.NoError(t, l.Load(context.Background()))

	l.Select(a.ID)
	require.NoError(t, l.Delete(context.Background(), b.ID))
	assert.Equal(t, a.ID, l.ActiveID())
}

func TestDelete_LastClearsSelection(t *testing.T) {
	l, srv := newList(t)
	a := srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	require.NoError(t, l.Load(context.Background()))

	l.Select(a.ID)
	require.NoError(t, l.Delete(context.Background(), a.ID))
	assert.Zero(t, l.ActiveID())
	assert.Zero(t, l.Len())
}

func TestDelete_FailureKeepsSession(t *testing.T) {
	l, srv := newList(t)
	a := srv.AddSession(owner, base, []string{"a.pdf"}, 0)
	require.NoError(t, l.Load(context.Background()))

	srv.Fail("DELETE /sessions/{id}", http.StatusForbidden, "Not allowed")
	err := l.Delete(context.Background(), a.ID)
	require.Error(t, err)
	assert.Equal(t, "Not allowed", api.ErrorText(err, "Error deleting session"))
	assert.Equal(t, 1, l.Len())
}

func TestTitle(t *testing.T) {
	name := "An exceptionally long session title"
	assert.Equal(t, "An exceptionally long ...", Title(models.Session{Name: &name}))
	assert.Equal(t, "New Chat", Title(models.Session{}))
	assert.Equal(t, "r.pdf", Title(models.Session{Documents: []models.Document{{Filename: "r.pdf"}}}))
}

func TestDocumentCount(t *testing.T) {
	assert.Equal(t, "0 documents", DocumentCount(models.Session{}))
	assert.Equal(t, "1 document", DocumentCount(models.Session{Documents: make([]models.Document, 1)}))
	assert.Equal(t, "3 documents", DocumentCount(models.Session{Documents: make([]models.Document, 3)}))
}
