package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codex/internal/api/apitest"
	"codex/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	return c, srv
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New("http://localhost:5000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
}

func TestError_Text(t *testing.T) {
	assert.Equal(t, "Invalid email or password", (&Error{Status: 401, Message: "Invalid email or password"}).Error())
	assert.Equal(t, "request failed with status 502", (&Error{Status: 502}).Error())

	assert.Equal(t, "boom", ErrorText(&Error{Status: 500, Message: "boom"}, "fallback"))
	assert.Equal(t, "fallback", ErrorText(&Error{Status: 500}, "fallback"))
	assert.Equal(t, "fallback", ErrorText(errors.New("dial tcp: refused"), "fallback"))
	assert.Equal(t, "fallback", ErrorText(nil, "fallback"))
}

func TestLogin_CookieCarriesAcrossCalls(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")
	ctx := context.Background()

	id, err := c.CheckAuth(ctx)
	require.NoError(t, err)
	assert.False(t, id.Authenticated)

	u, err := c.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Ada", u.FirstName)

	id, err = c.CheckAuth(ctx)
	require.NoError(t, err)
	assert.True(t, id.Authenticated)

	_, err = c.ListSessions(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx))
	_, err = c.ListSessions(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestLogin_BadCredentialsSurfaceServerMessage(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")

	_, err := c.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestCheckUser_EscapesEmail(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddUser("Bo", "bo+test@example.com", "pw12345")

	exists, err := c.CheckUser(context.Background(), "bo+test@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.CheckUser(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSessions_RoundTrip(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")
	ctx := context.Background()
	_, err := c.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	s, err := c.CreateSession(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsDraft())

	renamed, err := c.RenameSession(ctx, s.ID, "Quarterly report")
	require.NoError(t, err)
	require.NotNil(t, renamed.Name)
	assert.Equal(t, "Quarterly report", *renamed.Name)

	list, err := c.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Quarterly report", list[0].DisplayName())

	require.NoError(t, c.DeleteSession(ctx, s.ID))
	err = c.DeleteSession(ctx, s.ID)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "Session not found", err.Error())
}

func TestUpload_MultipartFields(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")
	ctx := context.Background()
	_, err := c.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	res, err := c.Upload(ctx, "a.pdf", strings.NewReader("%PDF-1.4"), 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotZero(t, res.SessionID)
	assert.Equal(t, "a.pdf", res.Document.Filename)

	res2, err := c.Upload(ctx, "b.pdf", strings.NewReader("%PDF-1.4"), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, res.SessionID, res2.SessionID)

	docs, err := c.SessionDocuments(ctx, res.SessionID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b.pdf", docs[1].Filename)
}

func TestChat_ReturnsUsage(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")
	ctx := context.Background()
	_, err := c.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	up, err := c.Upload(ctx, "a.pdf", strings.NewReader("%PDF"), 0)
	require.NoError(t, err)

	resp, err := c.Chat(ctx, models.ChatRequest{Message: "hi", SessionID: up.SessionID, Mode: models.ModeDetailed})
	require.NoError(t, err)
	assert.Equal(t, up.SessionID, resp.Session.ID)
	assert.Equal(t, models.ModeDetailed, resp.Mode)
	assert.Equal(t, 1, resp.ChatCount)
	assert.Equal(t, 5, resp.WarningThreshold)
	assert.Equal(t, 10, resp.AlertThreshold)

	msgs, err := c.SessionMessages(ctx, up.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsUser)
	assert.Equal(t, "hi", msgs[0].Text)
}

func TestDo_SetsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = io.WriteString(w, `{"authenticated":false}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithUserAgent("codex-test"))
	require.NoError(t, err)
	_, err = c.CheckAuth(context.Background())
	require.NoError(t, err)

	_, perr := uuid.Parse(got.Get(RequestIDHeader))
	assert.NoError(t, perr)
	assert.Equal(t, "codex-test", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.ListSessions(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.Equal(t, "Error loading", ErrorText(err, "Error loading"))
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	_, err = c.CheckAuth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /check-auth")
	assert.False(t, IsStatus(err, 0))
}
