package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codex/internal/api"
	"codex/internal/api/apitest"
	"codex/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messages(n int) []models.Message {
	out := make([]models.Message, n)
	for i := range out {
		out[i] = models.Message{IsUser: i%2 == 0, Text: "m"}
	}
	return out
}

func TestApplyMessages_ChatCountIsHalf(t *testing.T) {
	cases := []struct {
		n         int
		wantCount int
		wantNew   bool
	}{
		{0, 0, true},
		{1, 0, true},
		{2, 1, false},
		{5, 2, false},
		{8, 4, false},
	}
	for _, tc := range cases {
		s := NewState()
		gen := s.Activate(7)
		require.True(t, s.ApplyMessages(gen, messages(tc.n)))
		assert.Equal(t, tc.wantCount, s.Usage().ChatCount, "n=%d", tc.n)
		assert.Equal(t, tc.wantNew, s.IsNewChat(), "n=%d", tc.n)
	}
}

func TestActivate_Resets(t *testing.T) {
	s := NewState()
	gen := s.Activate(1)
	s.ApplyMessages(gen, messages(4))
	s.ApplyDocuments(gen, []models.Document{{ID: 1, Filename: "a.pdf"}})

	next := s.Activate(2)
	assert.NotEqual(t, gen, next)
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.Documents())
	assert.Zero(t, s.Usage().ChatCount)
	assert.True(t, s.IsNewChat())
	assert.Equal(t, int64(2), s.SessionID())
}

func TestStaleResultsDropped(t *testing.T) {
	s := NewState()
	old := s.Activate(1)
	_, ok := s.BeginSend("hello")
	require.True(t, ok)

	cur := s.Activate(2)
	assert.False(t, s.ApplyMessages(old, messages(6)))
	assert.False(t, s.ApplyDocuments(old, []models.Document{{ID: 1}}))
	assert.False(t, s.ApplySendResult(old, models.ChatResponse{Response: "late"}, nil))
	assert.False(t, s.ApplyUploads(old, []UploadOutcome{{Path: "x.pdf"}}))
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.Documents())

	assert.True(t, s.ApplyMessages(cur, messages(2)))
	assert.Equal(t, 1, s.Usage().ChatCount)
}

func TestBeginSend_NoOps(t *testing.T) {
	s := NewState()
	_, ok := s.BeginSend("hello")
	assert.False(t, ok, "no active session")
	assert.Empty(t, s.Messages())

	s.Activate(3)
	_, ok = s.BeginSend("  \n\t ")
	assert.False(t, ok, "blank input")
	assert.Empty(t, s.Messages())
	assert.False(t, s.Loading())
}

func TestBeginSend_AppendsAndTagsMode(t *testing.T) {
	s := NewState()
	s.Activate(3)
	require.True(t, s.SetMode(models.ModeConcise))

	out, ok := s.BeginSend("What is on page 2?")
	require.True(t, ok)
	assert.True(t, s.Loading())
	assert.Equal(t, models.ChatRequest{Message: "What is on page 2?", SessionID: 3, Mode: models.ModeConcise}, out.Request)
	require.Len(t, s.Messages(), 1)
	assert.Equal(t, models.Message{IsUser: true, Text: "What is on page 2?", Mode: models.ModeConcise}, s.Messages()[0])

	_, ok = s.BeginSend("again")
	assert.False(t, ok, "reply pending")
}

func TestApplySendResult_Success(t *testing.T) {
	s := NewState()
	s.Activate(3)
	out, _ := s.BeginSend("hi")

	ok := s.ApplySendResult(out.Generation, models.ChatResponse{
		Response:  "hello",
		Session:   models.Session{ID: 3},
		ChatUsage: models.ChatUsage{ChatCount: 1, WarningThreshold: 5, AlertThreshold: 10},
	}, nil)
	require.True(t, ok)
	assert.False(t, s.Loading())
	assert.False(t, s.IsNewChat())
	assert.Equal(t, models.ChatUsage{ChatCount: 1, WarningThreshold: 5, AlertThreshold: 10}, s.Usage())
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.Message{Text: "hello", Mode: models.ModeBalanced}, msgs[1])
}

func TestApplySendResult_OtherSessionLeavesUsage(t *testing.T) {
	s := NewState()
	s.Activate(3)
	out, _ := s.BeginSend("hi")

	s.ApplySendResult(out.Generation, models.ChatResponse{
		Response:  "hello",
		Session:   models.Session{ID: 99},
		ChatUsage: models.ChatUsage{ChatCount: 7, WarningThreshold: 1, AlertThreshold: 2},
	}, nil)
	assert.Zero(t, s.Usage().ChatCount)
	assert.True(t, s.IsNewChat())
	assert.Equal(t, WarningNone, s.Warning())
	assert.Len(t, s.Messages(), 2)
}

func TestApplySendResult_ChatCountNeverDrops(t *testing.T) {
	s := NewState()
	gen := s.Activate(3)
	s.ApplyMessages(gen, messages(8))
	out, _ := s.BeginSend("hi")

	s.ApplySendResult(out.Generation, models.ChatResponse{
		Session:   models.Session{ID: 3},
		ChatUsage: models.ChatUsage{ChatCount: 2, WarningThreshold: 5, AlertThreshold: 10},
	}, nil)
	assert.Equal(t, 4, s.Usage().ChatCount)
}

func TestApplySendResult_Failure(t *testing.T) {
	s := NewState()
	s.Activate(3)

	out, _ := s.BeginSend("hi")
	s.ApplySendResult(out.Generation, models.ChatResponse{}, &api.Error{Status: 500, Message: "Model unavailable"})
	assert.False(t, s.Loading())
	msgs := s.Messages()
	assert.Equal(t, models.Message{Text: "Model unavailable", IsError: true}, msgs[len(msgs)-1])

	out, _ = s.BeginSend("again")
	s.ApplySendResult(out.Generation, models.ChatResponse{}, errors.New("connection reset"))
	msgs = s.Messages()
	assert.Equal(t, "Error sending message", msgs[len(msgs)-1].Text)
}

func TestWarningLevels(t *testing.T) {
	usage := func(n int) models.ChatUsage {
		return models.ChatUsage{ChatCount: n, WarningThreshold: 5, AlertThreshold: 10}
	}
	assert.Equal(t, WarningNone, Level(usage(0), true))
	assert.Equal(t, WarningNone, Level(usage(4), true))
	assert.Equal(t, WarningSoft, Level(usage(5), true))
	assert.Equal(t, WarningSoft, Level(usage(9), true))
	assert.Equal(t, WarningAlert, Level(usage(10), true))
	assert.Equal(t, WarningAlert, Level(usage(30), true))
	assert.Equal(t, WarningNone, Level(usage(30), false), "thresholds not yet received")

	assert.Empty(t, WarningNone.Message())
	assert.Contains(t, WarningSoft.Message(), "context gets truncated")
	assert.Contains(t, WarningAlert.Message(), "starting a new chat")
}

func TestWarning_AfterExchanges(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Warning, srv.Alert = 2, 3
	client := login(t, srv)
	sess := srv.AddSession("ada@example.com", time.Now(), []string{"a.pdf"}, 0)

	s := NewState()
	gen := s.Activate(sess.ID)
	msgs, err := client.SessionMessages(context.Background(), sess.ID)
	require.NoError(t, err)
	s.ApplyMessages(gen, msgs)

	want := []WarningLevel{WarningNone, WarningSoft, WarningAlert}
	for i, level := range want {
		out, ok := s.BeginSend("question")
		require.True(t, ok)
		resp, err := client.Chat(context.Background(), out.Request)
		s.ApplySendResult(out.Generation, resp, err)
		assert.Equal(t, level, s.Warning(), "after exchange %d", i+1)
	}
}

func TestWarning_ThresholdsSurviveSessionSwitch(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Warning, srv.Alert = 2, 4
	client := login(t, srv)
	first := srv.AddSession("ada@example.com", time.Now(), []string{"a.pdf"}, 0)
	busy := srv.AddSession("ada@example.com", time.Now(), []string{"b.pdf"}, 3)

	s := NewState()
	gen := s.Activate(busy.ID)
	msgs, err := client.SessionMessages(context.Background(), busy.ID)
	require.NoError(t, err)
	s.ApplyMessages(gen, msgs)
	assert.Equal(t, WarningNone, s.Warning(), "no reply has carried thresholds yet")

	s.Activate(first.ID)
	out, ok := s.BeginSend("question")
	require.True(t, ok)
	resp, err := client.Chat(context.Background(), out.Request)
	s.ApplySendResult(out.Generation, resp, err)
	require.NoError(t, err)

	gen = s.Activate(busy.ID)
	assert.Zero(t, s.Usage().ChatCount)
	assert.Equal(t, WarningNone, s.Warning())
	msgs, err = client.SessionMessages(context.Background(), busy.ID)
	require.NoError(t, err)
	s.ApplyMessages(gen, msgs)
	assert.Equal(t, 3, s.Usage().ChatCount)
	assert.Equal(t, WarningSoft, s.Warning())
}

func TestSetMode(t *testing.T) {
	s := NewState()
	assert.Equal(t, models.ModeBalanced, s.Mode())
	assert.False(t, s.SetMode("verbose"))
	assert.Equal(t, models.ModeBalanced, s.Mode())
	assert.True(t, s.SetMode(models.ModeDetailed))
	assert.Equal(t, models.ModeDetailed, s.Mode())
}

func TestShowScrollHint(t *testing.T) {
	assert.False(t, ShowScrollHint(0))
	assert.False(t, ShowScrollHint(ScrollHintDistance))
	assert.True(t, ShowScrollHint(ScrollHintDistance+1))
}

func login(t *testing.T, srv *apitest.Server) *api.Client {
	t.Helper()
	srv.AddUser("Ada", "ada@example.com", "secret1")
	client, err := api.New(srv.URL)
	require.NoError(t, err)
	_, err = client.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	return client
}

func writePDFs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4\n"), 0o600))
		paths = append(paths, p)
	}
	return paths
}
