package ui

import (
	"context"
	"database/sql"
	"time"

	"codex/internal/auth"
	"codex/internal/chat"
	"codex/internal/logger"
	"codex/internal/models"
	"codex/internal/sessions"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

const (
	module = "ui"

	MaxChatWidth       = 100
	CompactWidthThresh = 80 // below this the sidebar is hidden
	MaxInputHeight     = 6
)

const IntroTitle = "Welcome to Codex AI"

// EmptyChatHint is shown above the input until the first exchange.
const EmptyChatHint = "Ask a question about your documents to get started"

const IntroBody = `Codex AI is your intelligent document analysis companion. Upload any PDF document and engage in meaningful conversations about its content. Answers are drawn solely from the information within your documents.`

var IntroFeatures = []struct{ Title, Text string }{
	{"Document-Focused", "Get precise answers drawn directly from your uploaded documents"},
	{"Contextual Chat", "Have natural conversations while staying focused on document content"},
	{"Secure & Private", "Your documents and conversations remain private and secure"},
}

// Backend is everything the shell asks of the API client.
type Backend interface {
	auth.Backend
	sessions.Backend
	chat.Uploader
	SessionMessages(ctx context.Context, id int64) ([]models.Message, error)
	SessionDocuments(ctx context.Context, id int64) ([]models.Document, error)
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

type Focus int

const (
	FocusMain Focus = iota
	FocusSidebar
)

type (
	authProbedMsg struct{ State auth.State }
	authDoneMsg   struct{ Err error }
	loggedOutMsg  struct{}
)

type sessionsLoadedMsg struct {
	Sessions []models.Session
	Err      error
	// SelectID is activated after the list is replaced
	SelectID int64
}

type sessionCreatedMsg struct {
	Session models.Session
	Err     error
}

type sessionRenamedMsg struct {
	ID   int64
	Name string
	Err  error
}

type sessionDeletedMsg struct {
	ID  int64
	Err error
}

type messagesLoadedMsg struct {
	Gen      chat.Generation
	Messages []models.Message
	Err      error
}

type documentsLoadedMsg struct {
	Gen       chat.Generation
	Documents []models.Document
	Err       error
}

type chatResponseMsg struct {
	Gen  chat.Generation
	Resp models.ChatResponse
	Err  error
}

// uploadStepMsg carries one file's result and the files still queued.
type uploadStepMsg struct {
	Gen       chat.Generation
	SessionID int64
	Outcome   chat.UploadOutcome
	Rest      []string
	Done      int
	Failed    int
}

type widgetUploadedMsg struct {
	SessionID int64
	Err       error
}

type themeSavedMsg struct{ Err error }

type Model struct {
	Ctx      context.Context
	Backend  Backend
	Auth     *auth.Provider
	Sessions *sessions.List
	Chat     *chat.State
	Widget   chat.Widget
	DB       *sql.DB
	Log      logger.Logger
	Now      func() time.Time

	Viewport    viewport.Model
	TextInput   textarea.Model
	PathInput   textinput.Model
	RenameInput textinput.Model
	Spinner     spinner.Model
	Renderer    *glamour.TermRenderer
	Form        AuthForm

	WindowWidth  int
	WindowHeight int
	Focus        Focus
	SidebarIdx   int
	Dark         bool

	SessionsLoading bool
	SessionsErr     string
	Status          string
	StatusIsError   bool

	ModeSelectorOpen  bool
	ModeSelectedIdx   int
	RenameOpen        bool
	RenameTarget      int64
	RenameErr         string
	DeleteConfirmOpen bool
	DeleteTarget      int64
	AttachOpen        bool
	ShortcutsOpen     bool

	// rendered transcript entries, rebuilt when the generation or width changes
	transcript      []string
	transcriptGen   chat.Generation
	transcriptWidth int
	renderedLoading bool
}
