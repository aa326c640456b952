package ui

import (
	"context"
	"database/sql"
	"time"

	"codex/internal/auth"
	"codex/internal/chat"
	"codex/internal/db"
	"codex/internal/logger"
	"codex/internal/sessions"
	"codex/internal/styles"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options wires the shell to its collaborators.
type Options struct {
	Backend Backend
	Auth    *auth.Provider
	DB      *sql.DB
	Log     logger.Logger
	// DarkDefault applies when no theme preference is stored yet
	DarkDefault bool
	// Email prefills the login form
	Email string
}

func InitialModel(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	dark := opts.DarkDefault
	if opts.DB != nil {
		stored, err := db.LoadTheme(opts.DB, opts.DarkDefault)
		if err != nil {
			log.Warn(module, "load theme failed", map[string]interface{}{"error": err})
		}
		dark = stored
	}
	styles.SetTheme(dark)

	ti := textarea.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = MaxInputHeight
	ti.SetHeight(1)
	ti.SetWidth(80)
	styleTextarea(&ti)

	pi := textinput.New()
	pi.Placeholder = "~/Documents/report.pdf"
	pi.Prompt = "📄 "
	pi.CharLimit = 4096
	pi.Width = 60

	ri := textinput.New()
	ri.Prompt = "✎ "
	ri.CharLimit = sessions.MaxNameLength
	ri.Width = sessions.MaxNameLength

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary)

	authProvider := opts.Auth
	if authProvider == nil {
		authProvider = auth.NewProvider(opts.Backend, log)
	}

	return Model{
		Ctx:         context.Background(),
		Backend:     opts.Backend,
		Auth:        authProvider,
		Sessions:    sessions.NewList(opts.Backend, log),
		Chat:        chat.NewState(),
		DB:          opts.DB,
		Log:         log,
		Now:         time.Now,
		Viewport:    viewport.New(60, 15),
		TextInput:   ti,
		PathInput:   pi,
		RenameInput: ri,
		Spinner:     sp,
		Form:        NewAuthForm(false, opts.Email),
		Dark:        dark,
		Focus:       FocusMain,
	}
}

func styleTextarea(ti *textarea.Model) {
	prompt := lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary).Bold(true)
	placeholder := lipgloss.NewStyle().Foreground(styles.CurrentTheme.TextMuted)
	ti.FocusedStyle.Prompt = prompt
	ti.BlurredStyle.Prompt = prompt
	ti.FocusedStyle.Placeholder = placeholder
	ti.BlurredStyle.Placeholder = placeholder
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.Spinner.Tick,
		m.probeAuth(),
	)
}

func NewProgram(opts Options) *tea.Program {
	m := InitialModel(opts)
	return tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())
}
