package ui

import (
	"fmt"
	"strings"

	"codex/internal/api"
	"codex/internal/auth"
	"codex/internal/models"
	"codex/internal/sessions"
	"codex/internal/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var spCmd tea.Cmd
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.Chat.Loading() {
			m.UpdateViewport()
		}
		return m, spCmd

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height
		m.updateInputLayout()
		m.refreshRenderer()
		m.UpdateViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var vpCmd tea.Cmd
		m.Viewport, vpCmd = m.Viewport.Update(msg)
		return m, vpCmd

	case authProbedMsg:
		if msg.State != auth.Authenticated {
			return m, nil
		}
		m.SessionsLoading = true
		m.syncFocus()
		return m, m.loadSessions(0)

	case authDoneMsg:
		m.Form.Busy = false
		if msg.Err != nil {
			fallback := "Login failed"
			if m.Form.Register {
				fallback = "Registration failed"
			}
			m.Form.Err = auth.ErrorText(msg.Err, fallback)
			return m, nil
		}
		m.Form = NewAuthForm(false, "")
		m.SessionsLoading = true
		m.syncFocus()
		return m, m.loadSessions(0)

	case loggedOutMsg:
		m.resetShell()
		return m, nil

	case sessionsLoadedMsg:
		m.SessionsLoading = false
		if msg.Err != nil {
			m.Log.Error(module, "fetch sessions failed", map[string]interface{}{"error": msg.Err})
			m.SessionsErr = api.ErrorText(msg.Err, "Error loading chats")
			return m, nil
		}
		m.SessionsErr = ""
		m.Sessions.Replace(msg.Sessions)
		if msg.SelectID != 0 {
			return m, m.activate(msg.SelectID)
		}
		if m.Sessions.ActiveID() != m.Chat.SessionID() {
			return m, m.activate(m.Sessions.ActiveID())
		}
		m.syncSidebarCursor()
		return m, nil

	case sessionCreatedMsg:
		if msg.Err != nil {
			m.Log.Error(module, "create session failed", map[string]interface{}{"error": msg.Err})
			m.setStatus(api.ErrorText(msg.Err, "Error creating chat"), true)
			return m, nil
		}
		m.Sessions.ApplyCreated(msg.Session)
		return m, m.activate(msg.Session.ID)

	case sessionRenamedMsg:
		if msg.Err != nil {
			m.Log.Error(module, "rename session failed", map[string]interface{}{
				"session_id": msg.ID,
				"error":      msg.Err,
			})
			m.setStatus("Rename failed: "+api.ErrorText(msg.Err, "Error renaming chat"), true)
			return m, nil
		}
		m.Sessions.ApplyRename(msg.ID, msg.Name)
		m.setStatus("Chat renamed", false)
		return m, nil

	case sessionDeletedMsg:
		if msg.Err != nil {
			m.Log.Error(module, "delete session failed", map[string]interface{}{
				"session_id": msg.ID,
				"error":      msg.Err,
			})
			m.setStatus(api.ErrorText(msg.Err, "Error deleting chat"), true)
			return m, nil
		}
		wasActive := m.Sessions.ActiveID() == msg.ID
		next := m.Sessions.ApplyDelete(msg.ID)
		m.setStatus("Chat deleted", false)
		if wasActive {
			return m, m.activate(next)
		}
		m.syncSidebarCursor()
		return m, nil

	case messagesLoadedMsg:
		if msg.Err != nil {
			if m.Chat.Current(msg.Gen) {
				m.Log.Error(module, "fetch messages failed", map[string]interface{}{"error": msg.Err})
			}
			return m, nil
		}
		if m.Chat.ApplyMessages(msg.Gen, msg.Messages) {
			m.transcript = nil
			m.UpdateViewport()
		}
		return m, nil

	case documentsLoadedMsg:
		if msg.Err != nil {
			if m.Chat.Current(msg.Gen) {
				m.Log.Error(module, "fetch documents failed", map[string]interface{}{"error": msg.Err})
			}
			return m, nil
		}
		if m.Chat.ApplyDocuments(msg.Gen, msg.Documents) {
			m.Sessions.SetDocuments(m.Chat.SessionID(), m.Chat.Documents())
			m.syncFocus()
			m.UpdateViewport()
		}
		return m, nil

	case chatResponseMsg:
		if !m.Chat.ApplySendResult(msg.Gen, msg.Resp, msg.Err) {
			m.Log.Debug(module, "dropped stale chat reply", nil)
			return m, nil
		}
		if msg.Err != nil {
			m.Log.Warn(module, "chat request failed", map[string]interface{}{"error": msg.Err})
		}
		m.UpdateViewport()
		return m, nil

	case uploadStepMsg:
		if !m.Chat.ApplyUpload(msg.Gen, msg.Outcome) {
			return m, nil
		}
		if msg.Outcome.Err != nil {
			m.Log.Warn(module, "upload failed", map[string]interface{}{"file": msg.Outcome.Filename(), "error": msg.Outcome.Err})
		}
		m.Sessions.SetDocuments(m.Chat.SessionID(), m.Chat.Documents())
		m.UpdateViewport()
		total := msg.Done + len(msg.Rest)
		if len(msg.Rest) > 0 {
			m.setStatus(fmt.Sprintf("Uploading %d of %d file(s)...", msg.Done+1, total), false)
			return m, m.uploadNext(msg, msg.Rest)
		}
		m.Chat.FinishUpload(msg.Gen)
		m.setStatus(fmt.Sprintf("Uploaded %d of %d file(s)", total-msg.Failed, total), msg.Failed > 0)
		return m, nil

	case widgetUploadedMsg:
		m.Widget.Finish(msg.Err)
		if msg.Err != nil {
			m.Log.Warn(module, "upload failed", map[string]interface{}{"error": msg.Err})
			return m, nil
		}
		m.PathInput.Reset()
		m.SessionsLoading = true
		return m, m.loadSessions(msg.SessionID)

	case themeSavedMsg:
		if msg.Err != nil {
			m.Log.Warn(module, "save theme failed", map[string]interface{}{"error": msg.Err})
			m.setStatus("Could not save theme preference", true)
		}
		return m, nil
	}

	return m, m.updateFocusedInput(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.Auth.State() {
	case auth.Loading:
		return m, nil
	case auth.Unauthenticated:
		return m.handleAuthKey(msg)
	}

	if m.ShortcutsOpen {
		switch msg.String() {
		case "esc", "enter", "?", "ctrl+s":
			m.ShortcutsOpen = false
		}
		return m, nil
	}

	if m.ModeSelectorOpen {
		return m.handleModeSelectorKey(msg)
	}
	if m.RenameOpen {
		return m.handleRenameKey(msg)
	}
	if m.DeleteConfirmOpen {
		return m.handleDeleteKey(msg)
	}
	if m.AttachOpen {
		return m.handleAttachKey(msg)
	}

	switch msg.String() {
	case "ctrl+s":
		m.ShortcutsOpen = true
		return m, nil

	case "ctrl+t":
		return m, m.toggleTheme()

	case "ctrl+x":
		return m, m.logout()

	case "ctrl+n":
		// back to the intro screen; an upload there reuses any draft
		m.Focus = FocusMain
		return m, m.activate(0)

	case "tab":
		if m.Focus == FocusSidebar {
			m.Focus = FocusMain
		} else if m.showSidebar() {
			m.Focus = FocusSidebar
			m.syncSidebarCursor()
		}
		m.syncFocus()
		return m, nil

	case "ctrl+b":
		if m.chatVisible() {
			m.ModeSelectorOpen = true
			m.ModeSelectedIdx = modeIndex(m.Chat.Mode())
		}
		return m, nil

	case "ctrl+o":
		if m.chatVisible() {
			m.AttachOpen = true
			m.PathInput.Reset()
			m.PathInput.Focus()
		}
		return m, nil

	case "ctrl+g":
		m.Viewport.GotoBottom()
		return m, nil

	case "pgup", "pgdown", "ctrl+up", "ctrl+down":
		var vpCmd tea.Cmd
		m.Viewport, vpCmd = m.Viewport.Update(msg)
		return m, vpCmd
	}

	if m.Focus == FocusSidebar {
		return m.handleSidebarKey(msg)
	}
	if m.chatVisible() {
		return m.handleChatKey(msg)
	}
	return m.handleIntroKey(msg)
}

func (m *Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Form.Busy {
		return m, nil
	}
	switch msg.String() {
	case "ctrl+r":
		m.Form.Toggle()
		return m, nil
	case "tab", "down":
		m.Form.Next()
		return m, nil
	case "shift+tab", "up":
		m.Form.Prev()
		return m, nil
	case "enter":
		m.Form.Err = ""
		m.Form.Busy = true
		return m, tea.Batch(m.submitAuth(), m.Spinner.Tick)
	}
	return m, m.Form.Update(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sorted := m.Sessions.Sorted()
	switch msg.String() {
	case "esc":
		m.Focus = FocusMain
		m.syncFocus()
		return m, nil
	case "up", "k":
		if len(sorted) > 0 {
			m.SidebarIdx = (m.SidebarIdx - 1 + len(sorted)) % len(sorted)
		}
		return m, nil
	case "down", "j":
		if len(sorted) > 0 {
			m.SidebarIdx = (m.SidebarIdx + 1) % len(sorted)
		}
		return m, nil
	case "enter":
		if s, ok := m.cursorSession(); ok {
			m.Focus = FocusMain
			return m, m.activate(s.ID)
		}
		return m, nil
	case "n":
		if draft, ok := m.Sessions.Draft(); ok {
			return m, m.activate(draft.ID)
		}
		return m, m.createSession()
	case "r":
		if s, ok := m.cursorSession(); ok {
			m.RenameOpen = true
			m.RenameTarget = s.ID
			m.RenameErr = ""
			m.RenameInput.SetValue(s.DisplayName())
			m.RenameInput.CursorEnd()
			m.RenameInput.Focus()
		}
		return m, nil
	case "d", "delete", "x":
		if s, ok := m.cursorSession(); ok {
			m.DeleteConfirmOpen = true
			m.DeleteTarget = s.ID
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleModeSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(models.AvailableModes)
	switch msg.String() {
	case "esc", "ctrl+b":
		m.ModeSelectorOpen = false
	case "up", "k":
		m.ModeSelectedIdx = (m.ModeSelectedIdx - 1 + n) % n
	case "down", "j":
		m.ModeSelectedIdx = (m.ModeSelectedIdx + 1) % n
	case "enter":
		m.Chat.SetMode(models.AvailableModes[m.ModeSelectedIdx].Mode)
		m.ModeSelectorOpen = false
	}
	return m, nil
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.RenameOpen = false
		m.RenameInput.Blur()
		return m, nil
	case "enter":
		name, err := sessions.CleanName(m.RenameInput.Value())
		if err != nil {
			m.RenameErr = err.Error()
			return m, nil
		}
		m.RenameOpen = false
		m.RenameInput.Blur()
		return m, m.renameSession(m.RenameTarget, name)
	}
	var cmd tea.Cmd
	m.RenameInput, cmd = m.RenameInput.Update(msg)
	return m, cmd
}

func (m *Model) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.DeleteConfirmOpen = false
		return m, m.deleteSession(m.DeleteTarget)
	case "n", "esc":
		m.DeleteConfirmOpen = false
	}
	return m, nil
}

func (m *Model) handleAttachKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.AttachOpen = false
		m.PathInput.Blur()
		return m, nil
	case "enter":
		paths := SplitPaths(m.PathInput.Value())
		if len(paths) == 0 {
			return m, nil
		}
		m.AttachOpen = false
		m.PathInput.Reset()
		m.syncFocus()
		if !m.Chat.BeginUpload(len(paths)) {
			m.UpdateViewport()
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Uploading 1 of %d file(s)...", len(paths)), false)
		step := uploadStepMsg{Gen: m.Chat.Generation(), SessionID: m.Chat.SessionID()}
		return m, tea.Batch(m.uploadNext(step, paths), m.Spinner.Tick)
	}
	var cmd tea.Cmd
	m.PathInput, cmd = m.PathInput.Update(msg)
	return m, cmd
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isNewlineShortcut(msg) {
		m.TextInput.InsertString("\n")
		m.updateInputLayout()
		return m, nil
	}
	if msg.Type == tea.KeyEnter {
		out, ok := m.Chat.BeginSend(m.TextInput.Value())
		if !ok {
			return m, nil
		}
		m.TextInput.Reset()
		m.updateInputLayout()
		m.UpdateViewport()
		return m, tea.Batch(m.sendChat(out), m.Spinner.Tick)
	}
	return m, m.updateFocusedInput(msg)
}

func (m *Model) handleIntroKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		path := strings.TrimSpace(m.PathInput.Value())
		if p := SplitPaths(path); len(p) > 0 {
			path = p[0]
		}
		if err := m.Widget.Begin(path); err != nil {
			return m, nil
		}
		return m, tea.Batch(m.uploadWidget(path, m.widgetTarget()), m.Spinner.Tick)
	}
	return m, m.updateFocusedInput(msg)
}

// updateFocusedInput forwards msg to whichever input owns the cursor.
func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	if m.Auth.State() != auth.Authenticated {
		return m.Form.Update(msg)
	}
	if m.Focus != FocusMain {
		return nil
	}
	var cmd tea.Cmd
	if m.chatVisible() {
		m.TextInput, cmd = m.TextInput.Update(msg)
		// terminal background queries can leak into the input
		if val := m.TextInput.Value(); strings.Contains(val, "]11;rgb:") || strings.Contains(val, "[1;1R") {
			m.TextInput.Reset()
		}
		m.updateInputLayout()
		return cmd
	}
	if m.Widget.Busy() {
		return nil
	}
	m.PathInput, cmd = m.PathInput.Update(msg)
	return cmd
}

// activate selects id (zero clears), resets the chat state and fetches the
// session's transcript and documents.
func (m *Model) activate(id int64) tea.Cmd {
	m.Sessions.Select(id)
	active := m.Sessions.ActiveID()
	gen := m.Chat.Activate(active)
	m.Widget.ClearError()
	m.ModeSelectorOpen = false
	m.AttachOpen = false
	m.syncSidebarCursor()
	m.syncFocus()
	m.UpdateViewport()
	if active == 0 {
		return nil
	}
	return m.fetchSession(gen, active)
}

// widgetTarget is the draft an intro upload should land in, or zero to let
// the server create a session.
func (m *Model) widgetTarget() int64 {
	if s, ok := m.Sessions.Active(); ok && s.IsDraft() {
		return s.ID
	}
	if draft, ok := m.Sessions.Draft(); ok {
		return draft.ID
	}
	return 0
}

// chatVisible reports whether the chat view (rather than the intro) is shown.
func (m *Model) chatVisible() bool {
	s, ok := m.Sessions.Active()
	if !ok {
		return false
	}
	return len(s.Documents) > 0 || len(m.Chat.Documents()) > 0
}

func (m *Model) cursorSession() (models.Session, bool) {
	sorted := m.Sessions.Sorted()
	if m.SidebarIdx < 0 || m.SidebarIdx >= len(sorted) {
		return models.Session{}, false
	}
	return sorted[m.SidebarIdx], true
}

func (m *Model) syncSidebarCursor() {
	sorted := m.Sessions.Sorted()
	for i, s := range sorted {
		if s.ID == m.Sessions.ActiveID() {
			m.SidebarIdx = i
			return
		}
	}
	if m.SidebarIdx >= len(sorted) {
		m.SidebarIdx = len(sorted) - 1
	}
	if m.SidebarIdx < 0 {
		m.SidebarIdx = 0
	}
}

func (m *Model) syncFocus() {
	m.TextInput.Blur()
	m.PathInput.Blur()
	if m.Focus != FocusMain || m.Auth.State() != auth.Authenticated {
		return
	}
	if m.chatVisible() {
		m.TextInput.Focus()
	} else {
		m.PathInput.Focus()
	}
}

func (m *Model) toggleTheme() tea.Cmd {
	m.Dark = !m.Dark
	styles.SetTheme(m.Dark)
	styleTextarea(&m.TextInput)
	m.Spinner.Style = lipgloss.NewStyle().Foreground(styles.CurrentTheme.Primary)
	m.refreshRenderer()
	m.transcript = nil
	m.UpdateViewport()
	return m.saveTheme(m.Dark)
}

func (m *Model) refreshRenderer() {
	wrap := m.Viewport.Width - 6
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(styles.GlamourStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.Log.Warn(module, "markdown renderer unavailable", map[string]interface{}{"error": err})
		return
	}
	m.Renderer = r
	m.transcript = nil
}

func (m *Model) resetShell() {
	m.Sessions.Replace(nil)
	m.Chat.Activate(0)
	m.Form = NewAuthForm(false, "")
	m.Focus = FocusMain
	m.SidebarIdx = 0
	m.ShortcutsOpen = false
	m.ModeSelectorOpen = false
	m.RenameOpen = false
	m.DeleteConfirmOpen = false
	m.AttachOpen = false
	m.TextInput.Reset()
	m.PathInput.Reset()
	m.setStatus("", false)
	m.transcript = nil
	m.syncFocus()
}

func modeIndex(mode models.ChatMode) int {
	for i, info := range models.AvailableModes {
		if info.Mode == mode {
			return i
		}
	}
	return 0
}
