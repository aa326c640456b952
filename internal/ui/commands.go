package ui

import (
	"codex/internal/chat"
	"codex/internal/db"

	tea "github.com/charmbracelet/bubbletea"
)

// Commands only talk to the backend; every state change happens in Update.

func (m *Model) probeAuth() tea.Cmd {
	ctx, provider := m.Ctx, m.Auth
	return func() tea.Msg {
		return authProbedMsg{State: provider.Probe(ctx)}
	}
}

func (m *Model) submitAuth() tea.Cmd {
	ctx, provider, form := m.Ctx, m.Auth, m.Form
	return func() tea.Msg {
		if form.Register {
			return authDoneMsg{Err: provider.Register(ctx, form.RegisterForm())}
		}
		return authDoneMsg{Err: provider.Login(ctx, form.LoginForm())}
	}
}

func (m *Model) logout() tea.Cmd {
	ctx, provider := m.Ctx, m.Auth
	return func() tea.Msg {
		provider.Logout(ctx)
		return loggedOutMsg{}
	}
}

func (m *Model) loadSessions(selectID int64) tea.Cmd {
	ctx, backend := m.Ctx, m.Backend
	return func() tea.Msg {
		items, err := backend.ListSessions(ctx)
		return sessionsLoadedMsg{Sessions: items, Err: err, SelectID: selectID}
	}
}

func (m *Model) createSession() tea.Cmd {
	ctx, backend := m.Ctx, m.Backend
	return func() tea.Msg {
		s, err := backend.CreateSession(ctx)
		return sessionCreatedMsg{Session: s, Err: err}
	}
}

func (m *Model) renameSession(id int64, name string) tea.Cmd {
	ctx, backend := m.Ctx, m.Backend
	return func() tea.Msg {
		_, err := backend.RenameSession(ctx, id, name)
		return sessionRenamedMsg{ID: id, Name: name, Err: err}
	}
}

func (m *Model) deleteSession(id int64) tea.Cmd {
	ctx, backend := m.Ctx, m.Backend
	return func() tea.Msg {
		return sessionDeletedMsg{ID: id, Err: backend.DeleteSession(ctx, id)}
	}
}

// fetchSession issues the two independent loads that follow an activation.
func (m *Model) fetchSession(gen chat.Generation, id int64) tea.Cmd {
	ctx, backend := m.Ctx, m.Backend
	return tea.Batch(
		func() tea.Msg {
			msgs, err := backend.SessionMessages(ctx, id)
			return messagesLoadedMsg{Gen: gen, Messages: msgs, Err: err}
		},
		func() tea.Msg {
			docs, err := backend.SessionDocuments(ctx, id)
			return documentsLoadedMsg{Gen: gen, Documents: docs, Err: err}
		},
	)
}

func (m *Model) sendChat(out chat.Outgoing) tea.Cmd {
	ctx, backend := m.Ctx, m.Backend
	return func() tea.Msg {
		resp, err := backend.Chat(ctx, out.Request)
		return chatResponseMsg{Gen: out.Generation, Resp: resp, Err: err}
	}
}

// uploadNext sends the first of paths; Update queues the next one.
func (m *Model) uploadNext(step uploadStepMsg, paths []string) tea.Cmd {
	ctx, backend := m.Ctx, m.Backend
	return func() tea.Msg {
		step.Outcome = chat.UploadPath(ctx, backend, step.SessionID, paths[0])
		step.Rest = paths[1:]
		step.Done++
		if step.Outcome.Err != nil {
			step.Failed++
		}
		return step
	}
}

func (m *Model) uploadWidget(path string, sessionID int64) tea.Cmd {
	ctx, backend := m.Ctx, m.Backend
	return func() tea.Msg {
		id, err := chat.UploadOne(ctx, backend, path, sessionID)
		return widgetUploadedMsg{SessionID: id, Err: err}
	}
}

func (m *Model) saveTheme(dark bool) tea.Cmd {
	conn := m.DB
	if conn == nil {
		return nil
	}
	return func() tea.Msg {
		return themeSavedMsg{Err: db.SaveTheme(conn, dark)}
	}
}
