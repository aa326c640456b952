package ui

import (
	"fmt"
	"strings"

	"codex/internal/auth"
	"codex/internal/chat"
	"codex/internal/models"
	"codex/internal/sessions"
	"codex/internal/styles"

	"github.com/charmbracelet/lipgloss"
)

// UpdateViewport re-renders the transcript into the viewport. Rendered
// entries are cached per generation and width; only new ones go through
// glamour.
func (m *Model) UpdateViewport() {
	msgs := m.Chat.Messages()
	width := m.Viewport.Width
	if m.transcriptGen != m.Chat.Generation() || m.transcriptWidth != width || len(m.transcript) > len(msgs) {
		m.transcript = nil
		m.transcriptGen = m.Chat.Generation()
		m.transcriptWidth = width
	}
	grew := len(m.transcript) < len(msgs)
	for i := len(m.transcript); i < len(msgs); i++ {
		m.transcript = append(m.transcript, m.FormatMessage(msgs[i]))
	}

	parts := append([]string(nil), m.transcript...)
	if m.Chat.Loading() {
		parts = append(parts, styles.AiLabelStyle.Render("CODEX")+"\n"+m.Spinner.View()+" Thinking...")
	}
	m.Viewport.SetContent(strings.Join(parts, "\n\n"))

	if grew || m.renderedLoading != m.Chat.Loading() {
		m.Viewport.GotoBottom()
	}
	m.renderedLoading = m.Chat.Loading()
}

func (m *Model) View() string {
	switch m.Auth.State() {
	case auth.Loading:
		msg := m.Spinner.View() + " " + styles.InfoStyle.Render("Checking your session...")
		return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center, msg)
	case auth.Unauthenticated:
		header := styles.TitleStyle.Render("CODEX AI")
		form := styles.ModalStyle.Width(styles.ModalWidth).Render(m.Form.View(m.Spinner.View()))
		return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, header, "", form))
	}

	var modal string
	switch {
	case m.ShortcutsOpen:
		modal = m.RenderShortcutsModal()
	case m.ModeSelectorOpen:
		modal = m.RenderModeSelector()
	case m.RenameOpen:
		modal = m.RenderRenameModal()
	case m.DeleteConfirmOpen:
		modal = m.RenderDeleteModal()
	case m.AttachOpen:
		modal = m.RenderAttachModal()
	}
	if modal != "" {
		modal = styles.ModalStyle.Width(styles.ModalWidth).Render(modal)
		return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center, modal)
	}

	mainArea := m.renderMain()
	var body string
	if m.showSidebar() {
		sidebar := m.RenderSidebar()
		mainArea = lipgloss.PlaceHorizontal(m.WindowWidth-lipgloss.Width(sidebar), lipgloss.Center, mainArea)
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, mainArea)
	} else {
		body = lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, mainArea)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.RenderBottomBar())
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("CODEX AI")
	_, user := m.Auth.Snapshot()
	if user == nil || user.FirstName == "" {
		return title
	}
	greeting := styles.GreetingStyle.Render(fmt.Sprintf("%s, %s", auth.Greeting(m.Now()), user.FirstName))
	return lipgloss.JoinVertical(lipgloss.Center, title, greeting)
}

func (m *Model) renderMain() string {
	if m.chatVisible() {
		return m.renderChat()
	}
	return m.renderIntro()
}

func (m *Model) renderChat() string {
	width := m.mainWidth()
	parts := []string{m.renderHeader(), m.renderDocuments(width)}

	switch level := m.Chat.Warning(); level {
	case chat.WarningAlert:
		parts = append(parts, styles.AlertBannerStyle.Width(width-2).Render(level.Message()+"  ctrl+n: New Chat"))
	case chat.WarningSoft:
		parts = append(parts, styles.WarningBannerStyle.Width(width-2).Render(level.Message()))
	}

	if m.Chat.IsNewChat() && len(m.Chat.Messages()) == 0 && !m.Chat.Loading() {
		parts = append(parts, styles.DescStyle.Render(EmptyChatHint))
	}
	parts = append(parts, m.Viewport.View())
	if chat.ShowScrollHint(m.linesFromBottom()) {
		parts = append(parts, styles.ScrollHintStyle.Render("↓ ctrl+g: jump to latest"))
	}
	parts = append(parts, styles.InputBoxStyle.Width(width-2).Render(m.TextInput.View()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderDocuments(width int) string {
	docs := m.Chat.Documents()
	label := styles.InfoStyle.Render(fmt.Sprintf("Documents (%d/%d)", len(docs), chat.MaxDocuments))
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Filename)
	}
	list := TruncateRunes(strings.Join(names, ", "), width-lipgloss.Width(label)-2)
	return label + " " + styles.DocumentStyle.Render(list)
}

func (m *Model) renderIntro() string {
	width := m.mainWidth()
	parts := []string{
		m.renderHeader(),
		"",
		styles.ModalTitleStyle.Render(IntroTitle),
		styles.DescStyle.Width(width - 4).Render(IntroBody),
		"",
	}
	for _, f := range IntroFeatures {
		parts = append(parts, "  "+styles.SuccessStyle.Render("◆ "+f.Title)+"  "+styles.DescStyle.Render(f.Text))
	}
	parts = append(parts, "", styles.FieldLabel.Render("Upload a PDF to start chatting"))
	parts = append(parts, styles.InputBoxStyle.Width(width-4).Render(m.PathInput.View()))

	switch {
	case m.Widget.Busy():
		parts = append(parts, m.Spinner.View()+" "+styles.InfoStyle.Render("Uploading and processing..."))
	case m.Widget.Error() != "":
		parts = append(parts, styles.ErrorStyle.Render(m.Widget.Error()))
	default:
		parts = append(parts, styles.HintStyle.Render("enter: upload  ·  tab: chats"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) RenderSidebar() string {
	height := m.WindowHeight - 3
	if height < 5 {
		height = 5
	}
	inner := styles.SidebarWidth - 4

	lines := []string{styles.ModalTitleStyle.Render("Chats"), ""}
	switch {
	case m.SessionsLoading:
		lines = append(lines, m.Spinner.View()+" "+styles.InfoStyle.Render("Loading..."))
	case m.SessionsErr != "":
		lines = append(lines, styles.ErrorStyle.Width(inner).Render(m.SessionsErr))
	case m.Sessions.Len() == 0:
		lines = append(lines, styles.HintStyle.Render("No chats yet"))
	}

	for i, s := range m.Sessions.Sorted() {
		style := styles.SidebarItemStyle
		if s.ID == m.Sessions.ActiveID() {
			style = styles.SidebarActiveStyle
		}
		if m.Focus == FocusSidebar && i == m.SidebarIdx {
			style = styles.SidebarSelectedStyle
		}
		subtitle := sessions.DocumentCount(s)
		if rel := RelativeTime(s.CreatedTime(), m.Now()); rel != "" {
			subtitle += " · " + rel
		}
		lines = append(lines,
			style.Width(inner).Render(sessions.Title(s)),
			styles.SidebarSubtitleStyle.Render(TruncateRunes(subtitle, inner)),
		)
	}

	if m.Focus == FocusSidebar {
		lines = append(lines, "", styles.HintStyle.Render("n new · r rename · d delete"))
	}
	return styles.SidebarStyle.Width(styles.SidebarWidth).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Keyboard Shortcuts")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Ctrl+C", "Quit"},
		{"Ctrl+N", "New chat"},
		{"Tab", "Switch between chats and main area"},
		{"Ctrl+B", "Select response mode"},
		{"Ctrl+O", "Attach PDF documents"},
		{"Ctrl+G", "Jump to latest message"},
		{"Shift+Enter", "New line in message"},
		{"Ctrl+T", "Toggle light/dark theme"},
		{"Ctrl+X", "Sign out"},
		{"Ctrl+S", "Shortcuts (this menu)"},
	}

	keyStyle := styles.FocusedLabel.Width(13)
	var items []string
	for _, s := range shortcuts {
		items = append(items, styles.ModalItemStyle.Render(keyStyle.Render(s.key)+" "+styles.DescStyle.Render(s.desc)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...))
	return lipgloss.JoinVertical(lipgloss.Left, content, modalHint("Esc/Enter: close"))
}

func (m *Model) RenderModeSelector() string {
	title := styles.ModalTitleStyle.Render("Response Mode")
	current := m.Chat.Mode()
	contentWidth := styles.ModalWidth - 6

	var items []string
	for i, info := range models.AvailableModes {
		name := "  " + info.Label
		if info.Mode == current {
			name = "● " + info.Label
		}
		style := styles.ModalItemStyle
		if i == m.ModeSelectedIdx {
			style = styles.ModalSelectedStyle
		}
		items = append(items,
			style.Width(contentWidth).Render(name),
			styles.DescStyle.PaddingLeft(4).Render(info.Description),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...))
	return lipgloss.JoinVertical(lipgloss.Left, content, modalHint("↑/↓: navigate • Enter: select • Esc: close"))
}

func (m *Model) RenderRenameModal() string {
	rows := []string{
		styles.ModalTitleStyle.Render("Rename Chat"),
		styles.InputBoxStyle.Width(styles.ModalWidth - 8).Render(m.RenameInput.View()),
	}
	if m.RenameErr != "" {
		rows = append(rows, styles.ErrorStyle.Render(m.RenameErr))
	}
	rows = append(rows, modalHint("Enter: save • Esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) RenderDeleteModal() string {
	name := "this chat"
	if s, ok := m.Sessions.Get(m.DeleteTarget); ok {
		name = fmt.Sprintf("%q", sessions.Title(s))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Delete Chat"),
		styles.DescStyle.Width(styles.ModalWidth-6).Render(fmt.Sprintf("Delete %s? Its messages and documents will be removed.", name)),
		modalHint("y/Enter: delete • n/Esc: cancel"),
	)
}

func (m *Model) RenderAttachModal() string {
	remaining := chat.MaxDocuments - len(m.Chat.Documents())
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Attach Documents"),
		styles.DescStyle.Render(fmt.Sprintf("PDF paths, comma separated. %d slot(s) left.", remaining)),
		styles.InputBoxStyle.Width(styles.ModalWidth-8).Render(m.PathInput.View()),
		modalHint("Enter: upload • Esc: cancel"),
	)
}

func modalHint(text string) string {
	return styles.HintStyle.Width(styles.ModalWidth - 6).PaddingTop(1).Render(text)
}

func (m *Model) RenderBottomBar() string {
	mode := styles.ModeTagStyle.Bold(true).Padding(0, 1).Render(strings.ToUpper(m.Chat.Mode().Label()))

	title := "No chat selected"
	if s, ok := m.Sessions.Active(); ok {
		title = sessions.Title(s)
	}
	session := styles.InfoStyle.Render(title)

	left := lipgloss.JoinHorizontal(lipgloss.Center, mode, "  ", session)
	if m.Status != "" {
		statusStyle := styles.StatusStyle
		if m.StatusIsError {
			statusStyle = styles.ErrorStyle
		}
		left = lipgloss.JoinHorizontal(lipgloss.Center, left, "  ", statusStyle.Render(TruncateRunes(m.Status, 40)))
	}

	themeName := "light"
	if m.Dark {
		themeName = "dark"
	}
	right := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.HintStyle.Render(themeName), "  ", styles.HintStyle.Render("Help: ^S"))

	availableWidth := m.WindowWidth - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Center, left, strings.Repeat(" ", availableWidth), right)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.CurrentTheme.Border).
		Padding(0, 1).
		Render(bar)
}
