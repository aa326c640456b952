package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"codex/internal/models"
	"codex/internal/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, max, "…")
}

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	lines := strings.Split(value, "\n")
	if len(lines) == 0 {
		return 1
	}
	count := 0
	for _, line := range lines {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}

func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	}
	if d < 24*time.Hour {
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1 hr ago"
		}
		return fmt.Sprintf("%d hrs ago", hrs)
	}
	days := int(d.Hours() / 24)
	if days < 14 {
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	weeks := days / 7
	if weeks == 1 {
		return "1 week ago"
	}
	return fmt.Sprintf("%d weeks ago", weeks)
}

// SplitPaths turns a comma separated list into paths, expanding ~ and globs.
// Entries that match nothing are kept so the upload reports them.
func SplitPaths(input string) []string {
	var out []string
	for _, raw := range strings.Split(input, ",") {
		p := strings.Trim(strings.TrimSpace(raw), `"'`)
		if p == "" {
			continue
		}
		if p == "~" || strings.HasPrefix(p, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				p = filepath.Join(home, strings.TrimPrefix(p, "~"))
			}
		}
		if strings.ContainsAny(p, "*?[") {
			if matches, err := filepath.Glob(p); err == nil && len(matches) > 0 {
				sort.Strings(matches)
				out = append(out, matches...)
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func modeTag(mode models.ChatMode) string {
	if mode == "" {
		return ""
	}
	return " " + styles.ModeTagStyle.Render(mode.Label())
}

func FormatUserMessage(content string, width int, mode models.ChatMode) string {
	label := styles.UserLabelStyle.Render("YOU") + modeTag(mode)
	msg := styles.UserMsgStyle.Width(max(width-4, 10)).Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatAIMessage(content string, mode models.ChatMode) string {
	label := styles.AiLabelStyle.Render("CODEX") + modeTag(mode)
	msg := styles.AiMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatErrorMessage(content string, width int) string {
	return styles.ErrorMsgStyle.Width(max(width-4, 10)).Render(content)
}

// FormatMessage renders one transcript entry. Replies go through glamour
// when a renderer is available.
func (m *Model) FormatMessage(msg models.Message) string {
	width := m.Viewport.Width
	switch {
	case msg.IsError:
		return FormatErrorMessage(msg.Text, width)
	case msg.IsUser:
		return FormatUserMessage(msg.Text, width, msg.Mode)
	}
	content := msg.Text
	if m.Renderer != nil {
		if rendered, err := m.Renderer.Render(msg.Text); err == nil {
			content = strings.TrimSpace(rendered)
		}
	}
	return FormatAIMessage(content, msg.Mode)
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "shift+return", "ctrl+j", "ctrl+enter", "alt+enter":
		return true
	default:
		return false
	}
}

func (m *Model) mainWidth() int {
	w := m.WindowWidth
	if m.showSidebar() {
		w -= styles.SidebarWidth + 3
	}
	if w > MaxChatWidth {
		w = MaxChatWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) showSidebar() bool {
	return m.WindowWidth >= CompactWidthThresh
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.mainWidth() - 4
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > MaxInputHeight {
		lineCount = MaxInputHeight
	}

	m.TextInput.MaxHeight = MaxInputHeight
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	// header, documents line, banner, input box, status bar
	reserved := m.TextInput.Height() + 2 + 8
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Width = m.mainWidth()
	m.Viewport.Height = viewportHeight
	m.PathInput.Width = m.mainWidth() - 8
}

// linesFromBottom is how far the transcript is scrolled up.
func (m *Model) linesFromBottom() int {
	bottom := m.Viewport.TotalLineCount() - m.Viewport.Height
	if bottom < 0 {
		return 0
	}
	return bottom - m.Viewport.YOffset
}

func (m *Model) setStatus(text string, isErr bool) {
	m.Status = text
	m.StatusIsError = isErr
}
