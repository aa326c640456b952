package styles

import "github.com/charmbracelet/lipgloss"

var (
	SidebarWidth = 32
	ModalWidth   = 54
)

var (
	TitleStyle    lipgloss.Style
	GreetingStyle lipgloss.Style
	InfoStyle     lipgloss.Style
	HintStyle     lipgloss.Style

	UserLabelStyle lipgloss.Style
	UserMsgStyle   lipgloss.Style
	AiLabelStyle   lipgloss.Style
	AiMsgStyle     lipgloss.Style
	ModeTagStyle   lipgloss.Style
	ErrorStyle     lipgloss.Style
	ErrorMsgStyle  lipgloss.Style
	SuccessStyle   lipgloss.Style

	SidebarStyle         lipgloss.Style
	SidebarItemStyle     lipgloss.Style
	SidebarSelectedStyle lipgloss.Style
	SidebarActiveStyle   lipgloss.Style
	SidebarSubtitleStyle lipgloss.Style

	WarningBannerStyle lipgloss.Style
	AlertBannerStyle   lipgloss.Style
	ScrollHintStyle    lipgloss.Style

	InputBoxStyle lipgloss.Style
	FieldLabel    lipgloss.Style
	FocusedLabel  lipgloss.Style
	ButtonStyle   lipgloss.Style

	ModalStyle         lipgloss.Style
	ModalTitleStyle    lipgloss.Style
	ModalItemStyle     lipgloss.Style
	ModalSelectedStyle lipgloss.Style
	DescStyle          lipgloss.Style

	DocumentStyle lipgloss.Style
	StatusStyle   lipgloss.Style
)

func build(t Theme) {
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Padding(0, 1)

	GreetingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.TextPrimary)

	InfoStyle = lipgloss.NewStyle().
		Foreground(t.TextSecondary)

	HintStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted)

	UserLabelStyle = lipgloss.NewStyle().
		Foreground(t.TextInverse).
		Background(t.Secondary).
		Bold(true).
		Padding(0, 1).
		MarginRight(1)

	UserMsgStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		PaddingLeft(2).
		BorderLeft(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(t.Secondary)

	AiLabelStyle = lipgloss.NewStyle().
		Foreground(t.TextInverse).
		Background(t.Primary).
		Bold(true).
		Padding(0, 1).
		MarginRight(1)

	AiMsgStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		BorderLeft(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(t.Primary)

	ModeTagStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Italic(true)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true)

	ErrorMsgStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		PaddingLeft(2).
		BorderLeft(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(t.Error)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(t.Success)

	SidebarStyle = lipgloss.NewStyle().
		Width(SidebarWidth).
		BorderRight(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	SidebarItemStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Padding(0, 1)

	SidebarSelectedStyle = lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Selected).
		Padding(0, 1)

	SidebarActiveStyle = lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Padding(0, 1)

	SidebarSubtitleStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted).
		PaddingLeft(3)

	WarningBannerStyle = lipgloss.NewStyle().
		Foreground(t.Warning).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Warning).
		Padding(0, 1)

	AlertBannerStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true).
		Border(lipgloss.ThickBorder()).
		BorderForeground(t.Error).
		Padding(0, 1)

	ScrollHintStyle = lipgloss.NewStyle().
		Foreground(t.TextInverse).
		Background(t.Secondary).
		Padding(0, 1)

	InputBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)

	FieldLabel = lipgloss.NewStyle().
		Foreground(t.TextSecondary)

	FocusedLabel = lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	ButtonStyle = lipgloss.NewStyle().
		Foreground(t.TextInverse).
		Background(t.Primary).
		Padding(0, 2)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Width(ModalWidth).
		MarginBottom(1)

	ModalItemStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Width(ModalWidth)

	ModalSelectedStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Width(ModalWidth).
		Background(t.Selected).
		Foreground(t.TextPrimary)

	DescStyle = lipgloss.NewStyle().
		Foreground(t.TextMuted)

	DocumentStyle = lipgloss.NewStyle().
		Foreground(t.Accent)

	StatusStyle = lipgloss.NewStyle().
		Foreground(t.TextSecondary).
		Italic(true)
}
