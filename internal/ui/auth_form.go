package ui

import (
	"strings"

	"codex/internal/auth"
	"codex/internal/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formField struct {
	Label    string
	Password bool
}

var loginFields = []formField{
	{Label: "Email"},
	{Label: "Password", Password: true},
}

var registerFields = []formField{
	{Label: "First name"},
	{Label: "Last name"},
	{Label: "Email"},
	{Label: "Password", Password: true},
	{Label: "Confirm password", Password: true},
}

// AuthForm is the login/register toggle shown while unauthenticated.
type AuthForm struct {
	Register bool
	Fields   []formField
	Inputs   []textinput.Model
	FocusIdx int
	Err      string
	Busy     bool
}

func NewAuthForm(register bool, email string) AuthForm {
	fields := loginFields
	if register {
		fields = registerFields
	}
	f := AuthForm{Register: register, Fields: fields}
	for _, fd := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 128
		ti.Width = 36
		if fd.Password {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		if fd.Label == "Email" {
			ti.SetValue(email)
		}
		f.Inputs = append(f.Inputs, ti)
	}
	f.Inputs[0].Focus()
	return f
}

// Toggle swaps between login and register, keeping the typed email.
func (f *AuthForm) Toggle() {
	*f = NewAuthForm(!f.Register, f.value("Email"))
}

func (f *AuthForm) move(delta int) {
	f.Inputs[f.FocusIdx].Blur()
	f.FocusIdx = (f.FocusIdx + delta + len(f.Inputs)) % len(f.Inputs)
	f.Inputs[f.FocusIdx].Focus()
}

func (f *AuthForm) Next() { f.move(1) }
func (f *AuthForm) Prev() { f.move(-1) }

func (f AuthForm) value(label string) string {
	for i, fd := range f.Fields {
		if fd.Label == label {
			return f.Inputs[i].Value()
		}
	}
	return ""
}

func (f AuthForm) LoginForm() auth.LoginForm {
	return auth.LoginForm{Email: f.value("Email"), Password: f.value("Password")}
}

func (f AuthForm) RegisterForm() auth.RegisterForm {
	return auth.RegisterForm{
		FirstName:       f.value("First name"),
		LastName:        f.value("Last name"),
		Email:           f.value("Email"),
		Password:        f.value("Password"),
		ConfirmPassword: f.value("Confirm password"),
	}
}

func (f *AuthForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.Inputs[f.FocusIdx], cmd = f.Inputs[f.FocusIdx].Update(msg)
	return cmd
}

func (f AuthForm) View(spinnerView string) string {
	title := "Sign in to Codex AI"
	toggle := "No account? ctrl+r to register"
	if f.Register {
		title = "Create your account"
		toggle = "Have an account? ctrl+r to sign in"
	}

	var rows []string
	rows = append(rows, styles.ModalTitleStyle.Render(title))
	for i, fd := range f.Fields {
		label := styles.FieldLabel.Render(fd.Label)
		if i == f.FocusIdx {
			label = styles.FocusedLabel.Render(fd.Label)
		}
		rows = append(rows, label, styles.InputBoxStyle.Width(40).Render(f.Inputs[i].View()))
	}

	if f.Err != "" {
		rows = append(rows, styles.ErrorStyle.Render(f.Err))
	}

	action := "Sign in"
	if f.Register {
		action = "Register"
	}
	if f.Busy {
		rows = append(rows, spinnerView+" "+styles.InfoStyle.Render(action+"..."))
	} else {
		rows = append(rows, "", styles.ButtonStyle.Render(action)+"  "+styles.HintStyle.Render("enter"))
	}
	rows = append(rows, "", styles.HintStyle.Render(strings.Join([]string{toggle, "tab: next field", "ctrl+c: quit"}, "  ·  ")))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
