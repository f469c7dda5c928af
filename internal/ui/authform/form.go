// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authform is the login and registration screen.
//
// The form only collects input. Submitting emits a SubmitMsg; the parent
// model performs the sign-in and reports failures back with SetError.
package authform

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Mode selects which form is shown.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// String returns the form title.
func (m Mode) String() string {
	if m == ModeRegister {
		return "注册"
	}
	return "登录"
}

// SubmitMsg is emitted when the user submits the form.
type SubmitMsg struct {
	Mode     Mode
	Email    string
	Password string
	Confirm  string
}

const (
	fieldEmail = iota
	fieldPassword
	fieldConfirm
)

var fieldLabels = [...]string{"邮箱", "密码", "确认密码"}

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the form bindings.
type KeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Submit     key.Binding
	SwitchMode key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default form bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "下一项"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("Shift+Tab", "上一项"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "提交"),
		),
		SwitchMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("Ctrl+T", "切换登录/注册"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("Esc", "退出"),
		),
	}
}

// =============================================================================
// FORM
// =============================================================================

// Form is the bubbletea model for both auth screens.
type Form struct {
	theme  *styles.Theme
	keys   KeyMap
	mode   Mode
	inputs []textinput.Model
	focus  int
	err    string
	busy   bool
	width  int
	height int
}

// New creates a login form with the email field focused.
func New(theme *styles.Theme) Form {
	f := Form{
		theme:  theme,
		keys:   DefaultKeyMap(),
		inputs: make([]textinput.Model, len(fieldLabels)),
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 254
		in.Width = 32
		if i != fieldEmail {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
			in.CharLimit = 128
		}
		f.inputs[i] = in
	}
	f.inputs[fieldEmail].Placeholder = "you@example.com"
	f.inputs[fieldEmail].Focus()
	return f
}

// Init starts the cursor blinking.
func (f Form) Init() tea.Cmd {
	return textinput.Blink
}

// Mode returns the current form.
func (f Form) Mode() Mode {
	return f.mode
}

// Email returns the entered email.
func (f Form) Email() string {
	return f.inputs[fieldEmail].Value()
}

// Err returns the inline error.
func (f Form) Err() string {
	return f.err
}

// Busy reports whether a submission is in flight.
func (f Form) Busy() bool {
	return f.busy
}

// SetMode switches forms. The email is kept; passwords and the error are
// cleared.
func (f Form) SetMode(m Mode) Form {
	f.mode = m
	f.err = ""
	f.inputs[fieldPassword].Reset()
	f.inputs[fieldConfirm].Reset()
	return f.focusField(fieldEmail)
}

// SetError shows an inline error and ends the busy state.
func (f Form) SetError(msg string) Form {
	f.err = msg
	f.busy = false
	return f
}

// SetBusy marks a submission as in flight.
func (f Form) SetBusy(busy bool) Form {
	f.busy = busy
	return f
}

// Reset returns the form to an empty login screen.
func (f Form) Reset() Form {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.busy = false
	return f.SetMode(ModeLogin)
}

// SetSize sets the area the form is centered in.
func (f Form) SetSize(width, height int) Form {
	f.width = width
	f.height = height
	return f
}

func (f Form) fieldCount() int {
	if f.mode == ModeRegister {
		return 3
	}
	return 2
}

func (f Form) focusField(i int) Form {
	f.focus = i
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return f
}

// Update handles key input.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return f, cmd
	}

	switch {
	case key.Matches(keyMsg, f.keys.Quit):
		return f, tea.Quit
	case f.busy:
		return f, nil
	case key.Matches(keyMsg, f.keys.SwitchMode):
		next := ModeRegister
		if f.mode == ModeRegister {
			next = ModeLogin
		}
		return f.SetMode(next), nil
	case key.Matches(keyMsg, f.keys.Next):
		return f.focusField((f.focus + 1) % f.fieldCount()), nil
	case key.Matches(keyMsg, f.keys.Prev):
		return f.focusField((f.focus + f.fieldCount() - 1) % f.fieldCount()), nil
	case key.Matches(keyMsg, f.keys.Submit):
		if f.focus < f.fieldCount()-1 {
			return f.focusField(f.focus + 1), nil
		}
		return f.submit()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f Form) submit() (Form, tea.Cmd) {
	f.busy = true
	f.err = ""
	sub := SubmitMsg{
		Mode:     f.mode,
		Email:    f.inputs[fieldEmail].Value(),
		Password: f.inputs[fieldPassword].Value(),
	}
	if f.mode == ModeRegister {
		sub.Confirm = f.inputs[fieldConfirm].Value()
	}
	return f, func() tea.Msg { return sub }
}

// View renders the form centered in its area.
func (f Form) View() string {
	t := f.theme
	var b strings.Builder

	b.WriteString(t.FormTitle.Render("Parley · " + f.mode.String()))
	b.WriteString("\n")

	for i := 0; i < f.fieldCount(); i++ {
		label := t.FormLabel
		if i == f.focus {
			label = t.FormLabelFocus
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString("\n")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n\n")
	}

	if f.err != "" {
		b.WriteString(t.FormError.Render(f.err))
		b.WriteString("\n\n")
	}

	button := f.mode.String()
	if f.busy {
		button = "请稍候..."
	}
	b.WriteString(t.FormButton.Render(button))
	b.WriteString("\n\n")

	other := ModeRegister
	if f.mode == ModeRegister {
		other = ModeLogin
	}
	b.WriteString(t.FormHint.Render("Ctrl+T 切换到" + other.String() + " · Tab 下一项 · Esc 退出"))

	box := t.FormBox.Render(b.String())
	if f.width <= 0 || f.height <= 0 {
		return box
	}
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, box)
}
