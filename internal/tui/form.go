package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pokedexlabs/pokedex/internal/auth"
)

// Key constants.
const (
	keyEsc   = "esc"
	keyCtrlC = "ctrl+c"
	keyCtrlF = "ctrl+f"
	keyTab   = "tab"
)

// FormState tracks the auth form submission state.
type FormState int

// Form state constants.
const (
	FormStateEditing FormState = iota
	FormStateSubmitting
	FormStateSuccess
	FormStateError
)

// Form field limits.
const (
	maxEmailLen       = 254
	maxDisplayNameLen = 100
	minPasswordLen    = 6
)

// Validation errors.
var (
	errEmailRequired     = errors.New("email is required")
	errPasswordRequired  = errors.New("password is required")
	errPasswordsMismatch = errors.New("passwords do not match")
)

// FormModel manages the login/register form.
// IMPORTANT: Must be used as a pointer (*FormModel) because huh.Form stores
// pointers to the field values via Value(&m.field). Using value semantics
// would cause dangling pointers.
type FormModel struct {
	form     *huh.Form
	state    FormState
	register bool // false: sign in, true: create account

	// Form values (bound to huh fields via pointers - must be stable!)
	email       string
	password    string
	confirm     string
	displayName string

	err  error
	done bool // True when the user acknowledged success

	session *auth.Session
}

// NewFormModel creates a sign-in form. The user can switch to
// registration from inside the form.
func NewFormModel(session *auth.Session) *FormModel {
	m := &FormModel{session: session, state: FormStateEditing}
	m.form = m.buildForm()
	return m
}

func (m *FormModel) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Key("email").
			Title("Email").
			Value(&m.email).
			Validate(func(s string) error {
				s = strings.TrimSpace(s)
				if s == "" {
					return errEmailRequired
				}
				if len(s) > maxEmailLen {
					return fmt.Errorf("email too long (max %d)", maxEmailLen)
				}
				return nil
			}),

		huh.NewInput().
			Key("password").
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.password).
			Validate(func(s string) error {
				if s == "" {
					return errPasswordRequired
				}
				if m.register && len(s) < minPasswordLen {
					return fmt.Errorf("password too short (min %d characters)", minPasswordLen)
				}
				return nil
			}),
	}

	if m.register {
		fields = append(fields,
			huh.NewInput().
				Key("confirm").
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.confirm).
				Validate(func(s string) error {
					if s != m.password {
						return errPasswordsMismatch
					}
					return nil
				}),

			huh.NewInput().
				Key("display_name").
				Title("Display name").
				Description("Shown instead of your email (optional)").
				Value(&m.displayName).
				Validate(func(s string) error {
					if len(strings.TrimSpace(s)) > maxDisplayNameLen {
						return fmt.Errorf("display name too long (max %d)", maxDisplayNameLen)
					}
					return nil
				}),
		)
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCharm())
}

// Init initializes the form.
func (m *FormModel) Init() tea.Cmd {
	return m.form.Init()
}

// authResultMsg carries the outcome of a login/register attempt.
type authResultMsg struct {
	err error
}

// Update handles messages for the form.
// Uses pointer receiver to maintain stable memory for huh.Form's Value() pointers.
func (m *FormModel) Update(msg tea.Msg) tea.Cmd {
	switch m.state {
	case FormStateEditing:
		return m.updateEditing(msg)
	case FormStateSubmitting:
		return m.updateSubmitting(msg)
	case FormStateSuccess:
		return m.updateSuccess(msg)
	case FormStateError:
		return m.updateError(msg)
	default:
		return nil
	}
}

func (m *FormModel) updateEditing(msg tea.Msg) tea.Cmd {
	// Mode toggle before the form consumes the key.
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+r" {
		m.register = !m.register
		m.form = m.buildForm()
		return m.form.Init()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.state = FormStateSubmitting
		return m.submitCmd()
	}

	return cmd
}

func (m *FormModel) updateSubmitting(msg tea.Msg) tea.Cmd {
	resultMsg, ok := msg.(authResultMsg)
	if !ok {
		return nil
	}

	if resultMsg.err != nil {
		m.err = resultMsg.err
		m.state = FormStateError
		return nil
	}
	m.state = FormStateSuccess
	return nil
}

func (m *FormModel) updateSuccess(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.KeyMsg); ok {
		m.done = true
	}
	return nil
}

func (m *FormModel) updateError(msg tea.Msg) tea.Cmd {
	// Any key press returns to editing with the values preserved.
	if _, ok := msg.(tea.KeyMsg); ok {
		m.state = FormStateEditing
		m.err = nil
		m.form = m.buildForm()
		return m.form.Init()
	}
	return nil
}

// View renders the form.
func (m *FormModel) View() string {
	var b strings.Builder

	heading := "Sign in"
	if m.register {
		heading = "Create account"
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorPrimary)).
		Render(heading)

	b.WriteString(title)
	b.WriteString("\n\n")

	switch m.state {
	case FormStateEditing:
		b.WriteString(m.form.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Tab: next - Enter: submit - Ctrl+R: switch sign in/register - Esc: cancel"))

	case FormStateSubmitting:
		if m.register {
			b.WriteString(itemDimStyle.Render("Creating account..."))
		} else {
			b.WriteString(itemDimStyle.Render("Signing in..."))
		}

	case FormStateSuccess:
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGreen)).
			Render("Signed in"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("Press any key to continue"))

	case FormStateError:
		// Coded provider errors carry a user-facing message.
		b.WriteString(errorStyle.Render(auth.HumanizeError(m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("Press any key to try again"))
	}

	return b.String()
}

// Completed returns true if the user is signed in.
func (m *FormModel) Completed() bool {
	return m.state == FormStateSuccess
}

// Cancelled returns true if the user cancelled (huh handles Esc -> StateAborted).
func (m *FormModel) Cancelled() bool {
	return m.form.State == huh.StateAborted
}

// Done returns true if the user acknowledged success and wants to return.
func (m *FormModel) Done() bool {
	return m.done
}

// submitCmd runs the login or registration off the UI loop.
// Captures values for the closure (don't capture the pointer to avoid races).
func (m *FormModel) submitCmd() tea.Cmd {
	session := m.session
	register := m.register
	email := strings.TrimSpace(m.email)
	password := m.password
	displayName := strings.TrimSpace(m.displayName)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		if register {
			err = session.Register(ctx, auth.RegisterData{
				Email:       email,
				Password:    password,
				DisplayName: displayName,
			})
		} else {
			err = session.Login(ctx, email, password)
		}
		return authResultMsg{err: err}
	}
}
