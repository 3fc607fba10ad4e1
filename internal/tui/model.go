// Package tui is the terminal rendition of the login form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/shindakun/urlshort/internal/form"
	"github.com/shindakun/urlshort/internal/login"
	"github.com/shindakun/urlshort/internal/models"
	"github.com/shindakun/urlshort/internal/notify"
)

const defaultWidth = 80

// Deps are the collaborators of the terminal form. Auth and Store are required.
type Deps struct {
	Auth     login.Authenticator
	Store    login.Store
	Duration time.Duration
	Observe  func(login.Outcome)
	Logger   *zap.Logger
}

// submitDoneMsg carries the result of one Submit call back to Update
type submitDoneMsg struct {
	res login.Result
	err error
}

// expireMsg fires when a notification's display time is up
type expireMsg struct {
	gen uint64
}

// Model is the bubbletea model for the login screen and the profile view
type Model struct {
	form     *login.Form
	notifier *notify.Notifier
	loading  *login.Flag
	router   *Router
	logger   *zap.Logger

	inputs  []textinput.Model
	focus   int
	spinner spinner.Model
	errors  form.Errors
	pending int // submits dispatched but not yet reported

	styles Styles
	width  int
	height int
	now    func() time.Time
}

// New builds the login screen
func New(deps Deps) (Model, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Duration <= 0 {
		deps.Duration = notify.DefaultDuration
	}

	router := NewRouter()
	flag := login.NewFlag()
	notifier := notify.New(notify.WithDuration(deps.Duration))

	f, err := login.New(login.Deps{
		Auth:      deps.Auth,
		Store:     deps.Store,
		Navigator: router,
		Loading:   flag,
		Notifier:  notifier,
		Logger:    deps.Logger,
		Observe:   deps.Observe,
	})
	if err != nil {
		return Model{}, err
	}

	styles := DefaultStyles()

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "│ "
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "••••••••"
	password.Prompt = "│ "
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return Model{
		form:     f,
		notifier: notifier,
		loading:  flag,
		router:   router,
		logger:   deps.Logger,
		inputs:   []textinput.Model{email, password},
		spinner:  sp,
		errors:   form.Errors{},
		styles:   styles,
		width:    defaultWidth,
		now:      time.Now,
	}, nil
}

// Route returns the active route
func (m Model) Route() string {
	return m.router.Path()
}

func (m Model) onProfile() bool {
	return m.router.Path() != models.LoginPath
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "ctrl+w":
			m.notifier.Dismiss(notify.ReasonClose)
			return m, nil
		}
		if m.onProfile() {
			if msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyTab, tea.KeyDown:
			return m, m.setFocus((m.focus + 1) % len(m.inputs))
		case tea.KeyShiftTab, tea.KeyUp:
			return m, m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
		case tea.KeyEnter:
			m.pending++
			return m, tea.Batch(m.submit(), m.spinner.Tick)
		}

		before := m.inputs[m.focus].Value()
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		if value := m.inputs[m.focus].Value(); value != before {
			m.errors = m.form.SetField(models.Fields[m.focus], value)
		}
		return m, cmd

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if m.inNotification(msg.X, msg.Y) {
			m.notifier.Dismiss(notify.ReasonClose)
		} else {
			// ignored by the notifier; the notification stays up
			m.notifier.Dismiss(notify.ReasonClickAway)
		}
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if errors.Is(msg.err, login.ErrSubmitInFlight) {
			return m, nil
		}
		m.errors = msg.res.Errors
		if msg.res.Generation == 0 {
			return m, nil
		}
		gen := msg.res.Generation
		return m, tea.Tick(m.notifier.Duration(), func(time.Time) tea.Msg {
			return expireMsg{gen: gen}
		})

	case expireMsg:
		m.notifier.Expire(msg.gen)
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

// submit snapshots the inputs into the form and runs Submit off the UI loop
func (m Model) submit() tea.Cmd {
	m.form.SetValues(models.Credentials{
		Email:    m.inputs[0].Value(),
		Password: m.inputs[1].Value(),
	})
	f := m.form
	return func() tea.Msg {
		res, err := f.Submit(context.Background())
		return submitDoneMsg{res: res, err: err}
	}
}

// notificationBox renders the notification and reports where it sits
func (m Model) notificationBox() (box string, x, y int) {
	n := m.notifier.Current()
	if !n.Visible {
		return "", 0, 0
	}

	style := m.styles.Warning
	if n.Severity == models.SeveritySuccess {
		style = m.styles.Success
	}
	box = style.Render(n.Message + "  ✕")
	x = m.width - lipgloss.Width(box)
	if x < 0 {
		x = 0
	}
	return box, x, 0
}

func (m Model) inNotification(px, py int) bool {
	box, x, y := m.notificationBox()
	if box == "" {
		return false
	}
	return px >= x && px < x+lipgloss.Width(box) && py >= y && py < y+lipgloss.Height(box)
}

func (m Model) View() string {
	var b strings.Builder

	if box, x, _ := m.notificationBox(); box != "" {
		b.WriteString(lipgloss.NewStyle().MarginLeft(x).Render(box))
	}
	b.WriteString("\n")

	if m.onProfile() {
		name := strings.TrimPrefix(m.router.Path(), "/")
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
		b.WriteString(m.styles.Panel.Render(
			m.styles.Header.Render(fmt.Sprintf("Signed in as %s", name)) +
				"\n" + m.styles.Label.Render("route "+m.router.Path()),
		))
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("q: quit • esc: close notification"))
		return b.String()
	}

	loading := m.loading.State().Active()
	if loading {
		b.WriteString(m.spinner.View() + " signing in…")
	}
	b.WriteString("\n")

	var card strings.Builder
	card.WriteString(m.styles.Header.Render("Sign in"))
	card.WriteString("\n")

	// Banners sit above the fields, email first
	for _, field := range models.Fields {
		if msg := m.errors.Get(field); msg != "" {
			card.WriteString(m.styles.Banner.Render("! " + msg))
			card.WriteString("\n")
		}
	}

	labels := []string{"Email", "Password"}
	for i, in := range m.inputs {
		label := m.styles.Label.Render(labels[i])
		if i == m.focus {
			label = m.styles.Focused.Render(labels[i])
		}
		card.WriteString("\n" + label + "\n" + in.View() + "\n")
	}

	button := m.styles.Button.Render("Sign in")
	if loading {
		button = m.styles.ButtonDown.Render("Sign in")
	}
	card.WriteString("\n" + button + "\n\n")
	card.WriteString(m.styles.Link.Render("Forgot password? "+models.ForgetPasswordPath) + "   ")
	card.WriteString(m.styles.Link.Render("Don't have an account? Sign Up "+models.RegisterPath))

	b.WriteString(m.styles.Panel.Render(card.String()))
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(fmt.Sprintf("Copyright © urlshort %d.", m.now().Year())))
	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render("tab: next field • enter: sign in • esc: close notification • ctrl+c: quit"))
	return b.String()
}
