package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"users-server/client"
	"users-server/entities"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const requestTimeout = 10 * time.Second

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type step int

const (
	stepMenu step = iota
	stepEnteringUsername
	stepEnteringPassword
	stepWorking
	stepResult
)

type action int

const (
	actionList action = iota
	actionFind
	actionCreate
	actionLogin
	actionQuit
)

var menu = []struct {
	action action
	label  string
}{
	{actionList, "List users"},
	{actionFind, "Find a user"},
	{actionCreate, "Create an account"},
	{actionLogin, "Log in"},
	{actionQuit, "Quit"},
}

type usersMsg []entities.UserResponse
type userMsg struct {
	user *entities.UserResponse
}
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type model struct {
	api          *client.Client
	step         step
	cursor       int
	action       action
	username     string
	currentInput string
	users        []entities.UserResponse
	user         *entities.UserResponse
	message      string
	failed       bool
	quitting     bool
}

func initialModel(api *client.Client) model {
	return model{api: api, step: stepMenu}
}

func (m model) Init() tea.Cmd {
	return nil
}

func listUsers(api *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		users, err := api.ListUsers(ctx)
		if err != nil {
			return errMsg{err}
		}
		return usersMsg(users)
	}
}

func userCall(call func(ctx context.Context) (*entities.UserResponse, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := call(ctx)
		if err != nil {
			return errMsg{err}
		}
		return userMsg{user: user}
	}
}

func (m model) submit(password string) (model, tea.Cmd) {
	m.step = stepWorking
	username := m.username
	switch m.action {
	case actionFind:
		return m, userCall(func(ctx context.Context) (*entities.UserResponse, error) {
			return m.api.FindUser(ctx, username)
		})
	case actionCreate:
		return m, userCall(func(ctx context.Context) (*entities.UserResponse, error) {
			return m.api.CreateUser(ctx, username, password)
		})
	default:
		return m, userCall(func(ctx context.Context) (*entities.UserResponse, error) {
			return m.api.Login(ctx, username, password)
		})
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case usersMsg:
		m.step = stepResult
		m.failed = false
		m.users = msg
		m.message = fmt.Sprintf("%d user(s)", len(msg))
		return m, nil

	case userMsg:
		m.step = stepResult
		m.failed = false
		m.user = msg.user
		switch {
		case msg.user == nil:
			m.message = fmt.Sprintf("No user named %q", m.username)
		case m.action == actionCreate:
			m.message = "Account created"
		case m.action == actionLogin:
			m.message = "Logged in"
		default:
			m.message = "User found"
		}
		return m, nil

	case errMsg:
		m.step = stepResult
		m.failed = true
		m.message = describeError(msg.err)
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.step {
	case stepMenu:
		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(menu)-1 {
				m.cursor++
			}
		case "enter":
			m.action = menu[m.cursor].action
			m.users, m.user, m.message, m.currentInput = nil, nil, "", ""
			switch m.action {
			case actionQuit:
				m.quitting = true
				return m, tea.Quit
			case actionList:
				m.step = stepWorking
				return m, listUsers(m.api)
			default:
				m.step = stepEnteringUsername
			}
		}

	case stepEnteringUsername, stepEnteringPassword:
		switch msg.Type {
		case tea.KeyEsc:
			m.step = stepMenu
			m.currentInput = ""
		case tea.KeyBackspace:
			if r := []rune(m.currentInput); len(r) > 0 {
				m.currentInput = string(r[:len(r)-1])
			}
		case tea.KeyEnter:
			input := m.currentInput
			m.currentInput = ""
			if m.step == stepEnteringUsername {
				m.username = strings.TrimSpace(input)
				if m.username == "" {
					m.step = stepMenu
					return m, nil
				}
				if m.action == actionFind {
					return m.submit("")
				}
				m.step = stepEnteringPassword
				return m, nil
			}
			return m.submit(input)
		case tea.KeyRunes, tea.KeySpace:
			m.currentInput += string(msg.Runes)
		}

	case stepResult:
		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "enter", "esc":
			m.step = stepMenu
		}
	}

	return m, nil
}

func describeError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("users-server"))
	b.WriteString("\n")

	switch m.step {
	case stepMenu:
		for i, item := range menu {
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + item.label))
			} else {
				b.WriteString(normalStyle.Render(item.label))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n" + hintStyle.Render("↑/↓ to move, enter to select, q to quit"))

	case stepEnteringUsername:
		b.WriteString(promptStyle.Render("Username: "))
		b.WriteString(inputStyle.Render(m.currentInput))
		b.WriteString("\n\n" + hintStyle.Render("enter to continue, esc to go back"))

	case stepEnteringPassword:
		b.WriteString(promptStyle.Render("Password: "))
		b.WriteString(inputStyle.Render(strings.Repeat("*", utf8.RuneCountInString(m.currentInput))))
		b.WriteString("\n\n" + hintStyle.Render("enter to submit, esc to go back"))

	case stepWorking:
		b.WriteString("Talking to the server...")

	case stepResult:
		if m.failed {
			b.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			b.WriteString(successStyle.Render("✓ " + m.message))
		}
		b.WriteString("\n\n")
		for _, u := range m.users {
			b.WriteString(normalStyle.Render(formatUser(u)) + "\n")
		}
		if m.user != nil {
			b.WriteString(normalStyle.Render(formatUser(*m.user)) + "\n")
		}
		b.WriteString("\n" + hintStyle.Render("enter for menu, q to quit"))
	}

	return b.String() + "\n"
}

func formatUser(u entities.UserResponse) string {
	return fmt.Sprintf("#%d  %-24s created %s", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
}

func main() {
	defaultURL := os.Getenv("USERS_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8000"
	}
	baseURL := flag.String("url", defaultURL, "base URL of the users server")
	flag.Parse()

	p := tea.NewProgram(initialModel(client.New(*baseURL)))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
