package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mshel/blockfall/internal/game"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	focusedColor = lipgloss.Color("205")
	blurredColor = lipgloss.Color("240")
	focusedStyle = lipgloss.NewStyle().Foreground(focusedColor)
	blurredStyle = lipgloss.NewStyle().Foreground(blurredColor)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = blurredStyle

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder())

	submitButtonStyle = buttonStyle.
				BorderForeground(focusedColor).
				Padding(0, 1)

	blurredButtonStyle = buttonStyle.
				BorderForeground(blurredColor).
				Padding(0, 1)
)

const (
	focusName = iota
	focusWidth
	focusHeight
	focusSubmit
	focusCount
)

const anonymousName = "anonymous"

// SetupModel asks for a player name and grid size before a game.
type SetupModel struct {
	inputs     [focusSubmit]textinput.Model
	focusIndex int
	err        error
	defaults   game.Settings
	width      int
	height     int
}

func newSetupInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.PromptStyle = focusedStyle
	ti.TextStyle = focusedStyle
	return ti
}

func NewInitialSetupModel(defaults game.Settings, w, h int) SetupModel {
	m := SetupModel{defaults: defaults, width: w, height: h}

	m.inputs[focusName] = newSetupInput("Your name", game.MaxPlayerNameLength)
	m.inputs[focusName].SetValue(defaults.PlayerName)
	m.inputs[focusWidth] = newSetupInput(strconv.Itoa(defaults.GridWidth), 2)
	m.inputs[focusWidth].Prompt = "Width  > "
	m.inputs[focusHeight] = newSetupInput(strconv.Itoa(defaults.GridHeight), 2)
	m.inputs[focusHeight].Prompt = "Height > "
	m.inputs[focusName].Focus()

	return m
}

// buildSettings turns the form values into validated settings. Empty size
// fields keep the defaults.
func buildSettings(name, width, height string, base game.Settings) (game.Settings, error) {
	settings := base
	settings.PlayerName = strings.TrimSpace(name)
	if settings.PlayerName == "" {
		settings.PlayerName = anonymousName
	}

	if width = strings.TrimSpace(width); width != "" {
		w, err := strconv.Atoi(width)
		if err != nil {
			return base, fmt.Errorf("width %q is not a number", width)
		}
		settings.GridWidth = w
	}
	if height = strings.TrimSpace(height); height != "" {
		h, err := strconv.Atoi(height)
		if err != nil {
			return base, fmt.Errorf("height %q is not a number", height)
		}
		settings.GridHeight = h
	}

	if err := settings.Validate(); err != nil {
		return base, err
	}
	return settings, nil
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *SetupModel) setFocus(index int) tea.Cmd {
	m.focusIndex = (index + focusCount) % focusCount
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focusIndex {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return QuitGameMsg{} }
		case "tab", "down":
			cmd := m.setFocus(m.focusIndex + 1)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus(m.focusIndex - 1)
			return m, cmd
		case "enter":
			if m.focusIndex != focusSubmit {
				cmd := m.setFocus(m.focusIndex + 1)
				return m, cmd
			}
			settings, err := buildSettings(
				m.inputs[focusName].Value(),
				m.inputs[focusWidth].Value(),
				m.inputs[focusHeight].Value(),
				m.defaults,
			)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			return m, func() tea.Msg { return SetupSubmitMsg{Settings: settings} }
		}

		if m.focusIndex < focusSubmit {
			var cmd tea.Cmd
			m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) View() string {
	center := func(s string) string {
		return lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center).Render(s)
	}

	var b strings.Builder

	b.WriteString(center(m.inputs[focusName].View()))
	b.WriteString("\n\n")

	sizePrompt := fmt.Sprintf("Grid size (%d..%d)", game.MinGridSize, game.MaxGridSize)
	if m.focusIndex == focusWidth || m.focusIndex == focusHeight {
		b.WriteString(center(focusedStyle.Render(sizePrompt)))
	} else {
		b.WriteString(center(blurredStyle.Render(sizePrompt)))
	}
	b.WriteString("\n")
	b.WriteString(center(m.inputs[focusWidth].View()))
	b.WriteString("\n")
	b.WriteString(center(m.inputs[focusHeight].View()))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(center(errorStyle.Render(m.err.Error())))
		b.WriteString("\n\n")
	}

	submitButton := blurredButtonStyle.Render("Start")
	if m.focusIndex == focusSubmit {
		submitButton = submitButtonStyle.Render("Start")
	}
	b.WriteString(center(submitButton))
	b.WriteString("\n\n")

	b.WriteString(center(helpStyle.Render("(tab/shift+tab to navigate, enter to confirm, esc to go back, ctrl+c to quit)")))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}
