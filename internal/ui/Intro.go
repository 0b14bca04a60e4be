package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	introPlay = iota
	introDemo
	introLeaderboard
	introButtonCount
)

var introLabels = [introButtonCount]string{"Play", "Watch Autopilot", "High Scores"}

// IntroModel holds the state for the main menu.
type IntroModel struct {
	selected int
	width    int
	height   int
}

func NewIntroModel(w, h int) IntroModel {
	return IntroModel{selected: introPlay, width: w, height: h}
}

func (m IntroModel) Init() tea.Cmd { return nil }

func (m IntroModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h", "shift+tab":
			m.selected = (m.selected + introButtonCount - 1) % introButtonCount
		case "right", "l", "tab":
			m.selected = (m.selected + 1) % introButtonCount
		case "enter":
			selected := m.selected
			return m, func() tea.Msg { return IntroSubmitMsg(selected) }
		}
	}
	return m, nil
}

var blockfallAscii = `
██████  ██       ██████   ██████ ██   ██ ███████  █████  ██      ██
██   ██ ██      ██    ██ ██      ██  ██  ██      ██   ██ ██      ██
██████  ██      ██    ██ ██      █████   █████   ███████ ██      ██
██   ██ ██      ██    ██ ██      ██  ██  ██      ██   ██ ██      ██
██████  ███████  ██████   ██████ ██   ██ ██      ██   ██ ███████ ███████
`

var (
	asciiStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("129"))

	introButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Padding(0, 3).
				Margin(1, 2).
				Border(lipgloss.RoundedBorder())

	introSelectedButtonStyle = introButtonStyle.
					Background(lipgloss.Color("129")).
					Foreground(lipgloss.Color("0"))
)

func (m IntroModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(asciiStyle.Render(blockfallAscii))
	sb.WriteString("\n")

	buttons := make([]string, introButtonCount)
	for i, label := range introLabels {
		if i == m.selected {
			buttons[i] = introSelectedButtonStyle.Render(label)
		} else {
			buttons[i] = introButtonStyle.Render(label)
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		sb.String(),
		lipgloss.JoinHorizontal(lipgloss.Center, buttons...),
		helpStyle.Render("(left/right to choose, enter to confirm, q to quit)"),
	)

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}
