package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Mshel/blockfall/internal/game"
	"github.com/charmbracelet/lipgloss"
)

const (
	gameOverRestart = iota
	gameOverLeaderboard
	gameOverExit
	gameOverButtonCount
)

const (
	pauseResume = iota
	pauseMenu
	pauseQuit
	pauseButtonCount
)

const leaderboardPageSize = 10

var (
	gameOverLabels = [gameOverButtonCount]string{"RESTART (r)", "HIGH SCORES", "EXIT"}
	pauseLabels    = [pauseButtonCount]string{"RESUME (p)", "MENU", "QUIT (q)"}
)

// GameOverState holds the data and local state for rendering the game over screens.
type GameOverState struct {
	FinalScore     int
	Elapsed        time.Duration
	SelectedButton int
	ScreenWidth    int
	ScreenHeight   int

	Scores     []game.Score
	TotalCount int
	LoadErr    error
}

var (
	gameOverButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Padding(0, 3).
				Margin(1, 1).
				Bold(true)

	selectedButtonStyle = gameOverButtonStyle.
				Background(lipgloss.Color("4")).
				Foreground(lipgloss.Color("15"))

	leaderboardHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("236")).
				Padding(0, 1).
				Align(lipgloss.Center)

	leaderboardRowStyle = lipgloss.NewStyle().
				Padding(0, 1)

	leaderboardBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("8"))
)

func (g *GameOverState) RenderGameOverScreen() string {
	messageStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("9")).
		Padding(2, 5).
		Align(lipgloss.Center)

	title := messageStyle.Render("G A M E   O V E R")
	stats := fmt.Sprintf("\nScore: %d\nPast time: %s\n", g.FinalScore, FormatElapsed(g.Elapsed))

	buttons := g.renderButtons(gameOverLabels[:])
	content := lipgloss.JoinVertical(lipgloss.Center, title, stats, lipgloss.JoinHorizontal(lipgloss.Center, buttons...))

	return lipgloss.Place(g.ScreenWidth, g.ScreenHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Render(content),
	)
}

// RenderPauseMenu draws the pause box shown next to the frozen board.
func (g *GameOverState) RenderPauseMenu(score int, elapsed time.Duration) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("11")).
		Padding(1, 4).
		Render("PAUSED")
	stats := fmt.Sprintf("Score: %d\nTime: %s", score, FormatElapsed(elapsed))

	buttons := g.renderButtons(pauseLabels[:])
	content := lipgloss.JoinVertical(lipgloss.Center, title, stats, lipgloss.JoinVertical(lipgloss.Center, buttons...))

	return lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Render(content)
}

func (g *GameOverState) renderButtons(labels []string) []string {
	buttons := make([]string, len(labels))
	for i, label := range labels {
		if i == g.SelectedButton {
			buttons[i] = selectedButtonStyle.Render(label)
		} else {
			buttons[i] = gameOverButtonStyle.Render(label)
		}
	}
	return buttons
}

// RenderLeaderboardScreen draws the stored high scores table.
func (g *GameOverState) RenderLeaderboardScreen(returnHint string) string {
	var tableContent strings.Builder

	const (
		rankWidth  = 4
		nameWidth  = game.MaxPlayerNameLength + 2
		scoreWidth = 8
		timeWidth  = 10
		gridWidth  = 8
	)

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		leaderboardHeaderStyle.Width(rankWidth).Render("#"),
		leaderboardHeaderStyle.Width(nameWidth).Render("Player"),
		leaderboardHeaderStyle.Width(scoreWidth).Render("Rows"),
		leaderboardHeaderStyle.Width(timeWidth).Render("Time"),
		leaderboardHeaderStyle.Width(gridWidth).Render("Grid"),
	)
	tableContent.WriteString(header + "\n")

	switch {
	case g.LoadErr != nil:
		tableContent.WriteString(errorStyle.Render(g.LoadErr.Error()) + "\n")
	case len(g.Scores) == 0:
		tableContent.WriteString(helpStyle.Render("No scores yet.") + "\n")
	}

	for i, score := range g.Scores {
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			leaderboardRowStyle.Width(rankWidth).Render(strconv.Itoa(i+1)),
			leaderboardRowStyle.Width(nameWidth).Render(score.PlayerName),
			leaderboardRowStyle.Width(scoreWidth).Render(strconv.Itoa(score.Score)),
			leaderboardRowStyle.Width(timeWidth).Render(FormatElapsed(score.Elapsed)),
			leaderboardRowStyle.Width(gridWidth).Render(fmt.Sprintf("%dx%d", score.GridWidth, score.GridHeight)),
		)
		tableContent.WriteString(leaderboardBorderStyle.Render(row) + "\n")
	}

	title := lipgloss.NewStyle().Bold(true).Padding(1, 0).Render("HIGH SCORES")
	if g.TotalCount > len(g.Scores) {
		title += helpStyle.Render(fmt.Sprintf(" (top %d of %d)", len(g.Scores), g.TotalCount))
	}
	instruction := lipgloss.NewStyle().Faint(true).Margin(1, 0).Render(returnHint)

	finalContent := lipgloss.JoinVertical(lipgloss.Center,
		title,
		tableContent.String(),
		instruction,
	)

	return lipgloss.Place(g.ScreenWidth, g.ScreenHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Render(finalContent),
	)
}
