package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mshel/blockfall/internal/game"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

type GameState int

const (
	StatePlaying GameState = iota
	StatePaused
	StateGameOver
	StateLeaderboard
)

var (
	voidColor   = lipgloss.Color("235")
	bufferColor = lipgloss.Color("233")

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("240"))

	statusPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("8")).
				Padding(1, 2)

	voidCell   = lipgloss.NewStyle().Background(voidColor).Render("  ")
	bufferCell = lipgloss.NewStyle().Background(bufferColor).Render("  ")

	// rendered two columns wide so cells look square
	blockCells = func() map[game.ShapeID]string {
		cells := make(map[game.ShapeID]string, len(game.Catalog))
		for _, shape := range game.Catalog {
			cells[shape.ID] = lipgloss.NewStyle().Foreground(lipgloss.Color(shape.Color)).Render("██")
		}
		return cells
	}()
)

var errNoHighScores = errors.New("high scores are not stored on this server")

const statusPanelWidth = 28

type leaderboardLoadedMsg struct {
	scores []game.Score
	total  int
	err    error
}

// GameViewModel renders one session's board, or only the leaderboard when
// session is nil.
type GameViewModel struct {
	ScreenWidth  int
	ScreenHeight int

	session  *game.Session
	sessions *game.SessionManager
	view     game.Snapshot
	lastRows int

	gameState     GameState
	gameOverState GameOverState
}

func NewGameModel(session *game.Session, sessions *game.SessionManager, screenWidth int, screenHeight int) GameViewModel {
	m := GameViewModel{
		session:      session,
		sessions:     sessions,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		gameState:    StatePlaying,
		gameOverState: GameOverState{
			ScreenWidth:  screenWidth,
			ScreenHeight: screenHeight,
		},
	}
	if session != nil {
		m.view = session.GameManager.View()
	}
	return m
}

func (m GameViewModel) Init() tea.Cmd {
	return m.listenForGameUpdates()
}

// keyToCommand maps a key press to a piece command.
func keyToCommand(key string) (game.Command, bool) {
	switch key {
	case "left", "a", "h":
		return game.CommandLeft, true
	case "right", "d", "l":
		return game.CommandRight, true
	case "down", "s", "j":
		return game.CommandDown, true
	case "up", "w", "k", "x", " ":
		return game.CommandRotate, true
	}
	return game.CommandNone, false
}

func (m GameViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.gameOverState.ScreenWidth, m.gameOverState.ScreenHeight = msg.Width, msg.Height
		return m, nil

	case ShowLeaderboardMsg:
		m.gameState = StateLeaderboard
		return m, m.loadLeaderboard()

	case leaderboardLoadedMsg:
		m.gameOverState.Scores = msg.scores
		m.gameOverState.TotalCount = msg.total
		m.gameOverState.LoadErr = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.gameState != StatePlaying {
			return m.updateMenus(msg)
		}
		if m.session == nil {
			return m, nil
		}

		gm := m.session.GameManager
		switch msg.String() {
		case "esc", "p":
			return m.pause(pauseResume)
		case "q":
			return m.pause(pauseQuit)
		}
		if m.session.Demo {
			return m, nil
		}
		if command, ok := keyToCommand(msg.String()); ok {
			gm.Submit(command)
		}
		return m, nil

	case game.GameTickMsg, game.BoardChangedMsg:
		if m.session != nil {
			m.view = m.session.GameManager.View()
		}
		return m, m.listenForGameUpdates()

	case game.RowsClearedMsg:
		if msg.Rows > 0 {
			m.lastRows = msg.Rows
		}
		return m, m.listenForGameUpdates()

	case game.GameOverMsg:
		if m.session == nil {
			return m, nil
		}
		if m.session.Demo {
			m.session.GameManager.Restart()
			return m, m.listenForGameUpdates()
		}

		log.Info("Game over", "session", m.session.ID, "name", m.session.Name, "score", msg.Score, "elapsed", msg.Elapsed)
		m.sessions.RecordResult(m.session)
		m.view = m.session.GameManager.View()
		m.gameState = StateGameOver
		m.gameOverState.FinalScore = msg.Score
		m.gameOverState.Elapsed = msg.Elapsed
		m.gameOverState.SelectedButton = gameOverRestart
		return m, m.listenForGameUpdates()
	}

	return m, nil
}

func (m GameViewModel) pause(selected int) (tea.Model, tea.Cmd) {
	gm := m.session.GameManager
	gm.Pause()
	if !gm.IsPaused() {
		return m, nil
	}
	m.view = gm.View()
	m.gameState = StatePaused
	m.gameOverState.SelectedButton = selected
	return m, nil
}

func (m GameViewModel) resume() (tea.Model, tea.Cmd) {
	m.session.GameManager.Resume()
	m.view = m.session.GameManager.View()
	m.gameState = StatePlaying
	return m, nil
}

func confirmQuit() tea.Msg {
	return ConfirmQuitMsg{}
}

func (m GameViewModel) updatePauseMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "p":
		return m.resume()
	case "q":
		return m, confirmQuit
	case "left", "h", "up", "k":
		m.gameOverState.SelectedButton = max(0, m.gameOverState.SelectedButton-1)
	case "right", "l", "down", "j":
		m.gameOverState.SelectedButton = min(pauseButtonCount-1, m.gameOverState.SelectedButton+1)
	case "enter":
		switch m.gameOverState.SelectedButton {
		case pauseResume:
			return m.resume()
		case pauseMenu:
			return m, func() tea.Msg { return QuitGameMsg{} }
		case pauseQuit:
			return m, confirmQuit
		}
	}
	return m, nil
}

func (m GameViewModel) updateMenus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.gameState == StatePaused {
		return m.updatePauseMenu(msg)
	}
	if msg.String() == "q" {
		return m, confirmQuit
	}

	if m.gameState == StateLeaderboard {
		switch msg.String() {
		case "esc", "enter":
			if m.session != nil {
				m.gameState = StateGameOver
				return m, nil
			}
			return m, func() tea.Msg { return QuitGameMsg{} }
		}
		return m, nil
	}

	switch msg.String() {
	case "left", "h":
		m.gameOverState.SelectedButton = max(0, m.gameOverState.SelectedButton-1)
	case "right", "l":
		m.gameOverState.SelectedButton = min(gameOverButtonCount-1, m.gameOverState.SelectedButton+1)
	case "r":
		return m.restart()
	case "enter":
		switch m.gameOverState.SelectedButton {
		case gameOverRestart:
			return m.restart()
		case gameOverLeaderboard:
			m.gameState = StateLeaderboard
			return m, m.loadLeaderboard()
		case gameOverExit:
			return m, func() tea.Msg { return QuitGameMsg{} }
		}
	}
	return m, nil
}

func (m GameViewModel) restart() (tea.Model, tea.Cmd) {
	m.session.GameManager.Restart()
	m.view = m.session.GameManager.View()
	m.lastRows = 0
	m.gameState = StatePlaying
	return m, nil
}

func (m GameViewModel) loadLeaderboard() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		if sessions == nil || sessions.HighScoreService == nil {
			return leaderboardLoadedMsg{err: errNoHighScores}
		}
		scores, err := sessions.HighScoreService.GetHighScores(leaderboardPageSize, 0)
		if err != nil {
			log.Error("Could not load high scores", "error", err)
			return leaderboardLoadedMsg{err: err}
		}
		total, err := sessions.HighScoreService.GetTotalScoreCount()
		if err != nil {
			log.Error("Could not count high scores", "error", err)
		}
		return leaderboardLoadedMsg{scores: scores, total: total}
	}
}

// listenForGameUpdates waits for the next message from the session's game
// manager. It gives up when the session is sunset.
func (m GameViewModel) listenForGameUpdates() tea.Cmd {
	if m.session == nil {
		return nil
	}
	session := m.session
	return func() tea.Msg {
		select {
		case msg := <-session.GameManager.UpdateChannel:
			return msg
		case <-session.Context().Done():
			return nil
		}
	}
}

func (m GameViewModel) View() string {
	switch m.gameState {
	case StateGameOver:
		return m.gameOverState.RenderGameOverScreen()
	case StateLeaderboard:
		hint := "Press ESC or ENTER to return to the menu."
		if m.session != nil {
			hint = "Press ESC or ENTER to return to the game over screen."
		}
		return m.gameOverState.RenderLeaderboardScreen(hint)
	}

	if m.session == nil {
		return lipgloss.Place(m.ScreenWidth, m.ScreenHeight, lipgloss.Center, lipgloss.Center, "Waiting for game...")
	}

	side := statusPanelStyle.Width(statusPanelWidth).Render(m.renderStatusPanel())
	if m.gameState == StatePaused {
		side = m.gameOverState.RenderPauseMenu(m.view.Score, m.view.Elapsed)
	}
	content := lipgloss.JoinHorizontal(lipgloss.Top, boardStyle.Render(renderBoard(m.view)), side)
	return lipgloss.Place(m.ScreenWidth, m.ScreenHeight, lipgloss.Center, lipgloss.Center, content)
}

// renderBoard draws the grid top row first; y = 0 ends up at the bottom.
func renderBoard(view game.Snapshot) string {
	active := make(map[game.Cell]bool, len(view.Active))
	for _, c := range view.Active {
		active[c] = true
	}
	activeCell := blockCells[view.ActiveShape]

	var sb strings.Builder
	for y := view.Height - 1; y >= 0; y-- {
		for x := 0; x < view.Width; x++ {
			switch {
			case active[game.Cell{X: x, Y: y}]:
				sb.WriteString(activeCell)
			case view.Settled[y][x] != game.NoShape:
				sb.WriteString(blockCells[view.Settled[y][x]])
			case y == view.Height-1:
				sb.WriteString(bufferCell)
			default:
				sb.WriteString(voidCell)
			}
		}
		if y > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m GameViewModel) renderStatusPanel() string {
	var statusContent strings.Builder
	bold := lipgloss.NewStyle().Bold(true)

	statusContent.WriteString(bold.Render("--- Player ---") + "\n")
	statusContent.WriteString(m.session.Name + "\n")
	if m.session.Demo {
		statusContent.WriteString(focusedStyle.Render("autopilot") + "\n")
	}
	statusContent.WriteString(fmt.Sprintf("Score: %d\n", m.view.Score))
	statusContent.WriteString(fmt.Sprintf("Time: %s\n", FormatElapsed(m.view.Elapsed)))
	statusContent.WriteString(fmt.Sprintf("Grid: %dx%d\n", m.view.Width, m.view.Height))
	if shape := game.ShapeByID(m.view.ActiveShape); shape != nil {
		statusContent.WriteString(fmt.Sprintf("Piece: %s %s\n", blockCells[shape.ID], shape.Name))
	}
	if m.lastRows > 0 {
		statusContent.WriteString(fmt.Sprintf("Last clear: %d rows\n", m.lastRows))
	}

	statusContent.WriteString("\n" + bold.Render("--- Controls ---") + "\n")
	statusContent.WriteString("A/D / Arrows: Move\n")
	statusContent.WriteString("S / Down: Soft drop\n")
	statusContent.WriteString("W / Up / X: Rotate\n")
	statusContent.WriteString("P / Esc: Pause menu\n")
	statusContent.WriteString("Q: Quit (asks first)\n")

	return statusContent.String()
}
