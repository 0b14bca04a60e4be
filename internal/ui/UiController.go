package ui

import (
	"context"
	"time"

	"github.com/Mshel/blockfall/internal/game"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type Screen int

const (
	IntroScreen Screen = iota
	SetupScreen
	GameScreen
)

const (
	autopilotInterval = 150 * time.Millisecond
	autopilotName     = "autopilot"
)

// Messages for state transitions
type IntroSubmitMsg int

type SetupSubmitMsg struct {
	Settings game.Settings
}

type ShowLeaderboardMsg struct{}

// QuitGameMsg returns to the intro screen, ending any running session.
type QuitGameMsg struct{}

// ConfirmQuitMsg ends the session and closes the program.
type ConfirmQuitMsg struct{}

type ControllerModel struct {
	CurrentScreen Screen
	Sessions      *game.SessionManager
	Defaults      game.Settings

	IntroModel tea.Model
	SetupModel tea.Model
	GameModel  tea.Model

	// ActiveSession is nil outside of a game
	ActiveSession *game.Session
	ScreenWidth   int
	ScreenHeight  int

	ctx context.Context
}

// NewControllerModel builds the screen router for one connection. ctx bounds
// every session started from it.
func NewControllerModel(ctx context.Context, sessions *game.SessionManager, defaults game.Settings, screenWidth int, screenHeight int) ControllerModel {
	return ControllerModel{
		CurrentScreen: IntroScreen,
		Sessions:      sessions,
		Defaults:      defaults,

		IntroModel: NewIntroModel(screenWidth, screenHeight),
		SetupModel: NewInitialSetupModel(defaults, screenWidth, screenHeight),

		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		ctx:          ctx,
	}
}

func (m ControllerModel) Init() tea.Cmd {
	return m.IntroModel.Init()
}

func (m ControllerModel) View() string {
	switch m.CurrentScreen {
	case IntroScreen:
		return m.IntroModel.View()
	case SetupScreen:
		return m.SetupModel.View()
	case GameScreen:
		if m.GameModel != nil {
			return m.GameModel.View()
		}
		return "Game Loading..."
	default:
		return "Unknown Screen"
	}
}

func (m ControllerModel) endSession() ControllerModel {
	if m.ActiveSession != nil {
		m.Sessions.Sunset(m.ActiveSession)
		m.ActiveSession = nil
	}
	m.GameModel = nil
	return m
}

func (m ControllerModel) startSession(settings game.Settings, demo bool) (ControllerModel, tea.Cmd) {
	session, err := m.Sessions.NewSession(m.ctx, settings, demo)
	if err != nil {
		log.Error("Could not start session", "error", err)
		m.CurrentScreen = IntroScreen
		return m, nil
	}

	if demo {
		startAutopilot(session)
	}

	m.ActiveSession = session
	m.CurrentScreen = GameScreen
	m.GameModel = NewGameModel(session, m.Sessions, m.ScreenWidth, m.ScreenHeight)
	return m, m.GameModel.Init()
}

func startAutopilot(session *game.Session) {
	script, err := game.LoadAutopilotScript(session.GameManager.Settings.AutopilotScript)
	if err != nil {
		log.Error("Could not load autopilot script, using the default", "error", err)
		script = game.DefaultAutopilotScript
	}

	autopilot, err := game.NewAutopilot(script)
	if err != nil {
		log.Error("Could not start autopilot", "session", session.ID, "error", err)
		return
	}
	go autopilot.Drive(session.Context(), session.GameManager, autopilotInterval)
}

func (m ControllerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		key := msg.String()
		// q is a name character on the setup screen and opens the pause
		// menu in game, so it only quits straight away from the intro
		if key == "ctrl+c" || (key == "q" && m.CurrentScreen == IntroScreen) {
			m = m.endSession()
			return m, tea.Quit
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.IntroModel, _ = m.IntroModel.Update(msg)
		m.SetupModel, _ = m.SetupModel.Update(msg)
		if m.GameModel != nil {
			m.GameModel, _ = m.GameModel.Update(msg)
		}
		return m, nil

	case IntroSubmitMsg:
		switch int(msg) {
		case introPlay:
			m.CurrentScreen = SetupScreen
			return m, m.SetupModel.Init()
		case introDemo:
			settings := m.Defaults
			settings.PlayerName = autopilotName
			return m.startSession(settings, true)
		case introLeaderboard:
			m.CurrentScreen = GameScreen
			m.GameModel = NewGameModel(nil, m.Sessions, m.ScreenWidth, m.ScreenHeight)
			return m, tea.Sequence(m.GameModel.Init(), func() tea.Msg { return ShowLeaderboardMsg{} })
		}
		return m, nil

	case SetupSubmitMsg:
		return m.startSession(msg.Settings, false)

	case QuitGameMsg:
		m = m.endSession()
		m.CurrentScreen = IntroScreen
		return m, m.IntroModel.Init()

	case ConfirmQuitMsg:
		m = m.endSession()
		return m, tea.Quit
	}

	switch m.CurrentScreen {
	case IntroScreen:
		m.IntroModel, cmd = m.IntroModel.Update(msg)
	case SetupScreen:
		m.SetupModel, cmd = m.SetupModel.Update(msg)
	case GameScreen:
		if m.GameModel != nil {
			m.GameModel, cmd = m.GameModel.Update(msg)
		}
	}

	return m, cmd
}
