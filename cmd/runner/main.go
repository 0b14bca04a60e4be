package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Mshel/blockfall/internal/game"
	"github.com/Mshel/blockfall/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

func main() {
	configPath := flag.String("config", os.Getenv("BLOCKFALL_CONFIG"), "path to a YAML settings file")
	dbPath := flag.String("db", game.DefaultHighScorePath, "sqlite file for high scores, empty to disable")
	logPath := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	if err := run(*configPath, *dbPath, *logPath); err != nil {
		fmt.Printf("error %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dbPath, logPath string) error {
	// the terminal belongs to the game
	log.SetOutput(io.Discard)
	if logPath != "" {
		logFile, err := tea.LogToFile(logPath, "blockfall")
		if err != nil {
			return err
		}
		defer logFile.Close()
		log.SetOutput(logFile)
		log.SetLevel(log.DebugLevel)
	}

	settings, err := game.LoadSettings(configPath)
	if err != nil {
		return err
	}

	var highScores *game.HighScoreService
	if dbPath != "" {
		if highScores, err = game.NewHighScoreService(dbPath); err != nil {
			return err
		}
		defer highScores.Close()
	}

	sessions := game.NewSessionManager(highScores)
	defer sessions.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(ui.NewControllerModel(ctx, sessions, settings, 0, 0), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
