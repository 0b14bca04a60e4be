package game

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	GameTickDuration    = 50 * time.Millisecond
	DefaultFallInterval = time.Second
	DefaultGridWidth    = 10
	DefaultGridHeight   = 20
	MinGridSize         = 6
	MaxGridSize         = 64
	MaxPlayerNameLength = 20

	updateChannelSize  = 256
	commandChannelSize = 32
	sunsetWorkersCount = 4
	scoreWorkersCount  = 2
)

var (
	ErrGridTooSmall       = errors.New("grid is smaller than the minimum size")
	ErrGridTooLarge       = errors.New("grid is larger than the maximum size")
	ErrInvalidInterval    = errors.New("interval must be positive")
	ErrInvalidCatalogSize = errors.New("catalog size out of range")
	ErrPlayerNameTooLong  = errors.New("player name is too long")

	ErrSessionManagerClosed = errors.New("session manager is closed")
)

// Settings is everything a session needs at construction. Grid dimensions
// are fixed for the lifetime of the session.
type Settings struct {
	PlayerName   string        `yaml:"player_name"`
	GridWidth    int           `yaml:"grid_width"`
	GridHeight   int           `yaml:"grid_height"`
	FallInterval time.Duration `yaml:"fall_interval"`
	TickInterval time.Duration `yaml:"tick_interval"`
	CatalogSize  int           `yaml:"catalog_size"`

	// Lua file for demo mode; empty uses DefaultAutopilotScript
	AutopilotScript string `yaml:"autopilot_script"`
}

func DefaultSettings() Settings {
	return Settings{
		GridWidth:    DefaultGridWidth,
		GridHeight:   DefaultGridHeight,
		FallInterval: DefaultFallInterval,
		TickInterval: GameTickDuration,
		CatalogSize:  len(Catalog),
	}
}

func (s Settings) Validate() error {
	switch {
	case s.GridWidth < MinGridSize || s.GridHeight < MinGridSize:
		return fmt.Errorf("%w: %dx%d, need at least %dx%d", ErrGridTooSmall, s.GridWidth, s.GridHeight, MinGridSize, MinGridSize)
	case s.GridWidth > MaxGridSize || s.GridHeight > MaxGridSize:
		return fmt.Errorf("%w: %dx%d, at most %dx%d", ErrGridTooLarge, s.GridWidth, s.GridHeight, MaxGridSize, MaxGridSize)
	case s.FallInterval <= 0:
		return fmt.Errorf("fall interval %v: %w", s.FallInterval, ErrInvalidInterval)
	case s.TickInterval <= 0:
		return fmt.Errorf("tick interval %v: %w", s.TickInterval, ErrInvalidInterval)
	case s.CatalogSize < 1 || s.CatalogSize > len(Catalog):
		return fmt.Errorf("%w: %d, expected 1..%d", ErrInvalidCatalogSize, s.CatalogSize, len(Catalog))
	case len(s.PlayerName) > MaxPlayerNameLength:
		return fmt.Errorf("%w: %d characters", ErrPlayerNameTooLong, len(s.PlayerName))
	}
	return nil
}

// LoadSettings reads a YAML settings file on top of DefaultSettings. An empty
// path or a missing file yields the defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return settings, nil
}
