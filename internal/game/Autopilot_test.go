package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAutopilotSteersToLowestColumn(t *testing.T) {
	autopilot, err := NewAutopilot(DefaultAutopilotScript)
	require.NoError(t, err)
	defer autopilot.Close()

	view := Snapshot{
		Width:       6,
		Height:      8,
		Heights:     []int{3, 0, 2, 2, 2, 2},
		ActiveShape: ShapeT,
	}

	tests := []struct {
		name   string
		active []Cell
		want   Command
	}{
		{"right of target", []Cell{{3, 6}, {4, 6}, {5, 6}, {4, 5}}, CommandLeft},
		{"left of target", []Cell{{0, 6}, {1, 6}, {2, 6}, {1, 5}}, CommandRight},
		{"above target", []Cell{{1, 6}, {2, 6}, {3, 6}, {2, 5}}, CommandDown},
		{"no piece", nil, CommandNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view.Active = tt.active
			command, err := autopilot.NextCommand(view)
			require.NoError(t, err)
			assert.Equal(t, tt.want, command)
		})
	}
}

func TestAutopilotScriptErrors(t *testing.T) {
	_, err := NewAutopilot(`function somethingElse(state) return "left" end`)
	assert.ErrorIs(t, err, ErrAutopilotFunctionMissing)

	_, err = NewAutopilot(`function nextCommand(state`)
	assert.Error(t, err)

	view := Snapshot{Width: 6, Height: 6, Heights: make([]int, 6), ActiveShape: NoShape}
	for _, script := range []string{
		`function nextCommand(state) return 42 end`,
		`function nextCommand(state) return "jump" end`,
		`function nextCommand(state) error("boom") end`,
	} {
		autopilot, err := NewAutopilot(script)
		require.NoError(t, err, script)
		_, err = autopilot.NextCommand(view)
		assert.Error(t, err, script)
		autopilot.Close()
	}
}

func TestAutopilotSeesSnapshot(t *testing.T) {
	autopilot, err := NewAutopilot(`
function nextCommand(state)
	if state.shape == "T" and state.orientation == 90 and state.width == 7 and #state.cells == 2 and state.cells[2].y == 3 then
		return "rotate"
	end
	return "down"
end`)
	require.NoError(t, err)
	defer autopilot.Close()

	command, err := autopilot.NextCommand(Snapshot{
		Width:       7,
		Height:      9,
		Heights:     make([]int, 7),
		Active:      []Cell{{1, 2}, {1, 3}},
		ActiveShape: ShapeT,
		Orientation: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, CommandRotate, command)
}

func TestAutopilotDrivesGame(t *testing.T) {
	gm := NewGameManager(testSettings(10, 20), onlyShape(ShapeT))
	autopilot, err := NewAutopilot(DefaultAutopilotScript)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		autopilot.Drive(ctx, gm, time.Millisecond)
		close(done)
	}()

	// nothing advances the game, so submitted commands pile up
	require.Eventually(t, func() bool { return len(gm.CommandChannel) > 0 }, time.Second, time.Millisecond)
	cancel()
	<-done

	// the piece starts at x 4..6 and column 0 is lowest on an empty board
	assert.Equal(t, CommandLeft, <-gm.CommandChannel)
}

func TestLoadAutopilotScript(t *testing.T) {
	script, err := LoadAutopilotScript("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAutopilotScript, script)

	path := filepath.Join(t.TempDir(), "spin.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function nextCommand(state) return "rotate" end`), 0o644))
	script, err = LoadAutopilotScript(path)
	require.NoError(t, err)

	autopilot, err := NewAutopilot(script)
	require.NoError(t, err)
	defer autopilot.Close()
	command, err := autopilot.NextCommand(Snapshot{Heights: []int{}, ActiveShape: NoShape})
	require.NoError(t, err)
	assert.Equal(t, CommandRotate, command)

	_, err = LoadAutopilotScript(filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)
}
