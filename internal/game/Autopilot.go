package game

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"
)

const autopilotFunction = "nextCommand"

// DefaultAutopilotScript steers the piece's leftmost block toward the lowest
// column, then soft drops.
const DefaultAutopilotScript = `
function nextCommand(state)
	if state.cells == nil or #state.cells == 0 then
		return ""
	end

	local minX = state.width
	for i = 1, #state.cells do
		if state.cells[i].x < minX then
			minX = state.cells[i].x
		end
	end

	local target = 0
	local lowest = state.heights[1]
	for x = 2, #state.heights do
		if state.heights[x] < lowest then
			lowest = state.heights[x]
			target = x - 1
		end
	end

	if minX > target then
		return "left"
	elseif minX < target then
		return "right"
	end
	return "down"
end
`

var ErrAutopilotFunctionMissing = errors.New("autopilot script does not define " + autopilotFunction)

// LoadAutopilotScript reads a strategy file. An empty path gives the default
// script.
func LoadAutopilotScript(path string) (string, error) {
	if path == "" {
		return DefaultAutopilotScript, nil
	}
	script, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read autopilot script %s: %w", path, err)
	}
	return string(script), nil
}

// Autopilot asks a Lua strategy for the next command. An LState is not safe
// for concurrent use, so calls are serialised.
type Autopilot struct {
	mu        sync.Mutex
	luaState  *lua.LState
	strategyF lua.LValue
}

func NewAutopilot(script string) (*Autopilot, error) {
	luaState := lua.NewState()
	if err := luaState.DoString(script); err != nil {
		luaState.Close()
		return nil, fmt.Errorf("could not parse lua autopilot script: %w", err)
	}

	strategyF := luaState.GetGlobal(autopilotFunction)
	if strategyF.Type() != lua.LTFunction {
		luaState.Close()
		return nil, ErrAutopilotFunctionMissing
	}

	return &Autopilot{luaState: luaState, strategyF: strategyF}, nil
}

func (a *Autopilot) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.luaState.Close()
}

// NextCommand runs the strategy against a board snapshot.
func (a *Autopilot) NextCommand(view Snapshot) (Command, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stateTable := a.snapshotToLuaTable(view)
	if err := a.luaState.CallByParam(lua.P{
		Fn:      a.strategyF,
		NRet:    1,
		Protect: true,
	}, stateTable); err != nil {
		return CommandNone, fmt.Errorf("could not execute lua autopilot script: %w", err)
	}

	luaReturn := a.luaState.Get(-1)
	a.luaState.Pop(1)

	if luaReturn.Type() != lua.LTString && luaReturn.Type() != lua.LTNil {
		return CommandNone, fmt.Errorf("lua return value was type %s, expected string", luaReturn.Type().String())
	}

	command, ok := ParseCommand(lua.LVAsString(luaReturn))
	if !ok {
		return CommandNone, fmt.Errorf("unknown autopilot command %q", lua.LVAsString(luaReturn))
	}
	return command, nil
}

func (a *Autopilot) snapshotToLuaTable(view Snapshot) *lua.LTable {
	stateTable := a.luaState.NewTable()
	stateTable.RawSetString("width", lua.LNumber(view.Width))
	stateTable.RawSetString("height", lua.LNumber(view.Height))
	stateTable.RawSetString("orientation", lua.LNumber(view.Orientation.Degrees()))
	if shape := ShapeByID(view.ActiveShape); shape != nil {
		stateTable.RawSetString("shape", lua.LString(shape.Name))
	}

	heights := a.luaState.NewTable()
	for _, height := range view.Heights {
		heights.Append(lua.LNumber(height))
	}
	stateTable.RawSetString("heights", heights)

	cells := a.luaState.NewTable()
	for _, c := range view.Active {
		cell := a.luaState.NewTable()
		cell.RawSetString("x", lua.LNumber(c.X))
		cell.RawSetString("y", lua.LNumber(c.Y))
		cells.Append(cell)
	}
	stateTable.RawSetString("cells", cells)

	return stateTable
}

// Drive submits one autopilot command per tick until ctx is cancelled, then
// closes the autopilot.
func (a *Autopilot) Drive(ctx context.Context, gm *GameManager, every time.Duration) {
	defer a.Close()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			view := gm.View()
			if view.Over || view.Paused || len(view.Active) == 0 {
				continue
			}
			command, err := a.NextCommand(view)
			if err != nil {
				log.Error("Autopilot failed", "error", err)
				return
			}
			gm.Submit(command)
		}
	}
}
