package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type GameTickMsg struct{}

// BoardChangedMsg is sent whenever the active piece moves or the board is
// reset, so views can redraw without waiting for the next tick.
type BoardChangedMsg struct{}

type RowsClearedMsg struct {
	Rows  int
	Score int
}

type GameOverMsg struct {
	Score   int
	Elapsed time.Duration
}

// GameManager is the session context: one grid, the active piece, score and
// clock. It is the single PieceObserver of its pieces.
type GameManager struct {
	Settings       Settings
	UpdateChannel  chan tea.Msg
	CommandChannel chan Command

	// guards everything below; piece callbacks run with it held
	mu      sync.RWMutex
	grid    *Grid
	active  *Piece
	spawner *Spawner
	nextID  PieceID
	score   int
	elapsed time.Duration
	paused  bool
	over    bool

	isRunning atomic.Bool
}

type Option func(*GameManager)

func WithSeed(seed uint64) Option {
	return func(gm *GameManager) {
		gm.spawner = NewCatalogSpawner(gm.Settings.CatalogSize, seed)
	}
}

func WithSpawner(spawner *Spawner) Option {
	return func(gm *GameManager) {
		gm.spawner = spawner
	}
}

// NewGameManager builds a session and spawns its first piece. settings are
// expected to be validated already.
func NewGameManager(settings Settings, opts ...Option) *GameManager {
	gm := &GameManager{
		Settings:       settings,
		UpdateChannel:  make(chan tea.Msg, updateChannelSize),
		CommandChannel: make(chan Command, commandChannelSize),
	}

	for _, opt := range opts {
		opt(gm)
	}
	if gm.spawner == nil {
		gm.spawner = NewCatalogSpawner(settings.CatalogSize, uint64(time.Now().UnixNano()))
	}

	gm.reset()
	return gm
}

func (gm *GameManager) reset() {
	gm.grid = NewGrid(gm.Settings.GridWidth, gm.Settings.GridHeight)
	gm.active = nil
	gm.score = 0
	gm.elapsed = 0
	gm.paused = false
	gm.over = false
	gm.spawnNext()
}

func (gm *GameManager) spawnNext() {
	shape := gm.spawner.Next()
	gm.nextID++

	piece, ok := Spawn(gm.nextID, gm.grid, shape, SpawnPoint(gm.grid), gm.Settings.FallInterval, gm)
	if !ok {
		return
	}
	gm.active = piece
	log.Debug("Piece spawned", "piece", piece.ID, "shape", shape.Name)
}

// Restart starts over on a fresh grid of the same size.
func (gm *GameManager) Restart() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.drainCommands(false)
	gm.reset()
	gm.emit(BoardChangedMsg{})
}

// Submit queues an input command for the next Advance. Commands submitted
// while paused or after game over are dropped.
func (gm *GameManager) Submit(command Command) {
	gm.mu.RLock()
	accepting := !gm.paused && !gm.over
	gm.mu.RUnlock()
	if !accepting || command == CommandNone {
		return
	}

	select {
	case gm.CommandChannel <- command:
	default:
		log.Debug("Command queue full, dropping command", "command", command)
	}
}

// Advance moves the simulation forward by dt: queued commands first, then
// the automatic descent.
func (gm *GameManager) Advance(dt time.Duration) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if gm.paused || gm.over {
		return
	}

	gm.elapsed += dt
	gm.drainCommands(true)
	if gm.active != nil {
		gm.active.Advance(dt)
	}
}

func (gm *GameManager) drainCommands(apply bool) {
	for {
		select {
		case command := <-gm.CommandChannel:
			if apply && gm.active != nil && gm.active.IsFalling() {
				gm.active.Apply(command)
			}
		default:
			return
		}
	}
}

func (gm *GameManager) PieceMoved(piece *Piece) {
	gm.emit(BoardChangedMsg{})
}

func (gm *GameManager) PieceSettled(piece *Piece) {
	rows := gm.grid.ClearFullRowsAndSettle()
	gm.score += rows
	log.Debug("Piece settled", "piece", piece.ID, "shape", piece.Shape.Name, "rows", rows, "score", gm.score)

	gm.emit(RowsClearedMsg{Rows: rows, Score: gm.score})
	gm.active = nil
	gm.spawnNext()
}

func (gm *GameManager) SpawnBlocked(piece *Piece) {
	gm.over = true
	gm.active = nil
	log.Debug("Spawn blocked, game over", "piece", piece.ID, "score", gm.score, "elapsed", gm.elapsed)

	gm.emit(GameOverMsg{Score: gm.score, Elapsed: gm.elapsed})
}

func (gm *GameManager) emit(msg tea.Msg) {
	select {
	case gm.UpdateChannel <- msg:
	default:
		log.Debug("Update channel full, dropping message", "msg", msg)
	}
}

// Pause freezes the clock and drops input until Resume. A finished game
// cannot be paused.
func (gm *GameManager) Pause() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if !gm.over {
		gm.paused = true
	}
}

func (gm *GameManager) Resume() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.paused = false
}

func (gm *GameManager) Score() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.score
}

func (gm *GameManager) Elapsed() time.Duration {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.elapsed
}

func (gm *GameManager) IsOver() bool {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.over
}

func (gm *GameManager) IsPaused() bool {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.paused
}

// Snapshot is a copy of the board for rendering and the autopilot.
type Snapshot struct {
	Width       int
	Height      int
	Settled     [][]ShapeID // [y][x], NoShape when empty
	Heights     []int
	Active      []Cell
	ActiveShape ShapeID
	Orientation Orientation
	Score       int
	Elapsed     time.Duration
	Paused      bool
	Over        bool
}

func (gm *GameManager) View() Snapshot {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	var activeID PieceID
	snapshot := Snapshot{
		Width:       gm.grid.Width,
		Height:      gm.grid.Height,
		ActiveShape: NoShape,
		Score:       gm.score,
		Elapsed:     gm.elapsed,
		Paused:      gm.paused,
		Over:        gm.over,
	}
	if gm.active != nil {
		activeID = gm.active.ID
		snapshot.Active = gm.active.Cells()
		snapshot.ActiveShape = gm.active.Shape.ID
		snapshot.Orientation = gm.active.Orientation
	}

	snapshot.Settled = make([][]ShapeID, gm.grid.Height)
	for y := range snapshot.Settled {
		row := make([]ShapeID, gm.grid.Width)
		for x := range row {
			row[x] = NoShape
			if block := gm.grid.BlockAt(Cell{X: x, Y: y}); block != nil && block.Owner != activeID {
				row[x] = block.Shape
			}
		}
		snapshot.Settled[y] = row
	}
	snapshot.Heights = gm.grid.ColumnHeights(activeID)

	return snapshot
}

// StartGameLoop ticks the session until ctx is cancelled. A second call
// while the loop is running returns immediately.
func (gm *GameManager) StartGameLoop(ctx context.Context) {
	if !gm.isRunning.CompareAndSwap(false, true) {
		return
	}
	defer gm.isRunning.Store(false)

	log.Debug("Game loop started.")
	ticker := time.NewTicker(gm.Settings.TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Debug("Game loop stopped.")
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			gm.Advance(dt)
			gm.emit(GameTickMsg{})
		}
	}
}
