package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	moved   int
	settled int
	blocked int
}

func (r *recordingObserver) PieceMoved(*Piece)   { r.moved++ }
func (r *recordingObserver) PieceSettled(*Piece) { r.settled++ }
func (r *recordingObserver) SpawnBlocked(*Piece) { r.blocked++ }

func spawnT(t *testing.T, g *Grid, at Cell, observer PieceObserver) *Piece {
	t.Helper()
	piece, ok := Spawn(1, g, ShapeByID(ShapeT), at, time.Second, observer)
	require.True(t, ok)
	return piece
}

func TestAttemptTransformRejectsOutOfBounds(t *testing.T) {
	g := NewGrid(8, 8)
	observer := &recordingObserver{}
	piece := spawnT(t, g, Cell{4, 7}, observer)
	cells := piece.Cells()

	for _, candidate := range []Transform{
		{Pivot: Cell{0, 7}},
		{Pivot: Cell{7, 7}},
		{Pivot: Cell{4, 0}},
		{Pivot: Cell{4, 8}},
		{Pivot: Cell{4, 7}, Orientation: 3},
	} {
		assert.False(t, piece.AttemptTransform(candidate), "%+v", candidate)
	}

	assert.Equal(t, cells, piece.Cells())
	assert.Equal(t, Cell{4, 7}, piece.Pivot)
	assert.Equal(t, Orientation(0), piece.Orientation)
	assert.Equal(t, 0, observer.moved)
	assert.Equal(t, 0, occupiedCount(g))
}

func TestAttemptTransformRejectsOtherPieces(t *testing.T) {
	g := NewGrid(8, 8)
	place(g, foreignOwner, Cell{3, 4})
	observer := &recordingObserver{}
	piece := spawnT(t, g, Cell{4, 6}, observer)

	require.True(t, piece.AttemptTransform(Transform{Pivot: Cell{4, 5}}))
	// now the left arm would hit (3,4)
	assert.False(t, piece.AttemptTransform(Transform{Pivot: Cell{4, 4}}))
	assert.Equal(t, Cell{4, 5}, piece.Pivot)
	assert.Equal(t, 1, observer.moved)
}

func TestAttemptTransformIgnoresOwnCells(t *testing.T) {
	g := NewGrid(8, 8)
	observer := &recordingObserver{}
	piece := spawnT(t, g, Cell{4, 5}, observer)
	g.SyncPieceCells(piece)

	// moving right overlaps two of the piece's own cells
	require.True(t, piece.MoveRight())
	assert.Equal(t, Cell{5, 5}, piece.Pivot)
	assert.Equal(t, 4, occupiedCount(g))
	assert.Equal(t, 1, observer.moved)
}

func TestMovesAreSilentNoopsAtWalls(t *testing.T) {
	g := NewGrid(6, 6)
	piece := spawnT(t, g, Cell{1, 4}, nil)

	assert.False(t, piece.MoveLeft())
	assert.Equal(t, Cell{1, 4}, piece.Pivot)

	assert.True(t, piece.MoveRight())
	assert.True(t, piece.MoveRight())
	assert.True(t, piece.MoveRight())
	assert.False(t, piece.MoveRight())
	assert.Equal(t, Cell{4, 4}, piece.Pivot)
}

func TestSoftDropDoesNotSettle(t *testing.T) {
	g := NewGrid(6, 6)
	observer := &recordingObserver{}
	piece := spawnT(t, g, Cell{2, 1}, observer)

	assert.False(t, piece.SoftDrop())
	assert.True(t, piece.IsFalling())
	assert.Equal(t, 0, observer.settled)
}

func TestRotate(t *testing.T) {
	g := NewGrid(8, 8)
	piece := spawnT(t, g, Cell{4, 4}, nil)

	require.True(t, piece.Rotate())
	assert.Equal(t, Orientation(1), piece.Orientation)
	assert.ElementsMatch(t, []Cell{{4, 3}, {4, 4}, {4, 5}, {5, 4}}, piece.Cells())

	for i := 0; i < 3; i++ {
		require.True(t, piece.Rotate())
	}
	assert.Equal(t, Orientation(0), piece.Orientation)
	assert.ElementsMatch(t, []Cell{{3, 4}, {4, 4}, {5, 4}, {4, 3}}, piece.Cells())
}

func TestRotateBlockedKeepsOrientation(t *testing.T) {
	g := NewGrid(8, 8)
	place(g, foreignOwner, Cell{4, 5})
	piece := spawnT(t, g, Cell{4, 4}, nil)

	assert.False(t, piece.Rotate())
	assert.Equal(t, Orientation(0), piece.Orientation)
}

func TestStepDownSettlesExactlyOnce(t *testing.T) {
	g := NewGrid(6, 6)
	observer := &recordingObserver{}
	piece := spawnT(t, g, Cell{2, 2}, observer)

	assert.True(t, piece.StepDown())
	assert.False(t, piece.StepDown())
	assert.False(t, piece.IsFalling())
	assert.False(t, piece.StepDown())
	assert.False(t, piece.MoveLeft())
	assert.False(t, piece.Rotate())

	assert.Equal(t, 1, observer.settled)
	assert.Equal(t, 1, observer.moved)
	for _, c := range piece.Cells() {
		assert.Equal(t, piece.ID, g.BlockAt(c).Owner)
	}
}

func TestSettleWithoutMovingHandsBlocksToGrid(t *testing.T) {
	g := NewGrid(6, 6)
	fillRow(g, foreignOwner, 3, 0)
	observer := &recordingObserver{}
	piece := spawnT(t, g, Cell{2, 5}, observer)

	assert.False(t, piece.StepDown())
	assert.Equal(t, 1, observer.settled)
	assert.Equal(t, 0, observer.moved)
	for _, c := range piece.Cells() {
		require.NotNil(t, g.BlockAt(c))
		assert.Equal(t, piece.ID, g.BlockAt(c).Owner)
	}
}

func TestSpawnBlockedRaisesGameOver(t *testing.T) {
	g := NewGrid(8, 8)
	fillRow(g, foreignOwner, 6)
	observer := &recordingObserver{}

	piece, ok := Spawn(1, g, ShapeByID(ShapeT), SpawnPoint(g), time.Second, observer)
	assert.False(t, ok)
	assert.False(t, piece.IsFalling())
	assert.Equal(t, 1, observer.blocked)
	assert.Equal(t, 0, observer.settled)

	piece.Advance(10 * time.Second)
	assert.Equal(t, 0, observer.settled)
	assert.Equal(t, 0, observer.moved)
}

func TestAdvanceFallCadence(t *testing.T) {
	g := NewGrid(8, 8)
	observer := &recordingObserver{}
	piece := spawnT(t, g, Cell{4, 7}, observer)

	piece.Advance(999 * time.Millisecond)
	assert.Equal(t, Cell{4, 7}, piece.Pivot)

	piece.Advance(time.Millisecond)
	assert.Equal(t, Cell{4, 6}, piece.Pivot)

	piece.Advance(2500 * time.Millisecond)
	assert.Equal(t, Cell{4, 4}, piece.Pivot)

	// far more time than needed: stops stepping once settled
	piece.Advance(time.Minute)
	assert.Equal(t, Cell{4, 1}, piece.Pivot)
	assert.False(t, piece.IsFalling())
	assert.Equal(t, 1, observer.settled)
}

func TestApplyCommands(t *testing.T) {
	g := NewGrid(8, 8)
	piece := spawnT(t, g, Cell{4, 5}, nil)

	assert.True(t, piece.Apply(CommandLeft))
	assert.True(t, piece.Apply(CommandDown))
	assert.True(t, piece.Apply(CommandRight))
	assert.True(t, piece.Apply(CommandRotate))
	assert.False(t, piece.Apply(CommandNone))
	assert.Equal(t, Cell{4, 4}, piece.Pivot)
	assert.Equal(t, Orientation(1), piece.Orientation)
}

func TestSpawnOverBufferBlockIsBlocked(t *testing.T) {
	g := NewGrid(6, 6)
	place(g, foreignOwner, Cell{2, 5})
	observer := &recordingObserver{}

	piece, ok := Spawn(1, g, ShapeByID(ShapeT), SpawnPoint(g), time.Second, observer)
	assert.False(t, ok)
	assert.False(t, piece.IsFalling())
	assert.Equal(t, 1, observer.blocked)
	assert.Equal(t, foreignOwner, g.BlockAt(Cell{2, 5}).Owner)
}

func TestMovingThroughBufferKeepsSettledBlocks(t *testing.T) {
	g := NewGrid(6, 6)
	place(g, foreignOwner, Cell{0, 5})
	foreign := g.BlockAt(Cell{0, 5})
	piece := spawnT(t, g, Cell{3, 5}, nil)
	g.SyncPieceCells(piece)

	require.True(t, piece.MoveLeft())
	// the left arm now sits on the buffer block, which never collides
	require.True(t, piece.MoveLeft())
	assert.Same(t, foreign, g.BlockAt(Cell{0, 5}))

	require.True(t, piece.MoveRight())
	require.True(t, piece.MoveRight())
	assert.Same(t, foreign, g.BlockAt(Cell{0, 5}))
	assert.Equal(t, 5, occupiedCount(g))
}
