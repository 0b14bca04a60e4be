package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foreignOwner PieceID = 1000

// place puts blocks owned by owner straight into the grid.
func place(g *Grid, owner PieceID, cells ...Cell) []*Block {
	blocks := make([]*Block, len(cells))
	for i, c := range cells {
		blocks[i] = &Block{Owner: owner, Shape: ShapeO, Pos: c}
		g.cells[c.X][c.Y] = blocks[i]
	}
	g.rebuildIndex()
	return blocks
}

func fillRow(g *Grid, owner PieceID, y int, skip ...int) {
	var cells []Cell
	for x := 0; x < g.Width; x++ {
		skipped := false
		for _, s := range skip {
			skipped = skipped || s == x
		}
		if !skipped {
			cells = append(cells, Cell{X: x, Y: y})
		}
	}
	place(g, owner, cells...)
}

func occupiedCount(g *Grid) int {
	count := 0
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			if g.cells[x][y] != nil {
				count++
			}
		}
	}
	return count
}

func TestNewGridIsEmpty(t *testing.T) {
	for _, size := range [][2]int{{6, 6}, {8, 8}, {10, 20}, {13, 7}} {
		g := NewGrid(size[0], size[1])
		for x := -1; x <= g.Width; x++ {
			for y := -1; y <= g.Height; y++ {
				_, ok := g.OccupantAt(Cell{X: x, Y: y})
				assert.False(t, ok, "grid %v cell (%d,%d)", size, x, y)
			}
		}
	}
}

func TestIsInsideBounds(t *testing.T) {
	g := NewGrid(6, 8)

	assert.True(t, g.IsInsideBounds(Cell{0, 0}))
	assert.True(t, g.IsInsideBounds(Cell{5, 7}))
	assert.False(t, g.IsInsideBounds(Cell{6, 0}))
	assert.False(t, g.IsInsideBounds(Cell{0, 8}))
	assert.False(t, g.IsInsideBounds(Cell{-1, 3}))
	assert.False(t, g.IsInsideBounds(Cell{3, -1}))
}

func TestOccupantAtIgnoresSpawnBuffer(t *testing.T) {
	g := NewGrid(6, 6)
	place(g, foreignOwner, Cell{2, 5}, Cell{2, 4})

	_, ok := g.OccupantAt(Cell{2, 5})
	assert.False(t, ok, "top row never blocks")
	assert.NotNil(t, g.BlockAt(Cell{2, 5}))

	block, ok := g.OccupantAt(Cell{2, 4})
	require.True(t, ok)
	assert.Equal(t, foreignOwner, block.Owner)
}

func TestSyncPieceCells(t *testing.T) {
	g := NewGrid(8, 8)
	piece, ok := Spawn(1, g, ShapeByID(ShapeT), Cell{4, 5}, 0, nil)
	require.True(t, ok)

	g.SyncPieceCells(piece)
	before := piece.Cells()
	for _, c := range before {
		assert.Equal(t, piece.ID, g.BlockAt(c).Owner)
	}

	require.True(t, piece.AttemptTransform(Transform{Pivot: Cell{2, 3}}))
	after := piece.Cells()
	for _, c := range before {
		assert.Nil(t, g.BlockAt(c), "stale cell %v", c)
	}
	for _, c := range after {
		block, ok := g.OccupantAt(c)
		require.True(t, ok)
		assert.Equal(t, piece.ID, block.Owner)
	}
	assert.Equal(t, len(after), occupiedCount(g))
}

func TestSyncPieceCellsLeavesOtherPiecesAlone(t *testing.T) {
	g := NewGrid(8, 8)
	place(g, foreignOwner, Cell{0, 0}, Cell{1, 0})
	piece, ok := Spawn(1, g, ShapeByID(ShapeO), Cell{4, 6}, 0, nil)
	require.True(t, ok)

	g.SyncPieceCells(piece)
	require.True(t, piece.SoftDrop())

	assert.Equal(t, foreignOwner, g.BlockAt(Cell{0, 0}).Owner)
	assert.Equal(t, foreignOwner, g.BlockAt(Cell{1, 0}).Owner)
	assert.Equal(t, 6, occupiedCount(g))
}

func TestClearWithoutFullRowsIsNoop(t *testing.T) {
	g := NewGrid(6, 6)
	fillRow(g, foreignOwner, 0, 3)
	fillRow(g, foreignOwner+1, 2, 0)

	before := occupiedCount(g)
	assert.Equal(t, 0, g.ClearFullRowsAndSettle())
	assert.Equal(t, before, occupiedCount(g))
	assert.Nil(t, g.BlockAt(Cell{3, 0}))
	assert.NotNil(t, g.BlockAt(Cell{1, 2}))
}

func TestClearSingleRow(t *testing.T) {
	g := NewGrid(6, 6)
	fillRow(g, foreignOwner, 1)
	below := place(g, foreignOwner+1, Cell{0, 0})[0]
	above := place(g, foreignOwner+2, Cell{2, 2}, Cell{2, 3}, Cell{4, 5})

	assert.Equal(t, 1, g.ClearFullRowsAndSettle())

	assert.Same(t, below, g.BlockAt(Cell{0, 0}))
	assert.Same(t, above[0], g.BlockAt(Cell{2, 1}))
	assert.Same(t, above[1], g.BlockAt(Cell{2, 2}))
	assert.Same(t, above[2], g.BlockAt(Cell{4, 4}))
	assert.Equal(t, Cell{2, 1}, above[0].Pos)
	assert.Equal(t, Cell{4, 4}, above[2].Pos)
	for x := 0; x < g.Width; x++ {
		assert.Nil(t, g.BlockAt(Cell{x, 5}), "top row must be empty")
	}
	assert.Equal(t, 4, occupiedCount(g))
}

func TestClearTwoNonAdjacentRows(t *testing.T) {
	g := NewGrid(6, 8)
	fillRow(g, foreignOwner, 1)
	fillRow(g, foreignOwner, 4)
	between := place(g, foreignOwner+1, Cell{3, 2})[0]
	top := place(g, foreignOwner+2, Cell{5, 6})[0]

	assert.Equal(t, 2, g.ClearFullRowsAndSettle())

	assert.Equal(t, Cell{3, 1}, between.Pos)
	assert.Same(t, between, g.BlockAt(Cell{3, 1}))
	assert.Equal(t, Cell{5, 4}, top.Pos)
	assert.Same(t, top, g.BlockAt(Cell{5, 4}))
	assert.Equal(t, 2, occupiedCount(g))
}

func TestClearAdjacentRows(t *testing.T) {
	g := NewGrid(6, 6)
	fillRow(g, foreignOwner, 0)
	fillRow(g, foreignOwner, 1)
	fillRow(g, foreignOwner, 2)
	survivor := place(g, foreignOwner+1, Cell{1, 3})[0]

	assert.Equal(t, 3, g.ClearFullRowsAndSettle())
	assert.Equal(t, Cell{1, 0}, survivor.Pos)
	assert.Same(t, survivor, g.BlockAt(Cell{1, 0}))
	assert.Equal(t, 1, occupiedCount(g))
}

func TestClearRebuildsPieceIndex(t *testing.T) {
	g := NewGrid(6, 6)
	fillRow(g, foreignOwner, 0, 0)
	piece, ok := Spawn(1, g, ShapeByID(ShapeI), Cell{1, 1}, 0, nil)
	require.True(t, ok)
	g.SyncPieceCells(piece)
	place(g, foreignOwner, Cell{0, 0})

	require.Equal(t, 1, g.ClearFullRowsAndSettle())

	// the piece's blocks slid down with the clear; a resync must find them
	for _, block := range piece.Blocks {
		assert.Equal(t, 0, block.Pos.Y)
	}
	g.SyncPieceCells(piece)
	assert.Equal(t, 4, occupiedCount(g))
}

func TestClearScenarioEightByEight(t *testing.T) {
	g := NewGrid(8, 8)

	for i, pivot := range []Cell{{1, 0}, {5, 0}} {
		bar, ok := Spawn(PieceID(i+1), g, ShapeByID(ShapeI), pivot, 0, nil)
		require.True(t, ok)
		g.SyncPieceCells(bar)
	}

	tee, ok := Spawn(3, g, ShapeByID(ShapeT), Cell{3, 4}, 0, nil)
	require.True(t, ok)
	g.SyncPieceCells(tee)
	before := tee.Cells()

	assert.Equal(t, 1, g.ClearFullRowsAndSettle())
	for i, block := range tee.Blocks {
		assert.Equal(t, before[i].Add(down), block.Pos)
		assert.Same(t, block, g.BlockAt(block.Pos))
	}
	assert.Equal(t, 4, occupiedCount(g))
}

func TestColumnHeights(t *testing.T) {
	g := NewGrid(6, 6)
	place(g, foreignOwner, Cell{0, 0}, Cell{0, 2}, Cell{3, 0})
	place(g, 7, Cell{5, 4})

	assert.Equal(t, []int{3, 0, 0, 1, 0, 5}, g.ColumnHeights(0))
	assert.Equal(t, []int{3, 0, 0, 1, 0, 0}, g.ColumnHeights(7))
}
