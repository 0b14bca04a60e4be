package game

import (
	"github.com/kamstrup/intmap"
)

// Block is a single unit cell of a piece. Once its piece settles the block
// is owned by the grid until a row clear removes it.
type Block struct {
	Owner PieceID
	Shape ShapeID
	Pos   Cell
}

// Grid is the authoritative occupancy table. Column-major: cells[x][y],
// y = 0 is the bottom row.
type Grid struct {
	Width  int
	Height int

	cells [][]*Block
	// cells last tagged for each piece by SyncPieceCells
	owned *intmap.Map[PieceID, []Cell]
}

func NewGrid(width, height int) *Grid {
	cells := make([][]*Block, width)
	for x := range cells {
		cells[x] = make([]*Block, height)
	}

	return &Grid{
		Width:  width,
		Height: height,
		cells:  cells,
		owned:  intmap.New[PieceID, []Cell](64),
	}
}

func (g *Grid) IsInsideBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// OccupantAt returns the block occupying c for collision purposes. The top
// row is a spawn buffer and never reports an occupant.
func (g *Grid) OccupantAt(c Cell) (*Block, bool) {
	if !g.IsInsideBounds(c) || c.Y >= g.Height-1 {
		return nil, false
	}

	block := g.cells[c.X][c.Y]
	return block, block != nil
}

// BlockAt returns whatever is stored at c, spawn buffer included.
func (g *Grid) BlockAt(c Cell) *Block {
	if !g.IsInsideBounds(c) {
		return nil
	}
	return g.cells[c.X][c.Y]
}

// SyncPieceCells untags every cell previously tagged for piece and tags the
// cells under its current blocks. A cell already held by another piece is
// left alone; that only happens in the spawn buffer.
func (g *Grid) SyncPieceCells(piece *Piece) {
	if previous, ok := g.owned.Get(piece.ID); ok {
		for _, c := range previous {
			if block := g.cells[c.X][c.Y]; block != nil && block.Owner == piece.ID {
				g.cells[c.X][c.Y] = nil
			}
		}
	}

	tagged := make([]Cell, 0, len(piece.Blocks))
	for _, block := range piece.Blocks {
		if !g.IsInsideBounds(block.Pos) {
			continue
		}
		if existing := g.cells[block.Pos.X][block.Pos.Y]; existing != nil && existing.Owner != piece.ID {
			continue
		}
		g.cells[block.Pos.X][block.Pos.Y] = block
		tagged = append(tagged, block.Pos)
	}

	if len(tagged) == 0 {
		g.owned.Del(piece.ID)
		return
	}
	g.owned.Put(piece.ID, tagged)
}

func (g *Grid) IsRowFull(y int) bool {
	for x := 0; x < g.Width; x++ {
		if g.cells[x][y] == nil {
			return false
		}
	}
	return true
}

// ClearFullRowsAndSettle removes every full row, compacting the rows above
// it downward, and returns how many rows were removed. After a clear the same
// row index is checked again since a full row may have slid into it.
func (g *Grid) ClearFullRowsAndSettle() int {
	cleared := 0

	for y := 0; y < g.Height; {
		if !g.IsRowFull(y) {
			y++
			continue
		}

		for x := 0; x < g.Width; x++ {
			g.cells[x][y] = nil
		}
		g.moveRowsDown(y)
		cleared++
	}

	if cleared > 0 {
		g.rebuildIndex()
	}
	return cleared
}

// moveRowsDown shifts every row above the (empty) row at deletedRow down by
// one, leaving the top row empty.
func (g *Grid) moveRowsDown(deletedRow int) {
	for y := deletedRow + 1; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			block := g.cells[x][y]
			g.cells[x][y-1] = block
			g.cells[x][y] = nil
			if block != nil {
				block.Pos.Y--
			}
		}
	}
}

func (g *Grid) rebuildIndex() {
	g.owned.Clear()
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			block := g.cells[x][y]
			if block == nil {
				continue
			}
			tagged, _ := g.owned.Get(block.Owner)
			g.owned.Put(block.Owner, append(tagged, Cell{X: x, Y: y}))
		}
	}
}

// ColumnHeights returns, per column, one above the highest occupied row
// (0 for an empty column). Blocks owned by ignore are skipped.
func (g *Grid) ColumnHeights(ignore PieceID) []int {
	heights := make([]int, g.Width)
	for x := 0; x < g.Width; x++ {
		for y := g.Height - 1; y >= 0; y-- {
			if block := g.cells[x][y]; block != nil && block.Owner != ignore {
				heights[x] = y + 1
				break
			}
		}
	}
	return heights
}
