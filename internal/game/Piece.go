package game

import "time"

// PieceObserver receives piece notifications synchronously, after the grid
// has been updated. GameManager is the only implementation outside tests.
type PieceObserver interface {
	PieceMoved(piece *Piece)
	PieceSettled(piece *Piece)
	SpawnBlocked(piece *Piece)
}

// Transform is a candidate placement of a piece.
type Transform struct {
	Pivot       Cell
	Orientation Orientation
}

// Piece is the falling cluster of blocks controlled as one rigid unit.
type Piece struct {
	ID          PieceID
	Shape       *Shape
	Pivot       Cell
	Orientation Orientation
	Blocks      []*Block

	falling      bool
	fallInterval time.Duration
	sinceFall    time.Duration

	grid     *Grid
	observer PieceObserver
}

// Spawn places a new piece with its pivot at at. When the spawn position is
// already illegal, or overlaps any block left in the spawn buffer, the
// observer gets SpawnBlocked and the piece never starts falling; ok is false
// in that case.
func Spawn(id PieceID, grid *Grid, shape *Shape, at Cell, fallInterval time.Duration, observer PieceObserver) (*Piece, bool) {
	piece := &Piece{
		ID:           id,
		Shape:        shape,
		Pivot:        at,
		fallInterval: fallInterval,
		grid:         grid,
		observer:     observer,
	}

	offsets := shape.Offsets(0)
	piece.Blocks = make([]*Block, len(offsets))
	for i, offset := range offsets {
		piece.Blocks[i] = &Block{Owner: id, Shape: shape.ID, Pos: at.Add(offset)}
	}

	if !piece.fits(piece.Cells()) || !piece.vacant(piece.Cells()) {
		if observer != nil {
			observer.SpawnBlocked(piece)
		}
		return piece, false
	}

	piece.falling = true
	return piece, true
}

func (p *Piece) IsFalling() bool {
	return p.falling
}

func (p *Piece) FallInterval() time.Duration {
	return p.fallInterval
}

// Cells returns the grid cells currently covered by the piece.
func (p *Piece) Cells() []Cell {
	cells := make([]Cell, len(p.Blocks))
	for i, block := range p.Blocks {
		cells[i] = block.Pos
	}
	return cells
}

func (p *Piece) candidate(t Transform) []Cell {
	offsets := p.Shape.Offsets(t.Orientation)
	cells := make([]Cell, len(offsets))
	for i, offset := range offsets {
		cells[i] = t.Pivot.Add(offset)
	}
	return cells
}

// fits reports whether every cell is inside the grid and free of blocks
// belonging to other pieces. Cells held by this piece do not count.
func (p *Piece) fits(cells []Cell) bool {
	for _, c := range cells {
		if !p.grid.IsInsideBounds(c) {
			return false
		}
	}

	for _, c := range cells {
		if occupant, ok := p.grid.OccupantAt(c); ok && occupant.Owner != p.ID {
			return false
		}
	}
	return true
}

// vacant is the raw occupancy check, spawn buffer included.
func (p *Piece) vacant(cells []Cell) bool {
	for _, c := range cells {
		if block := p.grid.BlockAt(c); block != nil && block.Owner != p.ID {
			return false
		}
	}
	return true
}

// AttemptTransform commits t if the resulting cells are legal, resyncs the
// grid and notifies the observer. An illegal candidate leaves the piece
// untouched.
func (p *Piece) AttemptTransform(t Transform) bool {
	cells := p.candidate(t)
	if !p.fits(cells) {
		return false
	}

	p.Pivot = t.Pivot
	p.Orientation = t.Orientation
	for i, c := range cells {
		p.Blocks[i].Pos = c
	}

	p.grid.SyncPieceCells(p)
	if p.observer != nil {
		p.observer.PieceMoved(p)
	}
	return true
}

func (p *Piece) shift(direction Cell) bool {
	if !p.falling {
		return false
	}
	return p.AttemptTransform(Transform{Pivot: p.Pivot.Add(direction), Orientation: p.Orientation})
}

func (p *Piece) MoveLeft() bool {
	return p.shift(left)
}

func (p *Piece) MoveRight() bool {
	return p.shift(right)
}

// SoftDrop moves the piece down one row. Unlike StepDown a blocked soft drop
// does not settle the piece.
func (p *Piece) SoftDrop() bool {
	return p.shift(down)
}

func (p *Piece) Rotate() bool {
	if !p.falling {
		return false
	}
	return p.AttemptTransform(Transform{Pivot: p.Pivot, Orientation: p.Orientation.Next()})
}

// StepDown is the automatic descent. When the piece cannot descend it stops
// falling, hands its blocks to the grid and notifies PieceSettled once.
func (p *Piece) StepDown() bool {
	if !p.falling {
		return false
	}
	if p.shift(down) {
		return true
	}

	p.falling = false
	p.grid.SyncPieceCells(p)
	if p.observer != nil {
		p.observer.PieceSettled(p)
	}
	return false
}

// Apply runs a single input command against the piece.
func (p *Piece) Apply(command Command) bool {
	switch command {
	case CommandLeft:
		return p.MoveLeft()
	case CommandRight:
		return p.MoveRight()
	case CommandDown:
		return p.SoftDrop()
	case CommandRotate:
		return p.Rotate()
	default:
		return false
	}
}

// Advance feeds elapsed time into the fall clock, stepping down once per
// full fall interval until the piece settles.
func (p *Piece) Advance(dt time.Duration) {
	if !p.falling || p.fallInterval <= 0 {
		return
	}

	p.sinceFall += dt
	for p.falling && p.sinceFall >= p.fallInterval {
		p.sinceFall -= p.fallInterval
		p.StepDown()
	}
}
