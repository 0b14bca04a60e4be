package game

type ShapeID int

const (
	ShapeI ShapeID = iota
	ShapeO
	ShapeT
	ShapeS
	ShapeZ
	ShapeJ
	ShapeL
)

const NoShape ShapeID = -1

// Orientation counts quarter turns: 0, 90, 180 and 270 degrees.
type Orientation int

func (o Orientation) Next() Orientation {
	return (o + 1) % 4
}

func (o Orientation) Degrees() int {
	return int(o) * 90
}

type Shape struct {
	ID    ShapeID
	Name  string
	Color string

	orientations [4][]Cell
}

// Offsets returns the block offsets relative to the pivot for o.
func (s *Shape) Offsets(o Orientation) []Cell {
	return s.orientations[o%4]
}

// newShape precomputes the four orientations of base by turning each offset
// a quarter counter-clockwise, (dx, dy) -> (-dy, dx). Fixed shapes keep base
// in every orientation.
func newShape(id ShapeID, name string, color string, fixed bool, base ...Cell) *Shape {
	shape := &Shape{ID: id, Name: name, Color: color}
	current := base
	for o := range shape.orientations {
		shape.orientations[o] = current
		if fixed {
			continue
		}
		turned := make([]Cell, len(current))
		for i, offset := range current {
			turned[i] = Cell{X: -offset.Y, Y: offset.X}
		}
		current = turned
	}
	return shape
}

// Catalog lists every shape the spawner can choose from. Base offsets keep
// dy <= 0 so a fresh piece fits below the spawn row.
var Catalog = []*Shape{
	newShape(ShapeI, "I", "51", false, Cell{-1, 0}, Cell{0, 0}, Cell{1, 0}, Cell{2, 0}),
	newShape(ShapeO, "O", "226", true, Cell{0, 0}, Cell{1, 0}, Cell{0, -1}, Cell{1, -1}),
	newShape(ShapeT, "T", "129", false, Cell{-1, 0}, Cell{0, 0}, Cell{1, 0}, Cell{0, -1}),
	newShape(ShapeS, "S", "46", false, Cell{0, 0}, Cell{1, 0}, Cell{-1, -1}, Cell{0, -1}),
	newShape(ShapeZ, "Z", "196", false, Cell{-1, 0}, Cell{0, 0}, Cell{0, -1}, Cell{1, -1}),
	newShape(ShapeJ, "J", "27", false, Cell{-1, 0}, Cell{0, 0}, Cell{1, 0}, Cell{1, -1}),
	newShape(ShapeL, "L", "208", false, Cell{-1, 0}, Cell{0, 0}, Cell{1, 0}, Cell{-1, -1}),
}

func ShapeByID(id ShapeID) *Shape {
	if id < 0 || int(id) >= len(Catalog) {
		return nil
	}
	return Catalog[id]
}
