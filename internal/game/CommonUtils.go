package game

// Cell is an integer grid coordinate. y = 0 is the bottom row.
type Cell struct {
	X, Y int
}

func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

type PieceID uint32

// Command is a player (or autopilot) input.
type Command int

const (
	CommandNone Command = iota
	CommandLeft
	CommandRight
	CommandDown
	CommandRotate
)

var commandNames = map[Command]string{
	CommandNone:   "",
	CommandLeft:   "left",
	CommandRight:  "right",
	CommandDown:   "down",
	CommandRotate: "rotate",
}

func (c Command) String() string {
	return commandNames[c]
}

func ParseCommand(s string) (Command, bool) {
	for command, name := range commandNames {
		if name == s {
			return command, true
		}
	}
	return CommandNone, false
}

var (
	left  = Cell{X: -1, Y: 0}
	right = Cell{X: 1, Y: 0}
	down  = Cell{X: 0, Y: -1}
)
