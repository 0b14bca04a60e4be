package game

import (
	"math/rand/v2"
)

// Spawner picks the shape of each new piece uniformly from a catalog.
type Spawner struct {
	shapes []*Shape
	rng    *rand.Rand
}

func NewSpawner(shapes []*Shape, seed uint64) *Spawner {
	return &Spawner{
		shapes: shapes,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// NewCatalogSpawner draws from the first catalogSize shapes of Catalog.
func NewCatalogSpawner(catalogSize int, seed uint64) *Spawner {
	catalogSize = max(1, min(catalogSize, len(Catalog)))
	return NewSpawner(Catalog[:catalogSize], seed)
}

func (s *Spawner) Next() *Shape {
	return s.shapes[s.rng.IntN(len(s.shapes))]
}

// SpawnPoint is where new pieces appear: horizontally centred, in the
// top (buffer) row.
func SpawnPoint(grid *Grid) Cell {
	return Cell{X: grid.Width / 2, Y: grid.Height - 1}
}
