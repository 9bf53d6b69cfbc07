// Package grid lazily generates the underground dig grid. Cells are a pure
// function of (seed, x, depth); the cache only holds mutable dig state
// (HP, cleared) and spares rehashing.
package grid

import (
	"digsite.gg/internal/sim/catalogs"
	"digsite.gg/internal/sim/mathx"
)

// Hash salts so row, position and cell rolls draw independent streams.
const (
	saltRowCount  = 0x5e551
	saltRowPos    = 0x9a7e5
	saltCellSpawn = 0xd16
	saltCoins     = 0xc0135
)

type Cell struct {
	X     int
	Depth int

	Kind  string
	Item  string // item yielded on clear; empty for coin pockets
	Coins int64

	HP      float64
	MaxHP   float64
	Cleared bool
}

// Clear marks the cell dug out. It is idempotent and reports whether this
// call performed the transition.
func (c *Cell) Clear() bool {
	if c.Cleared {
		return false
	}
	c.HP = 0
	c.Cleared = true
	return true
}

type Config struct {
	Width           int
	CoinMinPerDepth int
	CoinMaxPerDepth int
	RowSpawnWeights []float64
}

type Generator struct {
	seed  int64
	cat   *catalogs.Catalog
	cfg   Config
	cells map[cellKey]*Cell
}

type cellKey struct{ x, depth int }

func New(seed int64, cat *catalogs.Catalog, cfg Config) *Generator {
	return &Generator{
		seed:  seed,
		cat:   cat,
		cfg:   cfg,
		cells: map[cellKey]*Cell{},
	}
}

func (g *Generator) Seed() int64 { return g.seed }
func (g *Generator) Width() int  { return g.cfg.Width }

// InBand reports whether (x, depth) addresses a generatable cell.
func (g *Generator) InBand(x, depth int) bool {
	return x >= 0 && x < g.cfg.Width && depth >= 0
}

// CellAt returns the cell at (x, depth), generating it on first reference.
// Returns nil outside the grid band.
func (g *Generator) CellAt(x, depth int) *Cell {
	if !g.InBand(x, depth) {
		return nil
	}
	k := cellKey{x, depth}
	if c, ok := g.cells[k]; ok {
		return c
	}
	c := g.generate(x, depth)
	g.cells[k] = c
	return c
}

func (g *Generator) generate(x, depth int) *Cell {
	layer := g.cat.LayerFor(depth)

	if item, ok := g.spawnAt(x, depth, layer); ok {
		if item == "" {
			return g.coinPocket(x, depth)
		}
		def := g.cat.Items[item]
		return &Cell{X: x, Depth: depth, Kind: def.Kind, Item: item, HP: def.HP, MaxHP: def.HP}
	}

	dirt := g.cat.Items[layer.Dirt]
	return &Cell{X: x, Depth: depth, Kind: catalogs.KindDirt, Item: dirt.ID, HP: dirt.HP, MaxHP: dirt.HP}
}

// spawnAt decides whether a non-dirt spawn occupies (x, depth) and which one.
// The top row is always plain dirt so the first dig is safe.
func (g *Generator) spawnAt(x, depth int, layer catalogs.Layer) (string, bool) {
	if depth == 0 || len(layer.Spawns) == 0 {
		return "", false
	}

	hit := false
	for _, pos := range g.rowSpawnPositions(depth) {
		if pos == x {
			hit = true
			break
		}
	}
	if !hit {
		return "", false
	}

	weights := make([]float64, len(layer.Spawns))
	for i, s := range layer.Spawns {
		weights[i] = s.Weight
	}
	idx := mathx.WeightedIndex(mathx.Hash3(g.seed, x, depth, saltCellSpawn), weights)
	return layer.Spawns[idx].Item, true
}

// rowSpawnPositions returns the distinct x positions of the row's spawns,
// derived from the row hash alone so any cell of the row agrees.
func (g *Generator) rowSpawnPositions(depth int) []int {
	count := mathx.WeightedIndex(mathx.Hash3(g.seed, depth, 0, saltRowCount), g.cfg.RowSpawnWeights)
	if count > g.cfg.Width {
		count = g.cfg.Width
	}
	taken := make([]bool, g.cfg.Width)
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		pos := int(mathx.Hash3(g.seed, depth, i, saltRowPos) % uint64(g.cfg.Width))
		// Linear probe keeps positions distinct.
		for taken[pos] {
			pos = mathx.Mod(pos+1, g.cfg.Width)
		}
		taken[pos] = true
		out = append(out, pos)
	}
	return out
}

// coinPocket builds a one-hit cell worth depth * uniform(min, max) coins.
func (g *Generator) coinPocket(x, depth int) *Cell {
	span := int64(g.cfg.CoinMaxPerDepth-g.cfg.CoinMinPerDepth)*int64(depth) + 1
	coins := int64(g.cfg.CoinMinPerDepth) * int64(depth)
	coins += int64(mathx.Hash3(g.seed, x, depth, saltCoins) % uint64(span))
	return &Cell{X: x, Depth: depth, Kind: catalogs.KindDirt, Coins: coins, HP: 1, MaxHP: 1}
}
