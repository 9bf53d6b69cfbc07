package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Block kinds. Ore requires a pickaxe; everything else digs with a shovel
// (or bare hands).
const (
	KindEmpty = "EMPTY"
	KindDirt  = "DIRT"
	KindOre   = "ORE"
	KindWorm  = "WORM"
	KindMisc  = "MISC"
)

type ItemDef struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"`
	HP     float64 `json:"hp"`
	Volume int     `json:"volume"` // storage units per unit in the backpack
	Sell   int64   `json:"sell"`
}

// Spawn is one weighted entry of a layer's spawn table.
// An empty Item denotes a coin pocket.
type Spawn struct {
	Item   string  `json:"item,omitempty"`
	Weight float64 `json:"weight"`
}

// Layer describes generation from Depth until the next layer starts.
type Layer struct {
	Depth  int     `json:"depth"`
	Dirt   string  `json:"dirt"`
	Spawns []Spawn `json:"spawns"`
}

type ToolTable struct {
	// Strength by tier, tier 1 first. Tier 0 means the tool is absent.
	Shovel  []int `json:"shovel"`
	Pickaxe []int `json:"pickaxe"`
}

type Catalog struct {
	Items   map[string]ItemDef
	Palette []string
	Layers  []Layer
	Tools   ToolTable

	PaletteDigest string
}

func (c *Catalog) Item(id string) (ItemDef, bool) {
	d, ok := c.Items[id]
	return d, ok
}

// LayerFor returns the layer governing generation at the given depth.
func (c *Catalog) LayerFor(depth int) Layer {
	if depth < 0 {
		depth = 0
	}
	out := c.Layers[0]
	for _, l := range c.Layers {
		if l.Depth > depth {
			break
		}
		out = l
	}
	return out
}

func (c *Catalog) ShovelStrength(tier int) int {
	return strengthAt(c.Tools.Shovel, tier)
}

func (c *Catalog) PickaxeStrength(tier int) int {
	return strengthAt(c.Tools.Pickaxe, tier)
}

func strengthAt(table []int, tier int) int {
	if tier <= 0 || len(table) == 0 {
		return 0
	}
	if tier > len(table) {
		tier = len(table)
	}
	return table[tier-1]
}

func (c *Catalog) Validate() error {
	if len(c.Layers) == 0 {
		return fmt.Errorf("catalog has no layers")
	}
	if c.Layers[0].Depth != 0 {
		return fmt.Errorf("first layer must start at depth 0, got %d", c.Layers[0].Depth)
	}
	prev := -1
	for _, l := range c.Layers {
		if l.Depth <= prev {
			return fmt.Errorf("layers out of order at depth %d", l.Depth)
		}
		prev = l.Depth
		dirt, ok := c.Items[l.Dirt]
		if !ok {
			return fmt.Errorf("layer %d: unknown dirt item %q", l.Depth, l.Dirt)
		}
		if dirt.Kind != KindDirt {
			return fmt.Errorf("layer %d: dirt item %q has kind %s", l.Depth, l.Dirt, dirt.Kind)
		}
		for _, s := range l.Spawns {
			if s.Weight <= 0 {
				return fmt.Errorf("layer %d: non-positive weight for %q", l.Depth, s.Item)
			}
			if s.Item == "" {
				continue // coin pocket
			}
			if _, ok := c.Items[s.Item]; !ok {
				return fmt.Errorf("layer %d: unknown spawn item %q", l.Depth, s.Item)
			}
		}
	}
	for id, def := range c.Items {
		if def.ID != id {
			return fmt.Errorf("item %q: id mismatch %q", id, def.ID)
		}
		if def.HP <= 0 {
			return fmt.Errorf("item %q: hp must be > 0", id)
		}
		if def.Volume < 1 {
			return fmt.Errorf("item %q: volume must be >= 1", id)
		}
		switch def.Kind {
		case KindDirt, KindOre, KindWorm, KindMisc:
		default:
			return fmt.Errorf("item %q: unknown kind %s", id, def.Kind)
		}
	}
	return nil
}

func (c *Catalog) finalize() *Catalog {
	c.Palette = c.Palette[:0]
	for id := range c.Items {
		c.Palette = append(c.Palette, id)
	}
	sort.Strings(c.Palette)
	b, _ := json.Marshal(c.Palette)
	sum := sha256.Sum256(b)
	c.PaletteDigest = hex.EncodeToString(sum[:])
	return c
}

// Default returns the built-in backyard catalog.
func Default() *Catalog {
	items := []ItemDef{
		// Dirt, one per layer, tougher the deeper it sits.
		{ID: "dirt", Kind: KindDirt, HP: 1, Volume: 1, Sell: 10},
		{ID: "clay", Kind: KindDirt, HP: 3, Volume: 1, Sell: 20},
		{ID: "gravel", Kind: KindDirt, HP: 5, Volume: 1, Sell: 30},
		{ID: "limestone", Kind: KindDirt, HP: 8, Volume: 1, Sell: 40},
		{ID: "granite", Kind: KindDirt, HP: 12, Volume: 1, Sell: 50},
		{ID: "magma", Kind: KindDirt, HP: 20, Volume: 1, Sell: 100},

		// Ores, pickaxe only.
		{ID: "iron", Kind: KindOre, HP: 2, Volume: 1, Sell: 60},
		{ID: "copper", Kind: KindOre, HP: 4, Volume: 1, Sell: 200},
		{ID: "silver", Kind: KindOre, HP: 6, Volume: 1, Sell: 400},
		{ID: "gold", Kind: KindOre, HP: 8, Volume: 1, Sell: 900},
		{ID: "obsidian", Kind: KindOre, HP: 10, Volume: 2, Sell: 1250},
		{ID: "emerald", Kind: KindOre, HP: 12, Volume: 2, Sell: 2000},
		{ID: "ruby", Kind: KindOre, HP: 15, Volume: 2, Sell: 3000},
		{ID: "diamond", Kind: KindOre, HP: 20, Volume: 3, Sell: 5000},

		// Worms and the odd collectible.
		{ID: "worm", Kind: KindWorm, HP: 3, Volume: 1, Sell: 100},
		{ID: "gummy_worm", Kind: KindWorm, HP: 5, Volume: 2, Sell: 250},
		{ID: "earthworm", Kind: KindWorm, HP: 10, Volume: 2, Sell: 500},
		{ID: "hook_worm", Kind: KindWorm, HP: 15, Volume: 2, Sell: 1000},
		{ID: "poly_worm", Kind: KindWorm, HP: 20, Volume: 2, Sell: 1500},
		{ID: "ancient_relic", Kind: KindMisc, HP: 30, Volume: 3, Sell: 25000},
	}

	byID := make(map[string]ItemDef, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	c := &Catalog{
		Items: byID,
		Tools: ToolTable{
			Shovel:  []int{2, 3, 5, 7, 10},
			Pickaxe: []int{1, 3, 5},
		},
		Layers: []Layer{
			{Depth: 0, Dirt: "dirt", Spawns: []Spawn{
				{Item: "", Weight: 2},
				{Item: "worm", Weight: 0.25},
				{Item: "gummy_worm", Weight: 0.08},
				{Item: "earthworm", Weight: 0.03},
				{Item: "hook_worm", Weight: 0.0075},
				{Item: "poly_worm", Weight: 0.0025},
				{Item: "ancient_relic", Weight: 0.00005},
				{Item: "iron", Weight: 0.5},
				{Item: "copper", Weight: 0.17},
				{Item: "silver", Weight: 0.075},
				{Item: "gold", Weight: 0.015},
				{Item: "obsidian", Weight: 0.005},
				{Item: "emerald", Weight: 0.0015},
				{Item: "diamond", Weight: 0.0003},
			}},
			{Depth: 20, Dirt: "clay", Spawns: []Spawn{
				{Item: "", Weight: 1.8},
				{Item: "worm", Weight: 0.3},
				{Item: "gummy_worm", Weight: 0.2},
				{Item: "earthworm", Weight: 0.07},
				{Item: "hook_worm", Weight: 0.02},
				{Item: "poly_worm", Weight: 0.007},
				{Item: "ancient_relic", Weight: 0.0001},
				{Item: "iron", Weight: 0.5},
				{Item: "copper", Weight: 0.25},
				{Item: "silver", Weight: 0.1},
				{Item: "gold", Weight: 0.03},
				{Item: "obsidian", Weight: 0.0075},
				{Item: "emerald", Weight: 0.003},
				{Item: "diamond", Weight: 0.00075},
			}},
			{Depth: 40, Dirt: "gravel", Spawns: []Spawn{
				{Item: "", Weight: 1.5},
				{Item: "worm", Weight: 0.4},
				{Item: "gummy_worm", Weight: 0.3},
				{Item: "earthworm", Weight: 0.15},
				{Item: "hook_worm", Weight: 0.05},
				{Item: "poly_worm", Weight: 0.02},
				{Item: "ancient_relic", Weight: 0.0004},
				{Item: "iron", Weight: 0.5},
				{Item: "copper", Weight: 0.3},
				{Item: "silver", Weight: 0.15},
				{Item: "gold", Weight: 0.05},
				{Item: "obsidian", Weight: 0.015},
				{Item: "emerald", Weight: 0.0075},
				{Item: "diamond", Weight: 0.002},
			}},
			{Depth: 60, Dirt: "limestone", Spawns: []Spawn{
				{Item: "", Weight: 1.2},
				{Item: "worm", Weight: 0.3},
				{Item: "gummy_worm", Weight: 0.3},
				{Item: "earthworm", Weight: 0.25},
				{Item: "hook_worm", Weight: 0.08},
				{Item: "poly_worm", Weight: 0.04},
				{Item: "ancient_relic", Weight: 0.001},
				{Item: "iron", Weight: 0.5},
				{Item: "copper", Weight: 0.4},
				{Item: "silver", Weight: 0.25},
				{Item: "gold", Weight: 0.15},
				{Item: "obsidian", Weight: 0.03},
				{Item: "emerald", Weight: 0.015},
				{Item: "diamond", Weight: 0.005},
			}},
			{Depth: 80, Dirt: "granite", Spawns: []Spawn{
				{Item: "", Weight: 1.0},
				{Item: "worm", Weight: 0.3},
				{Item: "gummy_worm", Weight: 0.3},
				{Item: "earthworm", Weight: 0.3},
				{Item: "hook_worm", Weight: 0.1},
				{Item: "poly_worm", Weight: 0.06},
				{Item: "ancient_relic", Weight: 0.003},
				{Item: "iron", Weight: 0.5},
				{Item: "copper", Weight: 0.5},
				{Item: "silver", Weight: 0.4},
				{Item: "gold", Weight: 0.3},
				{Item: "obsidian", Weight: 0.1},
				{Item: "emerald", Weight: 0.04},
				{Item: "diamond", Weight: 0.02},
			}},
			{Depth: 100, Dirt: "magma", Spawns: []Spawn{
				{Item: "", Weight: 0.8},
				{Item: "worm", Weight: 0.3},
				{Item: "gummy_worm", Weight: 0.3},
				{Item: "earthworm", Weight: 0.3},
				{Item: "hook_worm", Weight: 0.2},
				{Item: "poly_worm", Weight: 0.1},
				{Item: "ancient_relic", Weight: 0.006},
				{Item: "iron", Weight: 0.5},
				{Item: "copper", Weight: 0.5},
				{Item: "silver", Weight: 0.4},
				{Item: "gold", Weight: 0.4},
				{Item: "obsidian", Weight: 0.4},
				{Item: "emerald", Weight: 0.1},
				{Item: "diamond", Weight: 0.05},
			}},
		},
	}
	return c.finalize()
}
