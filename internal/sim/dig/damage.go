package dig

import "digsite.gg/internal/sim/catalogs"

// Tool is the session's immutable snapshot of the player's equipment.
// Tier 0 means the tool is absent; digging without a shovel falls back to
// bare hands, mining ore without a pickaxe is impossible.
type Tool struct {
	ShovelTier  int
	PickaxeTier int
}

func (t Tool) HasPickaxe() bool { return t.PickaxeTier > 0 }

// DamageResolver maps (tool, block kind) to HP damage per hit.
type DamageResolver struct {
	cat       *catalogs.Catalog
	bareHands int
}

func NewDamageResolver(cat *catalogs.Catalog, bareHands int) DamageResolver {
	return DamageResolver{cat: cat, bareHands: bareHands}
}

// Usable reports whether the tool snapshot can affect the block kind at all.
func (r DamageResolver) Usable(tool Tool, kind string) bool {
	if kind == catalogs.KindOre {
		return tool.HasPickaxe()
	}
	return true
}

// Damage returns the HP dealt by one hit. Zero when the block cannot be
// affected by the owned tools.
func (r DamageResolver) Damage(tool Tool, kind string) float64 {
	switch kind {
	case catalogs.KindOre:
		return float64(r.cat.PickaxeStrength(tool.PickaxeTier))
	case catalogs.KindDirt, catalogs.KindWorm, catalogs.KindMisc:
		if s := r.cat.ShovelStrength(tool.ShovelTier); s > 0 {
			return float64(s)
		}
		return float64(r.bareHands)
	default:
		return 0
	}
}
