package dig

import (
	"testing"

	"digsite.gg/internal/sim/catalogs"
)

func TestDamageTable(t *testing.T) {
	r := NewDamageResolver(catalogs.Default(), 1)

	cases := []struct {
		tool Tool
		kind string
		want float64
	}{
		{Tool{}, catalogs.KindDirt, 1},               // bare hands
		{Tool{ShovelTier: 1}, catalogs.KindDirt, 2},  // basic shovel
		{Tool{ShovelTier: 5}, catalogs.KindDirt, 10}, // plasma shovel
		{Tool{ShovelTier: 3}, catalogs.KindWorm, 5},  // worms dig like dirt
		{Tool{ShovelTier: 3}, catalogs.KindMisc, 5},
		{Tool{}, catalogs.KindOre, 0}, // no pickaxe, no damage
		{Tool{PickaxeTier: 1}, catalogs.KindOre, 1},
		{Tool{PickaxeTier: 3}, catalogs.KindOre, 5},
		{Tool{ShovelTier: 5}, catalogs.KindOre, 0}, // shovels never mine ore
		{Tool{ShovelTier: 1}, catalogs.KindEmpty, 0},
	}
	for _, tc := range cases {
		if got := r.Damage(tc.tool, tc.kind); got != tc.want {
			t.Fatalf("Damage(%+v, %s) = %v, want %v", tc.tool, tc.kind, got, tc.want)
		}
	}
}

func TestUsable(t *testing.T) {
	r := NewDamageResolver(catalogs.Default(), 1)
	if r.Usable(Tool{}, catalogs.KindOre) {
		t.Fatalf("ore should need a pickaxe")
	}
	if !r.Usable(Tool{PickaxeTier: 1}, catalogs.KindOre) {
		t.Fatalf("pickaxe should unlock ore")
	}
	if !r.Usable(Tool{}, catalogs.KindDirt) {
		t.Fatalf("dirt is always diggable")
	}
}
