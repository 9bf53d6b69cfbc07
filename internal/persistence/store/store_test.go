package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "players.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEnsureProfileCreatesOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	def := Profile{Prestige: 0, ShovelTier: 1, Capacity: 50}

	p, err := s.EnsureProfile(ctx, "p1", def)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if p.PlayerID != "p1" || p.ShovelTier != 1 || p.Capacity != 50 {
		t.Fatalf("unexpected profile: %+v", p)
	}

	// Defaults must not overwrite an existing row.
	again, err := s.EnsureProfile(ctx, "p1", Profile{ShovelTier: 5, Capacity: 999})
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.ShovelTier != 1 || again.Capacity != 50 {
		t.Fatalf("defaults overwrote existing profile: %+v", again)
	}
}

func TestConsumeItem(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.EnsureProfile(ctx, "p1", Profile{Capacity: 50}); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := s.CreditItems(ctx, "p1", map[string]int{"dynamite": 2}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	for i := 0; i < 2; i++ {
		ok, err := s.ConsumeItem(ctx, "p1", "dynamite", 1)
		if err != nil || !ok {
			t.Fatalf("consume %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := s.ConsumeItem(ctx, "p1", "dynamite", 1)
	if err != nil {
		t.Fatalf("consume empty: %v", err)
	}
	if ok {
		t.Fatalf("consumed from an empty stock")
	}
	if n, _ := s.ItemCount(ctx, "p1", "dynamite"); n != 0 {
		t.Fatalf("qty = %d, want 0", n)
	}
}

func TestCommitSurfaceIsAtomicAndAggregates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.EnsureProfile(ctx, "p1", Profile{Capacity: 50}); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	first := Surfacing{
		PlayerID:     "p1",
		Items:        map[string]int{"iron": 3, "coal": 1},
		Coins:        40,
		DeepestDepth: 12,
		StaminaSpent: 30,
	}
	if err := s.CommitSurface(ctx, first); err != nil {
		t.Fatalf("commit: %v", err)
	}
	second := Surfacing{
		PlayerID:     "p1",
		Items:        map[string]int{"iron": 2},
		Coins:        10,
		DeepestDepth: 8,
		StaminaSpent: 15,
	}
	if err := s.CommitSurface(ctx, second); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if n, _ := s.ItemCount(ctx, "p1", "iron"); n != 5 {
		t.Fatalf("iron = %d, want 5", n)
	}
	p, _ := s.EnsureProfile(ctx, "p1", Profile{})
	if p.Coins != 50 {
		t.Fatalf("coins = %d, want 50", p.Coins)
	}
	if v, _ := s.Stat(ctx, "p1", StatDeepestDepth); v != 12 {
		t.Fatalf("deepest = %d, want max semantics 12", v)
	}
	if v, _ := s.Stat(ctx, "p1", StatDigsSurfaced); v != 2 {
		t.Fatalf("digs = %d, want 2", v)
	}
	if v, _ := s.Stat(ctx, "p1", StatStaminaSpent); v != 45 {
		t.Fatalf("stamina = %d, want 45", v)
	}
	if v, _ := s.Stat(ctx, "p1", StatLifetimeCoins); v != 50 {
		t.Fatalf("lifetime coins = %d, want 50", v)
	}
}

func TestPowerupLastUseRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, found, err := s.PowerupLastUse(ctx, "p1", "railgun"); err != nil || found {
		t.Fatalf("unset use: found=%v err=%v", found, err)
	}
	at := time.Unix(1700000000, 0).UTC()
	if err := s.SetPowerupLastUse(ctx, "p1", "railgun", at); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found, err := s.PowerupLastUse(ctx, "p1", "railgun")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if !got.Equal(at) {
		t.Fatalf("last use = %v, want %v", got, at)
	}
}
