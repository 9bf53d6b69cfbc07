package dig

import (
	"testing"

	"digsite.gg/internal/sim/tuning"
)

func TestTryAddPartialFill(t *testing.T) {
	b := NewBackpack(10, tuning.OverflowPartial, dirtCatalog(2))
	if added := b.TryAdd("dirt", 7); added != 7 {
		t.Fatalf("added %d, want 7", added)
	}
	// Only 3 units left; a partial policy adds what fits and reports it.
	if added := b.TryAdd("dirt", 5); added != 3 {
		t.Fatalf("added %d, want 3", added)
	}
	if b.Occupied() != 10 {
		t.Fatalf("occupied = %d, want 10", b.Occupied())
	}
	if added := b.TryAdd("dirt", 1); added != 0 {
		t.Fatalf("full backpack accepted %d", added)
	}
}

func TestTryAddRejectPolicy(t *testing.T) {
	b := NewBackpack(10, tuning.OverflowReject, dirtCatalog(2))
	if added := b.TryAdd("dirt", 8); added != 8 {
		t.Fatalf("added %d, want 8", added)
	}
	if added := b.TryAdd("dirt", 5); added != 0 {
		t.Fatalf("reject policy added %d, want 0", added)
	}
	if b.Occupied() != 8 {
		t.Fatalf("occupied = %d, want 8", b.Occupied())
	}
}

func TestTryAddRespectsVolume(t *testing.T) {
	cat := dirtCatalog(2)
	def := cat.Items["iron"]
	def.Volume = 3
	cat.Items["iron"] = def

	b := NewBackpack(7, tuning.OverflowPartial, cat)
	if added := b.TryAdd("iron", 5); added != 2 {
		t.Fatalf("added %d heavy items, want 2 (7/3)", added)
	}
	if b.Occupied() != 6 {
		t.Fatalf("occupied = %d, want 6", b.Occupied())
	}
	if b.Fits("iron") {
		t.Fatalf("one unit left should not fit volume 3")
	}
	if !b.Fits("dirt") {
		t.Fatalf("volume 1 item should still fit")
	}
}

func TestTotalNeverExceedsCapacity(t *testing.T) {
	b := NewBackpack(13, tuning.OverflowPartial, dirtCatalog(2))
	total := 0
	for i := 0; i < 50; i++ {
		total += b.TryAdd("dirt", 2)
	}
	if total != 13 {
		t.Fatalf("total added = %d, want exactly capacity 13", total)
	}
	if b.Occupied() > b.Capacity() {
		t.Fatalf("occupied %d exceeds capacity %d", b.Occupied(), b.Capacity())
	}
}

func TestEntriesStableOrder(t *testing.T) {
	b := NewBackpack(50, tuning.OverflowPartial, dirtCatalog(2))
	b.TryAdd("dirt", 2)
	b.TryAdd("iron", 1)
	b.TryAdd("dirt", 1)

	entries := b.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %v", entries)
	}
	if entries[0].Item != "dirt" || entries[0].Quantity != 3 {
		t.Fatalf("first entry = %+v, want dirt x3", entries[0])
	}
	if entries[1].Item != "iron" || entries[1].Quantity != 1 {
		t.Fatalf("second entry = %+v, want iron x1", entries[1])
	}
}
