package dig

import (
	"digsite.gg/internal/protocol"
	"digsite.gg/internal/sim/catalogs"
	"digsite.gg/internal/sim/tuning"
)

// Backpack is the session-scoped loot container. Capacity is measured in
// storage units (items occupy their catalog volume) and is fixed for the
// whole session.
type Backpack struct {
	capacity int
	policy   string
	cat      *catalogs.Catalog

	entries  map[string]int
	order    []string
	occupied int
}

func NewBackpack(capacity int, policy string, cat *catalogs.Catalog) *Backpack {
	return &Backpack{
		capacity: capacity,
		policy:   policy,
		cat:      cat,
		entries:  map[string]int{},
	}
}

func (b *Backpack) Capacity() int { return b.capacity }
func (b *Backpack) Occupied() int { return b.occupied }

func (b *Backpack) volume(item string) int {
	if def, ok := b.cat.Item(item); ok {
		return def.Volume
	}
	return 1
}

// Fits reports whether one unit of item would fit right now.
func (b *Backpack) Fits(item string) bool {
	return b.occupied+b.volume(item) <= b.capacity
}

// TryAdd stores up to qty units of item and returns how many were added.
// Under the reject policy nothing is added unless the full quantity fits;
// under the partial policy whole units are added while space remains. A
// short count is the caller's BackpackFull signal, never a silent drop.
func (b *Backpack) TryAdd(item string, qty int) int {
	if qty <= 0 {
		return 0
	}
	vol := b.volume(item)
	fit := (b.capacity - b.occupied) / vol
	if fit <= 0 {
		return 0
	}
	add := qty
	if add > fit {
		if b.policy == tuning.OverflowReject {
			return 0
		}
		add = fit
	}
	if _, seen := b.entries[item]; !seen {
		b.order = append(b.order, item)
	}
	b.entries[item] += add
	b.occupied += add * vol
	return add
}

// Quantity returns how many units of item are stored.
func (b *Backpack) Quantity(item string) int { return b.entries[item] }

// Entries lists contents in first-added order.
func (b *Backpack) Entries() []protocol.BackpackEntry {
	out := make([]protocol.BackpackEntry, 0, len(b.order))
	for _, item := range b.order {
		if q := b.entries[item]; q > 0 {
			out = append(out, protocol.BackpackEntry{Item: item, Quantity: q})
		}
	}
	return out
}

// Items returns contents as a map for persistence.
func (b *Backpack) Items() map[string]int {
	out := make(map[string]int, len(b.entries))
	for item, q := range b.entries {
		if q > 0 {
			out[item] = q
		}
	}
	return out
}
