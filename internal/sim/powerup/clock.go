// Package powerup tracks per-player cooldowns for special dig actions.
package powerup

import (
	"sync"
	"time"
)

// Clock records the last time each player fired each powerup kind and
// enforces the configured cooldown. State outlives sessions: a player
// cannot dodge a cooldown by surfacing and starting a new dig.
type Clock struct {
	mu        sync.Mutex
	now       func() time.Time
	cooldowns map[string]time.Duration
	last      map[useKey]time.Time
}

type useKey struct {
	playerID string
	kind     string
}

// NewClock builds a Clock with per-kind cooldowns in seconds.
func NewClock(cooldownSec map[string]int) *Clock {
	cd := make(map[string]time.Duration, len(cooldownSec))
	for kind, sec := range cooldownSec {
		cd[kind] = time.Duration(sec) * time.Second
	}
	return &Clock{
		now:       time.Now,
		cooldowns: cd,
		last:      make(map[useKey]time.Time),
	}
}

// SetNow overrides the time source. Test hook.
func (c *Clock) SetNow(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Prime seeds a persisted last-use timestamp, typically loaded from the
// store when a player first connects after a restart.
func (c *Clock) Prime(playerID, kind string, lastUse time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := useKey{playerID, kind}
	if lastUse.After(c.last[k]) {
		c.last[k] = lastUse
	}
}

// TryUse attempts to fire the powerup. On success it records the use and
// returns ok=true. Otherwise it returns the remaining cooldown.
func (c *Clock) TryUse(playerID, kind string) (remaining time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	k := useKey{playerID, kind}
	cd := c.cooldowns[kind]
	if prev, seen := c.last[k]; seen {
		if rem := cd - now.Sub(prev); rem > 0 {
			return rem, false
		}
	}
	c.last[k] = now
	return 0, true
}

// Remaining reports the cooldown left without consuming a use.
func (c *Clock) Remaining(playerID, kind string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, seen := c.last[useKey{playerID, kind}]
	if !seen {
		return 0
	}
	rem := c.cooldowns[kind] - c.now().Sub(prev)
	if rem < 0 {
		return 0
	}
	return rem
}

// LastUse returns the recorded last-use time for persistence.
func (c *Clock) LastUse(playerID, kind string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.last[useKey{playerID, kind}]
	return t, ok
}
