package powerup

import (
	"testing"
	"time"
)

func TestTryUseEnforcesCooldown(t *testing.T) {
	c := NewClock(map[string]int{"railgun": 3600})
	now := time.Unix(1000, 0)
	c.SetNow(func() time.Time { return now })

	if rem, ok := c.TryUse("p1", "railgun"); !ok || rem != 0 {
		t.Fatalf("first use: got rem=%v ok=%v", rem, ok)
	}
	if _, ok := c.TryUse("p1", "railgun"); ok {
		t.Fatalf("second immediate use should be on cooldown")
	}

	now = now.Add(30 * time.Minute)
	rem, ok := c.TryUse("p1", "railgun")
	if ok {
		t.Fatalf("use at 30m into a 1h cooldown should fail")
	}
	if rem != 30*time.Minute {
		t.Fatalf("remaining = %v, want 30m", rem)
	}

	now = now.Add(30 * time.Minute)
	if _, ok := c.TryUse("p1", "railgun"); !ok {
		t.Fatalf("use after full cooldown should succeed")
	}
}

func TestRemainingDecreasesWithoutConsuming(t *testing.T) {
	c := NewClock(map[string]int{"railgun": 100})
	now := time.Unix(0, 0)
	c.SetNow(func() time.Time { return now })
	c.TryUse("p1", "railgun")

	prev := c.Remaining("p1", "railgun")
	for i := 0; i < 4; i++ {
		now = now.Add(10 * time.Second)
		rem := c.Remaining("p1", "railgun")
		if rem >= prev {
			t.Fatalf("remaining did not decrease: %v -> %v", prev, rem)
		}
		prev = rem
	}
	now = now.Add(time.Hour)
	if rem := c.Remaining("p1", "railgun"); rem != 0 {
		t.Fatalf("remaining after expiry = %v, want 0", rem)
	}
}

func TestCooldownsAreIndependentPerPlayerAndKind(t *testing.T) {
	c := NewClock(map[string]int{"railgun": 3600, "dynamite": 60})
	now := time.Unix(5000, 0)
	c.SetNow(func() time.Time { return now })

	if _, ok := c.TryUse("p1", "railgun"); !ok {
		t.Fatalf("p1 railgun should fire")
	}
	if _, ok := c.TryUse("p2", "railgun"); !ok {
		t.Fatalf("p2 railgun must not share p1's cooldown")
	}
	if _, ok := c.TryUse("p1", "dynamite"); !ok {
		t.Fatalf("p1 dynamite must not share railgun cooldown")
	}
}

func TestPrimeRestoresPersistedUse(t *testing.T) {
	c := NewClock(map[string]int{"railgun": 3600})
	now := time.Unix(10000, 0)
	c.SetNow(func() time.Time { return now })

	c.Prime("p1", "railgun", now.Add(-10*time.Minute))
	rem, ok := c.TryUse("p1", "railgun")
	if ok {
		t.Fatalf("primed cooldown should still be active")
	}
	if rem != 50*time.Minute {
		t.Fatalf("remaining = %v, want 50m", rem)
	}

	// Priming an older timestamp never rolls an active cooldown back.
	c.Prime("p1", "railgun", now.Add(-2*time.Hour))
	if got := c.Remaining("p1", "railgun"); got != 50*time.Minute {
		t.Fatalf("stale prime changed remaining to %v", got)
	}
}

func TestUnknownKindHasNoCooldown(t *testing.T) {
	c := NewClock(nil)
	if _, ok := c.TryUse("p1", "mystery"); !ok {
		t.Fatalf("kind without configured cooldown should always fire")
	}
	if _, ok := c.TryUse("p1", "mystery"); !ok {
		t.Fatalf("repeat use should also fire")
	}
}
