package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overflow policies for the backpack ledger.
const (
	OverflowPartial = "partial"
	OverflowReject  = "reject"
)

type Tuning struct {
	GridWidth int `yaml:"grid_width"`

	StaminaBase        int `yaml:"stamina_base"`
	StaminaPerPrestige int `yaml:"stamina_per_prestige"`
	BareHandsStrength  int `yaml:"bare_hands_strength"`

	DefaultCapacity  int    `yaml:"default_capacity"`
	BackpackOverflow string `yaml:"backpack_overflow"`

	// Idle sessions are force-surfaced after this many seconds.
	ReapAfterSec  int  `yaml:"reap_after_sec"`
	ReapEverySec  int  `yaml:"reap_every_sec"`
	ReapCommits   bool `yaml:"reap_commits"`
	CommitRetries int  `yaml:"commit_retries"`

	CascadeStepLimit int `yaml:"cascade_step_limit"`

	// Coin pockets are worth depth * uniform(min,max).
	CoinMinPerDepth int `yaml:"coin_min_per_depth"`
	CoinMaxPerDepth int `yaml:"coin_max_per_depth"`

	// Weighted count of non-dirt spawns per generated row; index = count.
	RowSpawnWeights []float64 `yaml:"row_spawn_weights"`

	Powerups map[string]Powerup `yaml:"powerups"`
}

type Powerup struct {
	CooldownSec int     `yaml:"cooldown_sec"`
	Budget      float64 `yaml:"budget"`
	Consumable  bool    `yaml:"consumable"`
	DirtOnly    bool    `yaml:"dirt_only"`
}

// Power-up kinds carried by the default tables.
const (
	PowerupRailgun  = "railgun"
	PowerupDynamite = "dynamite"
)

func Default() Tuning {
	return Tuning{
		GridWidth:          9,
		StaminaBase:        100,
		StaminaPerPrestige: 20,
		BareHandsStrength:  1,
		DefaultCapacity:    50,
		BackpackOverflow:   OverflowPartial,
		ReapAfterSec:       600,
		ReapEverySec:       30,
		ReapCommits:        true,
		CommitRetries:      4,
		CascadeStepLimit:   64,
		CoinMinPerDepth:    10,
		CoinMaxPerDepth:    20,
		RowSpawnWeights:    []float64{4, 6, 4, 2, 1},
		Powerups: map[string]Powerup{
			PowerupRailgun:  {CooldownSec: 3600, Budget: 30, DirtOnly: true},
			PowerupDynamite: {CooldownSec: 60, Budget: 10, Consumable: true},
		},
	}
}

// Load reads tuning from path, filling unset fields from Default.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.GridWidth < 1 {
		return fmt.Errorf("grid_width must be >= 1, got %d", t.GridWidth)
	}
	if t.StaminaBase < 1 {
		return fmt.Errorf("stamina_base must be >= 1, got %d", t.StaminaBase)
	}
	if t.BackpackOverflow != OverflowPartial && t.BackpackOverflow != OverflowReject {
		return fmt.Errorf("backpack_overflow must be %q or %q, got %q", OverflowPartial, OverflowReject, t.BackpackOverflow)
	}
	if t.CascadeStepLimit < 1 {
		return fmt.Errorf("cascade_step_limit must be >= 1, got %d", t.CascadeStepLimit)
	}
	if t.CoinMaxPerDepth < t.CoinMinPerDepth {
		return fmt.Errorf("coin_max_per_depth < coin_min_per_depth")
	}
	if len(t.RowSpawnWeights) == 0 {
		return fmt.Errorf("row_spawn_weights must not be empty")
	}
	for kind, p := range t.Powerups {
		if p.Budget <= 0 {
			return fmt.Errorf("powerup %s: budget must be > 0", kind)
		}
		if p.CooldownSec < 0 {
			return fmt.Errorf("powerup %s: cooldown_sec must be >= 0", kind)
		}
	}
	return nil
}
