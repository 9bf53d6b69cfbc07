// Package store persists player profiles, inventories, and dig statistics
// in a local sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Profile is the persistent side of a player. Session state is not stored
// here; only what survives between digs.
type Profile struct {
	PlayerID    string
	Prestige    int
	ShovelTier  int
	PickaxeTier int
	Capacity    int
	Coins       int64
}

// Surfacing is the atomic result of a finished dig session. Either every
// field lands in the database or none of it does.
type Surfacing struct {
	PlayerID     string
	Items        map[string]int
	Coins        int
	DeepestDepth int
	StaminaSpent int
}

// Well-known statistic keys.
const (
	StatDeepestDepth  = "deepest_depth"
	StatLifetimeCoins = "lifetime_coins"
	StatDigsSurfaced  = "digs_surfaced"
	StatStaminaSpent  = "stamina_spent"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			prestige INTEGER NOT NULL DEFAULT 0,
			shovel_tier INTEGER NOT NULL DEFAULT 0,
			pickaxe_tier INTEGER NOT NULL DEFAULT 0,
			capacity INTEGER NOT NULL,
			coins INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS inventory (
			player_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			qty INTEGER NOT NULL,
			PRIMARY KEY (player_id, item_id)
		);`,
		`CREATE TABLE IF NOT EXISTS stats (
			player_id TEXT NOT NULL,
			stat TEXT NOT NULL,
			value INTEGER NOT NULL,
			PRIMARY KEY (player_id, stat)
		);`,
		`CREATE TABLE IF NOT EXISTS powerup_uses (
			player_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			last_use_unix INTEGER NOT NULL,
			PRIMARY KEY (player_id, kind)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureProfile returns the player's profile, creating it from def on the
// first sighting of this player.
func (s *Store) EnsureProfile(ctx context.Context, playerID string, def Profile) (Profile, error) {
	if playerID == "" {
		return Profile{}, fmt.Errorf("empty player id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO players(player_id,prestige,shovel_tier,pickaxe_tier,capacity,coins,created_at)
		 VALUES(?,?,?,?,?,?,?)`,
		playerID, def.Prestige, def.ShovelTier, def.PickaxeTier, def.Capacity, def.Coins,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Profile{}, err
	}

	p := Profile{PlayerID: playerID}
	row := s.db.QueryRowContext(ctx,
		`SELECT prestige, shovel_tier, pickaxe_tier, capacity, coins FROM players WHERE player_id = ?`,
		playerID)
	if err := row.Scan(&p.Prestige, &p.ShovelTier, &p.PickaxeTier, &p.Capacity, &p.Coins); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// ItemCount reports how many of an item the player holds.
func (s *Store) ItemCount(ctx context.Context, playerID, itemID string) (int, error) {
	var qty int
	row := s.db.QueryRowContext(ctx,
		`SELECT qty FROM inventory WHERE player_id = ? AND item_id = ?`, playerID, itemID)
	if err := row.Scan(&qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return qty, nil
}

// ConsumeItem decrements the player's stock by n. It reports false without
// changing anything when the player holds fewer than n.
func (s *Store) ConsumeItem(ctx context.Context, playerID, itemID string, n int) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("consume %d of %q", n, itemID)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var qty int
	row := tx.QueryRowContext(ctx,
		`SELECT qty FROM inventory WHERE player_id = ? AND item_id = ?`, playerID, itemID)
	if err := row.Scan(&qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if qty < n {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE inventory SET qty = qty - ? WHERE player_id = ? AND item_id = ?`,
		n, playerID, itemID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// CreditItems adds items to the player's inventory.
func (s *Store) CreditItems(ctx context.Context, playerID string, items map[string]int) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := creditItemsTx(ctx, tx, playerID, items); err != nil {
		return err
	}
	return tx.Commit()
}

func creditItemsTx(ctx context.Context, tx *sql.Tx, playerID string, items map[string]int) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inventory(player_id,item_id,qty) VALUES(?,?,?)
		 ON CONFLICT(player_id,item_id) DO UPDATE SET qty = qty + excluded.qty`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for id, n := range items {
		if n <= 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, playerID, id, n); err != nil {
			return err
		}
	}
	return nil
}

// CreditCoins adds to the player's balance.
func (s *Store) CreditCoins(ctx context.Context, playerID string, coins int) error {
	if coins <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE players SET coins = coins + ? WHERE player_id = ?`, coins, playerID)
	return err
}

// RecordStatMax keeps the larger of the stored and offered values.
func (s *Store) RecordStatMax(ctx context.Context, playerID, stat string, value int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stats(player_id,stat,value) VALUES(?,?,?)
		 ON CONFLICT(player_id,stat) DO UPDATE SET value = MAX(value, excluded.value)`,
		playerID, stat, value)
	return err
}

// AddStat increments a counter statistic.
func (s *Store) AddStat(ctx context.Context, playerID, stat string, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stats(player_id,stat,value) VALUES(?,?,?)
		 ON CONFLICT(player_id,stat) DO UPDATE SET value = value + excluded.value`,
		playerID, stat, delta)
	return err
}

// Stat reads a statistic, zero when unset.
func (s *Store) Stat(ctx context.Context, playerID, stat string) (int, error) {
	var v int
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM stats WHERE player_id = ? AND stat = ?`, playerID, stat)
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

// PowerupLastUse returns the persisted last-use time for a powerup kind.
func (s *Store) PowerupLastUse(ctx context.Context, playerID, kind string) (time.Time, bool, error) {
	var unix int64
	row := s.db.QueryRowContext(ctx,
		`SELECT last_use_unix FROM powerup_uses WHERE player_id = ? AND kind = ?`, playerID, kind)
	if err := row.Scan(&unix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

// SetPowerupLastUse records when a powerup fired.
func (s *Store) SetPowerupLastUse(ctx context.Context, playerID, kind string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO powerup_uses(player_id,kind,last_use_unix) VALUES(?,?,?)`,
		playerID, kind, at.Unix())
	return err
}

// CommitSurface applies a finished dig in a single transaction: loot into
// the inventory, coins onto the balance, statistics updated. A failure
// leaves the database untouched so the caller can retry.
func (s *Store) CommitSurface(ctx context.Context, surf Surfacing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := creditItemsTx(ctx, tx, surf.PlayerID, surf.Items); err != nil {
		return err
	}
	if surf.Coins > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE players SET coins = coins + ? WHERE player_id = ?`,
			surf.Coins, surf.PlayerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stats(player_id,stat,value) VALUES(?,?,?)
			 ON CONFLICT(player_id,stat) DO UPDATE SET value = value + excluded.value`,
			surf.PlayerID, StatLifetimeCoins, surf.Coins); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stats(player_id,stat,value) VALUES(?,?,?)
		 ON CONFLICT(player_id,stat) DO UPDATE SET value = MAX(value, excluded.value)`,
		surf.PlayerID, StatDeepestDepth, surf.DeepestDepth); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stats(player_id,stat,value) VALUES(?,?,1)
		 ON CONFLICT(player_id,stat) DO UPDATE SET value = value + 1`,
		surf.PlayerID, StatDigsSurfaced,
	); err != nil {
		return err
	}
	if surf.StaminaSpent > 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stats(player_id,stat,value) VALUES(?,?,?)
			 ON CONFLICT(player_id,stat) DO UPDATE SET value = value + excluded.value`,
			surf.PlayerID, StatStaminaSpent, surf.StaminaSpent); err != nil {
			return err
		}
	}
	return tx.Commit()
}
