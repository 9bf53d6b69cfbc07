// Package manager owns the live dig sessions: one per player, serialized
// per player, reaped when idle, and committed to the store on surfacing.
package manager

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"log"
	"sync"
	"time"

	"digsite.gg/internal/persistence/journal"
	"digsite.gg/internal/persistence/store"
	"digsite.gg/internal/protocol"
	"digsite.gg/internal/sim/catalogs"
	"digsite.gg/internal/sim/dig"
	"digsite.gg/internal/sim/powerup"
	"digsite.gg/internal/sim/tuning"
)

// Profiles is the store surface the manager needs. *store.Store satisfies it.
type Profiles interface {
	EnsureProfile(ctx context.Context, playerID string, def store.Profile) (store.Profile, error)
	ItemCount(ctx context.Context, playerID, itemID string) (int, error)
	ConsumeItem(ctx context.Context, playerID, itemID string, n int) (bool, error)
	PowerupLastUse(ctx context.Context, playerID, kind string) (time.Time, bool, error)
	SetPowerupLastUse(ctx context.Context, playerID, kind string, at time.Time) error
}

// Committer persists a surfacing. *commit.Committer satisfies it.
type Committer interface {
	Commit(ctx context.Context, surf store.Surfacing) error
}

// ActionJournal and SurfaceJournal are optional audit sinks.
type ActionJournal interface {
	WriteAction(journal.ActionEntry) error
}
type SurfaceJournal interface {
	WriteSurface(journal.SurfaceEntry) error
}

type Manager struct {
	logger    *log.Logger
	profiles  Profiles
	committer Committer
	clock     *powerup.Clock
	actions   ActionJournal
	surfaces  SurfaceJournal
	cat       *catalogs.Catalog
	tun       tuning.Tuning

	mu      sync.Mutex
	entries map[string]*entry

	now func() time.Time
}

// entry serializes all access to one player's session. The per-player lock
// is held across store calls on the surface path, which is fine: only that
// player is blocked.
type entry struct {
	mu   sync.Mutex
	sess *dig.Session
}

type Options struct {
	Logger    *log.Logger
	Profiles  Profiles
	Committer Committer
	Clock     *powerup.Clock
	Actions   ActionJournal
	Surfaces  SurfaceJournal
	Catalog   *catalogs.Catalog
	Tuning    tuning.Tuning
}

func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[manager] ", log.LstdFlags|log.Lmicroseconds)
	}
	clock := opts.Clock
	if clock == nil {
		cds := make(map[string]int, len(opts.Tuning.Powerups))
		for kind, p := range opts.Tuning.Powerups {
			cds[kind] = p.CooldownSec
		}
		clock = powerup.NewClock(cds)
	}
	return &Manager{
		logger:    logger,
		profiles:  opts.Profiles,
		committer: opts.Committer,
		clock:     clock,
		actions:   opts.Actions,
		surfaces:  opts.Surfaces,
		cat:       opts.Catalog,
		tun:       opts.Tuning,
		entries:   make(map[string]*entry),
		now:       time.Now,
	}
}

// Session lifecycle sentinels.
var (
	ErrSessionActive = errors.New("session already active")
	ErrNoSession     = errors.New("no active session")
)

// StartSession creates a fresh session from the stored profile. It fails
// with ErrSessionActive while one is live.
func (m *Manager) StartSession(ctx context.Context, playerID string) (protocol.SessionView, protocol.DigParams, error) {
	e := m.entry(playerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil && e.sess.State() == dig.StateActive {
		return protocol.SessionView{}, protocol.DigParams{}, ErrSessionActive
	}
	return m.startLocked(ctx, e, playerID)
}

// StartOrResume returns the player's live session, creating one from the
// stored profile when none exists. A reconnect lands back in the same hole.
func (m *Manager) StartOrResume(ctx context.Context, playerID string) (view protocol.SessionView, params protocol.DigParams, resumed bool, err error) {
	e := m.entry(playerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil && e.sess.State() == dig.StateActive {
		e.sess.LastAction = m.now()
		return e.sess.View(), m.params(e.sess), true, nil
	}
	view, params, err = m.startLocked(ctx, e, playerID)
	return view, params, false, err
}

// startLocked builds a session for e, which must be held by the caller.
func (m *Manager) startLocked(ctx context.Context, e *entry, playerID string) (protocol.SessionView, protocol.DigParams, error) {
	prof, err := m.profiles.EnsureProfile(ctx, playerID, store.Profile{
		ShovelTier: 1,
		Capacity:   m.tun.DefaultCapacity,
	})
	if err != nil {
		return protocol.SessionView{}, protocol.DigParams{}, err
	}
	capacity := prof.Capacity
	if capacity <= 0 {
		capacity = m.tun.DefaultCapacity
	}
	staminaMax := m.tun.StaminaBase + prof.Prestige*m.tun.StaminaPerPrestige
	tool := dig.Tool{ShovelTier: prof.ShovelTier, PickaxeTier: prof.PickaxeTier}

	for kind := range m.tun.Powerups {
		last, found, perr := m.profiles.PowerupLastUse(ctx, playerID, kind)
		if perr != nil {
			return protocol.SessionView{}, protocol.DigParams{}, perr
		}
		if found {
			m.clock.Prime(playerID, kind, last)
		}
	}

	sess := dig.NewSession(playerID, randomSeed(), tool, staminaMax, capacity, m.cat, m.tun)
	sess.StartedAt = m.now()
	sess.LastAction = sess.StartedAt
	e.sess = sess
	m.logger.Printf("session start player=%s stamina=%d capacity=%d", playerID, staminaMax, capacity)
	return sess.View(), m.params(sess), nil
}

// View renders the live session without mutating it. ErrNoSession when the
// player is not underground.
func (m *Manager) View(playerID string) (protocol.SessionView, error) {
	e := m.entry(playerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.sess.State() != dig.StateActive {
		return protocol.SessionView{}, ErrNoSession
	}
	return e.sess.View(), nil
}

func (m *Manager) params(s *dig.Session) protocol.DigParams {
	return protocol.DigParams{
		GridWidth:  m.tun.GridWidth,
		StaminaMax: s.StaminaMax(),
		Capacity:   s.Backpack().Capacity(),
	}
}

// Do dispatches one ACT against the player's session and renders the RESULT.
func (m *Manager) Do(ctx context.Context, playerID string, act protocol.ActMsg) protocol.ResultMsg {
	e := m.entry(playerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	res := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Ref:             act.ID,
	}
	sess := e.sess
	if sess == nil || sess.State() != dig.StateActive {
		res.Code = protocol.ErrNoSession
		res.Message = "no active dig session"
		return res
	}
	sess.LastAction = m.now()

	var out dig.Outcome
	var remainingMs int64
	switch act.Action {
	case protocol.ActionNavigate:
		out = sess.Navigate(act.Direction)
	case protocol.ActionDig:
		out = sess.Act()
	case protocol.ActionUsePowerup:
		out, remainingMs = m.usePowerup(ctx, sess, act.Powerup)
	case protocol.ActionSurface:
		return m.surface(ctx, e, res)
	default:
		out = dig.Outcome{Code: protocol.ErrProtoBadRequest, Message: "unknown action"}
	}

	m.journalAction(sess, act, out)

	res.OK = out.OK()
	res.Code = out.Code
	res.Message = out.Message
	res.RemainingMs = remainingMs
	v := sess.View()
	res.View = &v
	if out.Cleared > 0 {
		res.Loot = &protocol.LootSummary{
			Items: out.Loot,
			Coins: out.Coins,
			Depth: sess.Depth(),
		}
	}
	return res
}

// usePowerup gates a power-up behind its cooldown and, for consumables, the
// player's stored stock. A gate rejection costs nothing.
func (m *Manager) usePowerup(ctx context.Context, sess *dig.Session, kind string) (dig.Outcome, int64) {
	p, known := m.tun.Powerups[kind]
	if !known {
		return dig.Outcome{Code: protocol.ErrInvalidAction, Message: "unknown power-up"}, 0
	}
	if sess.Stamina() <= 0 {
		return dig.Outcome{Code: protocol.ErrOutOfStamina, Message: "stamina exhausted"}, 0
	}
	if p.Consumable {
		n, err := m.profiles.ItemCount(ctx, sess.PlayerID, kind)
		if err != nil {
			m.logger.Printf("powerup stock check player=%s kind=%s err=%v", sess.PlayerID, kind, err)
			return dig.Outcome{Code: protocol.ErrInternal, Message: "inventory unavailable"}, 0
		}
		if n < 1 {
			return dig.Outcome{Code: protocol.ErrNoResource, Message: "none left in storage"}, 0
		}
	}
	if rem, ok := m.clock.TryUse(sess.PlayerID, kind); !ok {
		return dig.Outcome{Code: protocol.ErrOnCooldown, Message: "power-up recharging"}, rem.Milliseconds()
	}
	if p.Consumable {
		ok, err := m.profiles.ConsumeItem(ctx, sess.PlayerID, kind, 1)
		if err != nil || !ok {
			m.logger.Printf("powerup consume player=%s kind=%s ok=%v err=%v", sess.PlayerID, kind, ok, err)
			return dig.Outcome{Code: protocol.ErrNoResource, Message: "none left in storage"}, 0
		}
	}
	if err := m.profiles.SetPowerupLastUse(ctx, sess.PlayerID, kind, m.now()); err != nil {
		m.logger.Printf("powerup last-use persist player=%s kind=%s err=%v", sess.PlayerID, kind, err)
	}
	return sess.UsePowerup(p), 0
}

// surface commits the session's loot. The session stays alive on a failed
// commit so the player can retry without losing anything.
func (m *Manager) surface(ctx context.Context, e *entry, res protocol.ResultMsg) protocol.ResultMsg {
	sess := e.sess
	snap := sess.Snapshot()
	surf := store.Surfacing{
		PlayerID:     snap.PlayerID,
		Items:        snap.Items,
		Coins:        int(snap.Coins),
		DeepestDepth: snap.DeepestDepth,
		StaminaSpent: snap.StaminaSpent,
	}
	if err := m.committer.Commit(ctx, surf); err != nil {
		m.logger.Printf("surface commit player=%s err=%v", sess.PlayerID, err)
		m.journalSurface(snap, "surface", false)
		res.Code = protocol.ErrCommitFailed
		res.Message = "could not bank the loot, try again"
		v := sess.View()
		res.View = &v
		return res
	}

	sess.MarkSurfaced()
	e.sess = nil
	m.journalSurface(snap, "surface", true)
	m.logger.Printf("surface player=%s coins=%d depth=%dm", snap.PlayerID, snap.Coins, snap.DeepestDepth)

	res.OK = true
	res.Loot = &protocol.LootSummary{
		Items:    entriesFromItems(snap.Items),
		Coins:    snap.Coins,
		Depth:    snap.DeepestDepth,
		Duration: m.now().Sub(snap.StartedAt).Milliseconds(),
	}
	return res
}

// Run sweeps idle sessions until ctx is canceled.
func (m *Manager) Run(ctx context.Context) {
	every := time.Duration(m.tun.ReapEverySec) * time.Second
	if every <= 0 {
		every = 30 * time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.reapIdle(ctx)
		}
	}
}

func (m *Manager) reapIdle(ctx context.Context) {
	cutoff := m.now().Add(-time.Duration(m.tun.ReapAfterSec) * time.Second)

	m.mu.Lock()
	var stale []*entry
	for _, e := range m.entries {
		stale = append(stale, e)
	}
	m.mu.Unlock()

	for _, e := range stale {
		e.mu.Lock()
		sess := e.sess
		if sess == nil || sess.State() != dig.StateActive || sess.LastAction.After(cutoff) {
			e.mu.Unlock()
			continue
		}
		snap := sess.Snapshot()
		committed := false
		if m.tun.ReapCommits {
			surf := store.Surfacing{
				PlayerID:     snap.PlayerID,
				Items:        snap.Items,
				Coins:        int(snap.Coins),
				DeepestDepth: snap.DeepestDepth,
				StaminaSpent: snap.StaminaSpent,
			}
			if err := m.committer.Commit(ctx, surf); err != nil {
				// Leave the session for the next sweep rather than drop loot.
				m.logger.Printf("reap commit player=%s err=%v", snap.PlayerID, err)
				e.mu.Unlock()
				continue
			}
			committed = true
		}
		sess.MarkSurfaced()
		e.sess = nil
		e.mu.Unlock()
		m.journalSurface(snap, "reaped", committed)
		m.logger.Printf("reaped idle session player=%s committed=%v", snap.PlayerID, committed)
	}
}

func (m *Manager) entry(playerID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[playerID]
	if !ok {
		e = &entry{}
		m.entries[playerID] = e
	}
	return e
}

func (m *Manager) journalAction(sess *dig.Session, act protocol.ActMsg, out dig.Outcome) {
	if m.actions == nil {
		return
	}
	err := m.actions.WriteAction(journal.ActionEntry{
		At:       journal.Now(),
		PlayerID: sess.PlayerID,
		Action:   act.Action,
		Dir:      act.Direction,
		Powerup:  act.Powerup,
		OK:       out.OK(),
		Code:     out.Code,
		Depth:    sess.Depth(),
		Stamina:  sess.Stamina(),
	})
	if err != nil {
		m.logger.Printf("action journal: %v", err)
	}
}

func (m *Manager) journalSurface(snap dig.Snapshot, reason string, committed bool) {
	if m.surfaces == nil {
		return
	}
	err := m.surfaces.WriteSurface(journal.SurfaceEntry{
		At:           journal.Now(),
		PlayerID:     snap.PlayerID,
		Reason:       reason,
		Committed:    committed,
		Items:        snap.Items,
		Coins:        int(snap.Coins),
		DeepestDepth: snap.DeepestDepth,
		StaminaSpent: snap.StaminaSpent,
	})
	if err != nil {
		m.logger.Printf("surface journal: %v", err)
	}
}

func entriesFromItems(items map[string]int) []protocol.BackpackEntry {
	if len(items) == 0 {
		return nil
	}
	out := make([]protocol.BackpackEntry, 0, len(items))
	for id, n := range items {
		out = append(out, protocol.BackpackEntry{Item: id, Quantity: n})
	}
	return out
}

func randomSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
