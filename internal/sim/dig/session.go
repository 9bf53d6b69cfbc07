package dig

import (
	"time"

	"digsite.gg/internal/protocol"
	"digsite.gg/internal/sim/catalogs"
	"digsite.gg/internal/sim/grid"
	"digsite.gg/internal/sim/tuning"
)

type State int

const (
	StateActive State = iota
	StateSurfaced
)

// Outcome is the result of one interaction with the session. Gameplay-rule
// violations come back as codes, never as errors: the session survives them.
type Outcome struct {
	Code    string
	Message string

	Moved   bool
	Damage  float64
	Cleared int
	Loot    []protocol.BackpackEntry
	Coins   int64
	Partial bool
}

func (o Outcome) OK() bool { return o.Code == "" }

func fail(code, message string) Outcome {
	return Outcome{Code: code, Message: message}
}

// Session is one player's in-progress dig. It is single-writer: the owner
// (the session manager) must serialize all calls.
type Session struct {
	PlayerID   string
	StartedAt  time.Time
	LastAction time.Time

	gen  *grid.Generator
	res  DamageResolver
	pack *Backpack
	tool Tool

	stamina    int
	staminaMax int

	cursorX  int
	depth    int // -1 means standing on the surface
	maxDepth int
	facing   string

	coins     int64
	state     State
	stepLimit int
}

func NewSession(playerID string, seed int64, tool Tool, staminaMax, capacity int, cat *catalogs.Catalog, tun tuning.Tuning) *Session {
	gen := grid.New(seed, cat, grid.Config{
		Width:           tun.GridWidth,
		CoinMinPerDepth: tun.CoinMinPerDepth,
		CoinMaxPerDepth: tun.CoinMaxPerDepth,
		RowSpawnWeights: tun.RowSpawnWeights,
	})
	return &Session{
		PlayerID:   playerID,
		gen:        gen,
		res:        NewDamageResolver(cat, tun.BareHandsStrength),
		pack:       NewBackpack(capacity, tun.BackpackOverflow, cat),
		tool:       tool,
		stamina:    staminaMax,
		staminaMax: staminaMax,
		cursorX:    tun.GridWidth / 2,
		depth:      -1,
		maxDepth:   -1,
		facing:     protocol.DirDown,
		stepLimit:  tun.CascadeStepLimit,
	}
}

func (s *Session) State() State        { return s.state }
func (s *Session) Stamina() int        { return s.stamina }
func (s *Session) StaminaMax() int     { return s.staminaMax }
func (s *Session) Depth() int          { return s.depth }
func (s *Session) CursorX() int        { return s.cursorX }
func (s *Session) Coins() int64        { return s.coins }
func (s *Session) Seed() int64         { return s.gen.Seed() }
func (s *Session) Backpack() *Backpack { return s.pack }
func (s *Session) Tool() Tool          { return s.tool }

// Navigate moves the cursor among revealed coordinates, or turns it to face
// an adjacent solid block. Navigation never costs stamina.
func (s *Session) Navigate(dir string) Outcome {
	if s.state != StateActive {
		return fail(protocol.ErrInvalidAction, "session already surfaced")
	}
	switch dir {
	case protocol.DirUp:
		if s.depth < 0 {
			return fail(protocol.ErrInvalidAction, "already at the surface")
		}
		if above := s.gen.CellAt(s.cursorX, s.depth-1); above != nil && !above.Cleared {
			return fail(protocol.ErrInvalidAction, "blocked above")
		}
		s.depth--
		return Outcome{Moved: true}

	case protocol.DirLeft, protocol.DirRight:
		nx := s.cursorX - 1
		if dir == protocol.DirRight {
			nx = s.cursorX + 1
		}
		if nx < 0 || nx >= s.gen.Width() {
			return fail(protocol.ErrInvalidAction, "edge of the dig site")
		}
		s.facing = dir
		if s.depth < 0 {
			// Walking along the surface.
			s.cursorX = nx
			s.facing = protocol.DirDown
			return Outcome{Moved: true}
		}
		if cell := s.gen.CellAt(nx, s.depth); cell.Cleared {
			s.cursorX = nx
			return Outcome{Moved: true}
		}
		return Outcome{} // now facing the solid block

	case protocol.DirDown:
		s.facing = protocol.DirDown
		if cell := s.gen.CellAt(s.cursorX, s.depth+1); cell.Cleared {
			s.descend()
			return Outcome{Moved: true}
		}
		return Outcome{}

	default:
		return fail(protocol.ErrProtoBadRequest, "unknown direction")
	}
}

// Act swings the equipped tool at the faced block. A valid attempt costs
// exactly 1 stamina whether or not the block clears; rejected attempts
// (no stamina, missing tool, full backpack, nothing faced) cost nothing.
func (s *Session) Act() Outcome {
	if s.state != StateActive {
		return fail(protocol.ErrInvalidAction, "session already surfaced")
	}
	if s.stamina <= 0 {
		return fail(protocol.ErrOutOfStamina, "stamina exhausted")
	}
	cell := s.target()
	if cell == nil || cell.Cleared {
		return fail(protocol.ErrInvalidAction, "nothing to dig here")
	}
	if !s.res.Usable(s.tool, cell.Kind) {
		return fail(protocol.ErrMissingTool, "a pickaxe is required to mine ore")
	}
	if cell.Item != "" && !s.pack.Fits(cell.Item) {
		return fail(protocol.ErrBackpackFull, "backpack is too full")
	}

	out := Outcome{}
	dmg := s.res.Damage(s.tool, cell.Kind)
	if dmg > cell.HP {
		dmg = cell.HP
	}
	cell.HP -= dmg
	out.Damage = dmg
	s.stamina--

	if cell.HP <= 0 && cell.Clear() {
		s.collect(cell, &out)
		if s.facing == protocol.DirDown {
			s.fallThrough()
		}
	}
	return out
}

// UsePowerup amplifies one dig action with the power-up's cascade. Cooldown
// and consumable gating happen upstream; the triggering action still costs
// 1 stamina.
func (s *Session) UsePowerup(p tuning.Powerup) Outcome {
	if s.state != StateActive {
		return fail(protocol.ErrInvalidAction, "session already surfaced")
	}
	if s.stamina <= 0 {
		return fail(protocol.ErrOutOfStamina, "stamina exhausted")
	}
	out := s.cascadeDown(p.Budget, p.DirtOnly)
	s.stamina--
	s.fallThrough()
	return out
}

// MarkSurfaced transitions the session to its terminal state. Called only
// after the surface commit is confirmed.
func (s *Session) MarkSurfaced() { s.state = StateSurfaced }

// target returns the cell the cursor currently faces, nil when facing open
// air (e.g. sideways on the surface).
func (s *Session) target() *grid.Cell {
	switch s.facing {
	case protocol.DirLeft:
		return s.gen.CellAt(s.cursorX-1, s.depth)
	case protocol.DirRight:
		return s.gen.CellAt(s.cursorX+1, s.depth)
	default:
		return s.gen.CellAt(s.cursorX, s.depth+1)
	}
}

func (s *Session) descend() {
	s.depth++
	if s.depth > s.maxDepth {
		s.maxDepth = s.depth
	}
}

// fallThrough drops the cursor through every cleared cell directly beneath it.
func (s *Session) fallThrough() {
	for {
		below := s.gen.CellAt(s.cursorX, s.depth+1)
		if below == nil || !below.Cleared {
			return
		}
		s.descend()
	}
}

// collect banks a cleared cell's yield into the outcome and the backpack.
func (s *Session) collect(cell *grid.Cell, out *Outcome) {
	out.Cleared++
	if cell.Coins > 0 {
		s.coins += cell.Coins
		out.Coins += cell.Coins
	}
	if cell.Item == "" {
		return
	}
	added := s.pack.TryAdd(cell.Item, 1)
	if added < 1 {
		out.Partial = true
		if out.Code == "" {
			out.Code = protocol.ErrBackpackFull
			out.Message = "backpack full, loot left behind"
		}
		return
	}
	out.Loot = append(out.Loot, protocol.BackpackEntry{Item: cell.Item, Quantity: added})
}

// View renders the per-action client snapshot.
func (s *Session) View() protocol.SessionView {
	v := protocol.SessionView{
		Depth:      s.depth,
		MaxDepth:   s.maxDepth,
		CursorX:    s.cursorX,
		Stamina:    s.stamina,
		StaminaMax: s.staminaMax,
		Occupied:   s.pack.Occupied(),
		Capacity:   s.pack.Capacity(),
		Coins:      s.coins,
		Backpack:   s.pack.Entries(),
	}
	if cell := s.target(); cell != nil {
		v.Target = &protocol.CellView{
			X:       cell.X,
			Depth:   cell.Depth,
			Kind:    cell.Kind,
			Item:    cell.Item,
			Coins:   cell.Coins,
			HP:      cell.HP,
			MaxHP:   cell.MaxHP,
			Cleared: cell.Cleared,
		}
	}
	return v
}

// Snapshot captures everything the surface commit persists.
type Snapshot struct {
	PlayerID     string
	Items        map[string]int
	Coins        int64
	DeepestDepth int // meters below the surface
	StaminaSpent int
	StartedAt    time.Time
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		PlayerID:     s.PlayerID,
		Items:        s.pack.Items(),
		Coins:        s.coins,
		DeepestDepth: s.maxDepth + 1,
		StaminaSpent: s.staminaMax - s.stamina,
		StartedAt:    s.StartedAt,
	}
}
