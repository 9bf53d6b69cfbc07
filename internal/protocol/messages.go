package protocol

// Action types carried by ACT.
const (
	ActionNavigate   = "NAVIGATE"
	ActionDig        = "DIG"
	ActionUsePowerup = "USE_POWERUP"
	ActionSurface    = "SURFACE"
)

// Navigation directions.
const (
	DirLeft  = "LEFT"
	DirRight = "RIGHT"
	DirUp    = "UP"
	DirDown  = "DOWN"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	PlayerID        string      `json:"player_id"`
	Resumed         bool        `json:"resumed,omitempty"`
	Params          DigParams   `json:"params"`
	View            SessionView `json:"view"`
}

type DigParams struct {
	GridWidth  int `json:"grid_width"`
	StaminaMax int `json:"stamina_max"`
	Capacity   int `json:"capacity"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Action          string `json:"action"`
	Direction       string `json:"direction,omitempty"`
	Powerup         string `json:"powerup,omitempty"`
}

// RESULT (server -> client): outcome of one ACT.
type ResultMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Ref             string       `json:"ref,omitempty"`
	OK              bool         `json:"ok"`
	Code            string       `json:"code,omitempty"`
	Message         string       `json:"message,omitempty"`
	View            *SessionView `json:"view,omitempty"`
	Loot            *LootSummary `json:"loot,omitempty"`
	RemainingMs     int64        `json:"remaining_ms,omitempty"`
}

// SessionView is the per-action snapshot sent back to the client.
type SessionView struct {
	Depth      int             `json:"depth"`
	MaxDepth   int             `json:"max_depth"`
	CursorX    int             `json:"cursor_x"`
	Stamina    int             `json:"stamina"`
	StaminaMax int             `json:"stamina_max"`
	Occupied   int             `json:"occupied"`
	Capacity   int             `json:"capacity"`
	Coins      int64           `json:"coins"`
	Backpack   []BackpackEntry `json:"backpack,omitempty"`
	Target     *CellView       `json:"target,omitempty"`
}

type BackpackEntry struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

type CellView struct {
	X       int     `json:"x"`
	Depth   int     `json:"depth"`
	Kind    string  `json:"kind"`
	Item    string  `json:"item,omitempty"`
	Coins   int64   `json:"coins,omitempty"`
	HP      float64 `json:"hp"`
	MaxHP   float64 `json:"max_hp"`
	Cleared bool    `json:"cleared"`
}

// LootSummary reports what a surface (or cascade) banked.
type LootSummary struct {
	Items    []BackpackEntry `json:"items,omitempty"`
	Coins    int64           `json:"coins,omitempty"`
	Depth    int             `json:"depth"`
	Duration int64           `json:"duration_ms,omitempty"`
}
