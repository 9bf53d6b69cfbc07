package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session lifecycle.
	ErrSessionActive = "E_SESSION_ACTIVE"
	ErrNoSession     = "E_NO_SESSION"

	// Gameplay rules. These are recoverable results, never session aborts.
	ErrOutOfStamina  = "E_OUT_OF_STAMINA"
	ErrMissingTool   = "E_MISSING_TOOL"
	ErrBackpackFull  = "E_BACKPACK_FULL"
	ErrOnCooldown    = "E_ON_COOLDOWN"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidAction = "E_INVALID_ACTION"

	// Boundary failures.
	ErrCommitFailed = "E_COMMIT_FAILED"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSessionActive:   {},
	ErrNoSession:       {},
	ErrOutOfStamina:    {},
	ErrMissingTool:     {},
	ErrBackpackFull:    {},
	ErrOnCooldown:      {},
	ErrNoResource:      {},
	ErrInvalidAction:   {},
	ErrCommitFailed:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
