package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Rejected world operations.
	ErrBadBlock    = "E_BAD_BLOCK"
	ErrOutOfBounds = "E_OUT_OF_BOUNDS"

	// Negative (non-error) results.
	ErrNoTarget = "E_NO_TARGET"
	ErrAbsent   = "E_ABSENT"

	// Import.
	ErrInvalidFormat = "E_INVALID_FORMAT"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadBlock:        {},
	ErrOutOfBounds:     {},
	ErrNoTarget:        {},
	ErrAbsent:          {},
	ErrInvalidFormat:   {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
