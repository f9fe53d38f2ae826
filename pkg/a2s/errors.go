package a2s

import "errors"

// The protocol surfaces three failure categories: the caller supplied an
// address that cannot be resolved (ErrInvalidAddress), the network
// exchange itself failed (wrapped I/O errors, ErrMalformedChallenge), or
// the server sent bytes the decoders cannot consume (ErrShortResponse,
// ErrStringTooLong). Callers that only care about presence can treat any
// non-nil error as "no data"; callers that want to diagnose can use
// errors.Is against the sentinels below.
var (
	ErrInvalidAddress     = errors.New("invalid server address")
	ErrMalformedChallenge = errors.New("malformed challenge response")
	ErrShortResponse      = errors.New("response too short")
	ErrStringTooLong      = errors.New("string terminator not found within scan bound")
	ErrNoPlayers          = errors.New("server reported no players")
)
