package retention

import "errors"

// Error kinds surfaced by a prune run. All of them are terminal.
var (
	// ErrConfiguration means a required setting is missing or malformed.
	// It is always raised before any remote call.
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthentication means the credential exchange was rejected.
	ErrAuthentication = errors.New("authentication error")

	// ErrRequest covers every other remote call failure.
	ErrRequest = errors.New("request error")
)
