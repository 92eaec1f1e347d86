package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrIPBanned is returned when the site reports the client address as
	// blocked. The session is closed and cannot be reused; retrying would
	// violate the site's access policy.
	ErrIPBanned = errors.New("ip banned by site")

	// ErrDriverNotFound is returned by New when the configured executable
	// path does not exist.
	ErrDriverNotFound = errors.New("driver executable not found")

	// ErrRestartsExhausted is returned when rate limiting persists past
	// Options.MaxRestarts.
	ErrRestartsExhausted = errors.New("rate limited after maximum restarts")

	// ErrSessionClosed is returned for operations on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrURLNotAllowed is returned when a URL's host matches none of
	// Options.AllowedHosts.
	ErrURLNotAllowed = errors.New("url not allowed")

	// ErrInvalidOptions is wrapped by option validation failures.
	ErrInvalidOptions = errors.New("invalid session options")
)

func errInvalidOption(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptions, msg)
}
