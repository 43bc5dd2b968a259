package access

import "errors"

var (
	// ErrUnauthenticated is returned when no user is attached to the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrDenied is returned when the user's profile lacks the permission.
	ErrDenied = errors.New("access denied")
)
