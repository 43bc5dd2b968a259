package services

import (
	"errors"

	"github.com/diewo77/go-payroll/internal/access"
	"github.com/diewo77/go-payroll/internal/window"
)

// Error taxonomy. Every failure returned by a service wraps one of these
// (or is a data-access error surfaced unchanged).
var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidDate      = window.ErrInvalidDate
	ErrInvalidRate      = errors.New("invalid rate")
	ErrForbidden        = access.ErrDenied
	ErrNotFound         = errors.New("not found")
)

// Kind names the taxonomy entry err belongs to, for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingParameter):
		return "missing_parameter"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidRate):
		return "invalid_rate"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
