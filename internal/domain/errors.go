package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrFeedUnavailable = errors.New("feed unavailable")
	ErrInvalidOdds     = errors.New("invalid odds value")
	ErrInvalidQuote    = errors.New("invalid quote")
)

// NormalizationError reports a single payload that could not be mapped to a
// canonical market. It is recovered at the item level; the batch continues.
type NormalizationError struct {
	Venue  string
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s: %s", e.Venue, e.Field, e.Reason)
}
