package webhook

import (
	"fmt"
	"time"
)

/* StatusKind represents the variant of a webhook's delivery status.
 * Exactly one variant is active at a time; Retrying and Unavailable carry
 * a "since" timestamp used by the Retry Controller's failure horizon.
 */
type StatusKind int

const (
	Enabled StatusKind = iota + 1
	Disabled
	Retrying
	Unavailable
)

// String returns the string representation of the status kind.
func (k StatusKind) String() string {
	switch k {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	case Retrying:
		return "retrying"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// NewStatusKind creates a StatusKind from a string.
func NewStatusKind(str string) StatusKind {
	switch str {
	case "enabled":
		return Enabled
	case "disabled":
		return Disabled
	case "retrying":
		return Retrying
	case "unavailable":
		return Unavailable
	default:
		return Disabled
	}
}

// Status is a webhook's current delivery state. Since is the zero time for
// Enabled and Disabled, and the transition time for Retrying/Unavailable.
type Status struct {
	Kind  StatusKind
	Since time.Time
}

// NewEnabled returns the Enabled status.
func NewEnabled() Status { return Status{Kind: Enabled} }

// NewDisabled returns the Disabled status.
func NewDisabled() Status { return Status{Kind: Disabled} }

// NewRetrying returns the Retrying status with the given transition time.
func NewRetrying(since time.Time) Status { return Status{Kind: Retrying, Since: since} }

// NewUnavailable returns the Unavailable status with the given transition time.
func NewUnavailable(since time.Time) Status { return Status{Kind: Unavailable, Since: since} }

// String renders the status for logs and persistence.
func (s Status) String() string {
	if s.Since.IsZero() {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", s.Kind.String(), s.Since.Format(time.RFC3339Nano))
}

// Validate checks that the status carries a known kind.
func (s Status) Validate() error {
	if s.Kind < Enabled || s.Kind > Unavailable {
		return fmt.Errorf("invalid webhook status kind: %d", s.Kind)
	}
	return nil
}

// IsEnabled reports whether events may be dispatched for this webhook.
func (s Status) IsEnabled() bool {
	return s.Kind == Enabled
}
