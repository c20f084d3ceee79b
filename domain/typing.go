package domain

import (
	"time"

	"github.com/google/uuid"
)

// TypingTimeout is how long a typing signal stays visible after the
// last keystroke. Expiry is evaluated at read time, never by a sweep.
const TypingTimeout = 3000 * time.Millisecond

// TypingIndicator is the ephemeral per-(conversation, user) signal.
// At most one exists per pair; re-arming overwrites LastTypedAt.
type TypingIndicator struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	LastTypedAt    time.Time
}

// Active reports whether the indicator is still visible at the given
// instant. Stale rows are treated as absent.
func (t TypingIndicator) Active(now time.Time) bool {
	return now.Sub(t.LastTypedAt) < TypingTimeout
}
