package domain

import "time"

// SessionType distinguishes focus intervals from breaks.
type SessionType string

const (
	SessionFocus SessionType = "FOCUS"
	SessionBreak SessionType = "BREAK"
)

// ValidSessionType reports whether t is one of the known session types.
func ValidSessionType(t SessionType) bool {
	return t == SessionFocus || t == SessionBreak
}

// FocusSession records one completed timer interval. Rows are append-only:
// there is no update or delete path.
type FocusSession struct {
	ID        string      `json:"id"`
	Duration  int         `json:"duration"`
	Type      SessionType `json:"type"`
	UserID    string      `json:"userId"`
	CreatedAt time.Time   `json:"createdAt"`
}
