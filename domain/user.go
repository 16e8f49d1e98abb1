package domain

import "time"

// User is created lazily on the first request carrying an unseen
// identifier. The identifier is supplied by the client and treated as an
// opaque capability token. Users are never deleted.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlaceholderName derives a display name for a lazily created user from its
// identifier.
func PlaceholderName(id string) string {
	const max = 8
	short := id
	if len(short) > max {
		short = short[:max]
	}
	return "User " + short
}
