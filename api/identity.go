package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"focusdash/domain"
)

const (
	// HeaderUserID carries the caller-supplied opaque identifier. It is
	// trusted as-is: no verification happens anywhere, which is the
	// documented trust model, not an oversight.
	HeaderUserID = "X-User-ID"

	// DemoUserID is assumed when the header is absent or blank.
	DemoUserID = "demo-user"
)

// userIDFromRequest extracts the caller identity from the request header,
// falling back to the demo identifier.
func userIDFromRequest(c echo.Context) string {
	id := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
	if id == "" {
		return DemoUserID
	}
	return id
}

// resolveUser maps the request to a user row, creating it on first sight.
// Repeat calls with a known identifier are pure reads.
func resolveUser(c echo.Context, store Storage) (domain.User, error) {
	return store.EnsureUser(c.Request().Context(), userIDFromRequest(c))
}
