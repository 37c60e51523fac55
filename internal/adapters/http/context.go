package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmate/core/internal/ports"
)

const (
	userKey     = "user"
	identityKey = "identity"
)

// SetIdentity stores the verified caller on the request context
func SetIdentity(c echo.Context, identity *ports.Identity) {
	c.Set(userKey, identity.ID)
	c.Set(identityKey, identity)
}

// getUserIDFromContext returns the caller's identity ID, which is also the
// owner ID of every task they create
func getUserIDFromContext(c echo.Context) (string, error) {
	userID, ok := c.Get(userKey).(string)
	if !ok || userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return userID, nil
}

func getIdentityFromContext(c echo.Context) (*ports.Identity, error) {
	identity, ok := c.Get(identityKey).(*ports.Identity)
	if !ok || identity == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return identity, nil
}
