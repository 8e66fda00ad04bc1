package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxIdentity extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: both the identity id
// and the role must be present (presence proves the middleware ran).
func ctxIdentity(c echo.Context) (identityID, role string, err error) {
	identityID, _ = c.Get("identity_id").(string)
	role, _ = c.Get("role").(string)
	if identityID == "" || role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identityID, role, nil
}
