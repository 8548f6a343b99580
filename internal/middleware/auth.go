package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dsbaciga/captains-log/internal/tokens"
)

const payloadKey = "authPayload"

type RequireAuth struct {
	Codec *tokens.Codec
}

func NewRequireAuth(codec *tokens.Codec) *RequireAuth {
	return &RequireAuth{Codec: codec}
}

// Middleware verifies the access token from the Authorization header or
// the accessToken cookie and stashes its payload in the echo context.
func (m *RequireAuth) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			if cookie, err := c.Cookie("accessToken"); err == nil {
				raw = cookie.Value
			}
		}
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		payload, err := m.Codec.VerifyAccess(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(payloadKey, payload)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// Payload returns the verified token payload set by Middleware.
func Payload(c echo.Context) (*tokens.Payload, bool) {
	p, ok := c.Get(payloadKey).(*tokens.Payload)
	return p, ok
}

func UserID(c echo.Context) (uint, bool) {
	p, ok := Payload(c)
	if !ok {
		return 0, false
	}
	return p.UserID, true
}
