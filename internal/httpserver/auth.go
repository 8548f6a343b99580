package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dsbaciga/captains-log/internal/logging"
	"github.com/dsbaciga/captains-log/internal/middleware"
	"github.com/dsbaciga/captains-log/internal/service"
)

type AuthHTTP struct {
	Svc        *service.AuthService
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (h *AuthHTTP) setTokenCookies(c echo.Context, access, refresh string) {
	now := time.Now()
	c.SetCookie(createCookie("accessToken", access, "/", now.Add(h.AccessTTL)))
	c.SetCookie(createCookie("refreshToken", refresh, "/", now.Add(h.RefreshTTL)))
}

// httpStatus maps the service failure classes onto response codes.
// Anything unclassified is a 500 with no internal detail attached.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func httpError(err error) *echo.HTTPError {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		return echo.NewHTTPError(code, "internal server error")
	}
	return echo.NewHTTPError(code, err.Error())
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Username string `json:"username" validate:"required,min=3,max=30,username"`
		Email    string `json:"email"    validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=128,password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validateRequest(&req); err != nil {
		return err
	}

	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return httpError(err)
	}

	h.setTokenCookies(c, res.AccessToken, res.RefreshToken)
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"    validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=128"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validateRequest(&req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return httpError(err)
	}

	h.setTokenCookies(c, res.AccessToken, res.RefreshToken)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	raw := ""
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		raw = req.RefreshToken
	} else if cookie, err := c.Cookie("refreshToken"); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidRefreshToken.Error())
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return httpError(err)
	}

	h.setTokenCookies(c, res.AccessToken, res.RefreshToken)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	user, err := h.Svc.CurrentUser(ctx, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// LogOut clears the token cookies. There is no server-side session
// state to revoke; issued tokens stay valid until natural expiry.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	c.SetCookie(deleteCookie("accessToken", "/"))
	c.SetCookie(deleteCookie("refreshToken", "/"))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
