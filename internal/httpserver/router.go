package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dsbaciga/captains-log/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Auth        *middleware.RequireAuth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/auth")
	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)

	private := api.Group("")
	private.Use(d.Auth.Middleware)
	private.GET("/me", d.AuthHandler.Me)
	private.POST("/logout", d.AuthHandler.LogOut)
}
