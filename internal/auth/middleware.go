package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const contextKeyUser = "planner.user"

// Middleware lets requests with a valid session cookie through and stores the
// username on the context. Others are redirected to the login page, or get 401
// on the JSON API.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user, ok := g.sessionUser(c); ok {
				c.Set(contextKeyUser, user)
				return next(c)
			}
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		}
	}
}

func (g *Gate) sessionUser(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(g.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	user, err := g.Verify(cookie.Value)
	if err != nil {
		return "", false
	}
	return user, true
}

// IsAuthenticated reports whether the request carries a valid session.
func (g *Gate) IsAuthenticated(c echo.Context) bool {
	_, ok := g.sessionUser(c)
	return ok
}

// UserFrom returns the username stored by Middleware.
func UserFrom(c echo.Context) string {
	user, _ := c.Get(contextKeyUser).(string)
	return user
}
