package middleware

import (
	"net/http"

	"taxdesk/internal/access"
	"taxdesk/internal/common"
	"taxdesk/internal/session"

	"github.com/labstack/echo/v4"
)

// GateMiddleware maps access gate decisions onto HTTP. The per-request
// session state is reconstructed from the context principal: anything the
// token middleware admitted is authenticated, everything else is anonymous.
type GateMiddleware struct {
	gate *access.Gate
}

func NewGateMiddleware(gate *access.Gate) *GateMiddleware {
	return &GateMiddleware{gate: gate}
}

func (m *GateMiddleware) Require(req access.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			st := session.Anonymous()
			if id, ok := common.PrincipalIDFromContext(ctx); ok {
				email, _ := common.PrincipalEmailFromContext(ctx)
				st = session.Authenticated(&session.Principal{ID: id, Email: email})
			}

			decision := m.gate.Authorize(ctx, req, st, c.Request().URL.RequestURI())
			switch decision.Kind {
			case access.DecisionAllow:
				return next(c)
			case access.DecisionWait:
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Session not ready")
			case access.DecisionRedirect:
				return c.Redirect(http.StatusFound, decision.Target)
			default:
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
		}
	}
}
