package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/maoni/core/session"
)

type dashboardApi struct {
	resolver *session.Resolver
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, resolver *session.Resolver) {
	api := dashboardApi{resolver: resolver}
	g.GET("/dashboard", api.dispatch, jwt)
}

type DashboardResponse struct {
	Dashboard string `json:"dashboard"`
}

// dispatch resolves the caller's role and returns the landing view selector.
// A missing or unrecognized role is a terminal "invalid" display, not a 403;
// the caller renders it instead of a dashboard.
func (api *dashboardApi) dispatch(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	role, err := api.resolver.ResolveRole(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return ctx.JSON(http.StatusOK, DashboardResponse{Dashboard: session.DashboardInvalid.String()})
	}
	return ctx.JSON(http.StatusOK, DashboardResponse{Dashboard: session.RouteByRole(role).String()})
}
