package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/badge"
	"github.com/fitdeskhq/fitdesk/core/schedule"
)

type badgeApi struct {
	badges    *badge.Aggregator
	scheduler *schedule.Scheduler
}

func registerBadgeAPI(g *echo.Group, jwt echo.MiddlewareFunc, badges *badge.Aggregator, scheduler *schedule.Scheduler) {
	api := badgeApi{badges: badges, scheduler: scheduler}

	bg := g.Group("/badges", jwt)
	bg.GET("", api.retrieve)
	bg.POST("/refresh", api.refresh)
	bg.POST("/read/:domain", api.markRead)

	g.POST("/scheduler/run", api.runScheduler, jwt, adminMiddleware())
}

// Handlers

// retrieve returns the current badge snapshot without touching the store.
func (api *badgeApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.badges.Current())
}

// refresh recomputes all badge counts for the caller and returns the fresh snapshot.
func (api *badgeApi) refresh(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	snap := api.badges.Refresh(ctx.Request().Context(), claims.Subject)
	return ctx.JSON(http.StatusOK, snap)
}

func (api *badgeApi) markRead(ctx echo.Context) error {
	domain := ctx.Param("domain")
	known := false
	for _, d := range badge.AllDomains {
		if domain == d {
			known = true
			break
		}
	}
	if !known {
		return core.NewValidationError(nil, core.FieldError{Field: "domain", Error: "unknown badge domain"})
	}

	api.badges.MarkAsRead(domain)
	return ctx.JSON(http.StatusOK, api.badges.Current())
}

// runScheduler triggers an immediate deadline scan outside the hourly cadence.
func (api *badgeApi) runScheduler(ctx echo.Context) error {
	api.scheduler.RunNow()
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "scan scheduled"})
}
