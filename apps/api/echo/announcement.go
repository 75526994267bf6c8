package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core/announcement"
	"github.com/fitdeskhq/fitdesk/core/badge"
)

type announcementApi struct {
	svc    *announcement.Service
	badges *badge.Aggregator
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *announcement.Service, badges *badge.Aggregator) {
	api := announcementApi{svc: svc, badges: badges}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, adminMiddleware())
	ag.POST("/:id/read", api.markRead)
}

// Handlers

func (api *announcementApi) query(ctx echo.Context) error {
	var filter announcement.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []announcement.Announcement{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	anns, err := api.svc.Filter(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ann, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		if errors.Cause(err) == announcement.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking announcement read")
	}

	api.badges.MarkAsRead(badge.DomainAnnouncements)
	return ctx.NoContent(http.StatusNoContent)
}
