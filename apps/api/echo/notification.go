package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/badge"
	"github.com/fitdeskhq/fitdesk/core/notification"
)

type notificationApi struct {
	svc    *notification.Service
	badges *badge.Aggregator
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notification.Service, badges *badge.Aggregator) {
	api := notificationApi{svc: svc, badges: badges}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("", api.create, adminMiddleware())
	ng.POST("/batch", api.createBatch, adminMiddleware())
	ng.POST("/:id/read", api.markRead)
	ng.DELETE("/:id", api.destroy)
}

// Handlers

// query lists the caller's own notifications, newest first.
func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter notification.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []notification.Notification{})
	}
	filter.RecipientID = claims.Subject

	notifs, err := api.svc.Filter(ctx.Request().Context(), filter, core.DBOrdering{Field: "created_at"})
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) create(ctx echo.Context) error {
	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}

	notif, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, notif)
}

// createBatch fans a list of notifications out, best-effort: an invalid item
// is skipped server-side and its siblings are still delivered.
func (api *notificationApi) createBatch(ctx echo.Context) error {
	var batch []notification.NewNotification
	if err := ctx.Bind(&batch); err != nil {
		return errors.Wrap(err, "binding to NewNotification list")
	}

	api.svc.CreateBatch(ctx.Request().Context(), batch)
	return ctx.NoContent(http.StatusAccepted)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		if errors.Cause(err) == notification.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking notification read")
	}

	api.badges.MarkAsRead(badge.DomainNotifications)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		if errors.Cause(err) == notification.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}
