package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/manual"
)

type manualApi struct {
	svc *manual.Service
}

func registerManualAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *manual.Service) {
	api := manualApi{svc: svc}

	mg := g.Group("/manuals", jwt)
	mg.GET("", api.query)
	mg.POST("", api.create, adminMiddleware())
}

// Handlers

func (api *manualApi) query(ctx echo.Context) error {
	var filter manual.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []manual.Manual{})
	}
	filter.Search = core.CleanString(filter.Search)
	ordering := new(Ordering)
	ordering.Bind(ctx)

	manuals, err := api.svc.Filter(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying manuals")
	}
	if manuals == nil {
		manuals = []manual.Manual{}
	}
	return ctx.JSON(http.StatusOK, manuals)
}

func (api *manualApi) create(ctx echo.Context) error {
	var data manual.NewManual
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewManual")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	man, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating manual")
	}
	return ctx.JSON(http.StatusCreated, man)
}
