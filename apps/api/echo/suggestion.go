package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/suggestion"
)

type suggestionApi struct {
	svc *suggestion.Service
}

func registerSuggestionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *suggestion.Service) {
	api := suggestionApi{svc: svc}

	sg := g.Group("/suggestions", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.PUT("/:id/status", api.setStatus, adminMiddleware())
}

// Handlers

func (api *suggestionApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter suggestion.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []suggestion.Suggestion{})
	}
	// non-admins only see their own suggestions
	if !claims.IsAdmin {
		filter.AuthorID = claims.Subject
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	suggestions, err := api.svc.Filter(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying suggestions")
	}
	if suggestions == nil {
		suggestions = []suggestion.Suggestion{}
	}
	return ctx.JSON(http.StatusOK, suggestions)
}

func (api *suggestionApi) create(ctx echo.Context) error {
	var data suggestion.NewSuggestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSuggestion")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sugg, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating suggestion")
	}
	return ctx.JSON(http.StatusCreated, sugg)
}

func (api *suggestionApi) setStatus(ctx echo.Context) error {
	var data struct {
		Status string `json:"status"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding status")
	}

	valid := false
	for _, status := range suggestion.AllStatuses {
		if data.Status == status {
			valid = true
			break
		}
	}
	if !valid {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "invalid status"})
	}

	if err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status); err != nil {
		if errors.Cause(err) == suggestion.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting suggestion status")
	}
	return ctx.NoContent(http.StatusNoContent)
}
