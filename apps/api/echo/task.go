package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fitdeskhq/fitdesk/core/badge"
	"github.com/fitdeskhq/fitdesk/core/task"
)

type taskApi struct {
	svc    *task.Service
	badges *badge.Aggregator
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *task.Service, badges *badge.Aggregator) {
	api := taskApi{svc: svc, badges: badges}

	tg := g.Group("/tasks", jwt)
	tg.GET("", api.query)
	tg.POST("", api.create, adminMiddleware())
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy, adminMiddleware())
	tg.GET("/:id/comments", api.queryComments)
	tg.POST("/:id/comments", api.createComment)
}

// Handlers

func (api *taskApi) query(ctx echo.Context) error {
	var filter task.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []task.Task{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tasks, err := api.svc.Filter(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tsk, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}

	api.refreshPendingBadge(ctx, claims.Subject)
	return ctx.JSON(http.StatusCreated, tsk)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	tsk, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding task by ID")
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) update(ctx echo.Context) error {
	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	id := ctx.Param("id")
	tsk, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding task by ID")
	}
	// non-admins may only touch tasks assigned to them
	if !claims.IsAdmin && tsk.AssigneeID.String != claims.Subject {
		return errHttpForbidden
	}

	tsk, err = api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}

	api.refreshPendingBadge(ctx, claims.Subject)
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting task")
	}
	if claims, err := getContextClaims(ctx); err == nil {
		api.refreshPendingBadge(ctx, claims.Subject)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) queryComments(ctx echo.Context) error {
	comments, err := api.svc.Comments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying task comments")
	}
	if comments == nil {
		comments = []task.Comment{}
	}
	return ctx.JSON(http.StatusOK, comments)
}

func (api *taskApi) createComment(ctx echo.Context) error {
	var data task.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	data.TaskID = ctx.Param("id")
	if data.AuthorName == "" {
		if claims, err := getContextClaims(ctx); err == nil {
			data.AuthorName = claims.Username
		}
	}
	if err := data.Validate(); err != nil {
		return err
	}

	comment, err := api.svc.AddComment(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "adding task comment")
	}
	return ctx.JSON(http.StatusCreated, comment)
}

// refreshPendingBadge pushes the caller's pending-task count into the badge
// snapshot so the sidebar updates ahead of the next scheduled refresh.
func (api *taskApi) refreshPendingBadge(ctx echo.Context, userID string) {
	n, err := api.svc.CountPendingTasks(ctx.Request().Context(), userID)
	if err != nil {
		return // next refresh will catch up
	}
	api.badges.Update(badge.DomainTasks, n)
}
