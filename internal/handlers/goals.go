package handlers

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/beefriend/beefriend-api/internal/auth"
	"github.com/beefriend/beefriend-api/internal/goals"
	"github.com/beefriend/beefriend-api/internal/models"
)

func (h *Handler) GetCatalog(c echo.Context) error {
	return respond(c, http.StatusOK, goals.Catalog(), "")
}

func (h *Handler) GetGoals(c echo.Context) error {
	gs, err := h.goals.GetGoals(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, gs, "")
}

// ReplaceGoals overwrites the caller's whole goal list.
func (h *Handler) ReplaceGoals(c echo.Context) error {
	var in models.GoalsInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	gs, err := h.goals.ReplaceGoals(c.Request().Context(), auth.UserID(c), in.Goals)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, gs, "Goals have been updated")
}

// UpsertGoals merges the submitted goals into the caller's list.
func (h *Handler) UpsertGoals(c echo.Context) error {
	var in models.GoalsInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	gs, err := h.goals.UpsertGoals(c.Request().Context(), auth.UserID(c), in.Goals)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, gs, "Goals have been updated")
}

func (h *Handler) RecomputeProgress(c echo.Context) error {
	gs, err := h.goals.RecomputeProgress(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, gs, "Goal progress has been updated")
}

func (h *Handler) AddTask(c echo.Context) error {
	var in models.TaskInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	g, err := h.goals.AddTask(c.Request().Context(), auth.UserID(c), pathParam(c, "goal"), in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, g, "Task has been added")
}

func (h *Handler) SetTaskCompletion(c echo.Context) error {
	var in models.TaskStatusInput
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}

	g, err := h.goals.SetTaskCompletion(c.Request().Context(), auth.UserID(c), pathParam(c, "goal"), pathParam(c, "task"), in.IsCompleted)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, g, "Task has been updated")
}

func (h *Handler) RemoveTask(c echo.Context) error {
	g, err := h.goals.RemoveTask(c.Request().Context(), auth.UserID(c), pathParam(c, "goal"), pathParam(c, "task"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, g, "Task has been removed")
}

// pathParam returns a decoded route parameter. echo routes on the raw path
// only when the request carries one (e.g. an encoded "/"); otherwise the
// parameter is already decoded.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
