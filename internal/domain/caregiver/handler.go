package caregiver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/platform/auth"
)

type Handler struct {
	manager    *Manager
	authorizer *Authorizer
}

func NewHandler(manager *Manager, authorizer *Authorizer) *Handler {
	return &Handler{manager: manager, authorizer: authorizer}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/relations", h.ListPatientRelations)
}

func (h *Handler) ListPatientRelations(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	actor := auth.ActorFromContext(ctx)

	if _, err := h.manager.ResolvePatient(ctx, patientID); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}

	allowed, err := h.authorizer.CanViewPatientData(ctx, actor, patientID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	if !allowed {
		return echo.NewHTTPError(http.StatusForbidden, "you do not have access to this patient")
	}

	rels, err := h.manager.ListRelations(ctx, patientID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, rels)
}
