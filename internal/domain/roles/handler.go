package roles

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/platform/auth"
	"github.com/juanandresGH21/appmedic-api/pkg/pagination"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/me/permissions", h.Permissions)
	api.GET("/me/caregivers", h.MyCaregivers)
	api.GET("/me/patients", h.MyPatients)
	api.GET("/me/patients/:id/schedules", h.PatientSchedules)
	api.POST("/patients/:id/caregivers", h.AssignCaregiver)
	api.DELETE("/patients/:id/caregivers/:caregiver_id", h.RemoveCaregiver)
}

func (h *Handler) Permissions(c echo.Context) error {
	doc, err := h.registry.Permissions(c.Request().Context(), auth.ActorFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) MyCaregivers(c echo.Context) error {
	out, err := h.registry.MyCaregivers(c.Request().Context(), auth.ActorFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) MyPatients(c echo.Context) error {
	out, err := h.registry.MyPatients(c.Request().Context(), auth.ActorFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) PatientSchedules(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.registry.PatientSchedules(c.Request().Context(),
		auth.ActorFromContext(c.Request().Context()), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type assignRequest struct {
	CaregiverID uuid.UUID `json:"caregiver_id"`
	AssignInput
}

func (h *Handler) AssignCaregiver(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CaregiverID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "caregiver_id is required")
	}
	rel, err := h.registry.AssignCaregiver(c.Request().Context(),
		auth.ActorFromContext(c.Request().Context()), req.CaregiverID, patientID, req.AssignInput)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, rel)
}

func (h *Handler) RemoveCaregiver(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	caregiverID, err := uuid.Parse(c.Param("caregiver_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid caregiver id")
	}
	snap, err := h.registry.RemoveCaregiver(c.Request().Context(),
		auth.ActorFromContext(c.Request().Context()), caregiverID, patientID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, snap)
}
