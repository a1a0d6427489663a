package schedule

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/juanandresGH21/appmedic-api/internal/apperr"
	"github.com/juanandresGH21/appmedic-api/internal/platform/auth"
	"github.com/juanandresGH21/appmedic-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/schedules", h.Create)
	api.GET("/schedules/:id", h.Get)
	api.PATCH("/schedules/:id", h.Update)
	api.DELETE("/schedules/:id", h.Delete)
	api.GET("/patients/:id/schedules", h.ListByPatient)

	api.POST("/schedules/:id/intakes", h.AddIntake)
	api.GET("/schedules/:id/intakes", h.ListIntakes)
	api.PATCH("/intakes/:id", h.MarkIntake)
}

type createRequest struct {
	PatientID    uuid.UUID  `json:"patient_id"`
	MedicationID uuid.UUID  `json:"medication_id"`
	StartDate    string     `json:"start_date"`
	EndDate      *string    `json:"end_date"`
	Pattern      string     `json:"pattern"`
	DoseAmount   string     `json:"dose_amount"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	var end *time.Time
	if req.EndDate != nil {
		e, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
		end = &e
	}

	in := CreateInput{
		PatientID:    req.PatientID,
		MedicationID: req.MedicationID,
		StartDate:    start,
		EndDate:      end,
		Pattern:      req.Pattern,
		DoseAmount:   req.DoseAmount,
	}
	if actor := auth.ActorFromContext(c.Request().Context()); actor != uuid.Nil {
		in.CreatorID = &actor
	}

	sched, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, sched)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.Get(c.Request().Context(), id, auth.ActorFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var fields map[string]interface{}
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sched, err := h.svc.Update(c.Request().Context(), id, auth.ActorFromContext(c.Request().Context()), fields)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, sched)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	snap, err := h.svc.Delete(c.Request().Context(), id, auth.ActorFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID,
		auth.ActorFromContext(c.Request().Context()), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type addIntakeRequest struct {
	PlannedAt time.Time `json:"planned_at"`
}

func (h *Handler) AddIntake(c echo.Context) error {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addIntakeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PlannedAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "planned_at is required")
	}
	in, err := h.svc.AddIntake(c.Request().Context(), scheduleID,
		auth.ActorFromContext(c.Request().Context()), req.PlannedAt)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, in)
}

type markIntakeRequest struct {
	Status IntakeStatus `json:"status"`
}

func (h *Handler) MarkIntake(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req markIntakeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in, err := h.svc.MarkIntake(c.Request().Context(), id,
		auth.ActorFromContext(c.Request().Context()), req.Status)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, in)
}

func (h *Handler) ListIntakes(c echo.Context) error {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListIntakes(c.Request().Context(), scheduleID,
		auth.ActorFromContext(c.Request().Context()), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
