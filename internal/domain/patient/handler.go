package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/patientdb/patientdb/internal/platform/audit"
	"github.com/patientdb/patientdb/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, rec audit.Recorder) {
	api.GET("/patients", h.ListPatients, auth.RequireAction(rec, auth.ActionRetrievePatient))
	api.POST("/patients/:id/visits", h.AddVisit, auth.RequireAction(rec, auth.ActionAddPatient))
	api.DELETE("/patients/:id", h.RemovePatient, auth.RequireAction(rec, auth.ActionRemovePatient))
	api.GET("/patients/:id/fields/:field", h.FieldValues, auth.RequireAction(rec, auth.ActionRetrievePatient))
	api.GET("/patients/:id/notes", h.NotesOn, auth.RequireAction(rec, auth.ActionViewNote))
}

func (h *Handler) ListPatients(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_ids": h.svc.Store().PatientIDs(),
	})
}

func (h *Handler) AddVisit(c echo.Context) error {
	var req AddVisitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.AddPatientVisit(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) RemovePatient(c echo.Context) error {
	removed, err := h.svc.RemovePatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// FieldValues returns every value of one field across a patient's visits and
// notes. An unknown patient is 404; a known patient with no matching field is
// 200 with an empty list.
func (h *Handler) FieldValues(c echo.Context) error {
	values, ok := h.svc.Store().FieldValues(c.Param("id"), c.Param("field"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": c.Param("id"),
		"field":      c.Param("field"),
		"values":     values,
	})
}

func (h *Handler) NotesOn(c echo.Context) error {
	date, err := NormalizeDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD or YYYY/MM/DD")
	}
	views, ok, err := h.svc.Store().NotesOn(c.Param("id"), date)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": c.Param("id"),
		"date":       date,
		"notes":      views,
	})
}
