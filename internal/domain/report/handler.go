package report

import (
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
	api.GET("/reports/visit-count", h.VisitCount, auth.RequireAction(rec, auth.ActionCountVisits))
	api.GET("/reports/yearly-trend", h.YearlyTrend, auth.RequireAction(rec, auth.ActionTemporalTrends))
}

// VisitCount reports the number of visits on one date. An unparsable date is
// a 400; a date with no visits is a 200 with count zero.
func (h *Handler) VisitCount(c echo.Context) error {
	count, date, err := h.svc.VisitsOn(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD or YYYY/MM/DD")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":  date,
		"count": count,
	})
}

// YearlyTrend reports visits per calendar year, ascending. No parsable visit
// dates at all is reported as a distinct no-data outcome.
func (h *Handler) YearlyTrend(c echo.Context) error {
	trend := h.svc.YearlyTrend(c.Request().Context())
	if len(trend) == 0 {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"trend":   trend,
			"no_data": true,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"trend": trend,
	})
}
