package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/patientdb/patientdb/internal/domain/patient"
)

func TestHandler_VisitCount(t *testing.T) {
	h := NewHandler(NewService(seedStore()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?date=2023-03-01", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.VisitCount(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Date != "03/01/2023" || resp.Count != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHandler_VisitCount_BadDate(t *testing.T) {
	h := NewHandler(NewService(seedStore()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?date=yesterday", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.VisitCount(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_YearlyTrend(t *testing.T) {
	h := NewHandler(NewService(seedStore()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.YearlyTrend(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Trend  []patient.YearCount `json:"trend"`
		NoData bool                `json:"no_data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.NoData {
		t.Error("seeded store must not report no_data")
	}
	if len(resp.Trend) != 2 || resp.Trend[0].Year != 2023 || resp.Trend[1].Year != 2024 {
		t.Errorf("expected ascending years, got %v", resp.Trend)
	}
}

func TestHandler_YearlyTrend_NoData(t *testing.T) {
	h := NewHandler(NewService(patient.NewStore()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.YearlyTrend(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		NoData bool `json:"no_data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.NoData {
		t.Error("empty store must report no_data")
	}
}
