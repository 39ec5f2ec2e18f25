package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/patientdb/patientdb/internal/platform/audit"
)

// memRecorder captures usage events for assertions.
type memRecorder struct {
	entries []audit.Entry
}

func (m *memRecorder) Record(_ context.Context, username, role, event, action string) {
	m.entries = append(m.entries, audit.Entry{
		Username: username, Role: role, Event: event, Action: action,
	})
}

func (m *memRecorder) Tail(_ context.Context, limit int) ([]audit.Entry, error) {
	return m.entries, nil
}

func TestCanExecute(t *testing.T) {
	cases := []struct {
		role   string
		action string
		want   bool
	}{
		{RoleAdmin, ActionCountVisits, true},
		{RoleAdmin, ActionAddPatient, false},
		{RoleAdmin, ActionTemporalTrends, false},
		{RoleManagement, ActionTemporalTrends, true},
		{RoleManagement, ActionCountVisits, false},
		{RoleClinician, ActionAddPatient, true},
		{RoleClinician, ActionViewNote, true},
		{RoleClinician, ActionTemporalTrends, false},
		{RoleNurse, ActionRemovePatient, true},
		{RoleNurse, ActionTemporalTrends, false},
		{"Clinician", ActionAddPatient, true}, // role check is case-insensitive
		{"intruder", ActionViewNote, false},
		{"", ActionViewNote, false},
	}
	for _, tc := range cases {
		if got := CanExecute(tc.role, tc.action); got != tc.want {
			t.Errorf("CanExecute(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestActionsFor(t *testing.T) {
	if got := ActionsFor(RoleClinician); len(got) != 5 {
		t.Errorf("clinician should have 5 actions, got %v", got)
	}
	if got := ActionsFor("intruder"); len(got) != 0 {
		t.Errorf("unknown role should have no actions, got %v", got)
	}

	// Callers must not be able to mutate the permission table.
	actions := ActionsFor(RoleAdmin)
	if len(actions) > 0 {
		actions[0] = "tampered"
	}
	if got := ActionsFor(RoleAdmin); len(got) != 1 || got[0] != ActionCountVisits {
		t.Errorf("permission table mutated: %v", got)
	}
}

func requireActionCall(t *testing.T, role, action string, rec audit.Recorder) (int, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), "tester", role))
	res := httptest.NewRecorder()
	c := e.NewContext(req, res)

	handler := RequireAction(rec, action)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	if err == nil {
		return res.Code, nil
	}
	return 0, err
}

func TestRequireAction(t *testing.T) {
	rec := &memRecorder{}

	code, err := requireActionCall(t, RoleClinician, ActionViewNote, rec)
	if err != nil || code != http.StatusOK {
		t.Fatalf("permitted action blocked: code=%d err=%v", code, err)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("expected 1 usage entry, got %d", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Username != "tester" || e.Role != RoleClinician || e.Event != audit.EventAction || e.Action != ActionViewNote {
		t.Errorf("unexpected usage entry %+v", e)
	}
}

func TestRequireAction_Forbidden(t *testing.T) {
	rec := &memRecorder{}

	_, err := requireActionCall(t, RoleAdmin, ActionAddPatient, rec)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if len(rec.entries) != 0 {
		t.Errorf("forbidden attempts must not reach the usage log, got %v", rec.entries)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	call := func(role string, guard echo.MiddlewareFunc) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), "tester", role))
		res := httptest.NewRecorder()
		c := e.NewContext(req, res)
		return guard(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	}

	guard := RequireRole(RoleAdmin, RoleManagement)
	if err := call(RoleAdmin, guard); err != nil {
		t.Errorf("admin should pass: %v", err)
	}
	if err := call(RoleManagement, guard); err != nil {
		t.Errorf("management should pass: %v", err)
	}
	err := call(RoleNurse, guard)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusForbidden {
		t.Errorf("nurse should be forbidden, got %v", err)
	}
}
