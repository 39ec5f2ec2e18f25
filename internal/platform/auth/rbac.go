package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/patientdb/patientdb/internal/platform/audit"
	"github.com/patientdb/patientdb/internal/platform/metrics"
)

// Roles known to the credential table.
const (
	RoleAdmin      = "admin"
	RoleManagement = "management"
	RoleClinician  = "clinician"
	RoleNurse      = "nurse"
)

// Actions a role may invoke.
const (
	ActionAddPatient      = "add_patient"
	ActionRemovePatient   = "remove_patient"
	ActionRetrievePatient = "retrieve_patient"
	ActionCountVisits     = "count_visits"
	ActionViewNote        = "view_note"
	ActionTemporalTrends  = "show_temporal_trends"
)

// rolePermissions is a fixed role-to-action table. Nurse and clinician carry
// identical permissions.
var rolePermissions = map[string][]string{
	RoleAdmin:      {ActionCountVisits},
	RoleManagement: {ActionTemporalTrends},
	RoleClinician: {
		ActionAddPatient, ActionRemovePatient, ActionRetrievePatient,
		ActionCountVisits, ActionViewNote,
	},
	RoleNurse: {
		ActionAddPatient, ActionRemovePatient, ActionRetrievePatient,
		ActionCountVisits, ActionViewNote,
	},
}

// ActionsFor returns the permitted action set for a role. Unknown roles get
// nothing.
func ActionsFor(role string) []string {
	perms := rolePermissions[strings.ToLower(role)]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// CanExecute reports whether the role may invoke the action.
func CanExecute(role, action string) bool {
	for _, a := range rolePermissions[strings.ToLower(role)] {
		if a == action {
			return true
		}
	}
	return false
}

// RequireAction returns middleware that checks the authenticated role against
// the permission table and records the attempt in the usage log once the
// check passes.
func RequireAction(rec audit.Recorder, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			role := RoleFromContext(ctx)
			if !CanExecute(role, action) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("role %q may not %s", role, action))
			}
			rec.Record(ctx, UserFromContext(ctx), role, audit.EventAction, action)
			metrics.StoreOps.WithLabelValues(action).Inc()
			return next(c)
		}
	}
}

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			has := RoleFromContext(c.Request().Context())
			for _, required := range roles {
				if strings.EqualFold(has, required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
