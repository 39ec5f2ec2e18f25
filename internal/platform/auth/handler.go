package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdb/patientdb/internal/platform/audit"
	"github.com/patientdb/patientdb/internal/platform/metrics"
)

// Handler serves the login endpoint.
type Handler struct {
	creds  *CredentialsManager
	secret []byte
	ttl    time.Duration
	rec    audit.Recorder
}

func NewHandler(creds *CredentialsManager, secret []byte, ttl time.Duration, rec audit.Recorder) *Handler {
	return &Handler{creds: creds, secret: secret, ttl: ttl, rec: rec}
}

// RegisterRoutes mounts the unauthenticated login route.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/login", h.Login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string   `json:"token"`
	Role    string   `json:"role"`
	Actions []string `json:"actions"`
}

// Login authenticates against the credential table and issues a session
// token. Unknown user and wrong password produce the same response.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	role, ok := h.creds.Authenticate(req.Username, req.Password)
	if !ok {
		h.rec.Record(ctx, req.Username, "", audit.EventLoginFailed, "")
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := IssueToken(h.secret, req.Username, role, h.ttl)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "token signing failed")
	}

	h.rec.Record(ctx, req.Username, role, audit.EventLoginSuccess, "")
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token:   token,
		Role:    role,
		Actions: ActionsFor(role),
	})
}
