package audit

import (
	"context"
	"time"
)

// Events recorded in the usage log.
const (
	EventLoginSuccess = "login_success"
	EventLoginFailed  = "login_failed"
	EventAction       = "action"
)

// Entry is a single usage-log row.
type Entry struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Action    string    `json:"action,omitempty"`
}

// Recorder persists usage events. Record is append-only and fire-and-forget:
// implementations log failures but never surface them to the caller, so a
// broken usage log cannot block clinical operations.
type Recorder interface {
	Record(ctx context.Context, username, role, event, action string)
	Tail(ctx context.Context, limit int) ([]Entry, error)
}

// Nop discards every event. Used by tests and the verify command.
type Nop struct{}

func (Nop) Record(context.Context, string, string, string, string) {}

func (Nop) Tail(context.Context, int) ([]Entry, error) { return nil, nil }
