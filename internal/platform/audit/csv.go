package audit

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var usageColumns = []string{"username", "role", "timestamp", "event", "action"}

// CSVRecorder appends usage events to a flat file, creating it with a header
// row when absent. One recorder owns the file for the lifetime of the
// process; a mutex serializes appends from concurrent requests.
type CSVRecorder struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

func NewCSVRecorder(path string, logger zerolog.Logger) *CSVRecorder {
	return &CSVRecorder{path: path, log: logger}
}

// ensureHeader creates the file with its header if it does not already
// exist. An already-existing file is not an error.
func (r *CSVRecorder) ensureHeader() error {
	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(usageColumns); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Record appends one event row. Failures are logged, never returned.
func (r *CSVRecorder) Record(_ context.Context, username, role, event, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureHeader(); err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("usage log create failed")
		return
	}
	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("usage log open failed")
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{username, role, time.Now().UTC().Format(time.RFC3339), event, action}
	if err := w.Write(row); err != nil {
		r.log.Error().Err(err).Msg("usage log write failed")
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		r.log.Error().Err(err).Msg("usage log flush failed")
	}
}

// Tail returns the newest limit entries, newest first.
func (r *CSVRecorder) Tail(_ context.Context, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return []Entry{}, nil
	}
	records = records[1:] // drop header

	entries := []Entry{}
	for i := len(records) - 1; i >= 0 && len(entries) < limit; i-- {
		rec := records[i]
		if len(rec) < 5 {
			continue
		}
		ts, _ := time.Parse(time.RFC3339, rec[2])
		entries = append(entries, Entry{
			Username:  rec[0],
			Role:      rec[1],
			Timestamp: ts,
			Event:     rec[3],
			Action:    rec[4],
		})
	}
	return entries, nil
}
