package patient

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/patientdb/patientdb/internal/platform/metrics"
)

// ErrValidation wraps intake validation failures so the HTTP layer can map
// them to a 400.
var ErrValidation = errors.New("invalid visit data")

// Service owns the store plus everything needed to persist it: file paths,
// the save-time column order, and a logger. Every mutating operation rewrites
// both flat files before returning.
type Service struct {
	store     *Store
	dataFile  string
	notesFile string
	columns   []string
	log       zerolog.Logger
}

func NewService(store *Store, dataFile, notesFile string, columns []string, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		dataFile:  dataFile,
		notesFile: notesFile,
		columns:   columns,
		log:       logger,
	}
}

// Store exposes the underlying store for query-only callers.
func (s *Service) Store() *Store {
	return s.store
}

// AddVisitRequest is the intake form for one clinical visit.
type AddVisitRequest struct {
	VisitDate      string `json:"visit_date"` // YYYY-MM-DD or YYYY/MM/DD
	Department     string `json:"department"`
	Race           string `json:"race"`
	Gender         string `json:"gender"`
	Ethnicity      string `json:"ethnicity"`
	Age            int    `json:"age"`
	ZipCode        string `json:"zip_code"`
	Insurance      string `json:"insurance"`
	ChiefComplaint string `json:"chief_complaint"`
	NoteType       string `json:"note_type"`
	NoteText       string `json:"note_text"`
}

// AddVisitResult reports the generated identifiers.
type AddVisitResult struct {
	PatientID  string `json:"patient_id"`
	VisitID    string `json:"visit_id"`
	NoteID     string `json:"note_id"`
	NewPatient bool   `json:"new_patient"`
}

// newToken returns a random 32-char hex token for visit and note ids.
func newToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// capitalize mirrors the intake normalization: first letter upper, rest
// lower, surrounding space trimmed.
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isZipCode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (r *AddVisitRequest) validate() (visitTime string, err error) {
	visitTime, err = NormalizeDate(r.VisitDate)
	if err != nil {
		return "", fmt.Errorf("%w: visit_date must be YYYY-MM-DD or YYYY/MM/DD", ErrValidation)
	}
	required := map[string]string{
		"department":      r.Department,
		"race":            r.Race,
		"gender":          r.Gender,
		"ethnicity":       r.Ethnicity,
		"insurance":       r.Insurance,
		"chief_complaint": r.ChiefComplaint,
		"note_type":       r.NoteType,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%w: %s is required", ErrValidation, name)
		}
	}
	if r.Age < 0 {
		return "", fmt.Errorf("%w: age must not be negative", ErrValidation)
	}
	if !isZipCode(strings.TrimSpace(r.ZipCode)) {
		return "", fmt.Errorf("%w: zip_code must be 5 digits", ErrValidation)
	}
	return visitTime, nil
}

// AddPatientVisit records one visit (and its intake note) for the patient,
// creating the patient record on first contact, then rewrites both files.
func (s *Service) AddPatientVisit(ctx context.Context, patientID string, req AddVisitRequest) (*AddVisitResult, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	visitTime, err := req.validate()
	if err != nil {
		return nil, err
	}

	_, existed := s.store.Get(patientID)
	visitID := newToken()
	noteID := newToken()

	fields := map[string]string{
		ColVisitTime:       visitTime,
		"Visit_department": capitalize(req.Department),
		"Race":             capitalize(req.Race),
		"Gender":           capitalize(req.Gender),
		"Ethnicity":        capitalize(req.Ethnicity),
		"Age":              strconv.Itoa(req.Age),
		"Zip_code":         strings.TrimSpace(req.ZipCode),
		"Insurance":        capitalize(req.Insurance),
		"Chief_complaint":  capitalize(req.ChiefComplaint),
		ColNoteID:          noteID,
		ColNoteType:        capitalize(req.NoteType),
	}
	note := &Note{NoteID: noteID, Text: strings.TrimSpace(req.NoteText)}
	s.store.AddVisit(patientID, visitID, fields, note)

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("patient_id", patientID).
		Str("visit_id", visitID).
		Bool("new_patient", !existed).
		Msg("visit recorded")
	return &AddVisitResult{
		PatientID:  patientID,
		VisitID:    visitID,
		NoteID:     noteID,
		NewPatient: !existed,
	}, nil
}

// RemovePatient deletes the patient and rewrites both files. The bool
// reports whether the patient existed; an unknown id is not an error.
func (s *Service) RemovePatient(ctx context.Context, patientID string) (bool, error) {
	removed := s.store.Remove(patientID)
	if err := s.persist(ctx); err != nil {
		return removed, err
	}
	if removed {
		s.log.Info().Str("patient_id", patientID).Msg("patient removed")
	}
	return removed, nil
}

// persist rewrites both flat files. Best-effort: a failure mid-write leaves a
// truncated file, so the error is surfaced but the in-memory state stands.
func (s *Service) persist(_ context.Context) error {
	if err := s.store.SaveVisits(s.dataFile, s.columns); err != nil {
		metrics.SaveFailures.WithLabelValues("data").Inc()
		s.log.Error().Err(err).Msg("visit data rewrite failed")
		return err
	}
	if err := s.store.SaveNotes(s.notesFile); err != nil {
		metrics.SaveFailures.WithLabelValues("notes").Inc()
		s.log.Error().Err(err).Msg("visit notes rewrite failed")
		return err
	}
	return nil
}
