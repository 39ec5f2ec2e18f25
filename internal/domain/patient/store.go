package patient

import (
	"sort"
	"sync"
)

// Store is the in-memory authoritative collection of all patients, visits and
// notes for a session. It is populated by LoadVisits/LoadNotes at startup,
// mutated in place, and serialized wholesale after every mutation.
//
// The store owns every record reachable from it: lookups return deep copies,
// and a single RWMutex serializes all operations because the HTTP layer calls
// into the store from concurrent requests.
type Store struct {
	mu       sync.RWMutex
	patients map[string]*PatientRecord
}

func NewStore() *Store {
	return &Store{patients: make(map[string]*PatientRecord)}
}

// ensure returns the record for patientID, creating an empty one on first
// reference.
func (s *Store) ensure(patientID string) *PatientRecord {
	rec, ok := s.patients[patientID]
	if !ok {
		rec = NewPatientRecord(patientID)
		s.patients[patientID] = rec
	}
	return rec
}

// AddVisit merges visit fields (and an optional note) into the given
// patient+visit pair, creating the patient and visit on demand.
func (s *Store) AddVisit(patientID, visitID string, fields map[string]string, note *Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(patientID).AddVisit(visitID, fields, note)
}

// AddNote appends a note to an existing visit of an existing patient. It
// reports false without side effects when either is absent.
func (s *Store) AddNote(patientID, visitID string, note Note) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.patients[patientID]
	if !ok {
		return false
	}
	return rec.AddNote(visitID, note)
}

// Get returns a copy of the patient record, or false if the patient is
// unknown.
func (s *Store) Get(patientID string) (*PatientRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.patients[patientID]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// Remove deletes the patient and everything owned by it. It reports whether
// the patient existed; removing twice reports false the second time.
func (s *Store) Remove(patientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.patients[patientID]
	delete(s.patients, patientID)
	return ok
}

// PatientIDs returns all patient ids, sorted.
func (s *Store) PatientIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.patients))
	for id := range s.patients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FieldValues collects every value stored under the given field name across
// all of a patient's visits and visit notes, in visit-then-note order. The
// second return is false when the patient does not exist; a patient with no
// matching field yields an empty, non-nil slice.
func (s *Store) FieldValues(patientID, field string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.patients[patientID]
	if !ok {
		return nil, false
	}
	values := []string{}
	for _, vr := range rec.Visits {
		if v, ok := vr.Fields[field]; ok {
			values = append(values, v)
		}
		for _, note := range vr.Notes {
			switch field {
			case ColNoteID:
				values = append(values, note.NoteID)
			case ColNoteText:
				values = append(values, note.Text)
			}
		}
	}
	return values, true
}

// CountVisitsOn counts visits whose Visit_time falls on the given M/D/YYYY
// date. An unparsable input date is ErrInvalidDate; stored visits with a
// missing or unparsable Visit_time are skipped, not counted and not fatal.
func (s *Store) CountVisitsOn(date string) (int, error) {
	target, ok := parseVisitTime(date)
	if !ok {
		return 0, ErrInvalidDate
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, rec := range s.patients {
		for _, vr := range rec.Visits {
			vt, ok := parseVisitTime(vr.Fields[ColVisitTime])
			if !ok {
				continue
			}
			if vt.Equal(target) {
				total++
			}
		}
	}
	return total, nil
}

// YearCount is one row of the yearly visit trend.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// YearlyTrend groups all visits by the calendar year of their Visit_time,
// skipping unparsable dates, ascending by year. An empty result means no
// stored visit carried a parsable date.
func (s *Store) YearlyTrend() []YearCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byYear := make(map[int]int)
	for _, rec := range s.patients {
		for _, vr := range rec.Visits {
			vt, ok := parseVisitTime(vr.Fields[ColVisitTime])
			if !ok {
				continue
			}
			byYear[vt.Year()]++
		}
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	trend := make([]YearCount, 0, len(years))
	for _, y := range years {
		trend = append(trend, YearCount{Year: y, Count: byYear[y]})
	}
	return trend
}

// NoteView is one note of a visit on a given date, as shown to clinicians.
type NoteView struct {
	VisitID  string `json:"visit_id"`
	NoteID   string `json:"note_id"`
	NoteType string `json:"note_type"`
	Text     string `json:"note_text"`
}

// NotesOn returns the notes attached to the patient's visits on the given
// M/D/YYYY date. The bool is false when the patient does not exist; the error
// is ErrInvalidDate when the date itself does not parse. Visits with an
// unparsable Visit_time are skipped.
func (s *Store) NotesOn(patientID, date string) ([]NoteView, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.patients[patientID]
	if !ok {
		return nil, false, nil
	}
	target, ok := parseVisitTime(date)
	if !ok {
		return nil, true, ErrInvalidDate
	}
	views := []NoteView{}
	for vid, vr := range rec.Visits {
		vt, ok := parseVisitTime(vr.Fields[ColVisitTime])
		if !ok || !vt.Equal(target) {
			continue
		}
		noteType := vr.Fields[ColNoteType]
		for _, note := range vr.Notes {
			views = append(views, NoteView{
				VisitID:  vid,
				NoteID:   note.NoteID,
				NoteType: noteType,
				Text:     note.Text,
			})
		}
	}
	return views, true, nil
}

// Stats reports patient, visit and note totals, for the verify command.
func (s *Store) Stats() (patients, visits, notes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.patients {
		patients++
		for _, vr := range rec.Visits {
			visits++
			notes += len(vr.Notes)
		}
	}
	return patients, visits, notes
}
