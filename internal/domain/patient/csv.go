package patient

import (
	"encoding/csv"
	"fmt"
	"os"
)

// NoteColumns is the fixed schema of the visit notes file.
var NoteColumns = []string{ColPatientID, ColVisitID, ColNoteID, ColNoteText}

// readRows streams a header-keyed CSV file into row maps. Ragged rows are
// tolerated; missing trailing cells read as empty strings.
func readRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		// Empty file: nothing to load.
		return nil, nil
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadVisits loads patient and visit data from a CSV file, excluding notes.
// A missing file is treated as an empty source, not an error. Rows without a
// Patient_ID and Visit_ID are skipped; every other column becomes a visit
// field, merged with the usual last-write-wins semantics when a patient+visit
// pair repeats in the file.
func (s *Store) LoadVisits(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	rows, err := readRows(path)
	if err != nil {
		return fmt.Errorf("load visit data %s: %w", path, err)
	}
	for _, row := range rows {
		pid := row[ColPatientID]
		vid := row[ColVisitID]
		if pid == "" || vid == "" {
			continue
		}
		fields := make(map[string]string, len(row))
		for k, v := range row {
			if k == ColPatientID || k == ColVisitID {
				continue
			}
			fields[k] = v
		}
		s.AddVisit(pid, vid, fields, nil)
	}
	return nil
}

// LoadNotes loads visit notes from a CSV file. A missing file is an empty
// source. Rows need a non-empty Patient_ID, Visit_ID and Note_ID (text may be
// empty); the patient and visit are synthesized on demand when the notes file
// references a pair the data file never mentioned. Notes append in file
// order, so loading the same file twice duplicates every note.
func (s *Store) LoadNotes(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	rows, err := readRows(path)
	if err != nil {
		return fmt.Errorf("load visit notes %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		pid := row[ColPatientID]
		vid := row[ColVisitID]
		noteID := row[ColNoteID]
		if pid == "" || vid == "" || noteID == "" {
			continue
		}
		rec := s.ensure(pid)
		vr, ok := rec.Visits[vid]
		if !ok {
			vr = &VisitRecord{Fields: make(map[string]string)}
			rec.Visits[vid] = vr
		}
		vr.Notes = append(vr.Notes, Note{NoteID: noteID, Text: row[ColNoteText]})
	}
	return nil
}

// VisitRows flattens the store into one row per (patient, visit) with
// Patient_ID, Visit_ID and all of that visit's fields.
func (s *Store) VisitRows() []map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []map[string]string
	for pid, rec := range s.patients {
		for vid, vr := range rec.Visits {
			row := make(map[string]string, len(vr.Fields)+2)
			row[ColPatientID] = pid
			row[ColVisitID] = vid
			for k, v := range vr.Fields {
				row[k] = v
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// NoteRows flattens the store into one row per (patient, visit, note) with
// the fixed four-column notes schema.
func (s *Store) NoteRows() []map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []map[string]string
	for pid, rec := range s.patients {
		for vid, vr := range rec.Visits {
			for _, note := range vr.Notes {
				rows = append(rows, map[string]string{
					ColPatientID: pid,
					ColVisitID:   vid,
					ColNoteID:    note.NoteID,
					ColNoteText:  note.Text,
				})
			}
		}
	}
	return rows
}

func writeRows(path string, columns []string, rows []map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	rec := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// SaveVisits truncates and rewrites the visit data file with the given column
// order. A field name absent from columns is silently dropped from the
// output; callers own keeping the column list in sync with every field ever
// written. The rewrite is best-effort, not crash-safe.
func (s *Store) SaveVisits(path string, columns []string) error {
	if err := writeRows(path, columns, s.VisitRows()); err != nil {
		return fmt.Errorf("save visit data %s: %w", path, err)
	}
	return nil
}

// SaveNotes truncates and rewrites the visit notes file with the fixed
// four-column schema.
func (s *Store) SaveNotes(path string) error {
	if err := writeRows(path, NoteColumns, s.NoteRows()); err != nil {
		return fmt.Errorf("save visit notes %s: %w", path, err)
	}
	return nil
}
