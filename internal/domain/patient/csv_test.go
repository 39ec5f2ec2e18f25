package patient

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadVisits(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv",
		"Patient_ID,Visit_ID,Visit_time,Race\n"+
			"p1,v1,03/01/2023,White\n"+
			",v2,03/02/2023,Asian\n"+ // missing patient id: skipped
			"p2,,03/03/2023,Black\n"+ // missing visit id: skipped
			"p1,v1,04/01/2023,White\n") // repeat pair: last row wins

	s := NewStore()
	if err := s.LoadVisits(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patients, visits, _ := s.Stats()
	if patients != 1 || visits != 1 {
		t.Errorf("expected 1 patient / 1 visit, got %d / %d", patients, visits)
	}
	rec, _ := s.Get("p1")
	if got := rec.Visits["v1"].Fields[ColVisitTime]; got != "04/01/2023" {
		t.Errorf("later rows overwrite earlier field values, got %s", got)
	}
	if _, ok := rec.Visits["v1"].Fields[ColPatientID]; ok {
		t.Error("key columns must not leak into the field map")
	}
}

func TestLoadVisits_MissingFile(t *testing.T) {
	s := NewStore()
	if err := s.LoadVisits(filepath.Join(t.TempDir(), "absent.csv")); err != nil {
		t.Errorf("missing file must be a no-op, got %v", err)
	}
}

func TestLoadVisits_RaggedRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv",
		"Patient_ID,Visit_ID,Visit_time,Race\n"+
			"p1,v1,03/01/2023\n")

	s := NewStore()
	if err := s.LoadVisits(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, _ := s.Get("p1")
	if got := rec.Visits["v1"].Fields["Race"]; got != "" {
		t.Errorf("missing cells read as empty, got %q", got)
	}
}

func TestLoadNotes_SynthesizesVisit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.csv",
		"Patient_ID,Visit_ID,Note_ID,Note_text\n"+
			"p9,v9,n1,first note\n"+
			"p9,v9,n2,\n"+ // empty text is allowed
			"p9,v9,,skipped\n") // missing note id: skipped

	s := NewStore()
	if err := s.LoadNotes(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, ok := s.Get("p9")
	if !ok {
		t.Fatal("notes file must synthesize the patient")
	}
	vr := rec.Visits["v9"]
	if vr == nil {
		t.Fatal("notes file must synthesize the visit")
	}
	if len(vr.Fields) != 0 {
		t.Errorf("synthesized visit starts with empty fields, got %v", vr.Fields)
	}
	if len(vr.Notes) != 2 || vr.Notes[0].NoteID != "n1" || vr.Notes[1].NoteID != "n2" {
		t.Errorf("file order becomes note order, got %v", vr.Notes)
	}
}

func TestLoadNotes_TwiceDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.csv",
		"Patient_ID,Visit_ID,Note_ID,Note_text\np1,v1,n1,hello\n")

	s := NewStore()
	s.LoadNotes(path)
	s.LoadNotes(path)

	rec, _ := s.Get("p1")
	if got := len(rec.Visits["v1"].Notes); got != 2 {
		t.Errorf("loading a notes file twice duplicates every note, got %d", got)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.csv")
	notesPath := filepath.Join(dir, "notes.csv")

	s := NewStore()
	s.AddVisit("p1", "v1", map[string]string{
		ColVisitTime: "03/01/2023",
		"Race":       "White",
		"Age":        "42",
	}, &Note{NoteID: "n1", Text: "first, with a comma"})
	s.AddNote("p1", "v1", Note{NoteID: "n2", Text: "second"})
	s.AddVisit("p2", "v2", map[string]string{ColVisitTime: "01/01/2024"}, nil)

	columns := []string{ColPatientID, ColVisitID, ColVisitTime, "Race", "Age"}
	if err := s.SaveVisits(dataPath, columns); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveNotes(notesPath); err != nil {
		t.Fatal(err)
	}

	fresh := NewStore()
	if err := fresh.LoadVisits(dataPath); err != nil {
		t.Fatal(err)
	}
	if err := fresh.LoadNotes(notesPath); err != nil {
		t.Fatal(err)
	}

	rec, ok := fresh.Get("p1")
	if !ok {
		t.Fatal("p1 missing after round trip")
	}
	vr := rec.Visits["v1"]
	if vr.Fields[ColVisitTime] != "03/01/2023" || vr.Fields["Race"] != "White" || vr.Fields["Age"] != "42" {
		t.Errorf("fields did not survive the round trip: %v", vr.Fields)
	}
	wantNotes := []Note{{NoteID: "n1", Text: "first, with a comma"}, {NoteID: "n2", Text: "second"}}
	if !reflect.DeepEqual(vr.Notes, wantNotes) {
		t.Errorf("note order must survive: %v", vr.Notes)
	}
	if _, ok := fresh.Get("p2"); !ok {
		t.Error("p2 missing after round trip")
	}
}

func TestSaveVisits_DropsColumnsOutsideOrder(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.csv")

	s := NewStore()
	s.AddVisit("p1", "v1", map[string]string{
		ColVisitTime: "03/01/2023",
		"Insurance":  "Aetna",
	}, nil)

	// Insurance is not in the column order, so it disappears on reload.
	if err := s.SaveVisits(dataPath, []string{ColPatientID, ColVisitID, ColVisitTime}); err != nil {
		t.Fatal(err)
	}

	fresh := NewStore()
	fresh.LoadVisits(dataPath)
	rec, _ := fresh.Get("p1")
	if _, ok := rec.Visits["v1"].Fields["Insurance"]; ok {
		t.Error("fields outside the save column order must not survive a reload")
	}
}
