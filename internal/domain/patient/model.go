package patient

// Column names shared by the visit data and visit notes files. The two files
// are correlated only through the (Patient_ID, Visit_ID) composite key.
const (
	ColPatientID = "Patient_ID"
	ColVisitID   = "Visit_ID"
	ColNoteID    = "Note_ID"
	ColNoteText  = "Note_text"
	ColVisitTime = "Visit_time"
	ColNoteType  = "Note_type"
)

// Note is a free-text clinical note attached to a visit. Notes are never
// deleted or edited once appended. NoteID is generated by the caller at
// intake time; the store does not validate it for uniqueness.
type Note struct {
	NoteID string `json:"note_id"`
	Text   string `json:"note_text"`
}

// VisitRecord holds both the core visit fields and all associated notes.
//
// Fields is header-driven: its keys are whatever columns appear in the source
// file plus the fixed intake schema. Notes keeps insertion order.
type VisitRecord struct {
	Fields map[string]string `json:"fields"`
	Notes  []Note            `json:"notes"`
}

// PatientRecord represents a single patient and all of their visits.
type PatientRecord struct {
	PatientID string                  `json:"patient_id"`
	Visits    map[string]*VisitRecord `json:"visits"`
}

// NewPatientRecord creates an empty record for the given patient id.
func NewPatientRecord(patientID string) *PatientRecord {
	return &PatientRecord{
		PatientID: patientID,
		Visits:    make(map[string]*VisitRecord),
	}
}

// AddVisit creates or updates a VisitRecord. Incoming fields are merged into
// the existing field map (new keys added, colliding keys overwritten, nothing
// deleted) and the note, if given, is appended so past notes persist. Calling
// twice with the same note appends it twice; the store does not deduplicate.
func (p *PatientRecord) AddVisit(visitID string, fields map[string]string, note *Note) {
	vr, ok := p.Visits[visitID]
	if !ok {
		vr = &VisitRecord{Fields: make(map[string]string)}
		p.Visits[visitID] = vr
	}
	for k, v := range fields {
		vr.Fields[k] = v
	}
	if note != nil {
		vr.Notes = append(vr.Notes, *note)
	}
}

// AddNote appends a note to an existing visit. It reports false and leaves
// the record unchanged when the visit does not exist; it never creates a
// visit as a side effect.
func (p *PatientRecord) AddNote(visitID string, note Note) bool {
	vr, ok := p.Visits[visitID]
	if !ok {
		return false
	}
	vr.Notes = append(vr.Notes, note)
	return true
}

// clone returns a deep copy so store callers never alias store-owned state.
func (p *PatientRecord) clone() *PatientRecord {
	out := NewPatientRecord(p.PatientID)
	for vid, vr := range p.Visits {
		cp := &VisitRecord{Fields: make(map[string]string, len(vr.Fields))}
		for k, v := range vr.Fields {
			cp.Fields[k] = v
		}
		cp.Notes = append(cp.Notes, vr.Notes...)
		out.Visits[vid] = cp
	}
	return out
}
