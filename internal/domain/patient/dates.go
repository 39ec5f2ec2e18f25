package patient

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDate reports a user-supplied date that does not parse. Dates that
// fail to parse inside stored rows are skipped silently instead; user input
// errors are reported, stored-data anomalies are tolerated.
var ErrInvalidDate = errors.New("invalid date")

// visitTimeLayout is the at-rest Visit_time format (M/D/YYYY, zero padding
// accepted). Every date-driven query uses this one parser so the counting and
// note-viewing paths cannot diverge.
const visitTimeLayout = "1/2/2006"

// visitTimeOutput is the zero-padded form written back to the data file.
const visitTimeOutput = "01/02/2006"

func parseVisitTime(s string) (time.Time, bool) {
	t, err := time.Parse(visitTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDate converts a user-supplied date in YYYY-MM-DD or YYYY/MM/DD
// form to the stored MM/DD/YYYY form. Anything else is ErrInvalidDate.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(visitTimeOutput), nil
		}
	}
	return "", ErrInvalidDate
}
