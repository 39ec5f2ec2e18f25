package patient

import (
	"errors"
	"testing"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-03-14", "03/14/2024"},
		{"2024/03/14", "03/14/2024"},
		{" 2023-01-02 ", "01/02/2023"},
	}
	for _, tc := range cases {
		got, err := NormalizeDate(tc.in)
		if err != nil {
			t.Errorf("NormalizeDate(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "03/14/2024", "2024-13-01", "2024-02-30", "yesterday"} {
		if _, err := NormalizeDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("NormalizeDate(%q): expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestParseVisitTime_AcceptsUnpadded(t *testing.T) {
	for _, in := range []string{"3/1/2023", "03/01/2023", " 3/1/2023 "} {
		if _, ok := parseVisitTime(in); !ok {
			t.Errorf("parseVisitTime(%q): expected ok", in)
		}
	}
	for _, in := range []string{"", "3/1/23", "2023-03-01"} {
		if _, ok := parseVisitTime(in); ok {
			t.Errorf("parseVisitTime(%q): expected failure", in)
		}
	}
}
