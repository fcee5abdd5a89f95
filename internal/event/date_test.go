package event

import (
	"testing"
	"time"
)

func TestParseDatetime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     time.Time
		wantZero bool
	}{
		{
			name:  "RFC3339 with offset keeps wall clock",
			input: "2019-10-17T22:00:00+02:00",
			want:  time.Date(2019, time.October, 17, 22, 0, 0, 0, time.UTC),
		},
		{
			name:  "minute precision",
			input: "2019-10-17T22:00",
			want:  time.Date(2019, time.October, 17, 22, 0, 0, 0, time.UTC),
		},
		{
			name:  "seconds without zone",
			input: "2019-10-18T06:30:15",
			want:  time.Date(2019, time.October, 18, 6, 30, 15, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2005-10-20",
			want:  time.Date(2005, time.October, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "leading date with garbage time",
			input: "2019-10-17Tlate",
			want:  time.Date(2019, time.October, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace",
			input: "  2019-10-17T22:00  ",
			want:  time.Date(2019, time.October, 17, 22, 0, 0, 0, time.UTC),
		},
		{
			name:     "empty string",
			input:    "",
			wantZero: true,
		},
		{
			name:     "not a date",
			input:    "Thursday night",
			wantZero: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDatetime(tt.input)
			if tt.wantZero {
				if !got.IsZero() {
					t.Errorf("ParseDatetime(%q) = %v, want zero time", tt.input, got)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDatetime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if got := ParseDate("2019-10-17"); !got.Equal(time.Date(2019, time.October, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate() = %v", got)
	}
	for _, input := range []string{"", "17-10-2019", "2019-13-01", "2019-10-17T22:00"} {
		if got := ParseDate(input); !got.IsZero() {
			t.Errorf("ParseDate(%q) = %v, want zero time", input, got)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input  string
		want   TimeOfDay
		wantOK bool
	}{
		{"22:00", TimeOfDay{22, 0}, true},
		{"22:00:00", TimeOfDay{22, 0}, true},
		{"22:00:00+02:00", TimeOfDay{22, 0}, true},
		{"06:30:00.000Z", TimeOfDay{6, 30}, true},
		{"6:05", TimeOfDay{6, 5}, true},
		{"24:00", TimeOfDay{}, false},
		{"12:60", TimeOfDay{}, false},
		{"12:00:61", TimeOfDay{}, false},
		{"", TimeOfDay{}, false},
		{"noon", TimeOfDay{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTimeOfDay(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimeOfDay(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
