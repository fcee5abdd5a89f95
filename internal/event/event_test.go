package event

import (
	"testing"
	"time"
)

func TestRawEventRecord_ValuesOrder(t *testing.T) {
	rec := RawEventRecord{
		Name:      "n",
		StartDate: "sd",
		EndDate:   "ed",
		Location:  "loc",
		Address:   "addr",
		Locality:  "city",
		Country:   "cty",
		Latitude:  "lat",
		Longitude: "lon",
		Capacity:  "cap",
		Price:     "price",
		Genre:     "genre",
		Lineup:    "lineup",
		State:     "state",
	}

	values := rec.Values()
	if len(values) != len(RawColumns) {
		t.Fatalf("Values() returned %d fields, want %d", len(values), len(RawColumns))
	}

	// Set must be the exact inverse of Values
	var back RawEventRecord
	for i, col := range RawColumns {
		if !back.Set(col, values[i]) {
			t.Errorf("Set(%q) reported unknown column", col)
		}
	}
	if back != rec {
		t.Errorf("Set/Values round trip = %+v, want %+v", back, rec)
	}
}

func TestRawEventRecord_SetUnknownColumn(t *testing.T) {
	var rec RawEventRecord
	if rec.Set("ticket_url", "https://example.com") {
		t.Error("Set() accepted an unknown column")
	}
	if rec != (RawEventRecord{}) {
		t.Errorf("Set() with unknown column modified the record: %+v", rec)
	}
}

func TestCleanColumns(t *testing.T) {
	if len(CleanColumns) != 18 {
		t.Errorf("CleanColumns has %d entries, want 18", len(CleanColumns))
	}
	if CleanColumns[0] != "edition" {
		t.Errorf("first clean column = %q, want edition", CleanColumns[0])
	}
}

func TestTimeOfDay(t *testing.T) {
	tod := TimeOfDay{Hour: 6, Minute: 5}
	if got := tod.String(); got != "06:05" {
		t.Errorf("String() = %q, want 06:05", got)
	}

	text, err := tod.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error: %v", err)
	}
	if string(text) != "06:05" {
		t.Errorf("MarshalText() = %q, want 06:05", text)
	}

	date := time.Date(2019, time.October, 18, 0, 0, 0, 0, time.UTC)
	want := time.Date(2019, time.October, 18, 6, 5, 0, 0, time.UTC)
	if got := tod.On(date); !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}
}
