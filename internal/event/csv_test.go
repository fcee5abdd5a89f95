package event

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteCSV_ReadCSV(t *testing.T) {
	records := []RawEventRecord{
		{
			Name:      "Awakenings ADE",
			StartDate: "2019-10-17T22:00:00+02:00",
			Address:   "Oudezijds Voorburgwal 2",
			Price:     "Presale: 12,50\nDoor: 15,00",
			Lineup:    `Joris "JV" Voorn, Reinier Zonneveld`,
		},
		{
			Name: "Empty fields",
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	if header != strings.Join(RawColumns, ",") {
		t.Errorf("header = %q", header)
	}

	got, err := ReadCSV(&buf, nil)
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_HeaderMapping(t *testing.T) {
	input := "\ufeffstate,name,ticket_url\n" +
		"SOLD OUT,Dekmantel,https://example.com\n" +
		"short\n"

	got, err := ReadCSV(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}

	want := []RawEventRecord{
		{State: "SOLD OUT", Name: "Dekmantel"},
		{State: "short"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), nil)
	if !errors.Is(err, ErrMissingHeader) {
		t.Errorf("ReadCSV(\"\") error = %v, want ErrMissingHeader", err)
	}

	got, err := ReadCSV(strings.NewReader(strings.Join(RawColumns, ",") + "\n"), nil)
	if err != nil {
		t.Fatalf("ReadCSV(header only) error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadCSV(header only) returned %d records, want 0", len(got))
	}
}

func TestReadCSV_StrayQuotes(t *testing.T) {
	input := "name,start_date,price\n" +
		"Awakenings,2019-10-17T22:00,Door: 10\n" +
		"Bad \"quoted\" Party,2019-10-18T23:00,Free entrance\n"

	var bad []int
	got, err := ReadCSV(strings.NewReader(input), func(line int, err error) {
		bad = append(bad, line)
	})
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}

	want := []RawEventRecord{
		{Name: "Awakenings", StartDate: "2019-10-17T22:00", Price: "Door: 10"},
		{Name: `Bad "quoted" Party`, StartDate: "2019-10-18T23:00", Price: "Free entrance"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV() mismatch (-want +got):\n%s", diff)
	}
	if len(bad) != 0 {
		t.Errorf("bad rows reported at lines %v, want none", bad)
	}
}

func TestWriteCSV_Quoting(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []RawEventRecord{{
		Name:    "Awakenings",
		Address: "Klönneplein 1, Amsterdam",
		Lineup:  `Joris "JV" Voorn`,
	}})
	if err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	rows := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := `Awakenings,,,,"Klönneplein 1, Amsterdam",,,,,,,,"Joris ""JV"" Voorn",`
	if len(rows) != 2 || rows[1] != want {
		t.Errorf("WriteCSV() rows = %q, want data row %q", rows, want)
	}
}
