package normalizer

import (
	"strings"

	"github.com/pfrederiksen/ade-events/internal/event"
)

// Row is one event in flight between stages. The text fields hold the
// renamed and trimmed raw values, empty meaning null; Clean collects the
// typed values the stages derive from them.
type Row struct {
	EventName     string
	StartDatetime string
	EndDatetime   string
	Venue         string
	Address       string
	Latitude      string
	Longitude     string
	Capacity      string
	Price         string
	Genre         string
	Lineup        string
	State         string

	Clean event.CleanEventRecord
}

// Table is an ordered set of rows. Stages keep row order.
type Table []Row

// Stage is one pure transformation step.
type Stage func(Table) Table

// FromRaw selects the twelve fields used downstream, trims them and renames
// them. Locality and country are dropped.
func FromRaw(records []event.RawEventRecord) Table {
	t := make(Table, 0, len(records))
	for _, rec := range records {
		t = append(t, Row{
			EventName:     strings.TrimSpace(rec.Name),
			StartDatetime: strings.TrimSpace(rec.StartDate),
			EndDatetime:   strings.TrimSpace(rec.EndDate),
			Venue:         strings.TrimSpace(rec.Location),
			Address:       strings.TrimSpace(rec.Address),
			Latitude:      strings.TrimSpace(rec.Latitude),
			Longitude:     strings.TrimSpace(rec.Longitude),
			Capacity:      strings.TrimSpace(rec.Capacity),
			Price:         strings.TrimSpace(rec.Price),
			Genre:         strings.TrimSpace(rec.Genre),
			Lineup:        strings.TrimSpace(rec.Lineup),
			State:         strings.TrimSpace(rec.State),
		})
	}
	return t
}

// Project returns the clean records in table order.
func Project(t Table) []event.CleanEventRecord {
	records := make([]event.CleanEventRecord, 0, len(t))
	for _, r := range t {
		rec := r.Clean
		rec.EventName = r.EventName
		rec.Address = r.Address
		if rec.Genre == nil {
			rec.Genre = []string{}
		}
		if rec.Lineup == nil {
			rec.Lineup = []string{}
		}
		records = append(records, rec)
	}
	return records
}

// clone returns a copy of t so stages never write through to their input
func clone(t Table) Table {
	out := make(Table, len(t))
	copy(out, t)
	return out
}
