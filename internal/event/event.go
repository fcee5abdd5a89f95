package event

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RawColumns is the raw-stage column order. The CSV header uses these names.
var RawColumns = []string{
	"name", "start_date", "end_date", "location", "address", "locality",
	"country", "latitude", "longitude", "capacity", "price", "genre",
	"lineup", "state",
}

// RawEventRecord is one scraped event. Every field is optional free text;
// the empty string is the null value.
type RawEventRecord struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Location  string `json:"location"`
	Address   string `json:"address"`
	Locality  string `json:"locality"`
	Country   string `json:"country"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Capacity  string `json:"capacity"`
	Price     string `json:"price"`
	Genre     string `json:"genre"`
	Lineup    string `json:"lineup"`
	State     string `json:"state"`
}

// Values returns the record's fields in RawColumns order.
func (r RawEventRecord) Values() []string {
	return []string{
		r.Name, r.StartDate, r.EndDate, r.Location, r.Address, r.Locality,
		r.Country, r.Latitude, r.Longitude, r.Capacity, r.Price, r.Genre,
		r.Lineup, r.State,
	}
}

// Set assigns a field by its raw column name. Unknown columns are ignored and
// reported as false.
func (r *RawEventRecord) Set(column, value string) bool {
	switch column {
	case "name":
		r.Name = value
	case "start_date":
		r.StartDate = value
	case "end_date":
		r.EndDate = value
	case "location":
		r.Location = value
	case "address":
		r.Address = value
	case "locality":
		r.Locality = value
	case "country":
		r.Country = value
	case "latitude":
		r.Latitude = value
	case "longitude":
		r.Longitude = value
	case "capacity":
		r.Capacity = value
	case "price":
		r.Price = value
	case "genre":
		r.Genre = value
	case "lineup":
		r.Lineup = value
	case "state":
		r.State = value
	default:
		return false
	}
	return true
}

// CleanColumns is the clean-stage column order.
var CleanColumns = []string{
	"edition", "event_name", "start_date", "start_time", "end_date", "end_time",
	"duration_minutes", "venue_name", "address", "latitude", "longitude",
	"price_presale", "price_door", "capacity", "genre", "lineup",
	"is_sold_out", "is_cancelled",
}

// CleanEventRecord is one normalized event. Nil pointers are null values.
// Dates are UTC midnight; Genre and Lineup are never nil once projected.
type CleanEventRecord struct {
	Edition         *int             `json:"edition"`
	EventName       string           `json:"event_name"`
	StartDate       *time.Time       `json:"start_date"`
	StartTime       *TimeOfDay       `json:"start_time"`
	EndDate         *time.Time       `json:"end_date"`
	EndTime         *TimeOfDay       `json:"end_time"`
	DurationMinutes *int             `json:"duration_minutes"`
	VenueName       *string          `json:"venue_name"`
	Address         string           `json:"address"`
	Latitude        *float64         `json:"latitude"`
	Longitude       *float64         `json:"longitude"`
	PricePresale    *decimal.Decimal `json:"price_presale"`
	PriceDoor       *decimal.Decimal `json:"price_door"`
	Capacity        *int             `json:"capacity"`
	Genre           []string         `json:"genre"`
	Lineup          []string         `json:"lineup"`
	IsSoldOut       bool             `json:"is_sold_out"`
	IsCancelled     bool             `json:"is_cancelled"`
}

// TimeOfDay is a 24-hour wall clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// On combines the time of day with a calendar date into an instant.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, time.UTC)
}
