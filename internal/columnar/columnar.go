package columnar

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/pfrederiksen/ade-events/internal/event"
)

const (
	secondsPerDay = 24 * 60 * 60

	// priceScale matches the DECIMAL(5,2) price columns.
	priceScale = 2
)

// row is the on-disk shape of a clean record without its partition column.
type row struct {
	EventName       *string  `parquet:"name=event_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	StartDate       *int32   `parquet:"name=start_date, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	StartTime       *string  `parquet:"name=start_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	EndDate         *int32   `parquet:"name=end_date, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	EndTime         *string  `parquet:"name=end_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	DurationMinutes *int32   `parquet:"name=duration_minutes, type=INT32, repetitiontype=OPTIONAL"`
	VenueName       *string  `parquet:"name=venue_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Address         *string  `parquet:"name=address, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Latitude        *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude       *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	PricePresale    *int32   `parquet:"name=price_presale, type=INT32, convertedtype=DECIMAL, scale=2, precision=5, repetitiontype=OPTIONAL"`
	PriceDoor       *int32   `parquet:"name=price_door, type=INT32, convertedtype=DECIMAL, scale=2, precision=5, repetitiontype=OPTIONAL"`
	Capacity        *int32   `parquet:"name=capacity, type=INT32, repetitiontype=OPTIONAL"`
	Genre           []string `parquet:"name=genre, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	Lineup          []string `parquet:"name=lineup, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	IsSoldOut       bool     `parquet:"name=is_sold_out, type=BOOLEAN"`
	IsCancelled     bool     `parquet:"name=is_cancelled, type=BOOLEAN"`
}

// Encode writes records to a single Parquet file held in memory.
// The same records always produce the same bytes.
func Encode(records []event.CleanEventRecord) ([]byte, error) {
	buf := buffer.NewBufferFile()

	pw, err := writer.NewParquetWriter(buf, new(row), 1)
	if err != nil {
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, rec := range records {
		if err := pw.Write(toRow(rec)); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finishing parquet file: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode reads a file produced by Encode. Edition is left nil; callers
// recover it from the partition key.
func Decode(data []byte) ([]event.CleanEventRecord, error) {
	pr, err := reader.NewParquetReader(buffer.NewBufferFileFromBytes(data), new(row), 1)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	rows := make([]row, n)
	if n > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, fmt.Errorf("reading rows: %w", err)
		}
	}

	records := make([]event.CleanEventRecord, 0, n)
	for _, r := range rows {
		records = append(records, fromRow(r))
	}
	return records, nil
}

// PartitionSet is the records of one edition partition.
type PartitionSet struct {
	Edition *int
	Records []event.CleanEventRecord
}

// Partition groups records by edition. Partitions come in ascending edition
// order with the null edition last; records keep their input order.
func Partition(records []event.CleanEventRecord) []PartitionSet {
	index := make(map[int]int)
	nullIndex := -1
	parts := make([]PartitionSet, 0)

	for _, rec := range records {
		if rec.Edition == nil {
			if nullIndex < 0 {
				nullIndex = len(parts)
				parts = append(parts, PartitionSet{})
			}
			parts[nullIndex].Records = append(parts[nullIndex].Records, rec)
			continue
		}

		i, ok := index[*rec.Edition]
		if !ok {
			edition := *rec.Edition
			i = len(parts)
			index[edition] = i
			parts = append(parts, PartitionSet{Edition: &edition})
		}
		parts[i].Records = append(parts[i].Records, rec)
	}

	sort.SliceStable(parts, func(i, j int) bool {
		a, b := parts[i].Edition, parts[j].Edition
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a < *b
	})

	return parts
}

func toRow(rec event.CleanEventRecord) row {
	return row{
		EventName:       optString(rec.EventName),
		StartDate:       toDays(rec.StartDate),
		StartTime:       toClock(rec.StartTime),
		EndDate:         toDays(rec.EndDate),
		EndTime:         toClock(rec.EndTime),
		DurationMinutes: toInt32(rec.DurationMinutes),
		VenueName:       rec.VenueName,
		Address:         optString(rec.Address),
		Latitude:        rec.Latitude,
		Longitude:       rec.Longitude,
		PricePresale:    toCents(rec.PricePresale),
		PriceDoor:       toCents(rec.PriceDoor),
		Capacity:        toInt32(rec.Capacity),
		Genre:           nonNil(rec.Genre),
		Lineup:          nonNil(rec.Lineup),
		IsSoldOut:       rec.IsSoldOut,
		IsCancelled:     rec.IsCancelled,
	}
}

func fromRow(r row) event.CleanEventRecord {
	rec := event.CleanEventRecord{
		StartDate:       fromDays(r.StartDate),
		StartTime:       fromClock(r.StartTime),
		EndDate:         fromDays(r.EndDate),
		EndTime:         fromClock(r.EndTime),
		DurationMinutes: fromInt32(r.DurationMinutes),
		VenueName:       r.VenueName,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		PricePresale:    fromCents(r.PricePresale),
		PriceDoor:       fromCents(r.PriceDoor),
		Capacity:        fromInt32(r.Capacity),
		Genre:           nonNil(r.Genre),
		Lineup:          nonNil(r.Lineup),
		IsSoldOut:       r.IsSoldOut,
		IsCancelled:     r.IsCancelled,
	}
	if r.EventName != nil {
		rec.EventName = *r.EventName
	}
	if r.Address != nil {
		rec.Address = *r.Address
	}
	return rec
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func toDays(t *time.Time) *int32 {
	if t == nil {
		return nil
	}
	u := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int32(u.Unix() / secondsPerDay)
	return &days
}

func fromDays(days *int32) *time.Time {
	if days == nil {
		return nil
	}
	t := time.Unix(int64(*days)*secondsPerDay, 0).UTC()
	return &t
}

func toClock(t *event.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func fromClock(s *string) *event.TimeOfDay {
	if s == nil {
		return nil
	}
	t, ok := event.ParseTimeOfDay(*s)
	if !ok {
		return nil
	}
	return &t
}

// toInt32 narrows v, nulling values that do not fit the column
func toInt32(v *int) *int32 {
	if v == nil || *v < math.MinInt32 || *v > math.MaxInt32 {
		return nil
	}
	n := int32(*v)
	return &n
}

func fromInt32(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func toCents(d *decimal.Decimal) *int32 {
	if d == nil {
		return nil
	}
	cents := int32(d.Shift(priceScale).Round(0).IntPart())
	return &cents
}

func fromCents(cents *int32) *decimal.Decimal {
	if cents == nil {
		return nil
	}
	d := decimal.New(int64(*cents), -priceScale)
	return &d
}
