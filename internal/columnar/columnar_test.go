package columnar

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/ade-events/internal/event"
)

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleRecords() []event.CleanEventRecord {
	return []event.CleanEventRecord{
		{
			Edition:         ptr(2019),
			EventName:       "AWAKENINGS",
			StartDate:       date(2019, time.October, 16),
			StartTime:       &event.TimeOfDay{Hour: 22},
			EndDate:         date(2019, time.October, 17),
			EndTime:         &event.TimeOfDay{Hour: 6},
			DurationMinutes: ptr(480),
			VenueName:       ptr("Gashouder"),
			Address:         "Klönneplein 1",
			Latitude:        ptr(52.385),
			Longitude:       ptr(4.873),
			PricePresale:    price("45.50"),
			PriceDoor:       price("999.99"),
			Capacity:        ptr(3500),
			Genre:           []string{"TECHNO", "HOUSE"},
			Lineup:          []string{"ADAM BEYER", "AMELIE LENS"},
			IsSoldOut:       true,
		},
		{
			Edition:     ptr(2019),
			Genre:       []string{},
			Lineup:      []string{},
			IsCancelled: true,
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	records := sampleRecords()

	data, err := Encode(records)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PAR1")))

	got, err := Decode(data)
	require.NoError(t, err)

	// Edition is carried by the partition path, not the file.
	want := sampleRecords()
	for i := range want {
		want[i].Edition = nil
	}

	opts := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	first, err := Encode(sampleRecords())
	require.NoError(t, err)
	second, err := Encode(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not parquet"))
	assert.Error(t, err)
}

func TestPriceCents(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  int32
	}{
		{"zero", "0.00", 0},
		{"whole", "12", 1200},
		{"two decimals", "12.50", 1250},
		{"max", "999.99", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents := toCents(price(tt.price))
			require.NotNil(t, cents)
			assert.Equal(t, tt.want, *cents)
			assert.True(t, fromCents(cents).Equal(decimal.RequireFromString(tt.price)))
		})
	}

	assert.Nil(t, toCents(nil))
	assert.Nil(t, fromCents(nil))
}

func TestInt32Range(t *testing.T) {
	tests := []struct {
		name  string
		value *int
		want  *int32
	}{
		{"null", nil, nil},
		{"fits", ptr(3500), ptr(int32(3500))},
		{"max", ptr(math.MaxInt32), ptr(int32(math.MaxInt32))},
		{"min", ptr(math.MinInt32), ptr(int32(math.MinInt32))},
		{"too large", ptr(3000000000), nil},
		{"too small", ptr(-3000000000), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toInt32(tt.value))
		})
	}
}

func TestEncodeOutOfRangeCapacity(t *testing.T) {
	data, err := Encode([]event.CleanEventRecord{{
		EventName:       "Big Room",
		Capacity:        ptr(3000000000),
		DurationMinutes: ptr(480),
		Genre:           []string{},
		Lineup:          []string{},
	}})
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Capacity)
	assert.Equal(t, ptr(480), got[0].DurationMinutes)
}

func TestPartition(t *testing.T) {
	records := []event.CleanEventRecord{
		{Edition: ptr(2020), EventName: "A"},
		{EventName: "NULL-1"},
		{Edition: ptr(2019), EventName: "B"},
		{Edition: ptr(2020), EventName: "C"},
		{EventName: "NULL-2"},
	}

	parts := Partition(records)
	require.Len(t, parts, 3)

	assert.Equal(t, 2019, *parts[0].Edition)
	assert.Equal(t, 2020, *parts[1].Edition)
	assert.Nil(t, parts[2].Edition)

	names := func(p PartitionSet) []string {
		out := make([]string, 0, len(p.Records))
		for _, r := range p.Records {
			out = append(out, r.EventName)
		}
		return out
	}
	assert.Equal(t, []string{"B"}, names(parts[0]))
	assert.Equal(t, []string{"A", "C"}, names(parts[1]))
	assert.Equal(t, []string{"NULL-1", "NULL-2"}, names(parts[2]))

	assert.Empty(t, Partition(nil))
}
