package event

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingHeader is returned when a raw CSV stream has no header row.
var ErrMissingHeader = errors.New("csv header row missing")

// BadRowFunc is told about a row ReadCSV could not parse. The row is skipped.
type BadRowFunc func(line int, err error)

// WriteCSV writes the RawColumns header followed by one row per record.
// Only fields containing a comma, quote, line break or leading space are
// double-quoted.
func WriteCSV(w io.Writer, records []RawEventRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(RawColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range records {
		if err := cw.Write(rec.Values()); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// ReadCSV reads raw records from a CSV stream with a header row.
// Columns are matched by header name: unknown columns are ignored and
// missing ones are left null. Stray quotes are kept as text. Rows that
// still fail to parse are passed to onBadRow and skipped; with a nil
// onBadRow they end the read with an error.
func ReadCSV(r io.Reader, onBadRow BadRowFunc) ([]RawEventRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		// pandas and Excel both like to prepend a byte order mark
		header[0] = trimBOM(header[0])
	}

	records := make([]RawEventRecord, 0)
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) && onBadRow != nil {
			onBadRow(line, err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}

		var rec RawEventRecord
		for i, value := range row {
			if i >= len(header) {
				break
			}
			rec.Set(header[i], value)
		}
		records = append(records, rec)
	}

	return records, nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
