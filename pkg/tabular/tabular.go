// Package tabular renders uniform records as CSV tables and reads them back.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record maps a field name to its value. Missing fields render as "".
type Record map[string]string

// ErrNoHeader is returned when a table has no header row.
var ErrNoHeader = errors.New("missing header row")

// Marshal renders records as CSV text: a header row of field names followed
// by one row per record in the given field order. Fields containing a comma,
// a double quote or a line break are quoted and inner quotes doubled.
// A carriage return is written unchanged, but Unmarshal reads a CRLF inside
// a quoted field back as LF, so such fields do not survive a round trip.
func Marshal(records []Record, fields []string) (string, error) {
	var builder strings.Builder
	if err := Write(&builder, records, fields); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// Write streams records as CSV to w.
func Write(w io.Writer, records []Record, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields given")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(fields); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(fields))
	for index, record := range records {
		for column, field := range fields {
			row[column] = record[field]
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", index+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// Unmarshal parses CSV text with a header row and returns the field names
// and one Record per data row. CRLF line breaks inside quoted fields come
// back as LF.
func Unmarshal(data string) ([]string, []Record, error) {
	return Read(strings.NewReader(data))
}

// Read parses a CSV stream with a header row.
func Read(r io.Reader) ([]string, []Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	fields, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading row %d: %w", len(records)+1, err)
		}

		record := make(Record, len(fields))
		for column, field := range fields {
			if column < len(row) {
				record[field] = row[column]
			} else {
				record[field] = ""
			}
		}
		records = append(records, record)
	}

	return fields, records, nil
}
