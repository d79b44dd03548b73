package helpers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/traffiq/traffiq/schema"
	"github.com/traffiq/traffiq/traffic"
)

// ============================================================================
// CSV HELPER — Parses CSV exports into typed record tables
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, HTTP, archive).
// This helper turns the raw rows into records using the schema; column
// order does not matter and unmapped columns are skipped.
// ============================================================================

// ReadCSV reads all rows of a CSV stream, header row included.
// Malformed rows are skipped.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	rows := [][]string{headers}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseAccidentsCSV parses accident CSV bytes into a table.
func ParseAccidentsCSV(data []byte, sch schema.Config) (*traffic.AccidentTable, error) {
	rows, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ParseAccidents(rows, sch)
}

// ParseLicensesCSV parses license CSV bytes into a table.
func ParseLicensesCSV(data []byte, sch schema.Config, window DateWindow) (*traffic.LicenseTable, error) {
	rows, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ParseLicenses(rows, sch, window)
}
