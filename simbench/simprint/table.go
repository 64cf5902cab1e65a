// Package simprint persists and decodes the central benchmark artifact: the
// ordered table of compact codes produced for a dataset, one row per file.
package simprint

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
)

// Task is one row of a simprint table: the code produced for one file plus
// the measurements taken while producing it.
type Task struct {
	ID     int
	File   string // forward-slash path relative to the dataset folder
	Code   []byte
	Size   int64
	TimeMS int64
}

// Table is an ordered collection of completed tasks, sorted by ID.
type Table struct {
	Rows []Task
}

var csvHeader = []string{"id", "code", "file", "size", "time"}

// WriteCSV writes the table with a semicolon delimiter and lowercase hex
// codes. The format round-trips through ReadCSV byte for byte.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range t.Rows {
		record := []string{
			strconv.Itoa(row.ID),
			hex.EncodeToString(row.Code),
			row.File,
			strconv.FormatInt(row.Size, 10),
			strconv.FormatInt(row.TimeMS, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV, verifying the header.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, want := range csvHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], want)
		}
	}

	table := &Table{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row, err := parseRow(record)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadFile parses a table from a CSV file on disk.
func ReadFile(path string) (*Table, error) {
	vu := common.NewValidationUtils()
	if err := vu.ValidateFileExists(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

func parseRow(record []string) (Task, error) {
	id, err := strconv.Atoi(record[0])
	if err != nil {
		return Task{}, fmt.Errorf("invalid id %q: %w", record[0], err)
	}
	code, err := hex.DecodeString(record[1])
	if err != nil {
		return Task{}, fmt.Errorf("invalid code for id %d: %w", id, err)
	}
	size, err := strconv.ParseInt(record[3], 10, 64)
	if err != nil {
		return Task{}, fmt.Errorf("invalid size for id %d: %w", id, err)
	}
	timeMS, err := strconv.ParseInt(record[4], 10, 64)
	if err != nil {
		return Task{}, fmt.Errorf("invalid time for id %d: %w", id, err)
	}
	return Task{ID: id, Code: code, File: record[2], Size: size, TimeMS: timeMS}, nil
}
