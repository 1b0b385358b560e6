package dataextract

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fatiguepinn/internal/model"
)

// ErrTableFormat reports a malformed or insufficient lookup table.
var ErrTableFormat = errors.New("table format error")

// ReadTableCSV reads a lookup table whose first column holds the row axis
// labels and whose remaining header cells hold the column axis values.
func ReadTableCSV(in io.Reader, name string) (model.Table, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return model.Table{}, fmt.Errorf("%w: empty table csv", ErrTableFormat)
	}
	if err != nil {
		return model.Table{}, fmt.Errorf("read table csv header: %w", err)
	}
	if len(header) < 2 {
		return model.Table{}, fmt.Errorf("%w: header needs a label column and at least one value column", ErrTableFormat)
	}

	table := model.Table{
		Name:    strings.TrimSpace(name),
		RowAxis: strings.TrimSpace(header[0]),
		Headers: make([]string, 0, len(header)-1),
	}
	for _, h := range header[1:] {
		table.Headers = append(table.Headers, strings.TrimSpace(h))
	}

	rowIndex := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Table{}, fmt.Errorf("read table csv row %d: %w", rowIndex, err)
		}
		if blankRecord(record) {
			continue
		}
		if len(record) != len(header) {
			return model.Table{}, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrTableFormat, rowIndex, len(record), len(header))
		}

		values := make([]float64, len(record))
		for i, raw := range record {
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return model.Table{}, fmt.Errorf("%w: parse table row %d column %d: %v", ErrTableFormat, rowIndex, i, err)
			}
			values[i] = value
		}
		table.RowLabels = append(table.RowLabels, values[0])
		table.Cells = append(table.Cells, values[1:])
		rowIndex++
	}
	return table, nil
}

// ReadTableFileCSV opens path and reads it with ReadTableCSV, naming the
// table after the file.
func ReadTableFileCSV(path string) (model.Table, error) {
	if strings.TrimSpace(path) == "" {
		return model.Table{}, fmt.Errorf("table csv path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Table{}, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	table, err := ReadTableCSV(f, name)
	if err != nil {
		return model.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func WriteGriddedTableFile(path string, table model.GriddedTable) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("gridded table file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := EncodeGriddedTable(table)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func ReadGriddedTableFile(path string) (model.GriddedTable, error) {
	if strings.TrimSpace(path) == "" {
		return model.GriddedTable{}, fmt.Errorf("gridded table file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.GriddedTable{}, err
	}
	var table model.GriddedTable
	if err := json.Unmarshal(data, &table); err != nil {
		return model.GriddedTable{}, err
	}
	return table, nil
}

// EncodeGriddedTable renders table as indented JSON with a trailing newline.
func EncodeGriddedTable(table model.GriddedTable) ([]byte, error) {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
