package dataextract

import (
	"fmt"
	"strconv"
	"strings"

	"fatiguepinn/internal/model"
)

// ArrangeTable converts a labeled table into the (1, rows, cols, 1) layout
// the interpolation layer consumes. A single value column is duplicated so
// the column axis always has two grid points. Bounds come from the row
// labels and the column headers, never from the cells.
func ArrangeTable(table model.Table) (model.GriddedTable, error) {
	if len(table.Headers) == 0 {
		return model.GriddedTable{}, fmt.Errorf("%w: table %q has no value columns", ErrTableFormat, table.Name)
	}
	if len(table.RowLabels) == 0 || len(table.Cells) == 0 {
		return model.GriddedTable{}, fmt.Errorf("%w: table %q has no data rows", ErrTableFormat, table.Name)
	}
	if len(table.RowLabels) != len(table.Cells) {
		return model.GriddedTable{}, fmt.Errorf("%w: table %q has %d row labels for %d rows", ErrTableFormat, table.Name, len(table.RowLabels), len(table.Cells))
	}

	columns := make([]float64, len(table.Headers))
	for i, header := range table.Headers {
		value, err := strconv.ParseFloat(strings.TrimSpace(header), 64)
		if err != nil {
			return model.GriddedTable{}, fmt.Errorf("%w: table %q column header %q is not numeric", ErrTableFormat, table.Name, header)
		}
		columns[i] = value
	}

	rows := len(table.Cells)
	width := len(columns)
	if width == 1 {
		width = 2
	}

	data := make([]float64, 0, rows*width)
	for r, cells := range table.Cells {
		if len(cells) != len(columns) {
			return model.GriddedTable{}, fmt.Errorf("%w: table %q row %d has %d cells, want %d", ErrTableFormat, table.Name, r, len(cells), len(columns))
		}
		data = append(data, cells...)
		if len(columns) == 1 {
			data = append(data, cells[0])
		}
	}

	rowMin, rowMax := minMax(table.RowLabels)
	colMin, colMax := minMax(columns)
	return model.GriddedTable{
		Name:   table.Name,
		Data:   data,
		Bounds: [2][2]float64{{rowMin, colMin}, {rowMax, colMax}},
		Shape:  [4]int{1, rows, width, 1},
	}, nil
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
