package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Table is a labeled 2-D numeric grid as read from disk. RowLabels hold the
// first column, Headers the remaining column captions and Cells the values.
type Table struct {
	Name      string      `json:"name"`
	RowAxis   string      `json:"row_axis,omitempty"`
	RowLabels []float64   `json:"row_labels"`
	Headers   []string    `json:"headers"`
	Cells     [][]float64 `json:"cells"`
}

// GriddedTable is the interpolation-ready layout of a Table: Data is the
// row-major flattening of a (1, rows, cols, 1) tensor and Bounds is
// [[min_row, min_col], [max_row, max_col]].
type GriddedTable struct {
	VersionedRecord
	Name   string        `json:"name"`
	Data   []float64     `json:"data"`
	Bounds [2][2]float64 `json:"bounds"`
	Shape  [4]int        `json:"table_shape"`
}

// At returns the cell at (row, col) of the gridded data.
func (g GriddedTable) At(row, col int) float64 {
	return g.Data[row*g.Shape[2]+col]
}

type ModelRecord struct {
	VersionedRecord
	ID        string            `json:"id"`
	Variant   string            `json:"variant"`
	Config    map[string]any    `json:"config,omitempty"`
	Trainable []float64         `json:"trainable,omitempty"`
	Tables    map[string]string `json:"tables,omitempty"`
}

type RunRecord struct {
	VersionedRecord
	ID           string    `json:"id"`
	ModelID      string    `json:"model_id"`
	Variant      string    `json:"variant"`
	Optimizer    string    `json:"optimizer"`
	CreatedAtUTC time.Time `json:"created_at_utc"`
	Epochs       int       `json:"epochs"`
	LossHistory  []float64 `json:"loss_history"`
	FinalLoss    float64   `json:"final_loss"`
}
