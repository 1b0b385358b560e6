package dataextract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SequenceSet is a batch of equally long per-step feature sequences.
type SequenceSet struct {
	IDs      []string
	Features []string
	Inputs   [][][]float64
}

// Steps returns the common sequence length.
func (s SequenceSet) Steps() int {
	if len(s.Inputs) == 0 {
		return 0
	}
	return len(s.Inputs[0])
}

// TrajectoryRow is one predicted damage value.
type TrajectoryRow struct {
	Sequence string  `json:"sequence"`
	Step     int     `json:"step"`
	Damage   float64 `json:"damage"`
}

// ReadSequenceCSV reads rows of `sequence,step,<features...>`. Steps of each
// sequence must start at 0 and be contiguous; all sequences must have the
// same length.
func ReadSequenceCSV(in io.Reader) (SequenceSet, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return SequenceSet{}, fmt.Errorf("read sequence csv header: %w", err)
	}
	if len(header) < 3 {
		return SequenceSet{}, fmt.Errorf("sequence csv needs sequence, step and at least one feature column")
	}
	set := SequenceSet{}
	for _, h := range header[2:] {
		set.Features = append(set.Features, strings.TrimSpace(h))
	}

	byID := map[string]int{}
	rowIndex := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return SequenceSet{}, fmt.Errorf("read sequence csv row %d: %w", rowIndex, err)
		}
		if blankRecord(record) {
			continue
		}
		if len(record) != len(header) {
			return SequenceSet{}, fmt.Errorf("sequence row %d has %d fields, header has %d", rowIndex, len(record), len(header))
		}

		id := strings.TrimSpace(record[0])
		step, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return SequenceSet{}, fmt.Errorf("parse sequence row %d step: %w", rowIndex, err)
		}
		pos, ok := byID[id]
		if !ok {
			pos = len(set.IDs)
			byID[id] = pos
			set.IDs = append(set.IDs, id)
			set.Inputs = append(set.Inputs, nil)
		}
		if step != len(set.Inputs[pos]) {
			return SequenceSet{}, fmt.Errorf("sequence %s row %d: step %d out of order, want %d", id, rowIndex, step, len(set.Inputs[pos]))
		}

		features := make([]float64, len(record)-2)
		for i, raw := range record[2:] {
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return SequenceSet{}, fmt.Errorf("parse sequence row %d column %d: %w", rowIndex, i+2, err)
			}
			features[i] = value
		}
		set.Inputs[pos] = append(set.Inputs[pos], features)
		rowIndex++
	}

	for i, seq := range set.Inputs {
		if len(seq) != set.Steps() {
			return SequenceSet{}, fmt.Errorf("sequence %s has %d steps, want %d", set.IDs[i], len(seq), set.Steps())
		}
	}
	return set, nil
}

// Targets are the supervised values of each sequence with the trajectory
// step index each value was recorded at.
type Targets struct {
	Indices [][]int
	Values  [][]float64
}

// ReadTargetsCSV reads rows of `sequence,index,value` and returns the targets
// of each id in ids, ordered by index.
func ReadTargetsCSV(in io.Reader, ids []string) (Targets, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = 3

	if _, err := reader.Read(); err != nil {
		return Targets{}, fmt.Errorf("read targets csv header: %w", err)
	}

	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	type point struct {
		index int
		value float64
	}
	points := make([][]point, len(ids))

	rowIndex := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Targets{}, fmt.Errorf("read targets csv row %d: %w", rowIndex, err)
		}
		id := strings.TrimSpace(record[0])
		p, ok := pos[id]
		if !ok {
			return Targets{}, fmt.Errorf("targets row %d: unknown sequence %q", rowIndex, id)
		}
		index, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return Targets{}, fmt.Errorf("parse targets row %d index: %w", rowIndex, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return Targets{}, fmt.Errorf("parse targets row %d value: %w", rowIndex, err)
		}
		if n := len(points[p]); n > 0 && points[p][n-1].index >= index {
			return Targets{}, fmt.Errorf("targets for sequence %s must be strictly increasing by index (row %d)", id, rowIndex)
		}
		points[p] = append(points[p], point{index: index, value: value})
		rowIndex++
	}

	out := Targets{
		Indices: make([][]int, len(ids)),
		Values:  make([][]float64, len(ids)),
	}
	for i, series := range points {
		if len(series) == 0 {
			return Targets{}, fmt.Errorf("no targets for sequence %s", ids[i])
		}
		out.Indices[i] = make([]int, len(series))
		out.Values[i] = make([]float64, len(series))
		for j, pt := range series {
			out.Indices[i][j] = pt.index
			out.Values[i][j] = pt.value
		}
	}
	return out, nil
}

// TrajectoryRows flattens per-sequence damage values into rows. A sequence
// with fewer values than steps is aligned to the end, so a final-only
// prediction is reported at step steps-1.
func TrajectoryRows(ids []string, damage [][]float64, steps int) []TrajectoryRow {
	rows := make([]TrajectoryRow, 0, len(damage)*steps)
	for i, series := range damage {
		offset := steps - len(series)
		if offset < 0 {
			offset = 0
		}
		id := strconv.Itoa(i)
		if i < len(ids) {
			id = ids[i]
		}
		for j, value := range series {
			rows = append(rows, TrajectoryRow{Sequence: id, Step: offset + j, Damage: value})
		}
	}
	return rows
}

func WriteTrajectoryCSV(out io.Writer, rows []TrajectoryRow) error {
	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"sequence", "step", "damage"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Sequence,
			strconv.Itoa(row.Step),
			strconv.FormatFloat(row.Damage, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
