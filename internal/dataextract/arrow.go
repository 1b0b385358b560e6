package dataextract

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// TrajectorySchema is the Arrow layout of exported damage trajectories.
var TrajectorySchema = arrow.NewSchema([]arrow.Field{
	{Name: "sequence", Type: arrow.BinaryTypes.String},
	{Name: "step", Type: arrow.PrimitiveTypes.Int64},
	{Name: "damage", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteTrajectoryArrow writes rows as a single record batch in the Arrow IPC
// stream format.
func WriteTrajectoryArrow(out io.Writer, rows []TrajectoryRow) error {
	pool := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(pool, TrajectorySchema)
	defer builder.Release()

	sequences := builder.Field(0).(*array.StringBuilder)
	steps := builder.Field(1).(*array.Int64Builder)
	damage := builder.Field(2).(*array.Float64Builder)
	for _, row := range rows {
		sequences.Append(row.Sequence)
		steps.Append(int64(row.Step))
		damage.Append(row.Damage)
	}

	record := builder.NewRecord()
	defer record.Release()

	writer := ipc.NewWriter(out, ipc.WithSchema(TrajectorySchema), ipc.WithAllocator(pool))
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write trajectory record: %w", err)
	}
	return writer.Close()
}

// ReadTrajectoryArrow reads every record batch of an Arrow IPC stream
// written by WriteTrajectoryArrow.
func ReadTrajectoryArrow(in io.Reader) ([]TrajectoryRow, error) {
	reader, err := ipc.NewReader(in, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("open trajectory stream: %w", err)
	}
	defer reader.Release()

	if !reader.Schema().Equal(TrajectorySchema) {
		return nil, fmt.Errorf("unexpected trajectory schema: %s", reader.Schema())
	}

	var rows []TrajectoryRow
	for reader.Next() {
		record := reader.Record()
		sequences := record.Column(0).(*array.String)
		steps := record.Column(1).(*array.Int64)
		damage := record.Column(2).(*array.Float64)
		for i := 0; i < int(record.NumRows()); i++ {
			rows = append(rows, TrajectoryRow{
				Sequence: sequences.Value(i),
				Step:     int(steps.Value(i)),
				Damage:   damage.Value(i),
			})
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read trajectory stream: %w", err)
	}
	return rows, nil
}
