package dataextract

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadSequenceCSV(t *testing.T) {
	in := strings.NewReader("sequence,step,cycles,load,temp\n" +
		"b1,0,100,2.0,60\n" +
		"b2,0,110,2.1,61\n" +
		"b1,1,101,2.0,62\n" +
		"b2,1,111,2.1,63\n")
	set, err := ReadSequenceCSV(in)
	if err != nil {
		t.Fatalf("read sequences: %v", err)
	}
	if len(set.IDs) != 2 || set.IDs[0] != "b1" || set.IDs[1] != "b2" {
		t.Fatalf("unexpected ids: %v", set.IDs)
	}
	if set.Steps() != 2 || len(set.Features) != 3 {
		t.Fatalf("unexpected shape: steps=%d features=%v", set.Steps(), set.Features)
	}
	if set.Inputs[1][1][0] != 111 || set.Inputs[0][1][2] != 62 {
		t.Fatalf("unexpected inputs: %v", set.Inputs)
	}
}

func TestReadSequenceCSVRejectsGaps(t *testing.T) {
	in := strings.NewReader("sequence,step,x\nb1,0,1\nb1,2,1\n")
	if _, err := ReadSequenceCSV(in); err == nil {
		t.Fatal("expected out-of-order step error")
	}
	in = strings.NewReader("sequence,step,x\nb1,0,1\nb1,1,1\nb2,0,1\n")
	if _, err := ReadSequenceCSV(in); err == nil {
		t.Fatal("expected unequal length error")
	}
}

func TestReadTargetsCSV(t *testing.T) {
	in := strings.NewReader("sequence,index,value\nb2,4319,0.2\nb1,4319,0.1\nb1,8639,0.3\nb2,8639,0.4\n")
	targets, err := ReadTargetsCSV(in, []string{"b1", "b2"})
	if err != nil {
		t.Fatalf("read targets: %v", err)
	}
	if len(targets.Values) != 2 || targets.Values[0][1] != 0.3 || targets.Values[1][0] != 0.2 {
		t.Fatalf("unexpected targets: %v", targets.Values)
	}
	if got := targets.Indices[0]; len(got) != 2 || got[0] != 4319 || got[1] != 8639 {
		t.Fatalf("unexpected target indices: %v", targets.Indices)
	}

	in = strings.NewReader("sequence,index,value\nb1,5,0.1\nb1,4,0.2\n")
	if _, err := ReadTargetsCSV(in, []string{"b1"}); err == nil {
		t.Fatal("expected ordering error")
	}
	in = strings.NewReader("sequence,index,value\nzz,5,0.1\n")
	if _, err := ReadTargetsCSV(in, []string{"b1"}); err == nil {
		t.Fatal("expected unknown sequence error")
	}
}

func TestReadTargetsCSVKeepsIndices(t *testing.T) {
	in := strings.NewReader("sequence,index,value\ns,0,0.1\ns,1,0.2\ns,2,0.3\ns,3,0.4\ns,4,0.5\ns,5,0.6\n")
	targets, err := ReadTargetsCSV(in, []string{"s"})
	if err != nil {
		t.Fatalf("read targets: %v", err)
	}
	for i, idx := range targets.Indices[0] {
		if idx != i {
			t.Fatalf("index %d: got=%d want=%d", i, idx, i)
		}
	}
	if len(targets.Values[0]) != 6 || targets.Values[0][5] != 0.6 {
		t.Fatalf("unexpected values: %v", targets.Values[0])
	}
}

func TestTrajectoryRowsAndCSV(t *testing.T) {
	rows := TrajectoryRows([]string{"b1", "b2"}, [][]float64{{0.1, 0.2, 0.3}, {0.9}}, 3)
	if len(rows) != 4 {
		t.Fatalf("unexpected row count: %d", len(rows))
	}
	if rows[3].Sequence != "b2" || rows[3].Step != 2 || rows[3].Damage != 0.9 {
		t.Fatalf("final-only row not aligned to last step: %+v", rows[3])
	}

	var buf bytes.Buffer
	if err := WriteTrajectoryCSV(&buf, rows); err != nil {
		t.Fatalf("write trajectory: %v", err)
	}
	want := "sequence,step,damage\nb1,0,0.1\nb1,1,0.2\nb1,2,0.3\nb2,2,0.9\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s\nwant:\n%s", buf.String(), want)
	}
}
