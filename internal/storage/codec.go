package storage

import (
	"encoding/json"
	"errors"
	"sort"

	"fatiguepinn/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp fills an unset version with the current one.
func Stamp(v model.VersionedRecord) model.VersionedRecord {
	if v.SchemaVersion == 0 && v.CodecVersion == 0 {
		return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
	}
	return v
}

func EncodeTable(t model.GriddedTable) ([]byte, error) {
	t.VersionedRecord = Stamp(t.VersionedRecord)
	return json.Marshal(t)
}

func DecodeTable(data []byte) (model.GriddedTable, error) {
	var table model.GriddedTable
	if err := json.Unmarshal(data, &table); err != nil {
		return model.GriddedTable{}, err
	}
	if err := checkVersion(table.VersionedRecord); err != nil {
		return model.GriddedTable{}, err
	}
	return table, nil
}

func EncodeModel(m model.ModelRecord) ([]byte, error) {
	m.VersionedRecord = Stamp(m.VersionedRecord)
	return json.Marshal(m)
}

func DecodeModel(data []byte) (model.ModelRecord, error) {
	var record model.ModelRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.ModelRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.ModelRecord{}, err
	}
	return record, nil
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	r.VersionedRecord = Stamp(r.VersionedRecord)
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// sortRuns orders runs newest first, breaking ties by id.
func sortRuns(runs []model.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].CreatedAtUTC.Equal(runs[j].CreatedAtUTC) {
			return runs[i].CreatedAtUTC.After(runs[j].CreatedAtUTC)
		}
		return runs[i].ID < runs[j].ID
	})
}

func limitRuns(runs []model.RunRecord, limit int) []model.RunRecord {
	if limit > 0 && len(runs) > limit {
		return runs[:limit]
	}
	return runs
}
