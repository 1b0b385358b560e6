package storage

import (
	"context"
	"errors"
	"sync"

	"fatiguepinn/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	tables      map[string]model.GriddedTable
	models      map[string]model.ModelRecord
	runs        map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.tables = make(map[string]model.GriddedTable)
	s.models = make(map[string]model.ModelRecord)
	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) SaveTable(_ context.Context, table model.GriddedTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	table.VersionedRecord = Stamp(table.VersionedRecord)
	s.tables[table.Name] = cloneTable(table)
	return nil
}

func (s *MemoryStore) GetTable(_ context.Context, name string) (model.GriddedTable, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.tables[name]
	if !ok {
		return model.GriddedTable{}, false, nil
	}
	return cloneTable(table), true, nil
}

func (s *MemoryStore) SaveModel(_ context.Context, record model.ModelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	record.VersionedRecord = Stamp(record.VersionedRecord)
	record.Trainable = append([]float64(nil), record.Trainable...)
	s.models[record.ID] = record
	return nil
}

func (s *MemoryStore) GetModel(_ context.Context, id string) (model.ModelRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.models[id]
	if !ok {
		return model.ModelRecord{}, false, nil
	}
	record.Trainable = append([]float64(nil), record.Trainable...)
	return record, true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	run.VersionedRecord = Stamp(run.VersionedRecord)
	run.LossHistory = append([]float64(nil), run.LossHistory...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run.LossHistory = append([]float64(nil), run.LossHistory...)
	return run, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		run.LossHistory = append([]float64(nil), run.LossHistory...)
		runs = append(runs, run)
	}
	sortRuns(runs)
	return limitRuns(runs, limit), nil
}

var errNotInitialized = errors.New("store is not initialized")

func cloneTable(t model.GriddedTable) model.GriddedTable {
	t.Data = append([]float64(nil), t.Data...)
	return t
}
