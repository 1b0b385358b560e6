package storage

import (
	"context"

	"fatiguepinn/internal/model"
)

// Store defines persistence for prepared tables, built models and training
// runs.
type Store interface {
	Init(ctx context.Context) error
	SaveTable(ctx context.Context, table model.GriddedTable) error
	GetTable(ctx context.Context, name string) (model.GriddedTable, bool, error)
	SaveModel(ctx context.Context, record model.ModelRecord) error
	GetModel(ctx context.Context, id string) (model.ModelRecord, bool, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first; limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
}
