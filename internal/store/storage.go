package store

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrEntityNotFound = errors.New("entity not found")

type Storage struct {
	Entities interface {
		EnsureSchema(ctx context.Context) error
		Upsert(ctx context.Context, entities []Entity) (SyncResult, error)
		GetByID(ctx context.Context, id string) (Entity, error)
		Count(ctx context.Context) (int, error)
	}

	ImportHistory interface {
		EnsureSchema(ctx context.Context) error
		InsertImportRun(ctx context.Context, run *ImportRun) error
		GetLatest(ctx context.Context, limit int) ([]ImportRun, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Entities:      &EntityStore{db: db},
		ImportHistory: &ImportHistoryStore{db: db},
	}
}

// EnsureSchema creates every table the sync writes to when it is missing.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if err := s.Entities.EnsureSchema(ctx); err != nil {
		return err
	}
	return s.ImportHistory.EnsureSchema(ctx)
}
