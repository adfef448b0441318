package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/summer/helper"
)

// IndexType selects the pgvector index on concept embeddings.
type IndexType string

const (
	IndexHNSW    IndexType = "hnsw"
	IndexIVFFlat IndexType = "ivfflat"
)

// IndexOptions tunes the vector index. Zero values use the pgvector defaults
// of m 16 and ef_construction 64 for HNSW and 100 lists for IVFFlat.
type IndexOptions struct {
	M              int
	EfConstruction int
	Lists          int
}

// ChangeIndexType rebuilds the concept embedding index as indexType.
func (h *ConceptsDBHandler) ChangeIndexType(ctx context.Context, indexType IndexType, options IndexOptions) error {
	createIndexSQL, err := indexStatement(indexType, options)
	if err != nil {
		return helper.NewError("change index type", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err = h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_concepts_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info("Rebuilt concept embedding index", slog.String("type", string(indexType)))

	return nil
}

func indexStatement(indexType IndexType, options IndexOptions) (string, error) {
	switch indexType {
	case IndexHNSW:
		m := options.M
		if m <= 0 {
			m = 16
		}
		efConstruction := options.EfConstruction
		if efConstruction <= 0 {
			efConstruction = 64
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_concepts_embedding ON concepts USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		), nil
	case IndexIVFFlat:
		lists := options.Lists
		if lists <= 0 {
			lists = 100
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_concepts_embedding ON concepts USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		), nil
	}
	return "", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType)
}
