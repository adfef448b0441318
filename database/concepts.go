package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	loadSql "github.com/siherrmann/summer/sql"
)

// ConceptsDBHandlerFunctions defines the interface for Concepts database operations.
type ConceptsDBHandlerFunctions interface {
	InsertConcept(ctx context.Context, concept *model.Concept) error
	DeleteConcept(ctx context.Context, id uuid.UUID) error
	SelectConcept(ctx context.Context, id uuid.UUID) (*model.Concept, error)
	SelectConceptByName(ctx context.Context, name model.Entity, language string) (*model.Concept, error)
	SelectConceptsBySimilarity(ctx context.Context, embedding []float32, language string, limit int, threshold float64) ([]*model.Concept, error)
}

// ConceptsDBHandler handles concept-related database operations
type ConceptsDBHandler struct {
	db *helper.Database
}

// NewConceptsDBHandler creates a new concepts database handler.
// It loads the concept SQL functions and creates the table with an
// embedding column of embeddingDim dimensions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewConceptsDBHandler(db *helper.Database, embeddingDim int, force bool) (*ConceptsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewConfigurationError("concepts handler", "embedding dimension must be positive, got %d", embeddingDim)
	}

	conceptsDbHandler := &ConceptsDBHandler{
		db: db,
	}

	err := loadSql.LoadConceptsSql(conceptsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load concepts sql", err)
	}

	err = conceptsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ConceptsDBHandler")

	return conceptsDbHandler, nil
}

// CreateTable creates the 'concepts' table in the database.
// If the table already exists, it does not create it again.
func (h *ConceptsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_concepts($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing concepts table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table concepts")

	return nil
}

// InsertConcept inserts a concept or merges it into the existing one with
// the same name and language.
func (h *ConceptsDBHandler) InsertConcept(ctx context.Context, concept *model.Concept) error {
	if concept.Language == "" {
		concept.Language = "en"
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_concept($1, $2, $3, $4)`,
		concept.Name,
		concept.Language,
		embeddingParam(concept.Embedding),
		concept.Metadata,
	)

	err := scanConcept(row, concept)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteConcept deletes a concept by ID
func (h *ConceptsDBHandler) DeleteConcept(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_concept($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectConcept retrieves a concept by ID
func (h *ConceptsDBHandler) SelectConcept(ctx context.Context, id uuid.UUID) (*model.Concept, error) {
	concept := &model.Concept{}
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_concept($1)`, id)

	err := scanConcept(row, concept)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return concept, nil
}

// SelectConceptByName retrieves a concept by its normalized name.
// It returns sql.ErrNoRows wrapped in a helper error for unknown names.
func (h *ConceptsDBHandler) SelectConceptByName(ctx context.Context, name model.Entity, language string) (*model.Concept, error) {
	concept := &model.Concept{}
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_concept_by_name($1, $2)`, name, language)

	err := scanConcept(row, concept)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return concept, nil
}

// SelectConceptsBySimilarity returns up to limit concepts whose cosine
// similarity to embedding is at least threshold, most similar first.
func (h *ConceptsDBHandler) SelectConceptsBySimilarity(ctx context.Context, embedding []float32, language string, limit int, threshold float64) ([]*model.Concept, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_concepts_by_similarity($1, $2, $3, $4)`,
		pgvector.NewVector(embedding),
		language,
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var concepts []*model.Concept
	for rows.Next() {
		concept := &model.Concept{}
		var vector *pgvector.Vector
		err := rows.Scan(
			&concept.ID,
			&concept.Name,
			&concept.Language,
			&vector,
			&concept.Metadata,
			&concept.CreatedAt,
			&concept.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if vector != nil {
			concept.Embedding = vector.Slice()
		}

		concepts = append(concepts, concept)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return concepts, nil
}

func scanConcept(row *sql.Row, concept *model.Concept) error {
	var vector *pgvector.Vector
	err := row.Scan(
		&concept.ID,
		&concept.Name,
		&concept.Language,
		&vector,
		&concept.Metadata,
		&concept.CreatedAt,
	)
	if err != nil {
		return err
	}
	concept.Embedding = nil
	if vector != nil {
		concept.Embedding = vector.Slice()
	}
	return nil
}

func embeddingParam(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
