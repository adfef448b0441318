package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	loadSql "github.com/siherrmann/summer/sql"
)

// AssertionsDBHandlerFunctions defines the interface for Assertions database operations.
type AssertionsDBHandlerFunctions interface {
	InsertAssertion(ctx context.Context, assertion *model.Assertion) error
	DeleteAssertion(ctx context.Context, id uuid.UUID) error
	SelectAssertion(ctx context.Context, id uuid.UUID) (*model.Assertion, error)
	SelectAssertionsByEntity(ctx context.Context, name model.Entity) ([]*model.Assertion, error)
}

// AssertionsDBHandler handles assertion-related database operations
type AssertionsDBHandler struct {
	db *helper.Database
}

// NewAssertionsDBHandler creates a new assertions database handler.
// It initializes the database connection and loads assertion-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewAssertionsDBHandler(db *helper.Database, force bool) (*AssertionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	assertionsDbHandler := &AssertionsDBHandler{
		db: db,
	}

	err := loadSql.LoadAssertionsSql(assertionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load assertions sql", err)
	}

	err = assertionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized AssertionsDBHandler")

	return assertionsDbHandler, nil
}

// CreateTable creates the 'assertions' table in the database.
// If the table already exists, it does not create it again.
// It also creates the lookup indexes on both endpoints.
func (h *AssertionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_assertions();`)
	if err != nil {
		log.Panicf("error initializing assertions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table assertions")

	return nil
}

// InsertAssertion inserts an assertion. An existing assertion with the same
// endpoints and relation gets the new weight.
func (h *AssertionsDBHandler) InsertAssertion(ctx context.Context, assertion *model.Assertion) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_assertion($1, $2, $3, $4, $5, $6)`,
		model.NormalizeEntity(string(assertion.Start)),
		model.NormalizeEntity(string(assertion.End)),
		assertion.Relation.Name(),
		assertion.Weight,
		assertion.Dataset,
		assertion.Metadata,
	)

	err := scanAssertion(row, assertion)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteAssertion deletes an assertion by ID
func (h *AssertionsDBHandler) DeleteAssertion(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_assertion($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectAssertion retrieves an assertion by ID
func (h *AssertionsDBHandler) SelectAssertion(ctx context.Context, id uuid.UUID) (*model.Assertion, error) {
	assertion := &model.Assertion{}
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_assertion($1)`, id)

	err := scanAssertion(row, assertion)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return assertion, nil
}

// SelectAssertionsByEntity retrieves every assertion starting or ending at
// name, heaviest first.
func (h *AssertionsDBHandler) SelectAssertionsByEntity(ctx context.Context, name model.Entity) ([]*model.Assertion, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_assertions_by_entity($1)`, name)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var assertions []*model.Assertion
	for rows.Next() {
		assertion := &model.Assertion{}
		err := rows.Scan(
			&assertion.ID,
			&assertion.Start,
			&assertion.End,
			&assertion.Relation,
			&assertion.Weight,
			&assertion.Dataset,
			&assertion.Metadata,
			&assertion.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		assertions = append(assertions, assertion)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return assertions, nil
}

func scanAssertion(row *sql.Row, assertion *model.Assertion) error {
	return row.Scan(
		&assertion.ID,
		&assertion.Start,
		&assertion.End,
		&assertion.Relation,
		&assertion.Weight,
		&assertion.Dataset,
		&assertion.Metadata,
		&assertion.CreatedAt,
	)
}
