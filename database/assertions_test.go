package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/siherrmann/summer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assertionColumns = []string{"id", "start_name", "end_name", "relation", "weight", "dataset", "metadata", "created_at"}

func TestAssertionsMocked(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Insert assertion normalizes endpoints and relation", func(t *testing.T) {
		db, mock := newMockDB(t)
		handler := &AssertionsDBHandler{db: db}

		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM insert_assertion($1, $2, $3, $4, $5, $6)`)).
			WithArgs("volcano", "lava flow", "RelatedTo", 2.0, "conceptnet", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(assertionColumns).
				AddRow(id.String(), "volcano", "lava flow", "RelatedTo", 2.0, "conceptnet", []byte(`{}`), created))

		assertion := &model.Assertion{
			Start:    "/c/en/volcano/n",
			End:      "Lava_Flow",
			Relation: "/r/RelatedTo",
			Weight:   2,
			Dataset:  "conceptnet",
		}
		err := handler.InsertAssertion(ctx, assertion)
		require.NoError(t, err)
		assert.Equal(t, id, assertion.ID)
		assert.Equal(t, model.Entity("volcano"), assertion.Start)
		assert.Equal(t, model.Entity("lava flow"), assertion.End)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Select assertions by entity", func(t *testing.T) {
		db, mock := newMockDB(t)
		handler := &AssertionsDBHandler{db: db}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM select_assertions_by_entity($1)`)).
			WithArgs("magma").
			WillReturnRows(sqlmock.NewRows(assertionColumns).
				AddRow(uuid.New().String(), "volcano", "magma", "Synonym", 1.0, "", []byte(`{}`), created).
				AddRow(uuid.New().String(), "magma", "lava", "RelatedTo", 0.5, "", []byte(`{}`), created))

		assertions, err := handler.SelectAssertionsByEntity(ctx, "magma")
		require.NoError(t, err)
		require.Len(t, assertions, 2)
		assert.Equal(t, model.Relation{Start: "volcano", End: "magma", Type: model.RelationSynonym, Weight: 1}, assertions[0].ToRelation())
		assert.Equal(t, model.RelationRelatedTo, assertions[1].Relation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Scan errors are wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		handler := &AssertionsDBHandler{db: db}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM select_assertions_by_entity($1)`)).
			WithArgs("magma").
			WillReturnRows(sqlmock.NewRows(assertionColumns).
				AddRow("not a uuid", "volcano", "magma", "Synonym", 1.0, "", []byte(`{}`), created))

		_, err := handler.SelectAssertionsByEntity(ctx, "magma")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "scan")
	})

	t.Run("Delete assertion", func(t *testing.T) {
		db, mock := newMockDB(t)
		handler := &AssertionsDBHandler{db: db}

		id := uuid.New()
		mock.ExpectExec(regexp.QuoteMeta(`SELECT delete_assertion($1)`)).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, handler.DeleteAssertion(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewAssertionsDBHandler(t *testing.T) {
	t.Run("Invalid call NewAssertionsDBHandler with nil database", func(t *testing.T) {
		_, err := NewAssertionsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating AssertionsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})

	t.Run("Valid call NewAssertionsDBHandler", func(t *testing.T) {
		database := initDB(t)

		assertionsDbHandler, err := NewAssertionsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewAssertionsDBHandler to not return an error")
		require.NotNil(t, assertionsDbHandler, "Expected NewAssertionsDBHandler to return a non-nil instance")
	})
}

func TestAssertionsIntegration(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	assertionsDbHandler, err := NewAssertionsDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Insert and select assertions by either endpoint", func(t *testing.T) {
		synonym := &model.Assertion{Start: "volcano", End: "mountain of fire", Relation: model.RelationSynonym, Weight: 1}
		related := &model.Assertion{Start: "lava", End: "volcano", Relation: model.RelationRelatedTo, Weight: 3}
		require.NoError(t, assertionsDbHandler.InsertAssertion(ctx, synonym))
		require.NoError(t, assertionsDbHandler.InsertAssertion(ctx, related))

		assertions, err := assertionsDbHandler.SelectAssertionsByEntity(ctx, "volcano")
		require.NoError(t, err)
		require.Len(t, assertions, 2)
		assert.Equal(t, related.ID, assertions[0].ID, "Expected the heaviest assertion first")
		assert.Equal(t, synonym.ID, assertions[1].ID)

		retrieved, err := assertionsDbHandler.SelectAssertion(ctx, synonym.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Entity("mountain of fire"), retrieved.End)

		require.NoError(t, assertionsDbHandler.DeleteAssertion(ctx, synonym.ID))
		require.NoError(t, assertionsDbHandler.DeleteAssertion(ctx, related.ID))
	})

	t.Run("Insert duplicate assertion updates the weight", func(t *testing.T) {
		first := &model.Assertion{Start: "ash", End: "smoke", Relation: model.RelationRelatedTo, Weight: 1}
		require.NoError(t, assertionsDbHandler.InsertAssertion(ctx, first))

		second := &model.Assertion{Start: "ash", End: "smoke", Relation: model.RelationRelatedTo, Weight: 4}
		require.NoError(t, assertionsDbHandler.InsertAssertion(ctx, second))

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 4.0, second.Weight)

		require.NoError(t, assertionsDbHandler.DeleteAssertion(ctx, first.ID))
	})

	t.Run("Unknown entity has no assertions", func(t *testing.T) {
		assertions, err := assertionsDbHandler.SelectAssertionsByEntity(ctx, "unknown concept")
		require.NoError(t, err)
		assert.Empty(t, assertions)
	})
}
