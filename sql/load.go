package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed concepts.sql
var conceptsSQL string

//go:embed assertions.sql
var assertionsSQL string

// Function lists for verification
var ConceptsFunctions = []string{
	"init_concepts",
	"insert_concept",
	"select_concept",
	"select_concept_by_name",
	"select_concepts_by_similarity",
	"delete_concept",
}

var AssertionsFunctions = []string{
	"init_assertions",
	"insert_assertion",
	"select_assertion",
	"select_assertions_by_entity",
	"delete_assertion",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadConceptsSql loads concept-related SQL functions
func LoadConceptsSql(db *sql.DB, force bool) error {
	return load(db, "concepts", conceptsSQL, ConceptsFunctions, force)
}

// LoadAssertionsSql loads assertion-related SQL functions
func LoadAssertionsSql(db *sql.DB, force bool) error {
	return load(db, "assertions", assertionsSQL, AssertionsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadConceptsSql(db, force); err != nil {
		return err
	}

	if err := LoadAssertionsSql(db, force); err != nil {
		return err
	}

	return nil
}

// load executes script unless force is false and every function in
// functions already exists.
func load(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
