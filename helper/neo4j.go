package helper

import (
	"os"

	"github.com/joho/godotenv"
)

// Neo4jConfiguration holds the connection settings of a neo4j knowledge graph.
type Neo4jConfiguration struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewNeo4jConfiguration reads the SUMMER_NEO4J_* environment variables.
func NewNeo4jConfiguration() (*Neo4jConfiguration, error) {
	_ = godotenv.Load()

	config := &Neo4jConfiguration{
		URI:      os.Getenv("SUMMER_NEO4J_URI"),
		Username: os.Getenv("SUMMER_NEO4J_USERNAME"),
		Password: os.Getenv("SUMMER_NEO4J_PASSWORD"),
		Database: os.Getenv("SUMMER_NEO4J_DATABASE"),
	}
	if config.URI == "" {
		return nil, NewConfigurationError("neo4j configuration", "SUMMER_NEO4J_URI must be set")
	}
	if config.Database == "" {
		config.Database = "neo4j"
	}
	return config, nil
}
