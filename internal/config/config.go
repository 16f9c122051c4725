// Package config handles application configuration: environment settings
// and the optional YAML schema-config file that overrides the built-in
// field maps and rule tables.
package config

import (
	"errors"
	"os"
)

// Config holds all settings for the application, loaded from environment
// variables (populated from .env by main).
type Config struct {
	MongoConnString string
	MongoDatabase   string
	LogFile         string
	SchemaFile      string
}

// LoadConfig loads application settings from environment variables.
func LoadConfig() (*Config, error) {
	conn := os.Getenv("MONGO_CONNECTION_STRING")
	if conn == "" {
		return nil, errors.New("MONGO_CONNECTION_STRING environment variable not set")
	}

	db := os.Getenv("MONGO_DATABASE")
	if db == "" {
		db = "pos"
	}

	return &Config{
		MongoConnString: conn,
		MongoDatabase:   db,
		LogFile:         os.Getenv("LOG_FILE"),
		SchemaFile:      os.Getenv("SCHEMA_FILE"),
	}, nil
}
