package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. The backend is
// selected by DB_TYPE: "sqlite" (default, file under ./data) or
// "postgres" (DATABASE_URL).
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var db *sqlx.DB
	var err error

	switch dbType {
	case "sqlite":
		// Create data directory if it doesn't exist
		dataDir := "data"
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}

		dbPath := filepath.Join(dataDir, "tmtvocab.db")
		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to sqlite database: %v", err)
		}

		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %v", err)
		}

		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres database: %v", err)
		}

	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}

	DB = db

	// Initialize schema
	return initializeSchema()
}

// ConnectTest opens an in-memory sqlite database for tests
func ConnectTest() error {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// Create words table: both the bundled static set and AI-generated
	// words accumulated at runtime
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS words (
			id TEXT PRIMARY KEY,
			word TEXT NOT NULL,
			pronunciation TEXT DEFAULT '',
			part_of_speech TEXT DEFAULT '',
			definition TEXT DEFAULT '',
			definition_cn TEXT DEFAULT '',
			example TEXT DEFAULT '',
			example_cn TEXT DEFAULT '',
			context TEXT DEFAULT '',
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'intermediate',
			source TEXT NOT NULL DEFAULT 'static',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create words table: %v", err)
	}

	// Create user_progress table: one record per word ever answered or
	// bookmarked, never deleted
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_progress (
			word_id TEXT PRIMARY KEY,
			mastery INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			wrong_count INTEGER NOT NULL DEFAULT 0,
			last_reviewed TIMESTAMP NOT NULL,
			next_review TIMESTAMP NOT NULL,
			is_bookmarked BOOLEAN NOT NULL DEFAULT false,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_progress table: %v", err)
	}

	// Create settings table for small persisted UI state
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create settings table: %v", err)
	}

	return nil
}
