package db

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/09junaid/full-ecommerce/internal/config"

	_ "github.com/lib/pq"
)

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}

// NewDatabase opens a postgres connection and verifies it with a ping.
func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	return newDatabaseWithDriver(cfg, "postgres")
}

func newDatabaseWithDriver(cfg *config.Config, driver string) (*sql.DB, error) {
	conn, err := sql.Open(driver, buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return conn, nil
}

// InitDB is the fail-fast variant used by cmd/server.
func InitDB(cfg *config.Config) *sql.DB {
	conn, err := NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}

	log.Println("Database connection established")
	return conn
}
