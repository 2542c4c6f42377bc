// Package stores opens the backend selected by configuration.
package stores

import (
	"fmt"
	"log"

	"github.com/gisa-quiz/backend/internal/backend"
	"github.com/gisa-quiz/backend/internal/backend/document"
	"github.com/gisa-quiz/backend/internal/backend/offline"
	"github.com/gisa-quiz/backend/internal/backend/relational"
	"github.com/gisa-quiz/backend/internal/config"
	"github.com/gisa-quiz/backend/internal/database"
)

// Open connects and migrates the configured backend.
func Open(cfg *config.Config) (backend.Backend, error) {
	switch cfg.Backend {
	case config.BackendRelational:
		dsn := cfg.PostgresDSN()
		if err := database.MigratePostgres(dsn); err != nil {
			return nil, err
		}
		db, err := database.Connect(dsn)
		if err != nil {
			return nil, err
		}
		log.Printf("[stores] relational backend on %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
		return relational.New(db), nil

	case config.BackendDocument:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateSQLite(db); err != nil {
			db.Close()
			return nil, err
		}
		log.Printf("[stores] document backend at %s", cfg.SQLitePath)
		return document.New(db), nil

	case config.BackendOffline:
		b, err := offline.New()
		if err != nil {
			return nil, err
		}
		log.Printf("[stores] offline backend: seed questions only, sign-in and notes disabled")
		return b, nil

	default:
		return nil, fmt.Errorf("unknown backend %q (want relational, document or offline)", cfg.Backend)
	}
}
