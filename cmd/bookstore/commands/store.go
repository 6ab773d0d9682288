package commands

import (
	"database/sql"
	"fmt"

	"github.com/safar/go-bookstore/internal/config"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/repository"
	"github.com/safar/go-bookstore/internal/store"
	"github.com/safar/go-bookstore/internal/store/memory"
	log "github.com/sirupsen/logrus"
)

// openStore returns the configured repository.Store and a func releasing it.
func openStore(c *config.Config) (repository.Store, func(), error) {
	if c.Storage == config.StorageDriverMemory {
		log.Warn("Using in-memory storage; data is lost on exit")
		return memory.New(), func() {}, nil
	}

	db, err := openDB(c)
	if err != nil {
		return nil, nil, err
	}
	return store.New(db, c.Database.TxMaxRetries), func() { db.Close() }, nil
}

func openDB(c *config.Config) (*sql.DB, error) {
	if c.Storage != config.StorageDriverPostgres {
		return nil, fmt.Errorf("this command requires STORAGE_DRIVER=%s", config.StorageDriverPostgres)
	}

	db, err := database.NewConnection(&c.Database)
	if err != nil {
		return nil, err
	}
	log.WithField("driver", c.Database.Driver).Info("Connected to database successfully")
	return db, nil
}
