// Package ledger provides the SQLite implementation of the ledger store.
package ledger

import (
	"database/sql"

	"github.com/emreakdag/stockdesk/internal/apperror"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func storageErr(op string, err error) error {
	return apperror.Wrap(apperror.Storage, op, err)
}
