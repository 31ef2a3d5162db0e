package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Email model related methods.
	CreateEmail(ctx context.Context, create *Email) (*Email, error)
	GetEmail(ctx context.Context, id int64) (*Email, error)
	ListEmails(ctx context.Context, find *FindEmail) ([]*Email, error)
}
