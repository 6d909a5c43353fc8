package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DefaultTimeout bounds a repository call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// conn carries the per-call timeout applied to every database round trip.
type conn struct {
	db      *gorm.DB
	timeout time.Duration
}

func newConn(db *gorm.DB, timeout time.Duration) conn {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return conn{db: db, timeout: timeout}
}

// with returns a session bound to a context that expires after the call timeout.
func (c conn) with(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return c.db.WithContext(ctx), cancel
}
