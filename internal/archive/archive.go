// Package archive provides durable, append-only persistence for ended
// session records.
package archive

import (
	"context"

	"github.com/trupyai/trupy/internal/domain"
)

// Archive defines the interface for persisting ended-session records.
type Archive interface {
	// SaveRecord appends a record for an ended session. Each session ID is
	// archived at most once.
	SaveRecord(ctx context.Context, record *domain.Record) error

	// ListRecords returns archived records ordered by creation time
	// descending, for operator review.
	ListRecords(ctx context.Context, offset, limit int) ([]*domain.Record, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
