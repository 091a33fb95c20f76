package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// CheckoutStore defines the driven port for the local checkout ledger.
type CheckoutStore interface {
	// Record inserts or replaces the ledger entry for rec.RequestID.
	Record(ctx context.Context, rec model.CheckoutRecord) error
	// MarkCheckedIn stamps the entry's check-in time. Unknown request ids
	// are not an error.
	MarkCheckedIn(ctx context.Context, requestID string, at time.Time) error
	// GetByRequestID returns (nil, nil) when no entry exists.
	GetByRequestID(ctx context.Context, requestID string) (*model.CheckoutRecord, error)
	// ListOpen returns entries not yet checked in, newest first.
	ListOpen(ctx context.Context) ([]model.CheckoutRecord, error)
}
