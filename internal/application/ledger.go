package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// Ledger keeps the local record of checkouts made from this machine so they
// can be listed and checked in later. It never sees passwords beyond the
// ManagedPassword metadata.
type Ledger struct {
	store  driven.CheckoutStore
	logger *slog.Logger
	now    func() time.Time
}

// NewLedger creates a Ledger. A nil logger uses slog.Default().
func NewLedger(store driven.CheckoutStore, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// RecordCheckout stores a ledger entry for pw. account is optional and only
// supplies display names.
func (l *Ledger) RecordCheckout(ctx context.Context, pw *model.ManagedPassword, account *model.ManagedAccount) error {
	rec := model.CheckoutRecord{
		RequestID:    pw.RequestID,
		AccountID:    pw.AccountID,
		SystemID:     pw.SystemID,
		CheckedOutAt: l.now().UTC(),
		ExpiresAt:    pw.ExpirationDate.UTC(),
	}
	if account != nil {
		rec.AccountName = account.AccountName
		rec.SystemName = account.SystemName
	}

	if err := l.store.Record(ctx, rec); err != nil {
		return fmt.Errorf("recording checkout %s: %w", pw.RequestID, err)
	}
	l.logger.Debug("checkout recorded", "request_id", pw.RequestID)
	return nil
}

// RecordCheckIn stamps the entry for requestID as checked in.
func (l *Ledger) RecordCheckIn(ctx context.Context, requestID string) error {
	if err := l.store.MarkCheckedIn(ctx, requestID, l.now().UTC()); err != nil {
		return fmt.Errorf("recording check-in %s: %w", requestID, err)
	}
	return nil
}

// Open returns entries not yet checked in, newest first. Entries whose
// checkout has lapsed on the vault side are dropped when dropExpired is set.
func (l *Ledger) Open(ctx context.Context, dropExpired bool) ([]model.CheckoutRecord, error) {
	records, err := l.store.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing open checkouts: %w", err)
	}
	if !dropExpired {
		return records, nil
	}

	now := l.now()
	live := make([]model.CheckoutRecord, 0, len(records))
	for _, r := range records {
		if !r.IsExpired(now) {
			live = append(live, r)
		}
	}
	return live, nil
}
