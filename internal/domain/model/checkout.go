package model

import "time"

// CheckoutRecord is the local ledger entry for a checkout this client made.
// It never holds the password itself.
type CheckoutRecord struct {
	ID           int64
	RequestID    string
	AccountID    int64
	SystemID     int64
	AccountName  string
	SystemName   string
	CheckedOutAt time.Time
	ExpiresAt    time.Time
	CheckedInAt  *time.Time
}

// IsOpen reports whether the checkout has not been checked in locally.
func (r CheckoutRecord) IsOpen() bool {
	return r.CheckedInAt == nil
}

// IsExpired applies ExpiryMargin to the recorded expiry.
func (r CheckoutRecord) IsExpired(now time.Time) bool {
	return expiredAt(r.ExpiresAt, now)
}
