package model

import (
	"fmt"
	"log/slog"
	"time"
)

// ManagedPassword is a checked-out credential. AccountID, SystemID and
// ExpirationDate are zero when the password was fetched by request id alone.
type ManagedPassword struct {
	Password       Sensitive
	RequestID      string
	AccountID      int64
	SystemID       int64
	ExpirationDate time.Time
}

// IsExpired applies ExpiryMargin; an unset expiration is expired.
func (p *ManagedPassword) IsExpired(now time.Time) bool {
	return expiredAt(p.ExpirationDate, now)
}

// String never includes the password.
func (p ManagedPassword) String() string {
	return fmt.Sprintf("Password for account ID: %d (Request ID: %s)", p.AccountID, p.RequestID)
}

// LogValue implements slog.LogValuer without the password.
func (p ManagedPassword) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("request_id", p.RequestID),
		slog.Int64("account_id", p.AccountID),
		slog.Int64("system_id", p.SystemID),
		slog.Time("expires", p.ExpirationDate),
	)
}
