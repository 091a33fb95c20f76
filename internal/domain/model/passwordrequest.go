package model

import (
	"fmt"
	"time"
)

// DefaultRequestReason is sent with checkouts the client creates itself.
const DefaultRequestReason = "API Password Request"

// DefaultRequestDuration is used when a request is built without a duration.
const DefaultRequestDuration = 60 * time.Minute

// ConflictOption tells the vault what to do when the account is already
// checked out by someone else.
type ConflictOption string

const (
	ConflictOptionReuse ConflictOption = "reuse"
	ConflictOptionFail  ConflictOption = "fail"
)

// AccessType is the kind of access a request asks for.
type AccessType string

const (
	AccessTypeView AccessType = "view"
	AccessTypeRDP  AccessType = "rdp"
	AccessTypeSSH  AccessType = "ssh"
	AccessTypeApp  AccessType = "app"
)

// PasswordRequest asks the vault for an exclusive, time-bounded checkout.
type PasswordRequest struct {
	SystemID        int64
	AccountID       int64
	DurationMinutes int
	Reason          string
	ConflictOption  ConflictOption
	AccessType      AccessType
	TicketSystemID  *int64
	TicketNumber    *string
}

// NewPasswordRequest builds a request with defaults for the optional
// fields. systemID must be positive.
func NewPasswordRequest(systemID, accountID int64, duration time.Duration, reason string) (PasswordRequest, error) {
	if systemID <= 0 {
		return PasswordRequest{}, InvalidArgumentf("system id is required for password requests")
	}
	if accountID < 0 {
		return PasswordRequest{}, InvalidArgumentf("account id must not be negative, got %d", accountID)
	}
	if duration <= 0 {
		duration = DefaultRequestDuration
	}
	if reason == "" {
		reason = DefaultRequestReason
	}
	return PasswordRequest{
		SystemID:        systemID,
		AccountID:       accountID,
		DurationMinutes: int(duration / time.Minute),
		Reason:          reason,
		ConflictOption:  ConflictOptionReuse,
		AccessType:      AccessTypeView,
	}, nil
}

// Validate re-checks the invariant for requests assembled by hand.
func (r PasswordRequest) Validate() error {
	if r.SystemID <= 0 {
		return InvalidArgumentf("system id is required for password requests")
	}
	return nil
}

// Duration returns the requested checkout span.
func (r PasswordRequest) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

func (r PasswordRequest) String() string {
	return fmt.Sprintf("request for account %d on system %d (%d min)", r.AccountID, r.SystemID, r.DurationMinutes)
}

// PasswordRequestResult is the vault's acknowledgment of a checkout.
type PasswordRequestResult struct {
	RequestID       string
	SystemID        int64
	AccountID       int64
	DurationMinutes int
	CreationDate    time.Time
	ExpirationDate  time.Time
	Status          string
	Reason          string
	RequesterName   string
	RequesterID     int64
	TicketSystemID  *int64
	TicketNumber    *string
	AccessType      AccessType
}

// IsExpired applies ExpiryMargin; an unset expiration is expired.
func (r *PasswordRequestResult) IsExpired(now time.Time) bool {
	return expiredAt(r.ExpirationDate, now)
}
