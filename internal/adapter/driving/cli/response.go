package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// writeJSON renders v indented, one document per command.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// newTable returns a tabwriter aligned like the rest of the CLI's tables.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// SessionResponse is the JSON representation of a session. The token is
// never included.
type SessionResponse struct {
	TokenType string `json:"token_type"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
}

func toSessionResponse(s *model.Session) SessionResponse {
	return SessionResponse{
		TokenType: string(s.TokenType),
		IssuedAt:  formatTime(s.IssuedAt),
		ExpiresAt: formatTime(s.ExpiresAt),
	}
}

// SystemResponse is the JSON representation of a managed system.
type SystemResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Platform     string `json:"platform,omitempty"`
	IPAddress    string `json:"ip_address,omitempty"`
	FQDN         string `json:"fqdn,omitempty"`
	DomainName   string `json:"domain_name,omitempty"`
	Port         int    `json:"port,omitempty"`
	IsActive     bool   `json:"is_active"`
	LastScanDate string `json:"last_scan_date,omitempty"`
}

func toSystemResponse(s model.ManagedSystem) SystemResponse {
	return SystemResponse{
		ID:           s.ManagedSystemID,
		Name:         s.SystemName,
		Platform:     s.PlatformName,
		IPAddress:    s.IPAddress,
		FQDN:         s.FQDN,
		DomainName:   s.DomainName,
		Port:         s.Port,
		IsActive:     s.IsActive,
		LastScanDate: formatTimePtr(s.LastScanDate),
	}
}

// AccountResponse is the JSON representation of a managed account.
type AccountResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	SystemID       int64  `json:"system_id"`
	SystemName     string `json:"system_name,omitempty"`
	DomainName     string `json:"domain_name,omitempty"`
	Platform       string `json:"platform,omitempty"`
	IsDomainLinked bool   `json:"is_domain_linked"`
	IsSuspended    bool   `json:"is_suspended"`
	LastChangeDate string `json:"last_change_date,omitempty"`
	NextChangeDate string `json:"next_change_date,omitempty"`
}

func toAccountResponse(a model.ManagedAccount) AccountResponse {
	return AccountResponse{
		ID:             a.ManagedAccountID,
		Name:           a.AccountName,
		SystemID:       a.ManagedSystemID,
		SystemName:     a.SystemName,
		DomainName:     a.DomainName,
		Platform:       a.PlatformName,
		IsDomainLinked: a.IsDomainLinked,
		IsSuspended:    a.IsSuspended,
		LastChangeDate: formatTimePtr(a.LastChangeDate),
		NextChangeDate: formatTimePtr(a.NextChangeDate),
	}
}

// PasswordResponse is the JSON representation of a checked-out password.
// It is the one response that carries plaintext, because the caller asked
// for it.
type PasswordResponse struct {
	RequestID string `json:"request_id"`
	AccountID int64  `json:"account_id,omitempty"`
	SystemID  int64  `json:"system_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Password  string `json:"password"`
}

func toPasswordResponse(p *model.ManagedPassword) PasswordResponse {
	return PasswordResponse{
		RequestID: p.RequestID,
		AccountID: p.AccountID,
		SystemID:  p.SystemID,
		ExpiresAt: formatTime(p.ExpirationDate),
		Password:  p.Password.Reveal(),
	}
}

// CheckoutResponse is the JSON representation of a ledger entry.
type CheckoutResponse struct {
	RequestID    string `json:"request_id"`
	AccountID    int64  `json:"account_id,omitempty"`
	SystemID     int64  `json:"system_id,omitempty"`
	AccountName  string `json:"account_name,omitempty"`
	SystemName   string `json:"system_name,omitempty"`
	CheckedOutAt string `json:"checked_out_at"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	Expired      bool   `json:"expired"`
}

func toCheckoutResponse(r model.CheckoutRecord, now time.Time) CheckoutResponse {
	return CheckoutResponse{
		RequestID:    r.RequestID,
		AccountID:    r.AccountID,
		SystemID:     r.SystemID,
		AccountName:  r.AccountName,
		SystemName:   r.SystemName,
		CheckedOutAt: formatTime(r.CheckedOutAt),
		ExpiresAt:    formatTime(r.ExpiresAt),
		Expired:      r.IsExpired(now),
	}
}

// SecretResponse is the JSON representation of a Secrets-Safe entry.
type SecretResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	SecretType       string `json:"secret_type,omitempty"`
	FolderPath       string `json:"folder_path,omitempty"`
	LastModifiedDate string `json:"last_modified_date,omitempty"`
	Value            string `json:"value"`
}

func toSecretResponse(s *model.Secret) SecretResponse {
	return SecretResponse{
		ID:               s.ID.String(),
		Title:            s.Title,
		SecretType:       s.SecretType,
		FolderPath:       s.FolderPath,
		LastModifiedDate: formatTimePtr(s.LastModifiedDate),
		Value:            s.Value.Reveal(),
	}
}
