package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// The vault speaks PascalCase in both directions. The struct tags below are
// the mapping table between wire names and domain fields; encoding/json
// matches keys case-insensitively, so "ManagedAccountID" also lands in
// ManagedAccountId.

// flexInt accepts a JSON number, a numeric string, or null.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts a JSON string, a number, or null. Request ids arrive
// as either.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexTime accepts RFC 3339 and the zone-less timestamps the vault emits.
// Unparseable values decode to the zero time, which reads as expired.
type flexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		f.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t.UTC()
			return nil
		}
	}
	f.Time = time.Time{}
	return nil
}

func (f flexTime) ptr() *time.Time {
	if f.IsZero() {
		return nil
	}
	t := f.Time
	return &t
}

type managedSystemDTO struct {
	ManagedSystemID        flexInt  `json:"ManagedSystemId"`
	SystemID               flexInt  `json:"SystemId"`
	SystemName             string   `json:"SystemName"`
	AssetID                flexInt  `json:"AssetId"`
	AssetName              string   `json:"AssetName"`
	PlatformID             flexInt  `json:"PlatformId"`
	PlatformName           string   `json:"PlatformName"`
	NetBIOSName            string   `json:"NetBiosName"`
	IPAddress              string   `json:"IPAddress"`
	DomainName             string   `json:"DomainName"`
	ForestName             string   `json:"ForestName"`
	FQDN                   string   `json:"Fqdn"`
	Port                   flexInt  `json:"Port"`
	SystemType             string   `json:"SystemType"`
	Description            string   `json:"Description"`
	IsActive               *bool    `json:"IsActive"`
	IsSuspended            bool     `json:"IsSuspended"`
	LastScanDate           flexTime `json:"LastScanDate"`
	LastPasswordChangeDate flexTime `json:"LastPasswordChangeDate"`
	ManagedByUserID        flexInt  `json:"ManagedByUserId"`
	ManagedByUserName      string   `json:"ManagedByUserName"`
	ManagedByGroupID       flexInt  `json:"ManagedByGroupId"`
	ManagedByGroupName     string   `json:"ManagedByGroupName"`
	ManagedByTeamID        flexInt  `json:"ManagedByTeamId"`
	ManagedByTeamName      string   `json:"ManagedByTeamName"`
}

// mapManagedSystem converts the wire record and applies id reconciliation.
func mapManagedSystem(d managedSystemDTO) model.ManagedSystem {
	isActive := true
	if d.IsActive != nil {
		isActive = *d.IsActive
	}
	s := model.ManagedSystem{
		ManagedSystemID:        int64(d.ManagedSystemID),
		SystemID:               int64(d.SystemID),
		SystemName:             d.SystemName,
		AssetID:                int64(d.AssetID),
		AssetName:              d.AssetName,
		PlatformID:             int64(d.PlatformID),
		PlatformName:           d.PlatformName,
		NetBIOSName:            d.NetBIOSName,
		IPAddress:              d.IPAddress,
		DomainName:             d.DomainName,
		ForestName:             d.ForestName,
		FQDN:                   d.FQDN,
		Port:                   int(d.Port),
		SystemType:             d.SystemType,
		Description:            d.Description,
		IsActive:               isActive,
		IsSuspended:            d.IsSuspended,
		LastScanDate:           d.LastScanDate.ptr(),
		LastPasswordChangeDate: d.LastPasswordChangeDate.ptr(),
		ManagedByUserID:        int64(d.ManagedByUserID),
		ManagedByUserName:      d.ManagedByUserName,
		ManagedByGroupID:       int64(d.ManagedByGroupID),
		ManagedByGroupName:     d.ManagedByGroupName,
		ManagedByTeamID:        int64(d.ManagedByTeamID),
		ManagedByTeamName:      d.ManagedByTeamName,
	}
	s.ReconcileIDs()
	return s
}

type managedAccountDTO struct {
	ManagedAccountID   flexInt  `json:"ManagedAccountId"`
	AccountID          flexInt  `json:"AccountId"`
	ManagedSystemID    flexInt  `json:"ManagedSystemId"`
	SystemID           flexInt  `json:"SystemId"`
	AccountName        string   `json:"AccountName"`
	DomainName         string   `json:"DomainName"`
	SystemName         string   `json:"SystemName"`
	AccountType        string   `json:"AccountType"`
	PlatformID         flexInt  `json:"PlatformId"`
	PlatformName       string   `json:"PlatformName"`
	Description        string   `json:"Description"`
	IsDomainLinked     bool     `json:"IsDomainLinked"`
	IsServiceAccount   bool     `json:"IsServiceAccount"`
	IsSuspended        bool     `json:"IsSuspended"`
	LastChangeDate     flexTime `json:"LastChangeDate"`
	NextChangeDate     flexTime `json:"NextChangeDate"`
	LastChangeResult   flexInt  `json:"LastChangeResult"`
	ManagedByUserID    flexInt  `json:"ManagedByUserId"`
	ManagedByUserName  string   `json:"ManagedByUserName"`
	ManagedByGroupID   flexInt  `json:"ManagedByGroupId"`
	ManagedByGroupName string   `json:"ManagedByGroupName"`
	ManagedByTeamID    flexInt  `json:"ManagedByTeamId"`
	ManagedByTeamName  string   `json:"ManagedByTeamName"`
}

// mapManagedAccount converts the wire record and applies id reconciliation.
func mapManagedAccount(d managedAccountDTO) model.ManagedAccount {
	a := model.ManagedAccount{
		ManagedAccountID:   int64(d.ManagedAccountID),
		AccountID:          int64(d.AccountID),
		ManagedSystemID:    int64(d.ManagedSystemID),
		SystemID:           int64(d.SystemID),
		AccountName:        d.AccountName,
		DomainName:         d.DomainName,
		SystemName:         d.SystemName,
		AccountType:        d.AccountType,
		PlatformID:         int64(d.PlatformID),
		PlatformName:       d.PlatformName,
		Description:        d.Description,
		IsDomainLinked:     d.IsDomainLinked,
		IsServiceAccount:   d.IsServiceAccount,
		IsSuspended:        d.IsSuspended,
		LastChangeDate:     d.LastChangeDate.ptr(),
		NextChangeDate:     d.NextChangeDate.ptr(),
		LastChangeResult:   int(d.LastChangeResult),
		ManagedByUserID:    int64(d.ManagedByUserID),
		ManagedByUserName:  d.ManagedByUserName,
		ManagedByGroupID:   int64(d.ManagedByGroupID),
		ManagedByGroupName: d.ManagedByGroupName,
		ManagedByTeamID:    int64(d.ManagedByTeamID),
		ManagedByTeamName:  d.ManagedByTeamName,
	}
	a.ReconcileIDs()
	return a
}

// passwordRequestDTO is the outbound body of POST /Requests.
type passwordRequestDTO struct {
	SystemID        int64   `json:"SystemId"`
	AccountID       int64   `json:"AccountId,omitempty"`
	DurationMinutes int     `json:"DurationMinutes"`
	Reason          string  `json:"Reason,omitempty"`
	ConflictOption  string  `json:"ConflictOption,omitempty"`
	AccessType      string  `json:"AccessType,omitempty"`
	TicketSystemID  *int64  `json:"TicketSystemId,omitempty"`
	TicketNumber    *string `json:"TicketNumber,omitempty"`
}

func toPasswordRequestDTO(r model.PasswordRequest) passwordRequestDTO {
	return passwordRequestDTO{
		SystemID:        r.SystemID,
		AccountID:       r.AccountID,
		DurationMinutes: r.DurationMinutes,
		Reason:          r.Reason,
		ConflictOption:  string(r.ConflictOption),
		AccessType:      string(r.AccessType),
		TicketSystemID:  r.TicketSystemID,
		TicketNumber:    r.TicketNumber,
	}
}

type requestResultDTO struct {
	RequestID       flexString `json:"RequestId"`
	SystemID        flexInt    `json:"SystemId"`
	AccountID       flexInt    `json:"AccountId"`
	DurationMinutes flexInt    `json:"DurationMinutes"`
	CreationDate    flexTime   `json:"CreationDate"`
	ExpirationDate  flexTime   `json:"ExpirationDate"`
	ExpiresDate     flexTime   `json:"ExpiresDate"`
	Status          string     `json:"Status"`
	Reason          string     `json:"Reason"`
	RequesterName   string     `json:"RequesterName"`
	RequesterID     flexInt    `json:"RequesterId"`
	TicketSystemID  *flexInt   `json:"TicketSystemId"`
	TicketNumber    *string    `json:"TicketNumber"`
	AccessType      string     `json:"AccessType"`
}

func mapRequestResult(d requestResultDTO) model.PasswordRequestResult {
	expires := d.ExpirationDate.Time
	if expires.IsZero() {
		expires = d.ExpiresDate.Time
	}
	var ticketSystemID *int64
	if d.TicketSystemID != nil {
		v := int64(*d.TicketSystemID)
		ticketSystemID = &v
	}
	accessType := model.AccessType(d.AccessType)
	if accessType == "" {
		accessType = model.AccessTypeView
	}
	return model.PasswordRequestResult{
		RequestID:       string(d.RequestID),
		SystemID:        int64(d.SystemID),
		AccountID:       int64(d.AccountID),
		DurationMinutes: int(d.DurationMinutes),
		CreationDate:    d.CreationDate.Time,
		ExpirationDate:  expires,
		Status:          d.Status,
		Reason:          d.Reason,
		RequesterName:   d.RequesterName,
		RequesterID:     int64(d.RequesterID),
		TicketSystemID:  ticketSystemID,
		TicketNumber:    d.TicketNumber,
		AccessType:      accessType,
	}
}

// decodeRequestResult accepts the two shapes POST /Requests answers with:
// a result document, or the bare request id (number or string).
func decodeRequestResult(body []byte) (model.PasswordRequestResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var d requestResultDTO
		if err := json.Unmarshal(trimmed, &d); err != nil {
			return model.PasswordRequestResult{}, err
		}
		if d.RequestID == "" {
			return model.PasswordRequestResult{}, fmt.Errorf("request result has no RequestId")
		}
		return mapRequestResult(d), nil
	}

	var id flexString
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return model.PasswordRequestResult{}, err
	}
	if id == "" {
		return model.PasswordRequestResult{}, fmt.Errorf("empty request id")
	}
	return model.PasswordRequestResult{RequestID: string(id), AccessType: model.AccessTypeView}, nil
}

type secretDTO struct {
	ID               string   `json:"Id"`
	Title            string   `json:"Title"`
	SecretType       string   `json:"SecretType"`
	SecretValue      *string  `json:"SecretValue"`
	Password         *string  `json:"Password"`
	CreatedDate      flexTime `json:"CreatedDate"`
	CreatedBy        string   `json:"CreatedBy"`
	LastModifiedDate flexTime `json:"LastModifiedDate"`
	LastModifiedBy   string   `json:"LastModifiedBy"`
	FolderID         string   `json:"FolderId"`
	FolderPath       string   `json:"FolderPath"`
}

func mapSecret(d secretDTO) (model.Secret, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.Secret{}, fmt.Errorf("secret id %q: %w", d.ID, err)
	}

	// Folder ids are informational; a malformed one is dropped.
	folderID, _ := uuid.Parse(d.FolderID)

	var value string
	switch {
	case d.SecretValue != nil:
		value = *d.SecretValue
	case d.Password != nil:
		value = *d.Password
	}

	return model.Secret{
		ID:               id,
		Title:            d.Title,
		SecretType:       d.SecretType,
		Value:            model.Sensitive(value),
		CreatedDate:      d.CreatedDate.ptr(),
		CreatedBy:        d.CreatedBy,
		LastModifiedDate: d.LastModifiedDate.ptr(),
		LastModifiedBy:   d.LastModifiedBy,
		FolderID:         folderID,
		FolderPath:       d.FolderPath,
	}, nil
}

// decodeOneOrMany decodes a body the vault may send as a single object or
// a collection. The collection shape is tried first, then the object.
func decodeOneOrMany[T any](body []byte) ([]T, error) {
	var many []T
	errMany := json.Unmarshal(body, &many)
	if errMany == nil {
		if many == nil {
			many = []T{}
		}
		return many, nil
	}

	var one T
	if errOne := json.Unmarshal(body, &one); errOne != nil {
		return nil, fmt.Errorf("neither collection (%v) nor object (%v)", errMany, errOne)
	}
	return []T{one}, nil
}

// credentialDocument is the structured shape of GET /Credentials/{id}.
type credentialDocument struct {
	Password *string `json:"Password"`
}

// parseCredentialBody reads a credential as a structured document first
// and falls back to the body as a literal string: a JSON string is
// unescaped, anything else loses one layer of surrounding quotes.
func parseCredentialBody(body []byte) (model.Sensitive, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("empty credential body")
	}

	var doc credentialDocument
	if err := json.Unmarshal(trimmed, &doc); err == nil {
		if doc.Password == nil || *doc.Password == "" {
			return "", fmt.Errorf("credential document has no Password")
		}
		return model.Sensitive(*doc.Password), nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		s = string(trimmed)
		if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
			s = s[1 : len(s)-1]
		}
	}
	if s == "" {
		return "", fmt.Errorf("empty credential value")
	}
	return model.Sensitive(s), nil
}
