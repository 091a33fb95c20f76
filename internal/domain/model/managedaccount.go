package model

import (
	"fmt"
	"time"
)

// ManagedAccount describes a credential on a managed system. Both id pairs
// follow the canonical/secondary rule of ManagedSystem.
type ManagedAccount struct {
	ManagedAccountID int64
	AccountID        int64
	ManagedSystemID  int64
	SystemID         int64

	AccountName  string
	DomainName   string
	SystemName   string
	AccountType  string
	PlatformID   int64
	PlatformName string
	Description  string

	IsDomainLinked   bool
	IsServiceAccount bool
	IsSuspended      bool

	LastChangeDate   *time.Time
	NextChangeDate   *time.Time
	LastChangeResult int

	ManagedByUserID    int64
	ManagedByUserName  string
	ManagedByGroupID   int64
	ManagedByGroupName string
	ManagedByTeamID    int64
	ManagedByTeamName  string
}

// ReconcileIDs fills the canonical ids from the secondary ids when only the
// latter were populated.
func (a *ManagedAccount) ReconcileIDs() {
	if a.ManagedAccountID == 0 && a.AccountID != 0 {
		a.ManagedAccountID = a.AccountID
	}
	if a.ManagedSystemID == 0 && a.SystemID != 0 {
		a.ManagedSystemID = a.SystemID
	}
}

func (a ManagedAccount) String() string {
	return fmt.Sprintf("%s (ID: %d) on %s", a.AccountName, a.ManagedAccountID, a.SystemName)
}

// AccountLookup identifies a managed account by name. Local accounts need
// SystemName; domain-linked accounts need DomainName instead.
type AccountLookup struct {
	AccountName  string
	SystemName   string
	DomainName   string
	DomainLinked bool
}

// Validate checks the name combination before any request is made.
func (l AccountLookup) Validate() error {
	if l.AccountName == "" {
		return InvalidArgumentf("account name is required")
	}
	if l.DomainLinked {
		if l.DomainName == "" {
			return InvalidArgumentf("domain name is required for a domain-linked account")
		}
		return nil
	}
	if l.SystemName == "" {
		return InvalidArgumentf("system name is required for a local account")
	}
	return nil
}

// QualifiedName returns domain\account for domain-linked lookups and the
// bare account name otherwise.
func (l AccountLookup) QualifiedName() string {
	if l.DomainLinked {
		return l.DomainName + `\` + l.AccountName
	}
	return l.AccountName
}
