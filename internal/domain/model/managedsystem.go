package model

import (
	"fmt"
	"time"
)

// ManagedSystem describes a host whose credentials the vault manages.
// ManagedSystemID is canonical; SystemID is the secondary id some endpoints
// populate instead.
type ManagedSystem struct {
	ManagedSystemID int64
	SystemID        int64

	SystemName   string
	AssetID      int64
	AssetName    string
	PlatformID   int64
	PlatformName string
	NetBIOSName  string
	IPAddress    string
	DomainName   string
	ForestName   string
	FQDN         string
	Port         int
	SystemType   string
	Description  string

	IsActive    bool
	IsSuspended bool

	LastScanDate           *time.Time
	LastPasswordChangeDate *time.Time

	ManagedByUserID    int64
	ManagedByUserName  string
	ManagedByGroupID   int64
	ManagedByGroupName string
	ManagedByTeamID    int64
	ManagedByTeamName  string
}

// ReconcileIDs copies SystemID into ManagedSystemID when only the secondary
// id was populated.
func (s *ManagedSystem) ReconcileIDs() {
	if s.ManagedSystemID == 0 && s.SystemID != 0 {
		s.ManagedSystemID = s.SystemID
	}
}

func (s ManagedSystem) String() string {
	return fmt.Sprintf("%s (ID: %d)", s.SystemName, s.ManagedSystemID)
}
