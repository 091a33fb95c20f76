package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Secret is an entry of the vault's generic secret store, distinct from
// managed-account credentials.
type Secret struct {
	ID               uuid.UUID
	Title            string
	SecretType       string
	Value            Sensitive
	CreatedDate      *time.Time
	CreatedBy        string
	LastModifiedDate *time.Time
	LastModifiedBy   string
	FolderID         uuid.UUID
	FolderPath       string
}

func (s Secret) String() string {
	return fmt.Sprintf("%s (ID: %s)", s.Title, s.ID)
}
