package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionDeposit       AuditAction = "DEPOSIT"
	AuditActionWithdrawal    AuditAction = "WITHDRAWAL"
	AuditActionAssetAdded    AuditAction = "ASSET_ADDED"
	AuditActionAssetRemoved  AuditAction = "ASSET_REMOVED"
	AuditActionOracleUpdated AuditAction = "ORACLE_UPDATED"
	AuditActionPaused        AuditAction = "PAUSED"
	AuditActionUnpaused      AuditAction = "UNPAUSED"
	AuditActionWindowUpdated AuditAction = "WINDOW_UPDATED"
	AuditActionRegister      AuditAction = "REGISTER"
	AuditActionLogin         AuditAction = "LOGIN"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	AccountID    *uuid.UUID  `json:"account_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
