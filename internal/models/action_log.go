package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActionLog is one append-only entry of a class's audit trail.
type ActionLog struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string         `gorm:"size:64;not null;uniqueIndex:idx_action_logs_tenant_sequence,priority:1" json:"tenant_id"`
	Sequence  int64          `gorm:"not null;uniqueIndex:idx_action_logs_tenant_sequence,priority:2" json:"sequence"`
	Action    string         `gorm:"size:64;not null;index" json:"action"`
	ActorID   string         `gorm:"size:64;not null" json:"actor_id"`
	Details   datatypes.JSON `gorm:"type:json" json:"details"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
}

// TableName pins the table name used for the audit trail.
func (ActionLog) TableName() string { return "action_logs" }
