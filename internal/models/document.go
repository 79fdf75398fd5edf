package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document stores one record of any collection inside a class partition.
type Document struct {
	TenantID   string         `gorm:"primaryKey;size:64" json:"tenant_id"`
	Collection string         `gorm:"primaryKey;size:64" json:"collection"`
	DocID      string         `gorm:"primaryKey;size:128" json:"doc_id"`
	Data       datatypes.JSON `gorm:"type:json;not null" json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName pins the shared document table.
func (Document) TableName() string { return "documents" }
