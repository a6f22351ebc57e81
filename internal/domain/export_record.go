package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ExportStatus of a generated import artifact
type ExportStatus string

const (
	ExportStatusReady   ExportStatus = "READY"
	ExportStatusFailed  ExportStatus = "FAILED"
	ExportStatusExpired ExportStatus = "EXPIRED"
)

// ExportRecord tracks one generated CRM import artifact so it can be listed,
// re-downloaded, and cleaned up after expiry
type ExportRecord struct {
	BaseModel
	SessionID   string         `gorm:"type:varchar(64);not null;index:idx_export_records_session_id" json:"sessionId"`
	Filename    string         `gorm:"type:varchar(255);not null;uniqueIndex:uq_export_records_filename" json:"filename"`
	ObjectTypes datatypes.JSON `gorm:"type:jsonb" json:"objectTypes"`
	Stats       datatypes.JSON `gorm:"type:jsonb" json:"stats"`
	RowCount    int            `gorm:"type:int;not null;default:0" json:"rowCount"`
	Status      ExportStatus   `gorm:"type:varchar(20);not null" json:"status"`
	StorageKey  string         `gorm:"type:varchar(512)" json:"storageKey"` // S3 key, empty for local files
	ExpiresAt   *time.Time     `gorm:"type:timestamp;index:idx_export_records_expires_at" json:"expiresAt"`
}

// TableName specifies the table name for ExportRecord
func (ExportRecord) TableName() string {
	return "export_records"
}
