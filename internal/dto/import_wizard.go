package dto

import (
	"import-wizard-api/internal/domain"
)

// UploadResponse is returned after a successful file upload
type UploadResponse struct {
	SessionID    string               `json:"sessionId"`
	SessionToken string               `json:"sessionToken"`
	Filename     string               `json:"filename"`
	Columns      []string             `json:"columns"`
	TotalRows    int                  `json:"totalRows"`
	ColumnStats  []domain.ColumnStats `json:"columnStats"`
}

// ValidateKeyRequest carries the CRM API key to verify
type ValidateKeyRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

// ValidateKeyResponse reports whether the key was accepted
type ValidateKeyResponse struct {
	Valid bool `json:"valid"`
}

// ObjectTypeInfo describes one selectable object type
type ObjectTypeInfo struct {
	Type        domain.ObjectType `json:"type"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	ExportName  string            `json:"exportName"`
}

// SelectObjectTypesRequest sets the session's object type selection
type SelectObjectTypesRequest struct {
	ObjectTypes []string `json:"objectTypes" binding:"required,min=1"`
}

// FieldsResponse lists mapping candidates plus degraded-mode markers
type FieldsResponse struct {
	Fields        []domain.TargetField `json:"fields"`
	UsingDefaults []domain.ObjectType  `json:"usingDefaults,omitempty"`
}

// MappingsResponse is the session's current mapping state
type MappingsResponse struct {
	Mappings        []domain.FieldMapping        `json:"mappings"`
	CustomFields    []domain.CustomField         `json:"customFields"`
	SkippedColumns  map[string]domain.SkipReason `json:"skippedColumns,omitempty"`
	UnmappedColumns []string                     `json:"unmappedColumns"`
}

// SetMappingRequest binds one source column to a target field
type SetMappingRequest struct {
	SourceColumn string `json:"sourceColumn" binding:"required"`
	TargetField  string `json:"targetField" binding:"required"` // "objectType.fieldId"
}

// AddCustomFieldRequest creates a session-scoped custom field
type AddCustomFieldRequest struct {
	ObjectType string `json:"objectType" binding:"required"`
	Label      string `json:"label" binding:"required"`
	FieldType  string `json:"fieldType"`
}

// ChatRequest is one consulting chat message (REST fallback)
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the assistant reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ImportRequest selects the import mode
type ImportRequest struct {
	Mode string `json:"mode" binding:"required,oneof=all valid"`
}

// ExportRecordResponse is one export history entry
type ExportRecordResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Filename  string `json:"filename"`
	RowCount  int    `json:"rowCount"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}
