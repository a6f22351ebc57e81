package domain

import (
	"fmt"
	"strings"
)

// FieldType is the CRM field data type
type FieldType string

const (
	FieldTypeText          FieldType = "text"
	FieldTypeTextarea      FieldType = "textarea"
	FieldTypeNumber        FieldType = "number"
	FieldTypeEmail         FieldType = "email"
	FieldTypePhone         FieldType = "phone"
	FieldTypeURL           FieldType = "url"
	FieldTypeDate          FieldType = "date"
	FieldTypeDatetime      FieldType = "datetime"
	FieldTypeSelect        FieldType = "select"
	FieldTypeMultiselect   FieldType = "multiselect"
	FieldTypeBoolean       FieldType = "boolean"
	FieldTypeUser          FieldType = "user"
	FieldTypeUsers         FieldType = "users"
	FieldTypeRelation      FieldType = "relation"
	FieldTypePipeline      FieldType = "pipeline"
	FieldTypePipelineStage FieldType = "pipeline_stage"
)

// IsValidFieldType reports whether s names a known field type
func IsValidFieldType(s string) bool {
	switch FieldType(s) {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeEmail,
		FieldTypePhone, FieldTypeURL, FieldTypeDate, FieldTypeDatetime,
		FieldTypeSelect, FieldTypeMultiselect, FieldTypeBoolean,
		FieldTypeUser, FieldTypeUsers, FieldTypeRelation,
		FieldTypePipeline, FieldTypePipelineStage:
		return true
	default:
		return false
	}
}

// FieldKey identifies a target field globally within a mapping session
type FieldKey struct {
	ObjectType ObjectType `json:"objectType"`
	FieldID    string     `json:"fieldId"`
}

// String renders the key in "objectType.fieldId" wire format
func (k FieldKey) String() string {
	return fmt.Sprintf("%s.%s", k.ObjectType, k.FieldID)
}

// ParseFieldKey parses the "objectType.fieldId" wire format
func ParseFieldKey(s string) (FieldKey, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return FieldKey{}, fmt.Errorf("invalid field key: %q", s)
	}
	if !IsValidObjectType(parts[0]) {
		return FieldKey{}, fmt.Errorf("invalid object type in field key: %q", parts[0])
	}
	return FieldKey{ObjectType: ObjectType(parts[0]), FieldID: parts[1]}, nil
}

// TargetField is a mapping candidate on the CRM side
type TargetField struct {
	ObjectType    ObjectType `json:"objectType"`
	FieldID       string     `json:"fieldId"`
	Label         string     `json:"label"`
	FieldType     FieldType  `json:"fieldType"`
	Required      bool       `json:"required"`
	Unique        bool       `json:"unique"`
	IsSystem      bool       `json:"isSystem"`
	IsCustom      bool       `json:"isCustom"`
	NeedsCreation bool       `json:"needsCreation"`
}

// Key returns the session-unique key of the field
func (f TargetField) Key() FieldKey {
	return FieldKey{ObjectType: f.ObjectType, FieldID: f.FieldID}
}

// systemFieldNames are CRM-managed fields that must never be mapping targets
var systemFieldNames = map[string]bool{
	"id": true, "created_at": true, "updated_at": true, "workspace_id": true,
	"_id": true, "__v": true, "createdAt": true, "updatedAt": true,
	// 한국어 시스템 필드
	"수정 날짜": true, "생성 날짜": true, "총 매출": true, "팀": true,
	"진행중 딜 개수": true, "완료 TODO": true, "실패된 딜 개수": true,
	"성사된 딜 개수": true, "미완료 TODO": true, "리드 개수": true,
	"딜 개수": true, "누적 시퀀스 등록수": true, "전체 TODO": true,
	"현재 진행중인 시퀀스 여부": true,
}

var systemFieldPrefixes = []string{"최근 ", "다음 TODO"}

var systemFieldSuffixes = []string{" 개수", " 목록"}

// IsSystemFieldName reports whether a CRM field id/label is system-managed
// (read-only, auto-calculated) and therefore not importable
func IsSystemFieldName(name string) bool {
	if strings.HasPrefix(name, "_") {
		return true
	}
	if systemFieldNames[name] {
		return true
	}
	for _, p := range systemFieldPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range systemFieldSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
