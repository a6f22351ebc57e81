package domain

// RecommendedField is an AI consulting suggestion for a target field. It is
// a mapping candidate only; it must not be trusted to already exist in the
// CRM schema.
type RecommendedField struct {
	ObjectType ObjectType `json:"objectType"`
	FieldID    string     `json:"fieldId"`
	FieldLabel string     `json:"fieldLabel"`
	FieldType  FieldType  `json:"fieldType,omitempty"`
	Reason     string     `json:"reason"`
}

// SkipReason categorizes why triage excluded a column
type SkipReason string

const (
	SkipReasonEmpty           SkipReason = "빈 값만 있음"
	SkipReasonInternalID      SkipReason = "내부 식별자"
	SkipReasonDuplicate       SkipReason = "다른 열과 중복"
	SkipReasonSystemGenerated SkipReason = "시스템 생성 값"
	SkipReasonMetaInfo        SkipReason = "불필요한 메타정보"
	SkipReasonLowQuality      SkipReason = "데이터 품질 낮음"
	SkipReasonAutoSkipped     SkipReason = "자동 제외"
)

// ColumnKeep is a triaged column the AI suggests carrying into mapping
type ColumnKeep struct {
	ColumnName        string     `json:"columnName"`
	TargetObject      ObjectType `json:"targetObject"`
	SuggestedFieldID  string     `json:"suggestedFieldId"`
	SuggestedLabel    string     `json:"suggestedLabel"`
	SuggestedType     FieldType  `json:"suggestedType"`
	IsRequired        bool       `json:"isRequired"`
	Reason            string     `json:"reason"`
}

// ColumnSkip is a triaged column the AI suggests dropping
type ColumnSkip struct {
	ColumnName string     `json:"columnName"`
	Reason     SkipReason `json:"reason"`
	Detail     string     `json:"detail,omitempty"`
}

// TriageResult is the strictly-parsed column triage from the consulting step
type TriageResult struct {
	ColumnsToKeep      []ColumnKeep `json:"columnsToKeep"`
	ColumnsToSkip      []ColumnSkip `json:"columnsToSkip"`
	RecommendedObjects []ObjectType `json:"recommendedObjects"`
}

// ConsultingSummary is the data payload of a consulting-chat summary message
type ConsultingSummary struct {
	RecommendedObjectTypes []ObjectType       `json:"recommendedObjectTypes"`
	RecommendedFields      []RecommendedField `json:"recommendedFields"`
	ColumnAnalysis         *TriageResult      `json:"columnAnalysis,omitempty"`
	ConfirmationMessage    string             `json:"confirmationMessage,omitempty"`
}
