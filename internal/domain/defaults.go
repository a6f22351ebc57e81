package domain

// defaultFields is the fallback catalog used when the live CRM schema cannot
// be fetched for an object type (degraded mode). Labels follow the CRM import
// template.
var defaultFields = map[ObjectType][]TargetField{
	ObjectTypeCompany: {
		{ObjectType: ObjectTypeCompany, FieldID: "name", Label: "회사명", FieldType: FieldTypeText, Required: true, Unique: true},
		{ObjectType: ObjectTypeCompany, FieldID: "employee_count", Label: "직원 수", FieldType: FieldTypeNumber},
		{ObjectType: ObjectTypeCompany, FieldID: "address", Label: "주소", FieldType: FieldTypeText},
		{ObjectType: ObjectTypeCompany, FieldID: "phone", Label: "전화번호", FieldType: FieldTypePhone},
		{ObjectType: ObjectTypeCompany, FieldID: "website", Label: "웹 주소", FieldType: FieldTypeURL},
		{ObjectType: ObjectTypeCompany, FieldID: "owner", Label: "담당자", FieldType: FieldTypeUser},
	},
	ObjectTypePeople: {
		{ObjectType: ObjectTypePeople, FieldID: "name", Label: "이름", FieldType: FieldTypeText, Required: true},
		{ObjectType: ObjectTypePeople, FieldID: "email", Label: "이메일", FieldType: FieldTypeEmail, Unique: true},
		{ObjectType: ObjectTypePeople, FieldID: "phone", Label: "전화번호", FieldType: FieldTypePhone},
		{ObjectType: ObjectTypePeople, FieldID: "position", Label: "포지션", FieldType: FieldTypeText},
		{ObjectType: ObjectTypePeople, FieldID: "company", Label: "소속 회사", FieldType: FieldTypeText},
		{ObjectType: ObjectTypePeople, FieldID: "owner", Label: "담당자", FieldType: FieldTypeUser},
		{ObjectType: ObjectTypePeople, FieldID: "customer_group", Label: "고객 그룹", FieldType: FieldTypeMultiselect},
		{ObjectType: ObjectTypePeople, FieldID: "journey_stage", Label: "고객 여정 단계", FieldType: FieldTypeSelect},
	},
	ObjectTypeLead: {
		{ObjectType: ObjectTypeLead, FieldID: "name", Label: "리드명", FieldType: FieldTypeText, Required: true},
		{ObjectType: ObjectTypeLead, FieldID: "email", Label: "이메일", FieldType: FieldTypeEmail, Unique: true},
		{ObjectType: ObjectTypeLead, FieldID: "status", Label: "상태", FieldType: FieldTypeSelect},
		{ObjectType: ObjectTypeLead, FieldID: "amount", Label: "금액", FieldType: FieldTypeNumber},
		{ObjectType: ObjectTypeLead, FieldID: "pipeline", Label: "파이프라인", FieldType: FieldTypePipeline},
		{ObjectType: ObjectTypeLead, FieldID: "pipeline_stage", Label: "파이프라인 단계", FieldType: FieldTypePipelineStage},
		{ObjectType: ObjectTypeLead, FieldID: "expected_date", Label: "수주 예정일", FieldType: FieldTypeDate},
		{ObjectType: ObjectTypeLead, FieldID: "close_date", Label: "마감일", FieldType: FieldTypeDate},
		{ObjectType: ObjectTypeLead, FieldID: "people_name", Label: "연결된 고객 이름", FieldType: FieldTypeText},
		{ObjectType: ObjectTypeLead, FieldID: "company_name", Label: "연결된 회사 이름", FieldType: FieldTypeText},
		{ObjectType: ObjectTypeLead, FieldID: "lead_group", Label: "리드 그룹", FieldType: FieldTypeMultiselect},
		{ObjectType: ObjectTypeLead, FieldID: "owner", Label: "담당자", FieldType: FieldTypeUser},
	},
	ObjectTypeDeal: {
		{ObjectType: ObjectTypeDeal, FieldID: "name", Label: "딜명", FieldType: FieldTypeText, Required: true},
		{ObjectType: ObjectTypeDeal, FieldID: "status", Label: "상태", FieldType: FieldTypeSelect},
		{ObjectType: ObjectTypeDeal, FieldID: "amount", Label: "금액", FieldType: FieldTypeNumber},
		{ObjectType: ObjectTypeDeal, FieldID: "pipeline", Label: "파이프라인", FieldType: FieldTypePipeline},
		{ObjectType: ObjectTypeDeal, FieldID: "pipeline_stage", Label: "파이프라인 단계", FieldType: FieldTypePipelineStage},
		{ObjectType: ObjectTypeDeal, FieldID: "expected_date", Label: "수주 예정일", FieldType: FieldTypeDate},
		{ObjectType: ObjectTypeDeal, FieldID: "close_date", Label: "마감일", FieldType: FieldTypeDate},
		{ObjectType: ObjectTypeDeal, FieldID: "people_name", Label: "연결된 고객 이름", FieldType: FieldTypeText},
		{ObjectType: ObjectTypeDeal, FieldID: "company_name", Label: "연결된 회사 이름", FieldType: FieldTypeText},
		{ObjectType: ObjectTypeDeal, FieldID: "subscription_start", Label: "구독 시작일", FieldType: FieldTypeDate},
		{ObjectType: ObjectTypeDeal, FieldID: "subscription_end", Label: "구독 종료일", FieldType: FieldTypeDate},
		{ObjectType: ObjectTypeDeal, FieldID: "monthly_amount", Label: "월 구독 금액", FieldType: FieldTypeNumber},
		{ObjectType: ObjectTypeDeal, FieldID: "owner", Label: "담당자", FieldType: FieldTypeUser},
	},
}

// DefaultFields returns a copy of the fallback field catalog for an object type
func DefaultFields(objectType ObjectType) []TargetField {
	src := defaultFields[objectType]
	out := make([]TargetField, len(src))
	copy(out, src)
	return out
}

// linkingFieldIDs are the field ids that satisfy a lead/deal connection
// requirement when mapped (the row itself names the company/people to link)
var linkingFieldIDs = map[string]bool{
	"people_name":  true,
	"company_name": true,
}

// IsLinkingFieldID reports whether fieldID links a lead/deal row to a
// company or people record
func IsLinkingFieldID(fieldID string) bool {
	return linkingFieldIDs[fieldID]
}
