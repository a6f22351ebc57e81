package domain

// ObjectType is one of the four CRM entity kinds records can be imported into
type ObjectType string

const (
	ObjectTypeCompany ObjectType = "company"
	ObjectTypePeople  ObjectType = "people"
	ObjectTypeLead    ObjectType = "lead"
	ObjectTypeDeal    ObjectType = "deal"
)

// AllObjectTypes lists every importable object type in display order
var AllObjectTypes = []ObjectType{
	ObjectTypeCompany,
	ObjectTypePeople,
	ObjectTypeLead,
	ObjectTypeDeal,
}

// objectNames maps object types to their Korean display names (CRM UI 기준)
var objectNames = map[ObjectType]string{
	ObjectTypeCompany: "회사",
	ObjectTypePeople:  "고객",
	ObjectTypeLead:    "리드",
	ObjectTypeDeal:    "딜",
}

// exportNames maps object types to the names the CRM import template expects
var exportNames = map[ObjectType]string{
	ObjectTypeCompany: "Organization",
	ObjectTypePeople:  "People",
	ObjectTypeLead:    "Lead",
	ObjectTypeDeal:    "Deal",
}

// objectDescriptions are shown in the object-type picker
var objectDescriptions = map[ObjectType]string{
	ObjectTypeCompany: "회사/조직 데이터",
	ObjectTypePeople:  "고객/연락처 데이터",
	ObjectTypeLead:    "리드 데이터",
	ObjectTypeDeal:    "딜/거래 데이터",
}

// IsValidObjectType reports whether s names a known object type
func IsValidObjectType(s string) bool {
	switch ObjectType(s) {
	case ObjectTypeCompany, ObjectTypePeople, ObjectTypeLead, ObjectTypeDeal:
		return true
	default:
		return false
	}
}

// Name returns the Korean display name of the object type
func (t ObjectType) Name() string {
	if n, ok := objectNames[t]; ok {
		return n
	}
	return string(t)
}

// ExportName returns the name used in the CRM import template header
func (t ObjectType) ExportName() string {
	if n, ok := exportNames[t]; ok {
		return n
	}
	return string(t)
}

// Description returns the picker description of the object type
func (t ObjectType) Description() string {
	return objectDescriptions[t]
}

// NeedsConnection reports whether records of this type must be linked to a
// company or people record (lead/deal cannot stand alone)
func (t ObjectType) NeedsConnection() bool {
	return t == ObjectTypeLead || t == ObjectTypeDeal
}

// HasConnectionTarget reports whether the selected set contains an object
// type a lead/deal can link to
func HasConnectionTarget(selected []ObjectType) bool {
	for _, t := range selected {
		if t == ObjectTypeCompany || t == ObjectTypePeople {
			return true
		}
	}
	return false
}

// SameObjectTypeSet reports whether a and b select the same object types,
// ignoring order
func SameObjectTypeSet(a, b []ObjectType) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[ObjectType]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		if !set[t] {
			return false
		}
	}
	return true
}

// UnionObjectTypes merges two selections without duplicates, keeping the
// order of first appearance
func UnionObjectTypes(a, b []ObjectType) []ObjectType {
	seen := make(map[ObjectType]bool, len(a)+len(b))
	var union []ObjectType
	for _, t := range a {
		if !seen[t] {
			seen[t] = true
			union = append(union, t)
		}
	}
	for _, t := range b {
		if !seen[t] {
			seen[t] = true
			union = append(union, t)
		}
	}
	return union
}
