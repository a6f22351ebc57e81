package domain

// FieldMapping binds one source column to one target field. A resolved
// mapping set is a partial bijection: each source column and each target
// field key appears at most once.
type FieldMapping struct {
	SourceColumn string   `json:"sourceColumn"`
	TargetField  FieldKey `json:"targetField"`
	// Confidence is the auto-map confidence in [0,1]; 1.0 for manual and
	// exact auto-matched bindings. Display metadata only.
	Confidence float64 `json:"confidence"`
	// Source records which resolver stage produced the binding
	Source MappingSource `json:"source"`
}

// MappingSource identifies the resolver stage that produced a mapping
type MappingSource string

const (
	MappingSourceManual    MappingSource = "manual"
	MappingSourceAutoMatch MappingSource = "auto_match"
	MappingSourceAI        MappingSource = "ai"
)

// CustomField is a user-created target field. FieldID is generated from the
// creation timestamp so it is unique within the session. Deleting a custom
// field cascades to any mapping that references it.
type CustomField struct {
	TargetField
	ObjectName string `json:"objectName"`
}
