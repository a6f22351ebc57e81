package domain

// Severity of a per-row validation finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationFinding is one per-row, per-field issue. Findings are derived
// data, recomputed on every validation run.
type ValidationFinding struct {
	Row      int      `json:"row"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// UncoveredRequired names a required target field no mapping covers
type UncoveredRequired struct {
	ObjectType ObjectType `json:"objectType"`
	FieldID    string     `json:"fieldId"`
	Label      string     `json:"label"`
}

// RelationshipIssue is a blocking cross-object constraint violation:
// a lead/deal selection with no company/people to connect to
type RelationshipIssue struct {
	ObjectType ObjectType `json:"objectType"`
	Message    string     `json:"message"`
}

// StructureResult is the outcome of the structural validation pass
type StructureResult struct {
	RequiredCoverage   []UncoveredRequired `json:"requiredCoverage"`
	RelationshipIssues []RelationshipIssue `json:"relationshipIssues"`
	// NeedsCreation lists mapped fields that do not exist in the CRM yet.
	// Any entry blocks the final import entirely.
	NeedsCreation []FieldKey `json:"needsCreation"`
}

// Blocking reports whether the structure result prevents the final import
func (r StructureResult) Blocking() bool {
	return len(r.RequiredCoverage) > 0 || len(r.RelationshipIssues) > 0 || len(r.NeedsCreation) > 0
}

// RowValidationResult is the outcome of the per-row validation pass
type RowValidationResult struct {
	Findings        []ValidationFinding `json:"findings"`
	ValidRowIndices []int               `json:"validRowIndices"`
}
