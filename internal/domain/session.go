package domain

import "time"

// ImportSession is the single piece of mutable wizard state. It lives in the
// session store (Redis) and is owned by the orchestration layer; the core
// components are pure functions over its contents.
type ImportSession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Dataset *Dataset `json:"dataset,omitempty"`

	SelectedObjectTypes []ObjectType `json:"selectedObjectTypes"`

	// Mappings is the resolved mapping set. Bijection invariant holds at
	// all times: no source column and no target key bound twice.
	Mappings []FieldMapping `json:"mappings"`

	CustomFields []CustomField `json:"customFields"`

	// RecommendedFields are consulting suggestions reconciled against the
	// registry (needs-creation fields included)
	RecommendedFields []TargetField `json:"recommendedFields"`

	// SkippedColumns were triaged "skip"; the resolver will not auto-map
	// them unless the user overrides with a manual mapping
	SkippedColumns map[string]SkipReason `json:"skippedColumns,omitempty"`

	// UsingDefaults marks object types whose schema fetch failed and fell
	// back to the default catalog (degraded mode signal)
	UsingDefaults []ObjectType `json:"usingDefaults,omitempty"`

	// ChatHistory is the consulting conversation so far
	ChatHistory []ChatTurn `json:"chatHistory,omitempty"`
}

// ChatTurn is one consulting conversation turn
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FindMapping returns the mapping for a source column, if bound
func (s *ImportSession) FindMapping(sourceColumn string) (FieldMapping, bool) {
	for _, m := range s.Mappings {
		if m.SourceColumn == sourceColumn {
			return m, true
		}
	}
	return FieldMapping{}, false
}

// FindMappingByTarget returns the mapping bound to a target field, if any
func (s *ImportSession) FindMappingByTarget(key FieldKey) (FieldMapping, bool) {
	for _, m := range s.Mappings {
		if m.TargetField == key {
			return m, true
		}
	}
	return FieldMapping{}, false
}

// HasObjectType reports whether t is in the current selection
func (s *ImportSession) HasObjectType(t ObjectType) bool {
	for _, sel := range s.SelectedObjectTypes {
		if sel == t {
			return true
		}
	}
	return false
}
