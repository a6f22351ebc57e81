package domain

import "strings"

// Row is one parsed spreadsheet row keyed by source column name
type Row map[string]string

// Dataset is the uploaded file as returned by the file-ingestion service.
// Column order and row indices are stable for the session.
type Dataset struct {
	Filename  string   `json:"filename"`
	Columns   []string `json:"columns"`
	TotalRows int      `json:"totalRows"`
	Rows      []Row    `json:"rows"`
}

// ColumnStats summarizes one column of the dataset
type ColumnStats struct {
	ColumnName    string   `json:"columnName"`
	TotalRows     int      `json:"totalRows"`
	NonEmptyCount int      `json:"nonEmptyCount"`
	EmptyCount    int      `json:"emptyCount"`
	UniqueCount   int      `json:"uniqueCount"`
	SampleValues  []string `json:"sampleValues"`
	InferredType  FieldType `json:"inferredType"`
}

// emptyValues are cell contents treated as missing
var emptyValues = map[string]bool{
	"": true, "null": true, "NULL": true, "None": true,
	"N/A": true, "n/a": true, "-": true, "--": true,
}

// IsEmptyValue reports whether a cell value counts as missing
func IsEmptyValue(v string) bool {
	return emptyValues[strings.TrimSpace(v)]
}
