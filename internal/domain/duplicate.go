package domain

// DuplicateAnalysis is the optional LLM judgment attached to a candidate
// pair. Its absence never changes whether the pair is reported.
type DuplicateAnalysis struct {
	IsDuplicate bool    `json:"isDuplicate"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// DuplicateCandidate is a pair of rows whose mapped fields look alike.
// Row indices are 0-based into the session dataset; Row1 < Row2 always,
// so no (a,b)/(b,a) double reporting.
type DuplicateCandidate struct {
	Row1              int                `json:"row1"`
	Row2              int                `json:"row2"`
	Similarity        float64            `json:"similarity"`
	FieldSimilarities map[string]float64 `json:"fieldSimilarities"`
	AIAnalysis        *DuplicateAnalysis `json:"aiAnalysis,omitempty"`
}
