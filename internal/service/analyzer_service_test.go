package service

import (
	"testing"

	"import-wizard-api/internal/domain"
)

func TestAnalyzerService_Analyze(t *testing.T) {
	dataset := &domain.Dataset{
		Columns: []string{"이름", "이메일", "메모"},
		Rows: []domain.Row{
			{"이름": "김철수", "이메일": "kim@acme.io", "메모": ""},
			{"이름": "박영희", "이메일": "park@acme.io", "메모": "N/A"},
			{"이름": "김철수", "이메일": "choi@acme.io", "메모": "-"},
		},
	}

	stats := NewAnalyzerService().Analyze(dataset)
	if len(stats) != 3 {
		t.Fatalf("Analyze() = %d columns, want 3", len(stats))
	}
	byName := map[string]domain.ColumnStats{}
	for _, s := range stats {
		byName[s.ColumnName] = s
	}

	name := byName["이름"]
	if name.NonEmptyCount != 3 || name.UniqueCount != 2 {
		t.Errorf("이름 stats = %+v, want 3 non-empty, 2 unique", name)
	}

	email := byName["이메일"]
	if email.InferredType != domain.FieldTypeEmail {
		t.Errorf("이메일 inferred type = %v, want email", email.InferredType)
	}
	if len(email.SampleValues) != 3 {
		t.Errorf("이메일 samples = %v, want 3 distinct values", email.SampleValues)
	}

	// "N/A", "-" 류는 빈 값으로 센다
	memo := byName["메모"]
	if memo.EmptyCount != 3 || memo.NonEmptyCount != 0 {
		t.Errorf("메모 stats = %+v, want all rows empty", memo)
	}
	if memo.InferredType != domain.FieldTypeText {
		t.Errorf("메모 inferred type = %v, want text for an empty column", memo.InferredType)
	}
}

func TestAnalyzerService_AutoSkipCandidates(t *testing.T) {
	dataset := &domain.Dataset{
		Columns: []string{"이름", "이름 복사", "빈열"},
		Rows: []domain.Row{
			{"이름": "김철수", "이름 복사": "김철수", "빈열": ""},
			{"이름": "박영희", "이름 복사": "박영희", "빈열": "null"},
		},
	}

	skips := NewAnalyzerService().AutoSkipCandidates(dataset)

	byName := map[string]domain.ColumnSkip{}
	for _, s := range skips {
		byName[s.ColumnName] = s
	}
	if len(skips) != 2 {
		t.Fatalf("AutoSkipCandidates() = %v, want 빈열 and 이름 복사", skips)
	}
	if byName["빈열"].Reason != domain.SkipReasonEmpty {
		t.Errorf("빈열 reason = %v, want empty", byName["빈열"].Reason)
	}
	if byName["이름 복사"].Reason != domain.SkipReasonDuplicate {
		t.Errorf("이름 복사 reason = %v, want duplicate", byName["이름 복사"].Reason)
	}
	if _, ok := byName["이름"]; ok {
		t.Error("the original of a duplicated column must not be skipped")
	}
}
