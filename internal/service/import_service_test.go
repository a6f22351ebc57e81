package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/response"
)

func newImportStack(t *testing.T) (ImportService, ExportService) {
	t.Helper()
	logger := zap.NewNop()
	registry := NewRegistryService(&MockSalesmapClient{}, 0, logger)
	mapping := NewMappingService(registry, &MockOpenAIClient{}, nil, logger)
	validation := NewValidationService(registry, mapping, nil, logger)
	duplicate := NewDuplicateService(mapping, &MockOpenAIClient{}, 0.85, 1000, 50, false, nil, logger)
	export := NewExportService(mapping, nil, nil, t.TempDir(), time.Hour, nil, logger)
	return NewImportService(mapping, validation, duplicate, export, logger), export
}

func importableSession() *domain.ImportSession {
	session := newTestSession([]domain.ObjectType{domain.ObjectTypePeople},
		[]string{"이름", "이메일"},
		[]domain.Row{
			{"이름": "김철수", "이메일": "KIM@acme.io"},
			{"이름": "", "이메일": "lee@acme.io"},
			{"이름": "박영희", "이메일": "park@acme.io"},
		})
	mapColumn(session, "이름", domain.ObjectTypePeople, "name")
	mapColumn(session, "이메일", domain.ObjectTypePeople, "email")
	return session
}

func TestImportService_Validate(t *testing.T) {
	svc, _ := newImportStack(t)
	session := importableSession()

	report, err := svc.Validate(context.Background(), "key", session)
	if err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if report.Structure == nil || report.Rows == nil {
		t.Fatal("Validate() report missing structure or row results")
	}
	if report.Structure.Blocking() {
		t.Errorf("Structure = %+v, want non-blocking", report.Structure)
	}
	// 1행은 필수 이름이 비어 무효다
	if len(report.Rows.ValidRowIndices) != 2 {
		t.Errorf("ValidRowIndices = %v, want [0 2]", report.Rows.ValidRowIndices)
	}
}

func TestImportService_Validate_LeavesSessionUntouched(t *testing.T) {
	// 행 검증과 중복 탐지는 같은 세션을 놓고 동시에 돈다. 폴백이
	// 일어나도 세션에는 아무것도 쓰지 않아야 한다.
	logger := zap.NewNop()
	crm := &MockSalesmapClient{
		FetchFieldsFunc: func(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, error) {
			return nil, errors.New("crm unreachable")
		},
	}
	registry := NewRegistryService(crm, 0, logger)
	mapping := NewMappingService(registry, &MockOpenAIClient{}, nil, logger)
	validation := NewValidationService(registry, mapping, nil, logger)
	duplicate := NewDuplicateService(mapping, &MockOpenAIClient{}, 0.85, 1000, 50, false, nil, logger)
	export := NewExportService(mapping, nil, nil, t.TempDir(), time.Hour, nil, logger)
	svc := NewImportService(mapping, validation, duplicate, export, logger)

	session := importableSession()
	if _, err := svc.Validate(context.Background(), "key", session); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if session.UsingDefaults != nil {
		t.Errorf("session.UsingDefaults = %v, validation must not write the session", session.UsingDefaults)
	}
}

func TestImportService_Import(t *testing.T) {
	tests := []struct {
		name         string
		mode         ImportMode
		wantRowCount int
		wantErr      bool
	}{
		{name: "성공: valid 모드는 오류 행을 버린다", mode: ImportModeValid, wantRowCount: 2},
		{name: "성공: all 모드는 모든 행을 내보낸다", mode: ImportModeAll, wantRowCount: 3},
		{name: "실패: 알 수 없는 모드", mode: ImportMode("partial"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newImportStack(t)
			session := importableSession()

			artifacts, report, err := svc.Import(context.Background(), "key", session, tt.mode)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Import() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Import() unexpected error = %v", err)
			}
			if report == nil {
				t.Fatal("Import() returned no validation report")
			}
			if len(artifacts) != 1 {
				t.Fatalf("Import() = %d artifacts, want 1", len(artifacts))
			}
			if artifacts[0].ObjectType != domain.ObjectTypePeople {
				t.Errorf("artifact object type = %v, want people", artifacts[0].ObjectType)
			}
			if artifacts[0].RowCount != tt.wantRowCount {
				t.Errorf("artifact row count = %d, want %d", artifacts[0].RowCount, tt.wantRowCount)
			}
		})
	}
}

func TestImportService_Import_BlockedByStructure(t *testing.T) {
	svc, _ := newImportStack(t)
	// 필수 이름 필드가 매핑되지 않은 세션
	session := newTestSession([]domain.ObjectType{domain.ObjectTypePeople},
		[]string{"이메일"}, []domain.Row{{"이메일": "kim@acme.io"}})
	mapColumn(session, "이메일", domain.ObjectTypePeople, "email")

	artifacts, report, err := svc.Import(context.Background(), "key", session, ImportModeAll)
	if err == nil {
		t.Fatal("Import() error = nil, want IMPORT_BLOCKED")
	}
	appErr, ok := err.(*response.AppError)
	if !ok || appErr.Code != response.ErrCodeImportBlocked {
		t.Errorf("Import() error = %v, want code IMPORT_BLOCKED", err)
	}
	if artifacts != nil {
		t.Error("Import() produced artifacts although blocked")
	}
	// 차단 응답에도 무엇이 막았는지 보고서는 실린다
	if report == nil || !report.Structure.Blocking() {
		t.Error("Import() blocked without returning the blocking report")
	}
}

func TestImportService_Preview(t *testing.T) {
	svc, _ := newImportStack(t)
	session := importableSession()

	previews, err := svc.Preview(context.Background(), "key", session)
	if err != nil {
		t.Fatalf("Preview() unexpected error = %v", err)
	}
	if len(previews) != 1 {
		t.Fatalf("Preview() = %d previews, want 1", len(previews))
	}

	p := previews[0]
	wantHeaders := []string{"People - 이름", "People - 이메일"}
	if len(p.Headers) != len(wantHeaders) {
		t.Fatalf("Preview() headers = %v, want %v", p.Headers, wantHeaders)
	}
	for i, h := range wantHeaders {
		if p.Headers[i] != h {
			t.Errorf("Preview() headers = %v, want %v", p.Headers, wantHeaders)
			break
		}
	}
	if p.RowCount != 3 || len(p.SampleRows) != 3 {
		t.Errorf("Preview() rows = %d samples of %d, want 3 of 3", len(p.SampleRows), p.RowCount)
	}
	// 이메일은 정규화되어 보인다
	if p.SampleRows[0][1] != "kim@acme.io" {
		t.Errorf("Preview() sample value = %q, want normalized email", p.SampleRows[0][1])
	}
}

func TestExportService_Export_CSVContent(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistryService(&MockSalesmapClient{}, 0, logger)
	mapping := NewMappingService(registry, &MockOpenAIClient{}, nil, logger)
	dir := t.TempDir()
	export := NewExportService(mapping, nil, nil, dir, time.Hour, nil, logger)

	session := newTestSession([]domain.ObjectType{domain.ObjectTypePeople},
		[]string{"이름", "이메일", "전화번호"},
		[]domain.Row{
			{"이름": "김철수", "이메일": "KIM@Acme.IO", "전화번호": "010-1234-5678"},
			{"이름": "", "이메일": "", "전화번호": ""},
		})
	mapColumn(session, "이름", domain.ObjectTypePeople, "name")
	mapColumn(session, "이메일", domain.ObjectTypePeople, "email")
	mapColumn(session, "전화번호", domain.ObjectTypePeople, "phone")

	artifacts, err := export.Export(context.Background(), "key", session, []int{0, 1})
	if err != nil {
		t.Fatalf("Export() unexpected error = %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("Export() = %d artifacts, want 1", len(artifacts))
	}
	// 전부 빈 행은 빠진다
	if artifacts[0].RowCount != 1 {
		t.Errorf("Export() row count = %d, want 1 (all-empty row skipped)", artifacts[0].RowCount)
	}

	data, err := os.ReadFile(filepath.Join(dir, artifacts[0].Filename))
	if err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	content := string(data)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 2 {
		t.Fatalf("export file has %d lines, want header + 1 row:\n%s", len(lines), content)
	}
	if lines[0] != "People - 이름,People - 이메일,People - 전화번호" {
		t.Errorf("export header = %q", lines[0])
	}
	// 이메일 소문자화, 전화번호 숫자만
	if lines[1] != "김철수,kim@acme.io,01012345678" {
		t.Errorf("export row = %q", lines[1])
	}
}

func TestExportService_Resolve_PathTraversal(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistryService(&MockSalesmapClient{}, 0, logger)
	mapping := NewMappingService(registry, &MockOpenAIClient{}, nil, logger)
	export := NewExportService(mapping, nil, nil, t.TempDir(), time.Hour, nil, logger)

	for _, filename := range []string{"../secrets.csv", "a/../../b.csv", "dir/file.csv"} {
		if _, _, err := export.Resolve(context.Background(), filename); err == nil {
			t.Errorf("Resolve(%q) error = nil, want rejection", filename)
		}
	}

	if _, _, err := export.Resolve(context.Background(), "missing.csv"); err == nil {
		t.Error("Resolve(missing.csv) error = nil, want not found")
	}
}
