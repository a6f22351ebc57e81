package handler

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/service"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// withSession injects an authenticated session id the way SessionAuth does
func withSession(sessionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("session_id", sessionID)
		c.Next()
	}
}

func testSession() *domain.ImportSession {
	now := time.Now().UTC()
	return &domain.ImportSession{
		ID:        "test-session",
		CreatedAt: now,
		UpdatedAt: now,
		Dataset: &domain.Dataset{
			Filename:  "contacts.csv",
			Columns:   []string{"이름", "이메일", "회사명"},
			TotalRows: 2,
			Rows: []domain.Row{
				{"이름": "김철수", "이메일": "kim@acme.io", "회사명": "에이스전자"},
				{"이름": "이영희", "이메일": "lee@acme.io", "회사명": "에이스전자"},
			},
		},
		SelectedObjectTypes: []domain.ObjectType{domain.ObjectTypePeople},
		Mappings:            []domain.FieldMapping{},
		CustomFields:        []domain.CustomField{},
		SkippedColumns:      map[string]domain.SkipReason{},
	}
}

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	CreateFunc func(ctx context.Context, dataset *domain.Dataset) (*domain.ImportSession, error)
	GetFunc    func(ctx context.Context, sessionID string) (*domain.ImportSession, error)
	SaveFunc   func(ctx context.Context, session *domain.ImportSession) error
	DeleteFunc func(ctx context.Context, sessionID string) error
}

func (m *MockSessionService) Create(ctx context.Context, dataset *domain.Dataset) (*domain.ImportSession, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, dataset)
	}
	session := testSession()
	session.Dataset = dataset
	return session, nil
}

func (m *MockSessionService) Get(ctx context.Context, sessionID string) (*domain.ImportSession, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, sessionID)
	}
	return testSession(), nil
}

func (m *MockSessionService) Save(ctx context.Context, session *domain.ImportSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	return nil
}

func (m *MockSessionService) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	return nil
}

// MockMappingService is a mock implementation of MappingService
type MockMappingService struct {
	CandidateFieldsFunc   func(ctx context.Context, apiKey string, session *domain.ImportSession) ([]domain.TargetField, []domain.ObjectType, error)
	ResolveFunc           func(ctx context.Context, apiKey string, session *domain.ImportSession) error
	SetMappingFunc        func(ctx context.Context, apiKey string, session *domain.ImportSession, sourceColumn string, target domain.FieldKey) error
	RemoveMappingFunc     func(session *domain.ImportSession, sourceColumn string)
	AddCustomFieldFunc    func(session *domain.ImportSession, objectType domain.ObjectType, label string, fieldType domain.FieldType) (domain.CustomField, error)
	RemoveCustomFieldFunc func(session *domain.ImportSession, fieldID string) error
}

func (m *MockMappingService) CandidateFields(ctx context.Context, apiKey string, session *domain.ImportSession) ([]domain.TargetField, []domain.ObjectType, error) {
	if m.CandidateFieldsFunc != nil {
		return m.CandidateFieldsFunc(ctx, apiKey, session)
	}
	return nil, nil, nil
}

func (m *MockMappingService) Resolve(ctx context.Context, apiKey string, session *domain.ImportSession) error {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, apiKey, session)
	}
	return nil
}

func (m *MockMappingService) SetMapping(ctx context.Context, apiKey string, session *domain.ImportSession, sourceColumn string, target domain.FieldKey) error {
	if m.SetMappingFunc != nil {
		return m.SetMappingFunc(ctx, apiKey, session, sourceColumn, target)
	}
	return nil
}

func (m *MockMappingService) RemoveMapping(session *domain.ImportSession, sourceColumn string) {
	if m.RemoveMappingFunc != nil {
		m.RemoveMappingFunc(session, sourceColumn)
	}
}

func (m *MockMappingService) AddCustomField(session *domain.ImportSession, objectType domain.ObjectType, label string, fieldType domain.FieldType) (domain.CustomField, error) {
	if m.AddCustomFieldFunc != nil {
		return m.AddCustomFieldFunc(session, objectType, label, fieldType)
	}
	return domain.CustomField{}, nil
}

func (m *MockMappingService) RemoveCustomField(session *domain.ImportSession, fieldID string) error {
	if m.RemoveCustomFieldFunc != nil {
		return m.RemoveCustomFieldFunc(session, fieldID)
	}
	return nil
}

// MockRegistryService is a mock implementation of RegistryService
type MockRegistryService struct {
	GetFieldsFunc      func(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, bool, error)
	LookupFunc         func(ctx context.Context, apiKey string, key domain.FieldKey) (domain.TargetField, bool)
	InvalidateFunc     func(apiKey string, objectType domain.ObjectType)
	ValidateAPIKeyFunc func(ctx context.Context, apiKey string) (bool, error)
}

func (m *MockRegistryService) GetFields(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, bool, error) {
	if m.GetFieldsFunc != nil {
		return m.GetFieldsFunc(ctx, apiKey, objectType)
	}
	return nil, false, nil
}

func (m *MockRegistryService) Lookup(ctx context.Context, apiKey string, key domain.FieldKey) (domain.TargetField, bool) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, apiKey, key)
	}
	return domain.TargetField{}, false
}

func (m *MockRegistryService) Invalidate(apiKey string, objectType domain.ObjectType) {
	if m.InvalidateFunc != nil {
		m.InvalidateFunc(apiKey, objectType)
	}
}

func (m *MockRegistryService) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	if m.ValidateAPIKeyFunc != nil {
		return m.ValidateAPIKeyFunc(ctx, apiKey)
	}
	return true, nil
}

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	ValidateFunc func(ctx context.Context, apiKey string, session *domain.ImportSession) (*service.ValidationReport, error)
	PreviewFunc  func(ctx context.Context, apiKey string, session *domain.ImportSession) ([]service.ObjectPreview, error)
	ImportFunc   func(ctx context.Context, apiKey string, session *domain.ImportSession, mode service.ImportMode) ([]service.ExportArtifact, *service.ValidationReport, error)
}

func (m *MockImportService) Validate(ctx context.Context, apiKey string, session *domain.ImportSession) (*service.ValidationReport, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, apiKey, session)
	}
	return &service.ValidationReport{}, nil
}

func (m *MockImportService) Preview(ctx context.Context, apiKey string, session *domain.ImportSession) ([]service.ObjectPreview, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, apiKey, session)
	}
	return nil, nil
}

func (m *MockImportService) Import(ctx context.Context, apiKey string, session *domain.ImportSession, mode service.ImportMode) ([]service.ExportArtifact, *service.ValidationReport, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, apiKey, session, mode)
	}
	return nil, &service.ValidationReport{}, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	ExportFunc  func(ctx context.Context, apiKey string, session *domain.ImportSession, rowIndices []int) ([]service.ExportArtifact, error)
	ListFunc    func(ctx context.Context, limit int) ([]*domain.ExportRecord, error)
	ResolveFunc func(ctx context.Context, filename string) (string, string, error)
}

func (m *MockExportService) Export(ctx context.Context, apiKey string, session *domain.ImportSession, rowIndices []int) ([]service.ExportArtifact, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, apiKey, session, rowIndices)
	}
	return nil, nil
}

func (m *MockExportService) List(ctx context.Context, limit int) ([]*domain.ExportRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockExportService) Resolve(ctx context.Context, filename string) (string, string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, filename)
	}
	return "", "", nil
}

// MockDuplicateService is a mock implementation of DuplicateService
type MockDuplicateService struct {
	DetectFunc func(ctx context.Context, apiKey string, session *domain.ImportSession) ([]domain.DuplicateCandidate, error)
}

func (m *MockDuplicateService) Detect(ctx context.Context, apiKey string, session *domain.ImportSession) ([]domain.DuplicateCandidate, error) {
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, apiKey, session)
	}
	return nil, nil
}

// MockConsultService is a mock implementation of ConsultService
type MockConsultService struct {
	ChatFunc      func(ctx context.Context, session *domain.ImportSession, message string) (string, error)
	TriageFunc    func(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.TriageResult, error)
	SummarizeFunc func(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.ConsultingSummary, error)
}

func (m *MockConsultService) Chat(ctx context.Context, session *domain.ImportSession, message string) (string, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, session, message)
	}
	return "", nil
}

func (m *MockConsultService) Triage(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.TriageResult, error) {
	if m.TriageFunc != nil {
		return m.TriageFunc(ctx, apiKey, session)
	}
	return &domain.TriageResult{}, nil
}

func (m *MockConsultService) Summarize(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.ConsultingSummary, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, apiKey, session)
	}
	return &domain.ConsultingSummary{}, nil
}

// MockUploadService is a mock implementation of UploadService
type MockUploadService struct {
	ParseFunc func(filename string, r io.Reader) (*domain.Dataset, error)
}

func (m *MockUploadService) Parse(filename string, r io.Reader) (*domain.Dataset, error) {
	if m.ParseFunc != nil {
		return m.ParseFunc(filename, r)
	}
	return &domain.Dataset{Filename: filename}, nil
}

// MockAnalyzerService is a mock implementation of AnalyzerService
type MockAnalyzerService struct {
	AnalyzeFunc            func(dataset *domain.Dataset) []domain.ColumnStats
	AutoSkipCandidatesFunc func(dataset *domain.Dataset) []domain.ColumnSkip
}

func (m *MockAnalyzerService) Analyze(dataset *domain.Dataset) []domain.ColumnStats {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(dataset)
	}
	return nil
}

func (m *MockAnalyzerService) AutoSkipCandidates(dataset *domain.Dataset) []domain.ColumnSkip {
	if m.AutoSkipCandidatesFunc != nil {
		return m.AutoSkipCandidatesFunc(dataset)
	}
	return nil
}
