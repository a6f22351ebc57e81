package service

import (
	"context"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/domain"
)

// MockSalesmapClient is a mock implementation of client.SalesmapClient
type MockSalesmapClient struct {
	ValidateAPIKeyFunc func(ctx context.Context, apiKey string) (bool, error)
	FetchFieldsFunc    func(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, error)
}

func (m *MockSalesmapClient) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	if m.ValidateAPIKeyFunc != nil {
		return m.ValidateAPIKeyFunc(ctx, apiKey)
	}
	return true, nil
}

func (m *MockSalesmapClient) FetchFields(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, error) {
	if m.FetchFieldsFunc != nil {
		return m.FetchFieldsFunc(ctx, apiKey, objectType)
	}
	return domain.DefaultFields(objectType), nil
}

// MockOpenAIClient is a mock implementation of client.OpenAIClient
type MockOpenAIClient struct {
	SuggestMappingsFunc func(ctx context.Context, columns []client.ColumnSample, candidates []domain.TargetField) ([]client.MappingSuggestion, error)
	TriageColumnsFunc   func(ctx context.Context, filename string, columns []client.ColumnSample) (*domain.TriageResult, error)
	ChatFunc            func(ctx context.Context, history []client.ChatMessage) (string, error)
	SummarizeFunc       func(ctx context.Context, history []client.ChatMessage, columns []client.ColumnSample) (*domain.ConsultingSummary, error)
	JudgeDuplicatesFunc func(ctx context.Context, pairs []client.DuplicatePair) ([]*domain.DuplicateAnalysis, error)
}

func (m *MockOpenAIClient) SuggestMappings(ctx context.Context, columns []client.ColumnSample, candidates []domain.TargetField) ([]client.MappingSuggestion, error) {
	if m.SuggestMappingsFunc != nil {
		return m.SuggestMappingsFunc(ctx, columns, candidates)
	}
	return nil, nil
}

func (m *MockOpenAIClient) TriageColumns(ctx context.Context, filename string, columns []client.ColumnSample) (*domain.TriageResult, error) {
	if m.TriageColumnsFunc != nil {
		return m.TriageColumnsFunc(ctx, filename, columns)
	}
	return &domain.TriageResult{}, nil
}

func (m *MockOpenAIClient) Chat(ctx context.Context, history []client.ChatMessage) (string, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, history)
	}
	return "", nil
}

func (m *MockOpenAIClient) Summarize(ctx context.Context, history []client.ChatMessage, columns []client.ColumnSample) (*domain.ConsultingSummary, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, history, columns)
	}
	return &domain.ConsultingSummary{}, nil
}

func (m *MockOpenAIClient) JudgeDuplicates(ctx context.Context, pairs []client.DuplicatePair) ([]*domain.DuplicateAnalysis, error) {
	if m.JudgeDuplicatesFunc != nil {
		return m.JudgeDuplicatesFunc(ctx, pairs)
	}
	return make([]*domain.DuplicateAnalysis, len(pairs)), nil
}

// newTestSession builds a session with an uploaded dataset
func newTestSession(objectTypes []domain.ObjectType, columns []string, rows []domain.Row) *domain.ImportSession {
	return &domain.ImportSession{
		ID:                  "test-session",
		SelectedObjectTypes: objectTypes,
		Dataset: &domain.Dataset{
			Filename:  "test.csv",
			Columns:   columns,
			TotalRows: len(rows),
			Rows:      rows,
		},
		SkippedColumns: map[string]domain.SkipReason{},
	}
}
