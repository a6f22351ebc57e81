package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/response"
)

func newConsultService(llm *MockOpenAIClient) ConsultService {
	logger := zap.NewNop()
	registry := NewRegistryService(&MockSalesmapClient{}, 0, logger)
	recommend := NewRecommendService(registry, logger)
	return NewConsultService(llm, NewAnalyzerService(), recommend, registry, logger)
}

func TestConsultService_Chat(t *testing.T) {
	llm := &MockOpenAIClient{
		ChatFunc: func(ctx context.Context, history []client.ChatMessage) (string, error) {
			if len(history) == 0 || history[len(history)-1].Role != "user" {
				t.Error("Chat() must send the new user turn last")
			}
			return "회사와 고객 데이터로 보입니다", nil
		},
	}
	svc := newConsultService(llm)
	session := newTestSession([]domain.ObjectType{domain.ObjectTypeCompany}, []string{"회사명"}, []domain.Row{{}})

	reply, err := svc.Chat(context.Background(), session, "이 파일 어떻게 임포트하죠?")
	if err != nil {
		t.Fatalf("Chat() unexpected error = %v", err)
	}
	if reply == "" {
		t.Fatal("Chat() returned an empty reply")
	}
	if len(session.ChatHistory) != 2 {
		t.Fatalf("ChatHistory = %d turns, want user + assistant", len(session.ChatHistory))
	}
	if session.ChatHistory[0].Role != "user" || session.ChatHistory[1].Role != "assistant" {
		t.Errorf("ChatHistory roles = %v, want [user assistant]", session.ChatHistory)
	}

	t.Run("실패: 빈 메시지", func(t *testing.T) {
		if _, err := svc.Chat(context.Background(), session, ""); err == nil {
			t.Fatal("Chat() error = nil, want validation error")
		}
	})
}

func TestConsultService_Chat_LLMFailure(t *testing.T) {
	llm := &MockOpenAIClient{
		ChatFunc: func(ctx context.Context, history []client.ChatMessage) (string, error) {
			return "", errors.New("llm unavailable")
		},
	}
	svc := newConsultService(llm)
	session := newTestSession([]domain.ObjectType{domain.ObjectTypeCompany}, []string{"회사명"}, []domain.Row{{}})

	_, err := svc.Chat(context.Background(), session, "안녕하세요")
	if err == nil {
		t.Fatal("Chat() error = nil, want external API error")
	}
	if appErr, ok := err.(*response.AppError); !ok || appErr.Code != response.ErrCodeExternalAPI {
		t.Errorf("Chat() error = %v, want code EXTERNAL_API_ERROR", err)
	}
}

func TestConsultService_Chat_HistoryBound(t *testing.T) {
	var sentTurns int
	llm := &MockOpenAIClient{
		ChatFunc: func(ctx context.Context, history []client.ChatMessage) (string, error) {
			sentTurns = len(history)
			return "답변", nil
		},
	}
	svc := newConsultService(llm)
	session := newTestSession([]domain.ObjectType{domain.ObjectTypeCompany}, []string{"회사명"}, []domain.Row{{}})
	for i := 0; i < 30; i++ {
		session.ChatHistory = append(session.ChatHistory, domain.ChatTurn{Role: "user", Content: "이전 질문"})
	}

	if _, err := svc.Chat(context.Background(), session, "새 질문"); err != nil {
		t.Fatalf("Chat() unexpected error = %v", err)
	}
	if sentTurns != maxChatHistoryTurns {
		t.Errorf("LLM received %d turns, want bounded to %d", sentTurns, maxChatHistoryTurns)
	}
}

func TestConsultService_Triage(t *testing.T) {
	t.Run("성공: LLM 분류와 자동 스킵이 병합된다", func(t *testing.T) {
		llm := &MockOpenAIClient{
			TriageColumnsFunc: func(ctx context.Context, filename string, columns []client.ColumnSample) (*domain.TriageResult, error) {
				return &domain.TriageResult{
					ColumnsToSkip: []domain.ColumnSkip{
						{ColumnName: "내부ID", Reason: domain.SkipReasonInternalID},
					},
				}, nil
			},
		}
		svc := newConsultService(llm)
		session := newTestSession([]domain.ObjectType{domain.ObjectTypeCompany},
			[]string{"회사명", "내부ID", "빈열"},
			[]domain.Row{{"회사명": "에이스", "내부ID": "550e8400", "빈열": ""}})

		triage, err := svc.Triage(context.Background(), "key", session)
		if err != nil {
			t.Fatalf("Triage() unexpected error = %v", err)
		}
		if triage == nil {
			t.Fatal("Triage() returned nil result")
		}
		if session.SkippedColumns["내부ID"] != domain.SkipReasonInternalID {
			t.Error("LLM skip verdict was not merged into the session")
		}
		if session.SkippedColumns["빈열"] != domain.SkipReasonEmpty {
			t.Error("auto skip for the empty column was not merged")
		}
	})

	t.Run("허용: LLM 실패 시 자동 스킵만 적용된다", func(t *testing.T) {
		llm := &MockOpenAIClient{
			TriageColumnsFunc: func(ctx context.Context, filename string, columns []client.ColumnSample) (*domain.TriageResult, error) {
				return nil, errors.New("llm unavailable")
			},
		}
		svc := newConsultService(llm)
		session := newTestSession([]domain.ObjectType{domain.ObjectTypeCompany}, []string{"회사명", "빈열"},
			[]domain.Row{{"회사명": "에이스", "빈열": ""}})

		triage, err := svc.Triage(context.Background(), "key", session)
		if err != nil {
			t.Fatalf("Triage() unexpected error = %v", err)
		}
		if len(triage.ColumnsToSkip) != 1 || triage.ColumnsToSkip[0].ColumnName != "빈열" {
			t.Errorf("Triage() fallback = %+v, want auto skips only", triage.ColumnsToSkip)
		}
		if session.SkippedColumns["빈열"] != domain.SkipReasonEmpty {
			t.Error("auto skip was not recorded on the session")
		}
	})
}

func TestConsultService_Summarize(t *testing.T) {
	llm := &MockOpenAIClient{
		SummarizeFunc: func(ctx context.Context, history []client.ChatMessage, columns []client.ColumnSample) (*domain.ConsultingSummary, error) {
			return &domain.ConsultingSummary{
				RecommendedObjectTypes: []domain.ObjectType{domain.ObjectTypeCompany, "ticket"},
				RecommendedFields: []domain.RecommendedField{
					{ObjectType: domain.ObjectTypeCompany, FieldID: "name", FieldLabel: "회사명"},
				},
			}, nil
		},
	}
	svc := newConsultService(llm)
	session := newTestSession([]domain.ObjectType{domain.ObjectTypePeople}, []string{"회사명"}, []domain.Row{{}})

	summary, err := svc.Summarize(context.Background(), "key", session)
	if err != nil {
		t.Fatalf("Summarize() unexpected error = %v", err)
	}
	// 알 수 없는 타입은 걸러지고, 유효한 추천이 선택을 대체한다
	if len(summary.RecommendedObjectTypes) != 1 || summary.RecommendedObjectTypes[0] != domain.ObjectTypeCompany {
		t.Errorf("RecommendedObjectTypes = %v, want [company]", summary.RecommendedObjectTypes)
	}
	if len(session.SelectedObjectTypes) != 1 || session.SelectedObjectTypes[0] != domain.ObjectTypeCompany {
		t.Errorf("SelectedObjectTypes = %v, want replaced with [company]", session.SelectedObjectTypes)
	}
	if len(session.RecommendedFields) != 1 || session.RecommendedFields[0].FieldID != "name" {
		t.Errorf("RecommendedFields = %v, want reconciled company.name", session.RecommendedFields)
	}
}

func TestConsultService_Summarize_IngestsColumnAnalysis(t *testing.T) {
	llm := &MockOpenAIClient{
		SummarizeFunc: func(ctx context.Context, history []client.ChatMessage, columns []client.ColumnSample) (*domain.ConsultingSummary, error) {
			return &domain.ConsultingSummary{
				RecommendedObjectTypes: []domain.ObjectType{domain.ObjectTypeCompany},
				RecommendedFields: []domain.RecommendedField{
					{ObjectType: domain.ObjectTypeCompany, FieldID: "name", FieldLabel: "회사명"},
				},
				ColumnAnalysis: &domain.TriageResult{
					ColumnsToSkip: []domain.ColumnSkip{
						{ColumnName: "내부ID", Reason: domain.SkipReasonInternalID},
					},
					ColumnsToKeep: []domain.ColumnKeep{
						{ColumnName: "업종", TargetObject: domain.ObjectTypeCompany, SuggestedFieldID: "industry", SuggestedLabel: "업종", SuggestedType: domain.FieldTypeText},
					},
				},
			}, nil
		},
	}
	svc := newConsultService(llm)
	session := newTestSession([]domain.ObjectType{domain.ObjectTypeCompany},
		[]string{"회사명", "내부ID", "업종"}, []domain.Row{{}})

	if _, err := svc.Summarize(context.Background(), "key", session); err != nil {
		t.Fatalf("Summarize() unexpected error = %v", err)
	}

	// 요약에 실린 열 분석도 세션에 반영되어야 한다
	if session.SkippedColumns["내부ID"] != domain.SkipReasonInternalID {
		t.Error("column analysis skip verdict was not recorded on the session")
	}
	var gotIndustry, gotName bool
	for _, f := range session.RecommendedFields {
		switch f.FieldID {
		case "industry":
			gotIndustry = true
		case "name":
			gotName = true
		}
	}
	if !gotIndustry || !gotName {
		t.Errorf("RecommendedFields = %v, want both the analysis keep column and the summary recommendation", session.RecommendedFields)
	}
}

func TestConsultService_Summarize_SelectionChangeResetsMappings(t *testing.T) {
	var peopleFetches int
	crm := &MockSalesmapClient{
		FetchFieldsFunc: func(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, error) {
			if objectType == domain.ObjectTypePeople {
				peopleFetches++
			}
			return domain.DefaultFields(objectType), nil
		},
	}
	logger := zap.NewNop()
	registry := NewRegistryService(crm, time.Hour, logger)
	recommend := NewRecommendService(registry, logger)
	llm := &MockOpenAIClient{
		SummarizeFunc: func(ctx context.Context, history []client.ChatMessage, columns []client.ColumnSample) (*domain.ConsultingSummary, error) {
			return &domain.ConsultingSummary{
				RecommendedObjectTypes: []domain.ObjectType{domain.ObjectTypeCompany},
			}, nil
		},
	}
	svc := NewConsultService(llm, NewAnalyzerService(), recommend, registry, logger)

	session := newTestSession([]domain.ObjectType{domain.ObjectTypePeople}, []string{"이름"}, []domain.Row{{}})
	mapColumn(session, "이름", domain.ObjectTypePeople, "name")

	// 이전 선택의 스키마를 캐시에 올려 둔다
	if _, _, err := registry.GetFields(context.Background(), "key", domain.ObjectTypePeople); err != nil {
		t.Fatalf("GetFields() unexpected error = %v", err)
	}
	if peopleFetches != 1 {
		t.Fatalf("people fetches = %d, want 1 after priming", peopleFetches)
	}

	if _, err := svc.Summarize(context.Background(), "key", session); err != nil {
		t.Fatalf("Summarize() unexpected error = %v", err)
	}

	// 선택이 바뀌었으니 기존 매핑은 남으면 안 된다
	if session.Mappings != nil {
		t.Errorf("Mappings = %v, want cleared after the selection changed", session.Mappings)
	}
	// 이전 선택의 캐시도 버려져서 다음 조회는 다시 CRM으로 간다
	if _, _, err := registry.GetFields(context.Background(), "key", domain.ObjectTypePeople); err != nil {
		t.Fatalf("GetFields() unexpected error = %v", err)
	}
	if peopleFetches != 2 {
		t.Errorf("people fetches = %d, want 2 after the cache was dropped", peopleFetches)
	}
}
