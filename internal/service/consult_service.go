package service

import (
	"context"

	"go.uber.org/zap"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/response"
)

// 대화가 길어져도 LLM에는 최근 턴만 보낸다
const maxChatHistoryTurns = 20

// ConsultService runs the AI consulting conversation that helps the user
// decide which object types to import and which columns matter
type ConsultService interface {
	// Chat appends a user message, gets the assistant reply, and records
	// both on the session
	Chat(ctx context.Context, session *domain.ImportSession, message string) (string, error)
	// Triage classifies the dataset's columns and merges the result into
	// the session
	Triage(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.TriageResult, error)
	// Summarize distills the conversation into recommendations and
	// reconciles them against the registry
	Summarize(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.ConsultingSummary, error)
}

type consultServiceImpl struct {
	llm       client.OpenAIClient
	analyzer  AnalyzerService
	recommend RecommendService
	registry  RegistryService
	logger    *zap.Logger
}

// NewConsultService creates a new instance of ConsultService
func NewConsultService(llm client.OpenAIClient, analyzer AnalyzerService, recommend RecommendService, registry RegistryService, logger *zap.Logger) ConsultService {
	return &consultServiceImpl{
		llm:       llm,
		analyzer:  analyzer,
		recommend: recommend,
		registry:  registry,
		logger:    logger,
	}
}

// history converts the session transcript to LLM messages, bounded to the
// most recent turns
func history(session *domain.ImportSession) []client.ChatMessage {
	turns := session.ChatHistory
	if len(turns) > maxChatHistoryTurns {
		turns = turns[len(turns)-maxChatHistoryTurns:]
	}
	msgs := make([]client.ChatMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, client.ChatMessage{Role: t.Role, Content: t.Content})
	}
	return msgs
}

// columnSamples summarizes the dataset for LLM prompts
func columnSamples(dataset *domain.Dataset) []client.ColumnSample {
	if dataset == nil {
		return nil
	}
	samples := make([]client.ColumnSample, 0, len(dataset.Columns))
	for _, col := range dataset.Columns {
		samples = append(samples, client.ColumnSample{
			Name:    col,
			Samples: sampleColumn(dataset, col),
		})
	}
	return samples
}

func (s *consultServiceImpl) Chat(ctx context.Context, session *domain.ImportSession, message string) (string, error) {
	if message == "" {
		return "", response.NewValidationError("메시지가 비어 있습니다", "")
	}

	session.ChatHistory = append(session.ChatHistory, domain.ChatTurn{Role: "user", Content: message})

	reply, err := s.llm.Chat(ctx, history(session))
	if err != nil {
		s.logger.Error("Consulting chat failed", zap.Error(err))
		return "", response.NewExternalAPIError("AI 상담을 잠시 사용할 수 없습니다", err.Error())
	}

	session.ChatHistory = append(session.ChatHistory, domain.ChatTurn{Role: "assistant", Content: reply})
	return reply, nil
}

func (s *consultServiceImpl) Triage(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.TriageResult, error) {
	if session.Dataset == nil {
		return nil, response.NewValidationError("업로드된 파일이 없습니다", "")
	}

	autoSkips := s.analyzer.AutoSkipCandidates(session.Dataset)

	triage, err := s.llm.TriageColumns(ctx, session.Dataset.Filename, columnSamples(session.Dataset))
	if err != nil {
		// LLM 없이도 자동 스킵만으로 진행할 수 있다
		s.logger.Warn("LLM triage unavailable, applying auto skips only", zap.Error(err))
		s.recommend.IngestTriage(ctx, apiKey, session, nil, autoSkips)
		return &domain.TriageResult{ColumnsToSkip: autoSkips}, nil
	}

	s.recommend.IngestTriage(ctx, apiKey, session, triage, autoSkips)
	return triage, nil
}

func (s *consultServiceImpl) Summarize(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.ConsultingSummary, error) {
	summary, err := s.llm.Summarize(ctx, history(session), columnSamples(session.Dataset))
	if err != nil {
		return nil, response.NewExternalAPIError("상담 요약에 실패했습니다", err.Error())
	}

	// 추천 오브젝트는 검증 후에만 세션에 반영
	var validObjects []domain.ObjectType
	for _, obj := range summary.RecommendedObjectTypes {
		if domain.IsValidObjectType(string(obj)) {
			validObjects = append(validObjects, obj)
		}
	}
	summary.RecommendedObjectTypes = validObjects
	if len(validObjects) > 0 {
		// 추천으로 선택이 바뀌면 관련 스키마 캐시를 버리고 매핑을
		// 비워서 다음 해석이 처음부터 다시 잡게 한다
		if !domain.SameObjectTypeSet(session.SelectedObjectTypes, validObjects) {
			for _, t := range domain.UnionObjectTypes(session.SelectedObjectTypes, validObjects) {
				s.registry.Invalidate(apiKey, t)
			}
			session.Mappings = nil
		}
		session.SelectedObjectTypes = validObjects
	}

	if summary.ColumnAnalysis != nil {
		s.recommend.IngestTriage(ctx, apiKey, session, summary.ColumnAnalysis, nil)
	}
	s.recommend.Reconcile(ctx, apiKey, session, summary.RecommendedFields)
	return summary, nil
}
