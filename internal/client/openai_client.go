package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/metrics"
)

// maxRepairAttempts bounds the LLM JSON repair loop
const maxRepairAttempts = 2

// ChatMessage is one turn of a conversation with the LLM
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ColumnSample is what the LLM sees of one source column
type ColumnSample struct {
	Name    string   `json:"name"`
	Samples []string `json:"samples"`
}

// MappingSuggestion is one LLM auto-mapping proposal. TargetField uses the
// "objectType.fieldId" wire format and must be resolved against the registry
// before use.
type MappingSuggestion struct {
	SourceColumn string  `json:"sourceColumn"`
	TargetField  string  `json:"targetField"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
}

// DuplicatePair carries the mapped values of two rows for LLM judgment
type DuplicatePair struct {
	Row1    int               `json:"row1"`
	Row2    int               `json:"row2"`
	Fields1 map[string]string `json:"fields1"`
	Fields2 map[string]string `json:"fields2"`
}

// OpenAIClient defines the interface for LLM-backed operations
type OpenAIClient interface {
	// SuggestMappings proposes target fields for unmapped source columns
	SuggestMappings(ctx context.Context, columns []ColumnSample, candidates []domain.TargetField) ([]MappingSuggestion, error)
	// TriageColumns classifies source columns into keep/skip
	TriageColumns(ctx context.Context, filename string, columns []ColumnSample) (*domain.TriageResult, error)
	// Chat continues a free-form consulting conversation
	Chat(ctx context.Context, history []ChatMessage) (string, error)
	// Summarize distills a consulting conversation into a structured summary
	Summarize(ctx context.Context, history []ChatMessage, columns []ColumnSample) (*domain.ConsultingSummary, error)
	// JudgeDuplicates asks the LLM whether candidate pairs are true duplicates.
	// Results map 1:1 to pairs; a nil entry means judgment failed for that pair.
	JudgeDuplicates(ctx context.Context, pairs []DuplicatePair) ([]*domain.DuplicateAnalysis, error)
}

// openaiClient implements OpenAIClient over the chat-completions API
type openaiClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewOpenAIClient creates a new LLM API client
func NewOpenAIClient(baseURL, apiKey, model string, temperature float64, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) OpenAIClient {
	return &openaiClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one chat-completion request and returns the assistant text
func (c *openaiClient) complete(ctx context.Context, messages []ChatMessage) (string, error) {
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)

	jsonBody, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	startTime := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(url, "POST", statusCode, duration, err)
	}

	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read llm response: %w", err)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm api error: %s", parsed.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm api returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// extractJSON pulls the JSON payload out of an LLM reply. Code fences and
// surrounding prose are tolerated; anything else is a parse failure.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	var end int
	if text[start] == '{' {
		end = strings.LastIndex(text, "}")
	} else {
		end = strings.LastIndex(text, "]")
	}
	if end <= start {
		return ""
	}
	return text[start : end+1]
}

// completeJSON runs a completion and strictly parses the reply into out.
// On parse failure the raw reply is fed back with a repair instruction,
// up to maxRepairAttempts times.
func (c *openaiClient) completeJSON(ctx context.Context, messages []ChatMessage, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= maxRepairAttempts; attempt++ {
		reply, err := c.complete(ctx, messages)
		if err != nil {
			return err
		}

		payload := extractJSON(reply)
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), out); err == nil {
				return nil
			} else {
				lastErr = err
			}
		} else {
			lastErr = fmt.Errorf("no JSON found in llm reply")
		}

		c.logger.Warn("LLM reply was not valid JSON, requesting repair",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
		messages = append(messages,
			ChatMessage{Role: "assistant", Content: reply},
			ChatMessage{Role: "user", Content: "응답이 유효한 JSON이 아닙니다. 설명 없이 JSON만 다시 출력해 주세요."},
		)
	}
	return fmt.Errorf("llm produced invalid JSON after %d attempts: %w", maxRepairAttempts+1, lastErr)
}

func (c *openaiClient) SuggestMappings(ctx context.Context, columns []ColumnSample, candidates []domain.TargetField) ([]MappingSuggestion, error) {
	type candidateView struct {
		Key       string `json:"key"`
		Label     string `json:"label"`
		FieldType string `json:"fieldType"`
		Required  bool   `json:"required"`
	}
	views := make([]candidateView, 0, len(candidates))
	for _, f := range candidates {
		views = append(views, candidateView{
			Key:       f.Key().String(),
			Label:     f.Label,
			FieldType: string(f.FieldType),
			Required:  f.Required,
		})
	}

	columnsJSON, _ := json.Marshal(columns)
	candidatesJSON, _ := json.Marshal(views)

	messages := []ChatMessage{
		{Role: "system", Content: "당신은 CRM 데이터 임포트 전문가입니다. 스프레드시트 열을 CRM 필드에 매핑하세요. " +
			"반드시 후보 목록에 있는 key만 사용하고, 자신 없는 열은 제외하세요. " +
			`JSON 배열로만 응답: [{"sourceColumn":"...","targetField":"objectType.fieldId","confidence":0.0,"reason":"..."}]`},
		{Role: "user", Content: fmt.Sprintf("열 목록과 샘플 값:\n%s\n\n매핑 후보 필드:\n%s", columnsJSON, candidatesJSON)},
	}

	var suggestions []MappingSuggestion
	if err := c.completeJSON(ctx, messages, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (c *openaiClient) TriageColumns(ctx context.Context, filename string, columns []ColumnSample) (*domain.TriageResult, error) {
	columnsJSON, _ := json.Marshal(columns)

	messages := []ChatMessage{
		{Role: "system", Content: "당신은 CRM 데이터 임포트 전문가입니다. 스프레드시트 열을 분석해서 " +
			"CRM에 가져갈 열(columnsToKeep)과 제외할 열(columnsToSkip)로 분류하세요. " +
			"내부 식별자, 빈 열, 시스템 생성 값, 불필요한 메타정보는 제외 대상입니다. " +
			"targetObject는 company/people/lead/deal 중 하나. " +
			`JSON으로만 응답: {"columnsToKeep":[...],"columnsToSkip":[...],"recommendedObjects":[...]}`},
		{Role: "user", Content: fmt.Sprintf("파일명: %s\n열 목록과 샘플 값:\n%s", filename, columnsJSON)},
	}

	var result domain.TriageResult
	if err := c.completeJSON(ctx, messages, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *openaiClient) Chat(ctx context.Context, history []ChatMessage) (string, error) {
	messages := append([]ChatMessage{
		{Role: "system", Content: "당신은 CRM 데이터 임포트 컨설턴트입니다. 사용자의 스프레드시트를 " +
			"어떤 오브젝트(회사/고객/리드/딜)로 가져갈지 함께 결정하고, 친절하고 간결하게 한국어로 답하세요."},
	}, history...)
	return c.complete(ctx, messages)
}

func (c *openaiClient) Summarize(ctx context.Context, history []ChatMessage, columns []ColumnSample) (*domain.ConsultingSummary, error) {
	columnsJSON, _ := json.Marshal(columns)

	messages := append([]ChatMessage{
		{Role: "system", Content: "다음 컨설팅 대화를 구조화된 요약으로 정리하세요. " +
			"recommendedObjectTypes는 company/people/lead/deal 중에서, recommendedFields의 fieldId는 snake_case로. " +
			`JSON으로만 응답: {"recommendedObjectTypes":[...],"recommendedFields":[{"objectType":"...","fieldId":"...","fieldLabel":"...","fieldType":"...","reason":"..."}],"confirmationMessage":"..."}`},
	}, history...)
	messages = append(messages, ChatMessage{
		Role:    "user",
		Content: fmt.Sprintf("위 대화를 요약해 주세요. 참고용 열 목록:\n%s", columnsJSON),
	})

	var summary domain.ConsultingSummary
	if err := c.completeJSON(ctx, messages, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *openaiClient) JudgeDuplicates(ctx context.Context, pairs []DuplicatePair) ([]*domain.DuplicateAnalysis, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	pairsJSON, _ := json.Marshal(pairs)

	messages := []ChatMessage{
		{Role: "system", Content: "두 행이 같은 실체(같은 사람/회사)를 가리키는지 판정하세요. " +
			"표기 차이(공백, 대소문자, 법인 표기)는 같은 실체로, 다른 사람의 같은 회사 이메일 도메인은 다른 실체로 봅니다. " +
			`입력 배열과 같은 순서의 JSON 배열로만 응답: [{"isDuplicate":true,"confidence":0.0,"reason":"..."}]`},
		{Role: "user", Content: string(pairsJSON)},
	}

	var analyses []domain.DuplicateAnalysis
	if err := c.completeJSON(ctx, messages, &analyses); err != nil {
		return nil, err
	}

	// 응답 길이가 어긋나면 맞는 구간만 취한다
	out := make([]*domain.DuplicateAnalysis, len(pairs))
	for i := range pairs {
		if i < len(analyses) {
			a := analyses[i]
			out[i] = &a
		}
	}
	return out, nil
}
