package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/metrics"
	"import-wizard-api/internal/response"
)

// 판정이 갈리는 유사도 구간만 LLM에 보낸다
const (
	aiJudgeLowerBound = 0.7
	aiJudgeUpperBound = 0.9
)

// DuplicateService scans mapped rows for likely duplicate entities.
// Similarity is a weighted mean over identity-bearing fields; borderline
// pairs are optionally annotated by the LLM but never dropped because of it.
type DuplicateService interface {
	Detect(ctx context.Context, apiKey string, session *domain.ImportSession) ([]domain.DuplicateCandidate, error)
}

type duplicateServiceImpl struct {
	mapping   MappingService
	llm       client.OpenAIClient
	threshold float64
	maxRows   int
	maxPairs  int
	useAI     bool
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewDuplicateService creates a new instance of DuplicateService. The LLM
// judge on borderline pairs is opt-in via useAI and off by default.
func NewDuplicateService(mapping MappingService, llm client.OpenAIClient, threshold float64, maxRows, maxPairs int, useAI bool, m *metrics.Metrics, logger *zap.Logger) DuplicateService {
	return &duplicateServiceImpl{
		mapping:   mapping,
		llm:       llm,
		threshold: threshold,
		maxRows:   maxRows,
		maxPairs:  maxPairs,
		useAI:     useAI,
		metrics:   m,
		logger:    logger,
	}
}

// dupeField is one mapped column participating in the similarity score
type dupeField struct {
	column string
	field  domain.TargetField
	weight float64
}

// fieldWeight scores how strongly a field identifies an entity
func fieldWeight(field domain.TargetField) float64 {
	if field.FieldType == domain.FieldTypeEmail {
		return 1.0
	}
	if field.FieldID == "name" {
		return 0.8
	}
	if field.FieldType == domain.FieldTypePhone {
		return 0.7
	}
	return 0.3
}

func (s *duplicateServiceImpl) Detect(ctx context.Context, apiKey string, session *domain.ImportSession) ([]domain.DuplicateCandidate, error) {
	if session.Dataset == nil {
		return nil, response.NewValidationError("업로드된 파일이 없습니다", "")
	}
	if len(session.Mappings) == 0 {
		return nil, nil
	}

	candidates, _, err := s.mapping.CandidateFields(ctx, apiKey, session)
	if err != nil {
		return nil, err
	}
	fieldByKey := map[domain.FieldKey]domain.TargetField{}
	for _, f := range candidates {
		fieldByKey[f.Key()] = f
	}

	// 비교에 쓸 매핑과 가중치를 한 번만 준비한다
	var fields []dupeField
	for _, m := range session.Mappings {
		field, ok := fieldByKey[m.TargetField]
		if !ok {
			continue
		}
		fields = append(fields, dupeField{
			column: m.SourceColumn,
			field:  field,
			weight: fieldWeight(field),
		})
	}
	if len(fields) == 0 {
		return nil, nil
	}

	rows := session.Dataset.Rows
	if s.maxRows > 0 && len(rows) > s.maxRows {
		s.logger.Info("Duplicate scan row cap applied",
			zap.Int("total_rows", len(rows)),
			zap.Int("scanned_rows", s.maxRows))
		rows = rows[:s.maxRows]
	}

	var pairs []domain.DuplicateCandidate
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			var weightedSum, weightTotal float64
			fieldSims := map[string]float64{}

			for _, f := range fields {
				v1 := domain.NormalizeValue(f.field.FieldType, rows[i][f.column])
				v2 := domain.NormalizeValue(f.field.FieldType, rows[j][f.column])
				if domain.IsEmptyValue(v1) || domain.IsEmptyValue(v2) {
					continue
				}
				sim := stringSimilarity(strings.ToLower(v1), strings.ToLower(v2))
				fieldSims[f.column] = sim
				weightedSum += sim * f.weight
				weightTotal += f.weight
			}

			if weightTotal == 0 {
				continue
			}
			similarity := weightedSum / weightTotal
			if similarity < s.threshold {
				continue
			}

			pairs = append(pairs, domain.DuplicateCandidate{
				Row1:              i,
				Row2:              j,
				Similarity:        similarity,
				FieldSimilarities: fieldSims,
			})
		}
	}

	// 유사도 높은 순으로 상한까지만 보고한다
	sort.Slice(pairs, func(a, b int) bool {
		return pairs[a].Similarity > pairs[b].Similarity
	})
	if s.maxPairs > 0 && len(pairs) > s.maxPairs {
		pairs = pairs[:s.maxPairs]
	}

	if s.useAI {
		s.annotateBorderline(ctx, session, pairs, fields)
	}

	if s.metrics != nil {
		s.metrics.IncrementDuplicateScans()
	}
	return pairs, nil
}

// annotateBorderline asks the LLM about pairs in the ambiguous band.
// Failures are logged and the pairs stay in the report unannotated.
func (s *duplicateServiceImpl) annotateBorderline(ctx context.Context, session *domain.ImportSession, pairs []domain.DuplicateCandidate, fields []dupeField) {
	var judgePairs []client.DuplicatePair
	var judgeIdx []int
	for idx, p := range pairs {
		if p.Similarity < aiJudgeLowerBound || p.Similarity >= aiJudgeUpperBound {
			continue
		}
		f1 := map[string]string{}
		f2 := map[string]string{}
		for _, f := range fields {
			f1[f.column] = session.Dataset.Rows[p.Row1][f.column]
			f2[f.column] = session.Dataset.Rows[p.Row2][f.column]
		}
		judgePairs = append(judgePairs, client.DuplicatePair{
			Row1:    p.Row1,
			Row2:    p.Row2,
			Fields1: f1,
			Fields2: f2,
		})
		judgeIdx = append(judgeIdx, idx)
	}
	if len(judgePairs) == 0 {
		return
	}

	analyses, err := s.llm.JudgeDuplicates(ctx, judgePairs)
	if err != nil {
		s.logger.Warn("LLM duplicate judgment unavailable", zap.Error(err))
		return
	}
	for i, analysis := range analyses {
		if analysis != nil && i < len(judgeIdx) {
			pairs[judgeIdx[i]].AIAnalysis = analysis
		}
	}
}

// stringSimilarity is the Ratcliff/Obershelp ratio over two strings:
// twice the total length of matching blocks divided by the combined length
func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingBlocks([]rune(a), []rune(b))
	return 2.0 * float64(matched) / float64(len([]rune(a))+len([]rune(b)))
}

// matchingBlocks recursively sums the longest common substring lengths
func matchingBlocks(a, b []rune) int {
	length, posA, posB := longestCommonSubstring(a, b)
	if length == 0 {
		return 0
	}
	total := length
	total += matchingBlocks(a[:posA], b[:posB])
	total += matchingBlocks(a[posA+length:], b[posB+length:])
	return total
}

// longestCommonSubstring finds the longest common substring and its positions
func longestCommonSubstring(a, b []rune) (length, posA, posB int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > length {
					length = curr[j]
					posA = i - length
					posB = j - length
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return length, posA, posB
}
