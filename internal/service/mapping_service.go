package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/metrics"
	"import-wizard-api/internal/response"
)

// MappingService resolves source columns to CRM target fields. The mapping
// set is a partial bijection at all times: no column and no target field is
// ever bound twice.
type MappingService interface {
	// CandidateFields builds the full mapping candidate set for the session:
	// registry fields of the selected object types, session custom fields,
	// and reconciled needs-creation recommendations. The second return names
	// the object types served from the default catalog; the session itself
	// is never written, so concurrent callers may share one session.
	CandidateFields(ctx context.Context, apiKey string, session *domain.ImportSession) ([]domain.TargetField, []domain.ObjectType, error)
	// Resolve runs the three-stage resolution: preserve prior mappings,
	// exact-name auto-match (cold start only), then AI suggestions for the
	// remainder. Existing bindings are never overwritten.
	Resolve(ctx context.Context, apiKey string, session *domain.ImportSession) error
	// SetMapping manually binds a column to a target, replacing the
	// column's previous binding. A target already bound to a different
	// column is a conflict and the call is rejected.
	SetMapping(ctx context.Context, apiKey string, session *domain.ImportSession, sourceColumn string, target domain.FieldKey) error
	// RemoveMapping unbinds a column
	RemoveMapping(session *domain.ImportSession, sourceColumn string)
	// AddCustomField creates a session-scoped custom field
	AddCustomField(session *domain.ImportSession, objectType domain.ObjectType, label string, fieldType domain.FieldType) (domain.CustomField, error)
	// RemoveCustomField deletes a custom field and cascades to any mapping
	// bound to it
	RemoveCustomField(session *domain.ImportSession, fieldID string) error
}

type mappingServiceImpl struct {
	registry RegistryService
	llm      client.OpenAIClient
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewMappingService creates a new instance of MappingService
func NewMappingService(registry RegistryService, llm client.OpenAIClient, m *metrics.Metrics, logger *zap.Logger) MappingService {
	return &mappingServiceImpl{
		registry: registry,
		llm:      llm,
		metrics:  m,
		logger:   logger,
	}
}

var nameSeparators = regexp.MustCompile(`[\s_\-]+`)

// normalizeName canonicalizes a column or field name for exact matching
func normalizeName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
}

func (s *mappingServiceImpl) CandidateFields(ctx context.Context, apiKey string, session *domain.ImportSession) ([]domain.TargetField, []domain.ObjectType, error) {
	if len(session.SelectedObjectTypes) == 0 {
		return nil, nil, response.NewValidationError("오브젝트 타입을 먼저 선택해 주세요", "")
	}

	var candidates []domain.TargetField
	seen := map[domain.FieldKey]bool{}
	var usingDefaults []domain.ObjectType

	for _, objectType := range session.SelectedObjectTypes {
		fields, usedDefaults, err := s.registry.GetFields(ctx, apiKey, objectType)
		if err != nil {
			return nil, nil, err
		}
		if usedDefaults {
			usingDefaults = append(usingDefaults, objectType)
		}
		for _, f := range fields {
			if seen[f.Key()] {
				continue
			}
			seen[f.Key()] = true
			candidates = append(candidates, f)
		}
	}
	for _, cf := range session.CustomFields {
		if session.HasObjectType(cf.ObjectType) && !seen[cf.Key()] {
			seen[cf.Key()] = true
			candidates = append(candidates, cf.TargetField)
		}
	}

	for _, rf := range session.RecommendedFields {
		if rf.NeedsCreation && session.HasObjectType(rf.ObjectType) && !seen[rf.Key()] {
			seen[rf.Key()] = true
			candidates = append(candidates, rf)
		}
	}

	return candidates, usingDefaults, nil
}

func (s *mappingServiceImpl) Resolve(ctx context.Context, apiKey string, session *domain.ImportSession) error {
	if session.Dataset == nil {
		return response.NewValidationError("업로드된 파일이 없습니다", "")
	}

	candidates, usingDefaults, err := s.CandidateFields(ctx, apiKey, session)
	if err != nil {
		return err
	}
	session.UsingDefaults = usingDefaults

	candidateByKey := map[domain.FieldKey]domain.TargetField{}
	for _, f := range candidates {
		candidateByKey[f.Key()] = f
	}

	// 1단계: 기존 매핑 보존. 후보에서 사라진 타깃에 걸린 매핑만 떨군다.
	kept := session.Mappings[:0]
	for _, m := range session.Mappings {
		if _, ok := candidateByKey[m.TargetField]; ok {
			kept = append(kept, m)
		} else {
			s.logger.Info("Dropping mapping to vanished target",
				zap.String("source_column", m.SourceColumn),
				zap.String("target", m.TargetField.String()))
		}
	}
	coldStart := len(session.Mappings) == 0
	session.Mappings = kept

	boundColumns := map[string]bool{}
	boundTargets := map[domain.FieldKey]bool{}
	for _, m := range session.Mappings {
		boundColumns[m.SourceColumn] = true
		boundTargets[m.TargetField] = true
	}

	// 2단계: 정규화 이름 완전 일치 자동 매칭. 첫 해석에서만 돌고,
	// 후보가 정확히 하나일 때만 바인딩한다.
	if coldStart {
		s.autoMatch(session, candidates, boundColumns, boundTargets)
	}

	// 3단계: 남은 열은 LLM 제안으로 채운다. 제안 실패는 해석 실패가 아니다.
	if err := s.applySuggestions(ctx, session, candidateByKey, boundColumns, boundTargets); err != nil {
		s.logger.Warn("AI mapping suggestions unavailable", zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.IncrementAutoMap()
	}
	return nil
}

func (s *mappingServiceImpl) autoMatch(session *domain.ImportSession, candidates []domain.TargetField, boundColumns map[string]bool, boundTargets map[domain.FieldKey]bool) {
	// 정규화 이름 → 후보 목록 (라벨과 필드 id 모두 인덱싱)
	byName := map[string][]domain.TargetField{}
	index := func(name string, f domain.TargetField) {
		n := normalizeName(name)
		if n == "" {
			return
		}
		for _, existing := range byName[n] {
			if existing.Key() == f.Key() {
				return
			}
		}
		byName[n] = append(byName[n], f)
	}
	for _, f := range candidates {
		index(f.Label, f)
		index(f.FieldID, f)
	}

	for _, col := range session.Dataset.Columns {
		if boundColumns[col] {
			continue
		}
		if _, skipped := session.SkippedColumns[col]; skipped {
			continue
		}

		matches := byName[normalizeName(col)]
		if len(matches) != 1 {
			continue
		}
		target := matches[0]
		if boundTargets[target.Key()] {
			continue
		}

		session.Mappings = append(session.Mappings, domain.FieldMapping{
			SourceColumn: col,
			TargetField:  target.Key(),
			Confidence:   1.0,
			Source:       domain.MappingSourceAutoMatch,
		})
		boundColumns[col] = true
		boundTargets[target.Key()] = true
	}
}

func (s *mappingServiceImpl) applySuggestions(ctx context.Context, session *domain.ImportSession, candidateByKey map[domain.FieldKey]domain.TargetField, boundColumns map[string]bool, boundTargets map[domain.FieldKey]bool) error {
	var unmapped []client.ColumnSample
	for _, col := range session.Dataset.Columns {
		if boundColumns[col] {
			continue
		}
		if _, skipped := session.SkippedColumns[col]; skipped {
			continue
		}
		unmapped = append(unmapped, client.ColumnSample{
			Name:    col,
			Samples: sampleColumn(session.Dataset, col),
		})
	}
	if len(unmapped) == 0 {
		return nil
	}

	var remaining []domain.TargetField
	for key, f := range candidateByKey {
		if !boundTargets[key] {
			remaining = append(remaining, f)
		}
	}
	if len(remaining) == 0 {
		return nil
	}

	suggestions, err := s.llm.SuggestMappings(ctx, unmapped, remaining)
	if err != nil {
		return err
	}

	for _, sug := range suggestions {
		key, err := domain.ParseFieldKey(sug.TargetField)
		if err != nil {
			continue
		}
		// 제안은 후보에 실존하는 타깃만, 빈 자리에만 들어간다
		if _, ok := candidateByKey[key]; !ok {
			continue
		}
		if boundColumns[sug.SourceColumn] || boundTargets[key] {
			continue
		}
		confidence := sug.Confidence
		if confidence < 0 || confidence > 1 {
			confidence = 0
		}
		session.Mappings = append(session.Mappings, domain.FieldMapping{
			SourceColumn: sug.SourceColumn,
			TargetField:  key,
			Confidence:   confidence,
			Source:       domain.MappingSourceAI,
		})
		boundColumns[sug.SourceColumn] = true
		boundTargets[key] = true
	}
	return nil
}

// sampleColumn returns up to maxSampleValues distinct non-empty values
func sampleColumn(dataset *domain.Dataset, column string) []string {
	var samples []string
	seen := map[string]bool{}
	for _, row := range dataset.Rows {
		v := row[column]
		if domain.IsEmptyValue(v) || seen[v] {
			continue
		}
		seen[v] = true
		samples = append(samples, v)
		if len(samples) >= maxSampleValues {
			break
		}
	}
	return samples
}

func (s *mappingServiceImpl) SetMapping(ctx context.Context, apiKey string, session *domain.ImportSession, sourceColumn string, target domain.FieldKey) error {
	if session.Dataset == nil {
		return response.NewValidationError("업로드된 파일이 없습니다", "")
	}

	columnExists := false
	for _, col := range session.Dataset.Columns {
		if col == sourceColumn {
			columnExists = true
			break
		}
	}
	if !columnExists {
		return response.NewValidationError(fmt.Sprintf("'%s' 열이 존재하지 않습니다", sourceColumn), "")
	}

	candidates, _, err := s.CandidateFields(ctx, apiKey, session)
	if err != nil {
		return err
	}
	found := false
	for _, f := range candidates {
		if f.Key() == target {
			found = true
			break
		}
	}
	if !found {
		return response.NewNotFoundError(fmt.Sprintf("매핑 대상 필드를 찾을 수 없습니다: %s", target.String()), "")
	}

	if existing, ok := session.FindMappingByTarget(target); ok && existing.SourceColumn != sourceColumn {
		return response.NewConflictError(
			fmt.Sprintf("'%s' 필드는 이미 '%s' 열에 매핑되어 있습니다", target.String(), existing.SourceColumn), "")
	}

	// 수동 매핑은 스킵 판정을 덮는다
	delete(session.SkippedColumns, sourceColumn)

	s.RemoveMapping(session, sourceColumn)
	session.Mappings = append(session.Mappings, domain.FieldMapping{
		SourceColumn: sourceColumn,
		TargetField:  target,
		Confidence:   1.0,
		Source:       domain.MappingSourceManual,
	})
	return nil
}

func (s *mappingServiceImpl) RemoveMapping(session *domain.ImportSession, sourceColumn string) {
	kept := session.Mappings[:0]
	for _, m := range session.Mappings {
		if m.SourceColumn != sourceColumn {
			kept = append(kept, m)
		}
	}
	session.Mappings = kept
}

func (s *mappingServiceImpl) AddCustomField(session *domain.ImportSession, objectType domain.ObjectType, label string, fieldType domain.FieldType) (domain.CustomField, error) {
	if !domain.IsValidObjectType(string(objectType)) {
		return domain.CustomField{}, response.NewValidationError(fmt.Sprintf("잘못된 오브젝트 타입: %s", objectType), "")
	}
	if !session.HasObjectType(objectType) {
		return domain.CustomField{}, response.NewValidationError(fmt.Sprintf("선택되지 않은 오브젝트 타입입니다: %s", objectType), "")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return domain.CustomField{}, response.NewValidationError("필드 이름이 비어 있습니다", "")
	}
	if !domain.IsValidFieldType(string(fieldType)) {
		fieldType = domain.FieldTypeText
	}

	for _, cf := range session.CustomFields {
		if cf.ObjectType == objectType && strings.EqualFold(cf.Label, label) {
			return domain.CustomField{}, response.NewAppError(response.ErrCodeAlreadyExists,
				fmt.Sprintf("'%s' 필드가 이미 있습니다", label), "")
		}
	}

	field := domain.CustomField{
		TargetField: domain.TargetField{
			ObjectType:    objectType,
			FieldID:       fmt.Sprintf("custom_%d", time.Now().UnixNano()),
			Label:         label,
			FieldType:     fieldType,
			IsCustom:      true,
			NeedsCreation: true,
		},
		ObjectName: objectType.Name(),
	}
	session.CustomFields = append(session.CustomFields, field)
	return field, nil
}

func (s *mappingServiceImpl) RemoveCustomField(session *domain.ImportSession, fieldID string) error {
	var removed *domain.CustomField
	kept := session.CustomFields[:0]
	for _, cf := range session.CustomFields {
		if cf.FieldID == fieldID {
			c := cf
			removed = &c
			continue
		}
		kept = append(kept, cf)
	}
	if removed == nil {
		return response.NewNotFoundError(fmt.Sprintf("커스텀 필드를 찾을 수 없습니다: %s", fieldID), "")
	}
	session.CustomFields = kept

	// 삭제된 필드를 가리키는 매핑은 함께 지운다
	keptMappings := session.Mappings[:0]
	for _, m := range session.Mappings {
		if m.TargetField != removed.Key() {
			keptMappings = append(keptMappings, m)
		}
	}
	session.Mappings = keptMappings
	return nil
}
