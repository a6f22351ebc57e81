package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"import-wizard-api/internal/domain"
)

// RecommendService reconciles AI consulting output against the schema
// registry. Suggestions are untrusted: a recommended field either resolves
// to a real CRM field or is synthesized as a needs-creation placeholder.
type RecommendService interface {
	// Reconcile resolves recommendations into registry-backed target fields
	// and merges them into the session, deduplicated per (object, field).
	// It returns the newly admitted fields.
	Reconcile(ctx context.Context, apiKey string, session *domain.ImportSession, recs []domain.RecommendedField) []domain.TargetField
	// IngestTriage merges a column triage into the session: skip columns
	// are recorded and keep columns become field recommendations
	IngestTriage(ctx context.Context, apiKey string, session *domain.ImportSession, triage *domain.TriageResult, autoSkips []domain.ColumnSkip)
}

type recommendServiceImpl struct {
	registry RegistryService
	logger   *zap.Logger
}

// NewRecommendService creates a new instance of RecommendService
func NewRecommendService(registry RegistryService, logger *zap.Logger) RecommendService {
	return &recommendServiceImpl{
		registry: registry,
		logger:   logger,
	}
}

func (s *recommendServiceImpl) Reconcile(ctx context.Context, apiKey string, session *domain.ImportSession, recs []domain.RecommendedField) []domain.TargetField {
	resolved := make([]domain.TargetField, 0, len(recs))
	seen := map[domain.FieldKey]bool{}
	for _, existing := range session.RecommendedFields {
		seen[existing.Key()] = true
	}

	for _, rec := range recs {
		if !domain.IsValidObjectType(string(rec.ObjectType)) {
			s.logger.Warn("Dropping recommendation with unknown object type",
				zap.String("object_type", string(rec.ObjectType)),
				zap.String("field_id", rec.FieldID))
			continue
		}

		field, ok := s.resolve(ctx, apiKey, rec)
		if !ok {
			// 레지스트리에 없는 필드는 생성 필요 표시를 달아 합류시킨다
			fieldType := rec.FieldType
			if !domain.IsValidFieldType(string(fieldType)) {
				fieldType = domain.FieldTypeText
			}
			label := rec.FieldLabel
			if label == "" {
				label = rec.FieldID
			}
			field = domain.TargetField{
				ObjectType:    rec.ObjectType,
				FieldID:       rec.FieldID,
				Label:         label,
				FieldType:     fieldType,
				IsCustom:      true,
				NeedsCreation: true,
			}
		}

		if seen[field.Key()] {
			continue
		}
		seen[field.Key()] = true
		resolved = append(resolved, field)
	}

	// 추천은 상담 요약과 열 분류가 따로 내놓는다. 먼저 합류한 추천을
	// 지우지 않고 같은 (오브젝트, 필드) 키만 걸러서 덧붙인다.
	session.RecommendedFields = append(session.RecommendedFields, resolved...)
	return resolved
}

// resolve matches a recommendation against the registry, first by field id,
// then by case-insensitive label
func (s *recommendServiceImpl) resolve(ctx context.Context, apiKey string, rec domain.RecommendedField) (domain.TargetField, bool) {
	fields, _, err := s.registry.GetFields(ctx, apiKey, rec.ObjectType)
	if err != nil {
		return domain.TargetField{}, false
	}

	for _, f := range fields {
		if f.FieldID == rec.FieldID {
			return f, true
		}
	}

	label := strings.ToLower(strings.TrimSpace(rec.FieldLabel))
	if label == "" {
		return domain.TargetField{}, false
	}
	for _, f := range fields {
		if strings.ToLower(strings.TrimSpace(f.Label)) == label {
			return f, true
		}
	}
	return domain.TargetField{}, false
}

func (s *recommendServiceImpl) IngestTriage(ctx context.Context, apiKey string, session *domain.ImportSession, triage *domain.TriageResult, autoSkips []domain.ColumnSkip) {
	if session.SkippedColumns == nil {
		session.SkippedColumns = map[string]domain.SkipReason{}
	}

	columnSet := map[string]bool{}
	if session.Dataset != nil {
		for _, c := range session.Dataset.Columns {
			columnSet[c] = true
		}
	}

	for _, skip := range autoSkips {
		session.SkippedColumns[skip.ColumnName] = skip.Reason
	}

	var recs []domain.RecommendedField
	if triage != nil {
		for _, skip := range triage.ColumnsToSkip {
			// 실제 존재하는 열만 기록한다
			if !columnSet[skip.ColumnName] {
				continue
			}
			reason := skip.Reason
			if reason == "" {
				reason = domain.SkipReasonAutoSkipped
			}
			session.SkippedColumns[skip.ColumnName] = reason
		}

		for _, keep := range triage.ColumnsToKeep {
			if !columnSet[keep.ColumnName] {
				continue
			}
			// keep 판정이 skip 기록보다 우선한다
			delete(session.SkippedColumns, keep.ColumnName)
			recs = append(recs, domain.RecommendedField{
				ObjectType: keep.TargetObject,
				FieldID:    keep.SuggestedFieldID,
				FieldLabel: keep.SuggestedLabel,
				FieldType:  keep.SuggestedType,
				Reason:     keep.Reason,
			})
		}

		for _, obj := range triage.RecommendedObjects {
			if domain.IsValidObjectType(string(obj)) && !session.HasObjectType(obj) {
				session.SelectedObjectTypes = append(session.SelectedObjectTypes, obj)
			}
		}
	}

	s.Reconcile(ctx, apiKey, session, recs)
}
