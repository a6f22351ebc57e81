package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/metrics"
	"import-wizard-api/internal/response"
)

// ValidationService checks a resolved mapping set and the underlying rows
// against the CRM's constraints. Structural problems block the final import;
// per-row findings only narrow which rows are importable.
type ValidationService interface {
	// ValidateStructure checks required-field coverage, the lead/deal
	// connection rule, and needs-creation blockers
	ValidateStructure(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.StructureResult, error)
	// ValidateRows checks every row's mapped values against field types
	// and required constraints
	ValidateRows(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.RowValidationResult, error)
}

type validationServiceImpl struct {
	registry RegistryService
	mapping  MappingService
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewValidationService creates a new instance of ValidationService
func NewValidationService(registry RegistryService, mapping MappingService, m *metrics.Metrics, logger *zap.Logger) ValidationService {
	return &validationServiceImpl{
		registry: registry,
		mapping:  mapping,
		metrics:  m,
		logger:   logger,
	}
}

func (s *validationServiceImpl) ValidateStructure(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.StructureResult, error) {
	if len(session.SelectedObjectTypes) == 0 {
		return nil, response.NewValidationError("오브젝트 타입을 먼저 선택해 주세요", "")
	}

	result := &domain.StructureResult{}

	mappedTargets := map[domain.FieldKey]bool{}
	for _, m := range session.Mappings {
		mappedTargets[m.TargetField] = true
	}

	// 필수 필드 커버리지
	for _, objectType := range session.SelectedObjectTypes {
		fields, _, err := s.registry.GetFields(ctx, apiKey, objectType)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			if f.Required && !mappedTargets[f.Key()] {
				result.RequiredCoverage = append(result.RequiredCoverage, domain.UncoveredRequired{
					ObjectType: objectType,
					FieldID:    f.FieldID,
					Label:      f.Label,
				})
			}
		}
	}

	// 리드/딜은 연결 대상 없이 단독으로 들어갈 수 없다. 회사/고객이 함께
	// 선택되었거나 연결 필드가 매핑되어 있으면 충족된다.
	hasLinkingMapping := false
	for key := range mappedTargets {
		if domain.IsLinkingFieldID(key.FieldID) {
			hasLinkingMapping = true
			break
		}
	}
	for _, objectType := range session.SelectedObjectTypes {
		if !objectType.NeedsConnection() {
			continue
		}
		if domain.HasConnectionTarget(session.SelectedObjectTypes) || hasLinkingMapping {
			continue
		}
		result.RelationshipIssues = append(result.RelationshipIssues, domain.RelationshipIssue{
			ObjectType: objectType,
			Message: fmt.Sprintf("%s은(는) 회사 또는 고객과 연결되어야 합니다. 회사/고객을 함께 선택하거나 연결 필드를 매핑해 주세요",
				objectType.Name()),
		})
	}

	// 아직 CRM에 없는 필드에 걸린 매핑은 임포트 전체를 막는다
	candidates, _, err := s.mapping.CandidateFields(ctx, apiKey, session)
	if err != nil {
		return nil, err
	}
	needsCreation := map[domain.FieldKey]bool{}
	for _, f := range candidates {
		if f.NeedsCreation {
			needsCreation[f.Key()] = true
		}
	}
	for _, m := range session.Mappings {
		if needsCreation[m.TargetField] {
			result.NeedsCreation = append(result.NeedsCreation, m.TargetField)
		}
	}

	if s.metrics != nil {
		outcome := "pass"
		if result.Blocking() {
			outcome = "blocked"
		}
		s.metrics.IncrementValidationRuns(outcome)
	}
	return result, nil
}

func (s *validationServiceImpl) ValidateRows(ctx context.Context, apiKey string, session *domain.ImportSession) (*domain.RowValidationResult, error) {
	if session.Dataset == nil {
		return nil, response.NewValidationError("업로드된 파일이 없습니다", "")
	}

	candidates, _, err := s.mapping.CandidateFields(ctx, apiKey, session)
	if err != nil {
		return nil, err
	}
	fieldByKey := map[domain.FieldKey]domain.TargetField{}
	for _, f := range candidates {
		fieldByKey[f.Key()] = f
	}

	result := &domain.RowValidationResult{}
	seenUnique := map[domain.FieldKey]map[string]int{}

	for rowIdx, row := range session.Dataset.Rows {
		rowHasError := false

		for _, m := range session.Mappings {
			field, ok := fieldByKey[m.TargetField]
			if !ok {
				continue
			}
			value := row[m.SourceColumn]

			if domain.IsEmptyValue(value) {
				if field.Required {
					result.Findings = append(result.Findings, domain.ValidationFinding{
						Row:      rowIdx,
						Field:    m.SourceColumn,
						Message:  fmt.Sprintf("필수 필드 '%s' 값이 비어 있습니다", field.Label),
						Severity: domain.SeverityError,
					})
					rowHasError = true
				}
				continue
			}

			if !domain.MatchesFieldType(field.FieldType, value) {
				// 필수 필드의 형식 오류만 행을 제외한다. 선택 필드는
				// 경고로 남기고 행은 그대로 임포트 대상에 둔다.
				severity := domain.SeverityWarning
				if field.Required {
					severity = domain.SeverityError
					rowHasError = true
				}
				result.Findings = append(result.Findings, domain.ValidationFinding{
					Row:      rowIdx,
					Field:    m.SourceColumn,
					Message:  fmt.Sprintf("'%s' 값이 %s 형식에 맞지 않습니다: %q", field.Label, field.FieldType, value),
					Severity: severity,
				})
				continue
			}

			// 고유 필드의 파일 내 중복은 경고만 남긴다
			if field.Unique {
				normalized := domain.NormalizeValue(field.FieldType, value)
				if seenUnique[m.TargetField] == nil {
					seenUnique[m.TargetField] = map[string]int{}
				}
				if firstRow, dup := seenUnique[m.TargetField][normalized]; dup {
					result.Findings = append(result.Findings, domain.ValidationFinding{
						Row:      rowIdx,
						Field:    m.SourceColumn,
						Message:  fmt.Sprintf("'%s' 값이 %d행과 중복됩니다", field.Label, firstRow+1),
						Severity: domain.SeverityWarning,
					})
				} else {
					seenUnique[m.TargetField][normalized] = rowIdx
				}
			}
		}

		if !rowHasError {
			result.ValidRowIndices = append(result.ValidRowIndices, rowIdx)
		}
	}

	return result, nil
}
