package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/response"
)

// ImportMode selects which rows go into the final artifacts
type ImportMode string

const (
	// ImportModeAll exports every row regardless of row-level findings
	ImportModeAll ImportMode = "all"
	// ImportModeValid exports only rows without error findings
	ImportModeValid ImportMode = "valid"
)

const previewRowLimit = 10

// ValidationReport bundles every validation result of one run
type ValidationReport struct {
	Structure  *domain.StructureResult     `json:"structure"`
	Rows       *domain.RowValidationResult `json:"rows"`
	Duplicates []domain.DuplicateCandidate `json:"duplicates"`
}

// ObjectPreview shows how one object type's partition will look
type ObjectPreview struct {
	ObjectType domain.ObjectType   `json:"objectType"`
	Headers    []string            `json:"headers"`
	SampleRows [][]string          `json:"sampleRows"`
	RowCount   int                 `json:"rowCount"`
}

// ImportService drives the final step: validate everything, partition rows
// by object type, and hand them to the exporter. Structural blockers stop
// both import modes.
type ImportService interface {
	// Validate runs structural, row, and duplicate checks. Row validation
	// and the duplicate scan run concurrently; the first failure fails
	// the whole step.
	Validate(ctx context.Context, apiKey string, session *domain.ImportSession) (*ValidationReport, error)
	// Preview partitions the first rows per object type without exporting
	Preview(ctx context.Context, apiKey string, session *domain.ImportSession) ([]ObjectPreview, error)
	// Import validates then exports. Mode "valid" drops rows with error
	// findings; mode "all" keeps them.
	Import(ctx context.Context, apiKey string, session *domain.ImportSession, mode ImportMode) ([]ExportArtifact, *ValidationReport, error)
}

type importServiceImpl struct {
	mapping    MappingService
	validation ValidationService
	duplicate  DuplicateService
	export     ExportService
	logger     *zap.Logger
}

// NewImportService creates a new instance of ImportService
func NewImportService(mapping MappingService, validation ValidationService, duplicate DuplicateService, export ExportService, logger *zap.Logger) ImportService {
	return &importServiceImpl{
		mapping:    mapping,
		validation: validation,
		duplicate:  duplicate,
		export:     export,
		logger:     logger,
	}
}

func (s *importServiceImpl) Validate(ctx context.Context, apiKey string, session *domain.ImportSession) (*ValidationReport, error) {
	structure, err := s.validation.ValidateStructure(ctx, apiKey, session)
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{Structure: structure}

	// 행 검증과 중복 탐지는 서로 독립이라 동시에 돌린다
	var wg sync.WaitGroup
	var rowsErr, dupErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Rows, rowsErr = s.validation.ValidateRows(ctx, apiKey, session)
	}()
	go func() {
		defer wg.Done()
		report.Duplicates, dupErr = s.duplicate.Detect(ctx, apiKey, session)
	}()
	wg.Wait()

	if rowsErr != nil {
		return nil, rowsErr
	}
	if dupErr != nil {
		return nil, dupErr
	}
	return report, nil
}

func (s *importServiceImpl) Preview(ctx context.Context, apiKey string, session *domain.ImportSession) ([]ObjectPreview, error) {
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

	var previews []ObjectPreview
	for _, objectType := range session.SelectedObjectTypes {
		var sources []string
		var headers []string
		var fieldTypes []domain.FieldType
		for _, m := range session.Mappings {
			field, ok := fieldByKey[m.TargetField]
			if !ok || field.ObjectType != objectType {
				continue
			}
			sources = append(sources, m.SourceColumn)
			headers = append(headers, objectType.ExportName()+" - "+field.Label)
			fieldTypes = append(fieldTypes, field.FieldType)
		}
		if len(sources) == 0 {
			continue
		}

		preview := ObjectPreview{
			ObjectType: objectType,
			Headers:    headers,
			RowCount:   len(session.Dataset.Rows),
		}
		for i, row := range session.Dataset.Rows {
			if i >= previewRowLimit {
				break
			}
			record := make([]string, len(sources))
			for j, src := range sources {
				v := row[src]
				if !domain.IsEmptyValue(v) {
					record[j] = domain.NormalizeValue(fieldTypes[j], v)
				}
			}
			preview.SampleRows = append(preview.SampleRows, record)
		}
		previews = append(previews, preview)
	}

	if len(previews) == 0 {
		return nil, response.NewValidationError("미리볼 매핑이 없습니다", "")
	}
	return previews, nil
}

func (s *importServiceImpl) Import(ctx context.Context, apiKey string, session *domain.ImportSession, mode ImportMode) ([]ExportArtifact, *ValidationReport, error) {
	if mode != ImportModeAll && mode != ImportModeValid {
		return nil, nil, response.NewValidationError("mode는 all 또는 valid여야 합니다", "")
	}

	report, err := s.Validate(ctx, apiKey, session)
	if err != nil {
		return nil, nil, err
	}

	if report.Structure.Blocking() {
		s.logger.Info("Import blocked by structural validation",
			zap.String("session_id", session.ID),
			zap.Int("uncovered_required", len(report.Structure.RequiredCoverage)),
			zap.Int("relationship_issues", len(report.Structure.RelationshipIssues)),
			zap.Int("needs_creation", len(report.Structure.NeedsCreation)))
		return nil, report, response.NewAppError(response.ErrCodeImportBlocked,
			"구조 검증을 통과하지 못해 임포트할 수 없습니다", "")
	}

	var rowIndices []int
	if mode == ImportModeValid {
		rowIndices = report.Rows.ValidRowIndices
	} else {
		rowIndices = make([]int, len(session.Dataset.Rows))
		for i := range session.Dataset.Rows {
			rowIndices[i] = i
		}
	}
	if len(rowIndices) == 0 {
		return nil, report, response.NewValidationError("내보낼 유효한 행이 없습니다", "")
	}

	artifacts, err := s.export.Export(ctx, apiKey, session, rowIndices)
	if err != nil {
		return nil, report, err
	}
	return artifacts, report, nil
}
