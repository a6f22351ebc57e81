package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/metrics"
	"import-wizard-api/internal/repository"
	"import-wizard-api/internal/response"
)

// ExportArtifact describes one generated import file
type ExportArtifact struct {
	Filename    string            `json:"filename"`
	ObjectType  domain.ObjectType `json:"objectType"`
	RowCount    int               `json:"rowCount"`
	DownloadURL string            `json:"downloadUrl,omitempty"`
}

// ExportService turns partitioned, validated rows into CRM import artifacts.
// Artifacts are CSV files with "{오브젝트} - {필드 라벨}" headers, stored
// locally and optionally mirrored to S3, and tracked as export records.
type ExportService interface {
	// Export generates one artifact per object type from the given rows
	Export(ctx context.Context, apiKey string, session *domain.ImportSession, rowIndices []int) ([]ExportArtifact, error)
	// List returns recent export records
	List(ctx context.Context, limit int) ([]*domain.ExportRecord, error)
	// Resolve returns the local path or presigned URL of an artifact
	Resolve(ctx context.Context, filename string) (localPath string, redirectURL string, err error)
}

type exportServiceImpl struct {
	mapping    MappingService
	exportRepo repository.ExportRecordRepository
	s3         client.S3ClientInterface // nil이면 로컬 저장만
	dir        string
	ttl        time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewExportService creates a new instance of ExportService
func NewExportService(mapping MappingService, exportRepo repository.ExportRecordRepository, s3 client.S3ClientInterface, dir string, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) ExportService {
	return &exportServiceImpl{
		mapping:    mapping,
		exportRepo: exportRepo,
		s3:         s3,
		dir:        dir,
		ttl:        ttl,
		metrics:    m,
		logger:     logger,
	}
}

func (s *exportServiceImpl) Export(ctx context.Context, apiKey string, session *domain.ImportSession, rowIndices []int) ([]ExportArtifact, error) {
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

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var artifacts []ExportArtifact
	timestamp := time.Now().Format("20060102_150405")

	for _, objectType := range session.SelectedObjectTypes {
		// 이 오브젝트 타입으로 들어가는 매핑만 추린다
		type exportColumn struct {
			source string
			field  domain.TargetField
		}
		var columns []exportColumn
		for _, m := range session.Mappings {
			field, ok := fieldByKey[m.TargetField]
			if !ok || field.ObjectType != objectType {
				continue
			}
			columns = append(columns, exportColumn{source: m.SourceColumn, field: field})
		}
		if len(columns) == 0 {
			continue
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)

		header := make([]string, len(columns))
		for i, col := range columns {
			header[i] = fmt.Sprintf("%s - %s", objectType.ExportName(), col.field.Label)
		}
		if err := w.Write(header); err != nil {
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}

		rowCount := 0
		for _, rowIdx := range rowIndices {
			if rowIdx < 0 || rowIdx >= len(session.Dataset.Rows) {
				continue
			}
			row := session.Dataset.Rows[rowIdx]
			record := make([]string, len(columns))
			empty := true
			for i, col := range columns {
				v := row[col.source]
				if domain.IsEmptyValue(v) {
					record[i] = ""
					continue
				}
				record[i] = domain.NormalizeValue(col.field.FieldType, v)
				empty = false
			}
			// 전 필드가 빈 행은 내보내지 않는다
			if empty {
				continue
			}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write csv row: %w", err)
			}
			rowCount++
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("failed to flush csv: %w", err)
		}

		filename := fmt.Sprintf("%s_%s_%s.csv", shortSessionID(session.ID), objectType, timestamp)
		localPath := filepath.Join(s.dir, filename)
		if err := os.WriteFile(localPath, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write export file: %w", err)
		}

		storageKey := ""
		downloadURL := ""
		if s.s3 != nil {
			storageKey = s.s3.GenerateExportKey(session.ID, filename)
			if _, err := s.s3.UploadFile(ctx, storageKey, bytes.NewReader(buf.Bytes()), "text/csv"); err != nil {
				s.logger.Warn("Failed to mirror export to S3, keeping local copy",
					zap.String("filename", filename),
					zap.Error(err))
				storageKey = ""
			} else {
				downloadURL, _ = s.s3.GeneratePresignedDownloadURL(ctx, storageKey, s.ttl)
			}
		}

		if err := s.record(ctx, session, objectType, filename, storageKey, rowCount); err != nil {
			s.logger.Warn("Failed to persist export record", zap.Error(err))
		}

		if s.metrics != nil {
			s.metrics.IncrementExportCreated(string(objectType))
			s.metrics.AddRowsImported(string(objectType), rowCount)
		}

		artifacts = append(artifacts, ExportArtifact{
			Filename:    filename,
			ObjectType:  objectType,
			RowCount:    rowCount,
			DownloadURL: downloadURL,
		})
	}

	if len(artifacts) == 0 {
		return nil, response.NewValidationError("내보낼 매핑이 없습니다", "")
	}
	return artifacts, nil
}

func (s *exportServiceImpl) record(ctx context.Context, session *domain.ImportSession, objectType domain.ObjectType, filename, storageKey string, rowCount int) error {
	if s.exportRepo == nil {
		return nil
	}

	objectTypesJSON, _ := json.Marshal([]domain.ObjectType{objectType})
	statsJSON, _ := json.Marshal(map[string]interface{}{
		"totalRows":    session.Dataset.TotalRows,
		"exportedRows": rowCount,
		"mappings":     len(session.Mappings),
	})
	expiresAt := time.Now().Add(s.ttl)

	return s.exportRepo.Create(ctx, &domain.ExportRecord{
		SessionID:   session.ID,
		Filename:    filename,
		ObjectTypes: datatypes.JSON(objectTypesJSON),
		Stats:       datatypes.JSON(statsJSON),
		RowCount:    rowCount,
		Status:      domain.ExportStatusReady,
		StorageKey:  storageKey,
		ExpiresAt:   &expiresAt,
	})
}

func (s *exportServiceImpl) List(ctx context.Context, limit int) ([]*domain.ExportRecord, error) {
	if s.exportRepo == nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "내보내기 이력 저장소를 사용할 수 없습니다", "")
	}
	return s.exportRepo.List(ctx, limit)
}

func (s *exportServiceImpl) Resolve(ctx context.Context, filename string) (string, string, error) {
	// 경로 조작 방지
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", "", response.NewValidationError("잘못된 파일명입니다", "")
	}

	if s.exportRepo != nil {
		record, err := s.exportRepo.FindByFilename(ctx, filename)
		if err == nil {
			if record.Status != domain.ExportStatusReady {
				return "", "", response.NewNotFoundError("만료되었거나 사용할 수 없는 파일입니다", "")
			}
			if record.StorageKey != "" && s.s3 != nil {
				url, err := s.s3.GeneratePresignedDownloadURL(ctx, record.StorageKey, 5*time.Minute)
				if err == nil {
					return "", url, nil
				}
				s.logger.Warn("Failed to presign export download, falling back to local file",
					zap.String("filename", filename), zap.Error(err))
			}
		}
	}

	localPath := filepath.Join(s.dir, filename)
	if _, err := os.Stat(localPath); err != nil {
		return "", "", response.NewNotFoundError("파일을 찾을 수 없습니다", "")
	}
	return localPath, "", nil
}

func shortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
