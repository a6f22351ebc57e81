package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"import-wizard-api/internal/domain"
	"import-wizard-api/internal/response"
)

const maxUploadRows = 10000

// UploadService parses an uploaded spreadsheet into a session dataset
type UploadService interface {
	Parse(filename string, r io.Reader) (*domain.Dataset, error)
}

type uploadServiceImpl struct{}

// NewUploadService creates a new instance of UploadService
func NewUploadService() UploadService {
	return &uploadServiceImpl{}
}

func (s *uploadServiceImpl) Parse(filename string, r io.Reader) (*domain.Dataset, error) {
	lower := strings.ToLower(filename)
	if !strings.HasSuffix(lower, ".csv") && !strings.HasSuffix(lower, ".tsv") {
		return nil, response.NewValidationError("CSV 또는 TSV 파일만 업로드할 수 있습니다", filename)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	// UTF-8 BOM 제거
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	if strings.HasSuffix(lower, ".tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1 // 행마다 열 수가 달라도 읽는다

	records, err := reader.ReadAll()
	if err != nil {
		return nil, response.NewValidationError("파일을 파싱할 수 없습니다", err.Error())
	}
	if len(records) == 0 {
		return nil, response.NewValidationError("파일이 비어 있습니다", "")
	}

	columns := dedupeColumns(records[0])
	if len(columns) == 0 {
		return nil, response.NewValidationError("헤더 행이 비어 있습니다", "")
	}

	body := records[1:]
	if len(body) == 0 {
		return nil, response.NewValidationError("데이터 행이 없습니다", "")
	}
	if len(body) > maxUploadRows {
		return nil, response.NewValidationError(
			fmt.Sprintf("행이 너무 많습니다 (최대 %d행)", maxUploadRows), "")
	}

	rows := make([]domain.Row, 0, len(body))
	for _, record := range body {
		row := domain.Row{}
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return &domain.Dataset{
		Filename:  filename,
		Columns:   columns,
		TotalRows: len(rows),
		Rows:      rows,
	}, nil
}

// dedupeColumns trims header names, fills unnamed columns, and suffixes
// duplicates so row maps never collide
func dedupeColumns(header []string) []string {
	columns := make([]string, 0, len(header))
	seen := map[string]int{}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("열%d", i+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		columns = append(columns, name)
	}
	return columns
}
