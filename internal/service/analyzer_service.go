package service

import (
	"strings"

	"import-wizard-api/internal/domain"
)

const maxSampleValues = 5

// AnalyzerService computes per-column statistics over an uploaded dataset
// and pre-triages columns that are obviously not worth importing
type AnalyzerService interface {
	// Analyze summarizes every column of the dataset
	Analyze(dataset *domain.Dataset) []domain.ColumnStats
	// AutoSkipCandidates returns columns that can be skipped without
	// asking the LLM: empty columns and exact duplicates of another column
	AutoSkipCandidates(dataset *domain.Dataset) []domain.ColumnSkip
}

type analyzerServiceImpl struct{}

// NewAnalyzerService creates a new instance of AnalyzerService
func NewAnalyzerService() AnalyzerService {
	return &analyzerServiceImpl{}
}

func (s *analyzerServiceImpl) Analyze(dataset *domain.Dataset) []domain.ColumnStats {
	stats := make([]domain.ColumnStats, 0, len(dataset.Columns))

	for _, col := range dataset.Columns {
		cs := domain.ColumnStats{
			ColumnName: col,
			TotalRows:  len(dataset.Rows),
		}
		seen := map[string]bool{}
		for _, row := range dataset.Rows {
			v := row[col]
			if domain.IsEmptyValue(v) {
				cs.EmptyCount++
				continue
			}
			cs.NonEmptyCount++
			if !seen[v] {
				seen[v] = true
				if len(cs.SampleValues) < maxSampleValues {
					cs.SampleValues = append(cs.SampleValues, v)
				}
			}
		}
		cs.UniqueCount = len(seen)
		cs.InferredType = domain.InferFieldType(cs.SampleValues)
		stats = append(stats, cs)
	}

	return stats
}

func (s *analyzerServiceImpl) AutoSkipCandidates(dataset *domain.Dataset) []domain.ColumnSkip {
	var skips []domain.ColumnSkip

	// 열 전체 값을 이어붙인 지문으로 중복 열을 찾는다
	fingerprints := map[string]string{}

	for _, col := range dataset.Columns {
		var sb strings.Builder
		empty := true
		for _, row := range dataset.Rows {
			v := row[col]
			if !domain.IsEmptyValue(v) {
				empty = false
			}
			sb.WriteString(v)
			sb.WriteByte('\x1f')
		}

		if empty {
			skips = append(skips, domain.ColumnSkip{
				ColumnName: col,
				Reason:     domain.SkipReasonEmpty,
			})
			continue
		}

		fp := sb.String()
		if original, ok := fingerprints[fp]; ok {
			skips = append(skips, domain.ColumnSkip{
				ColumnName: col,
				Reason:     domain.SkipReasonDuplicate,
				Detail:     "'" + original + "' 열과 값이 동일합니다",
			})
			continue
		}
		fingerprints[fp] = col
	}

	return skips
}
