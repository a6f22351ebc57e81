package client

import (
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

// SalesmapClient defines the interface for CRM API communication
type SalesmapClient interface {
	// ValidateAPIKey checks whether the given API key is accepted by the CRM
	ValidateAPIKey(ctx context.Context, apiKey string) (bool, error)
	// FetchFields retrieves the field definitions for one object type.
	// System-managed fields are filtered out before returning.
	FetchFields(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, error)
}

// salesmapClient implements SalesmapClient
type salesmapClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewSalesmapClient creates a new CRM API client
func NewSalesmapClient(baseURL string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) SalesmapClient {
	return &salesmapClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// salesmapField is the wire format of a CRM field definition
type salesmapField struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	IsRequired bool   `json:"isRequired"`
	IsUnique   bool   `json:"isUnique"`
	IsCustom   bool   `json:"isCustom"`
}

type salesmapFieldsResponse struct {
	Data struct {
		Fields []salesmapField `json:"fields"`
	} `json:"data"`
}

// objectTypePaths maps object types to CRM API path segments
var objectTypePaths = map[domain.ObjectType]string{
	domain.ObjectTypeCompany: "company",
	domain.ObjectTypePeople:  "people",
	domain.ObjectTypeLead:    "lead",
	domain.ObjectTypeDeal:    "deal",
}

func (c *salesmapClient) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	url := fmt.Sprintf("%s/me", c.baseURL)

	startTime := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(url, "GET", statusCode, duration, err)
	}

	if err != nil {
		c.logger.Error("Failed to reach CRM API for key validation",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return false, fmt.Errorf("failed to validate api key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return false, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, nil
	}
	return false, fmt.Errorf("unexpected status from CRM API: %d", resp.StatusCode)
}

func (c *salesmapClient) FetchFields(ctx context.Context, apiKey string, objectType domain.ObjectType) ([]domain.TargetField, error) {
	path, ok := objectTypePaths[objectType]
	if !ok {
		return nil, fmt.Errorf("unknown object type: %s", objectType)
	}
	url := fmt.Sprintf("%s/field/%s", c.baseURL, path)

	startTime := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(url, "GET", statusCode, duration, err)
	}

	if err != nil {
		c.logger.Error("Failed to fetch CRM fields",
			zap.Error(err),
			zap.String("object_type", string(objectType)),
			zap.Duration("duration", duration),
		)
		return nil, fmt.Errorf("failed to fetch fields: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("CRM API returned non-success status for field fetch",
			zap.Int("status_code", resp.StatusCode),
			zap.String("object_type", string(objectType)),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("CRM API returned status %d", resp.StatusCode)
	}

	var parsed salesmapFieldsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode fields response: %w", err)
	}

	fields := make([]domain.TargetField, 0, len(parsed.Data.Fields))
	for _, f := range parsed.Data.Fields {
		// 시스템이 자동 관리하는 필드는 매핑 대상에서 제외
		if domain.IsSystemFieldName(f.ID) || domain.IsSystemFieldName(f.Label) {
			continue
		}
		fieldType := domain.FieldType(f.Type)
		if !domain.IsValidFieldType(f.Type) {
			fieldType = domain.FieldTypeText
		}
		fields = append(fields, domain.TargetField{
			ObjectType: objectType,
			FieldID:    f.ID,
			Label:      f.Label,
			FieldType:  fieldType,
			Required:   f.IsRequired,
			Unique:     f.IsUnique,
			IsCustom:   f.IsCustom,
		})
	}

	c.logger.Info("Fetched CRM fields",
		zap.String("object_type", string(objectType)),
		zap.Int("total", len(parsed.Data.Fields)),
		zap.Int("mappable", len(fields)),
		zap.Duration("duration", duration),
	)
	return fields, nil
}
