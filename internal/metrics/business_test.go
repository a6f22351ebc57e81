package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

func getTestMetrics() *Metrics {
	// 전역 레지스트리 대신 테스트마다 새 레지스트리를 쓴다
	return NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
}

// Helper function to get counter value
func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("Failed to write counter metric: %v", err)
	}
	return metric.Counter.GetValue()
}

// Helper function to get gauge value
func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := gauge.Write(metric); err != nil {
		t.Fatalf("Failed to write gauge metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestIncrementUploads(t *testing.T) {
	m := getTestMetrics()

	initialValue := getCounterValue(t, m.UploadsTotal)

	m.IncrementUploads()

	newValue := getCounterValue(t, m.UploadsTotal)
	if newValue <= initialValue {
		t.Errorf("Expected counter to increment, got %f -> %f", initialValue, newValue)
	}
}

func TestIncrementAutoMap(t *testing.T) {
	m := getTestMetrics()

	initialValue := getCounterValue(t, m.AutoMapTotal)

	m.IncrementAutoMap()

	newValue := getCounterValue(t, m.AutoMapTotal)
	if newValue <= initialValue {
		t.Errorf("Expected counter to increment, got %f -> %f", initialValue, newValue)
	}
}

func TestIncrementExportCreated(t *testing.T) {
	m := getTestMetrics()

	m.IncrementExportCreated("people")
	m.IncrementExportCreated("people")
	m.IncrementExportCreated("company")

	peopleValue := getCounterValue(t, m.ExportCreatedTotal.WithLabelValues("people"))
	if peopleValue != 2 {
		t.Errorf("Expected people counter 2, got %f", peopleValue)
	}
	companyValue := getCounterValue(t, m.ExportCreatedTotal.WithLabelValues("company"))
	if companyValue != 1 {
		t.Errorf("Expected company counter 1, got %f", companyValue)
	}
}

func TestIncrementValidationRuns(t *testing.T) {
	m := getTestMetrics()

	m.IncrementValidationRuns("passed")
	m.IncrementValidationRuns("blocked")
	m.IncrementValidationRuns("blocked")

	blockedValue := getCounterValue(t, m.ValidationRunsTotal.WithLabelValues("blocked"))
	if blockedValue != 2 {
		t.Errorf("Expected blocked counter 2, got %f", blockedValue)
	}
}

func TestAddRowsImported(t *testing.T) {
	m := getTestMetrics()

	m.AddRowsImported("people", 120)
	m.AddRowsImported("people", 30)

	value := getCounterValue(t, m.RowsImportedTotal.WithLabelValues("people"))
	if value != 150 {
		t.Errorf("Expected 150 rows imported, got %f", value)
	}
}

func TestSetExportsTotal(t *testing.T) {
	m := getTestMetrics()

	tests := []struct {
		name  string
		count int64
	}{
		{"zero exports", 0},
		{"one export", 1},
		{"multiple exports", 42},
		{"large number", 1000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.SetExportsTotal(tt.count)
			value := getGaugeValue(t, m.ExportsTotal)
			if value != float64(tt.count) {
				t.Errorf("Expected gauge value %d, got %f", tt.count, value)
			}
		})
	}
}

func TestMetricsInitialization(t *testing.T) {
	m := getTestMetrics()

	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal should not be nil")
	}
	if m.HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration should not be nil")
	}
	if m.ExternalAPIRequestsTotal == nil {
		t.Error("ExternalAPIRequestsTotal should not be nil")
	}
	if m.UploadsTotal == nil {
		t.Error("UploadsTotal should not be nil")
	}
	if m.DuplicateScansTotal == nil {
		t.Error("DuplicateScansTotal should not be nil")
	}
	if m.ExportsTotal == nil {
		t.Error("ExportsTotal should not be nil")
	}
}

func TestRecordExternalAPICall(t *testing.T) {
	m := getTestMetrics()

	m.RecordExternalAPICall("salesmap", "GET", 200, 0, nil)
	m.RecordExternalAPICall("salesmap", "GET", 200, 0, nil)

	value := getCounterValue(t, m.ExternalAPIRequestsTotal.WithLabelValues("salesmap", "GET", "200"))
	if value != 2 {
		t.Errorf("Expected 2 external API calls, got %f", value)
	}
}
