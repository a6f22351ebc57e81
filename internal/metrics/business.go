package metrics

// IncrementUploads increments the upload counter
func (m *Metrics) IncrementUploads() {
	m.safeExecute("IncrementUploads", func() {
		m.UploadsTotal.Inc()
	})
}

// IncrementAutoMap increments the auto-mapping counter
func (m *Metrics) IncrementAutoMap() {
	m.safeExecute("IncrementAutoMap", func() {
		m.AutoMapTotal.Inc()
	})
}

// IncrementExportCreated increments export creation counter per object type
func (m *Metrics) IncrementExportCreated(objectType string) {
	m.safeExecute("IncrementExportCreated", func() {
		m.ExportCreatedTotal.WithLabelValues(objectType).Inc()
	})
}

// IncrementDuplicateScans increments duplicate scan counter
func (m *Metrics) IncrementDuplicateScans() {
	m.safeExecute("IncrementDuplicateScans", func() {
		m.DuplicateScansTotal.Inc()
	})
}

// IncrementValidationRuns increments validation run counter by result
func (m *Metrics) IncrementValidationRuns(result string) {
	m.safeExecute("IncrementValidationRuns", func() {
		m.ValidationRunsTotal.WithLabelValues(result).Inc()
	})
}

// AddRowsImported adds imported row counts per object type
func (m *Metrics) AddRowsImported(objectType string, count int) {
	m.safeExecute("AddRowsImported", func() {
		m.RowsImportedTotal.WithLabelValues(objectType).Add(float64(count))
	})
}

// SetExportsTotal sets the export record gauge
func (m *Metrics) SetExportsTotal(count int64) {
	m.safeExecute("SetExportsTotal", func() {
		m.ExportsTotal.Set(float64(count))
	})
}
