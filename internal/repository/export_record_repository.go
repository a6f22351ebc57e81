package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"import-wizard-api/internal/domain"
)

// ExportRecordRepository defines the interface for export record data access
type ExportRecordRepository interface {
	Create(ctx context.Context, record *domain.ExportRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ExportRecord, error)
	FindByFilename(ctx context.Context, filename string) (*domain.ExportRecord, error)
	FindBySessionID(ctx context.Context, sessionID string) ([]*domain.ExportRecord, error)
	List(ctx context.Context, limit int) ([]*domain.ExportRecord, error)
	FindExpired(ctx context.Context) ([]*domain.ExportRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ExportStatus) error
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error
}

// exportRecordRepositoryImpl is the GORM implementation of ExportRecordRepository
type exportRecordRepositoryImpl struct {
	db *gorm.DB
}

// NewExportRecordRepository creates a new instance of ExportRecordRepository
func NewExportRecordRepository(db *gorm.DB) ExportRecordRepository {
	return &exportRecordRepositoryImpl{db: db}
}

// Create creates a new export record
func (r *exportRecordRepositoryImpl) Create(ctx context.Context, record *domain.ExportRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}
	return nil
}

// FindByID finds an export record by its ID
func (r *exportRecordRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.ExportRecord, error) {
	var record domain.ExportRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByFilename finds an export record by its artifact filename
func (r *exportRecordRepositoryImpl) FindByFilename(ctx context.Context, filename string) (*domain.ExportRecord, error) {
	var record domain.ExportRecord
	if err := r.db.WithContext(ctx).
		Where("filename = ?", filename).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindBySessionID finds all export records generated in one wizard session
func (r *exportRecordRepositoryImpl) FindBySessionID(ctx context.Context, sessionID string) ([]*domain.ExportRecord, error) {
	var records []*domain.ExportRecord
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// List returns the most recent export records
func (r *exportRecordRepositoryImpl) List(ctx context.Context, limit int) ([]*domain.ExportRecord, error) {
	var records []*domain.ExportRecord
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindExpired finds READY records past their expiry time
func (r *exportRecordRepositoryImpl) FindExpired(ctx context.Context) ([]*domain.ExportRecord, error) {
	var records []*domain.ExportRecord
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", domain.ExportStatusReady, time.Now()).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateStatus updates the status of an export record
func (r *exportRecordRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ExportStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.ExportRecord{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// DeleteBatch deletes multiple export records by their IDs
func (r *exportRecordRepositoryImpl) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&domain.ExportRecord{}).Error; err != nil {
		return err
	}
	return nil
}
