package repository

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldworks/artifact-capture/entity"
)

type MirrorJobRepository struct {
	db *gorm.DB
}

func NewMirrorJobRepository(db *gorm.DB) *MirrorJobRepository {
	return &MirrorJobRepository{db: db}
}

// Create registers a pending mirror job for one record's derived files.
func (r *MirrorJobRepository) Create(objectType string, recordID int64, files []string) (*entity.MirrorJob, error) {
	payload, err := json.Marshal(files)
	if err != nil {
		return nil, err
	}
	job := &entity.MirrorJob{
		ID:         uuid.New(),
		ObjectType: objectType,
		RecordID:   recordID,
		Files:      payload,
		Status:     entity.MirrorStatusPending,
	}
	if err := r.db.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *MirrorJobRepository) FindByID(id uuid.UUID) (*entity.MirrorJob, error) {
	var job entity.MirrorJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *MirrorJobRepository) FindByRecord(objectType string, recordID int64) ([]entity.MirrorJob, error) {
	var jobs []entity.MirrorJob
	err := r.db.Where("object_type = ? AND record_id = ?", objectType, recordID).
		Order("created_at DESC").Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *MirrorJobRepository) UpdateStatus(id uuid.UUID, status entity.MirrorStatus, errMsg string) error {
	return r.db.Model(&entity.MirrorJob{}).Where("id = ?", id).Updates(map[string]any{
		"status": status,
		"error":  errMsg,
	}).Error
}
