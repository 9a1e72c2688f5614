package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MirrorStatus represents the status of an off-site mirror job.
type MirrorStatus string

const (
	MirrorStatusPending   MirrorStatus = "PENDING"
	MirrorStatusUploading MirrorStatus = "UPLOADING"
	MirrorStatusCompleted MirrorStatus = "COMPLETED"
	MirrorStatusFailed    MirrorStatus = "FAILED"
)

// MirrorJob tracks replication of derived files to the mirror bucket. Files
// is a JSON array of content-directory basenames.
type MirrorJob struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ObjectType string         `json:"object_type" gorm:"type:varchar(64);not null;index"`
	RecordID   int64          `json:"record_id" gorm:"not null;index"`
	Files      datatypes.JSON `json:"files" gorm:"not null"`
	Status     MirrorStatus   `json:"status" gorm:"type:varchar(32);not null;default:'PENDING'"`
	Error      string         `json:"error,omitempty" gorm:"type:text"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}
