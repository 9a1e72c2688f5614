package repository

import (
	"gorm.io/gorm"

	"github.com/fieldworks/artifact-capture/infra"
)

type Repository struct {
	RecordRepo    *RecordRepository
	MirrorJobRepo *MirrorJobRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = &Repository{
		RecordRepo:    NewRecordRepository(infra.Database.DB),
		MirrorJobRepo: NewMirrorJobRepository(infra.Database.DB),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}

func (r *Repository) BeginTransaction(db *gorm.DB) *gorm.DB {
	return db.Begin()
}

func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return &Repository{
		RecordRepo:    NewRecordRepository(tx),
		MirrorJobRepo: NewMirrorJobRepository(tx),
	}
}
