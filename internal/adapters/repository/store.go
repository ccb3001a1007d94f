// Package repository is the relational store behind the HTTP gateway.
package repository

import (
	"context"
	"time"

	"github.com/okian/crewrate/internal/domain/model"
)

// Store provides read/write access to workers, ratings and settings.
type Store interface {
	// ListWorkers returns all workers ordered by name, case-insensitively.
	ListWorkers(ctx context.Context) ([]model.Worker, error)
	// GetWorker returns ErrNotFound for an unknown id.
	GetWorker(ctx context.Context, id int64) (model.Worker, error)
	// FindOrCreateWorker returns the worker whose name matches
	// case-insensitively, creating it when none does.
	FindOrCreateWorker(ctx context.Context, name string) (w model.Worker, created bool, err error)

	// ListRatings returns a worker's ratings, newest first by date then id.
	// Returns ErrNotFound for an unknown worker.
	ListRatings(ctx context.Context, workerID int64) ([]model.RatingRecord, error)
	// ListAllRatings returns every rating, oldest first.
	ListAllRatings(ctx context.Context) ([]model.RatingRecord, error)
	// CreateRating stores rec for rec.WorkerID. Returns ErrNotFound, and
	// stores nothing, when the worker does not exist.
	CreateRating(ctx context.Context, rec model.RatingRecord) (model.RatingRecord, error)
	// SubmitRating finds or creates the worker named name and stores rec
	// for it atomically: on error neither the worker nor the rating is
	// stored. rec.WorkerID is ignored.
	SubmitRating(ctx context.Context, name string, rec model.RatingRecord) (w model.Worker, out model.RatingRecord, created bool, err error)

	// Reset removes every worker and rating.
	Reset(ctx context.Context) error
	// Count returns the number of workers and ratings.
	Count(ctx context.Context) (workers, ratings int64, err error)

	// LoadSetting returns the stored value for key and whether it exists.
	LoadSetting(ctx context.Context, key string) (string, bool, error)
	// SaveSetting inserts or replaces the value for key.
	SaveSetting(ctx context.Context, key, value string) error

	Close() error
}

// workerRow is the workers table.
type workerRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"size:255;not null"`
	CanonicalName string `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt     time.Time
}

func (workerRow) TableName() string { return "workers" }

func (r workerRow) model() model.Worker {
	return model.Worker{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

// ratingRow is the ratings table. Rows are append-only.
type ratingRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	WorkerID  int64     `gorm:"not null;index"`
	RatedAt   time.Time `gorm:"not null;index"`
	Category  string    `gorm:"size:64;not null"`
	Score     float64   `gorm:"not null"`
	Reviewer  string    `gorm:"size:255"`
	Late      bool      `gorm:"not null;default:false"`
	NCNS      bool      `gorm:"column:ncns;not null;default:false"`
	Notes     string    `gorm:"type:text"`
	CreatedAt time.Time
}

func (ratingRow) TableName() string { return "ratings" }

func (r ratingRow) model() model.RatingRecord {
	return model.RatingRecord{
		ID:           r.ID,
		WorkerID:     r.WorkerID,
		Date:         r.RatedAt,
		JobCategory:  r.Category,
		OverallScore: r.Score,
		Flags:        model.Flags{Late: r.Late, NCNS: r.NCNS},
		Reviewer:     r.Reviewer,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
	}
}

// settingRow is a key/value row in the settings table.
type settingRow struct {
	Name      string `gorm:"column:name;primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (settingRow) TableName() string { return "settings" }
