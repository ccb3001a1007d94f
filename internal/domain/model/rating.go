// Package model contains domain models passed between layers.
package model

import "time"

// Rating is a single reviewer's score for one worker in one category.
// Ratings are append-only; nothing mutates one after submission.
type Rating struct {
	WorkerName string    `json:"workerName,omitempty"` // set on submission, used to locate the profile
	Category   string    `json:"category"`
	Score      float64   `json:"score"`
	Reviewer   string    `json:"reviewer"`
	Note       string    `json:"note,omitempty"`
	RatedAt    time.Time `json:"ratedAt"`
}

// Status classifies a worker by overall score.
type Status string

// Status values.
const (
	StatusTopPerformer Status = "top-performer"
	StatusSteady       Status = "steady"
	StatusAtRisk       Status = "at-risk"
)
