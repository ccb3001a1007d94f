package model

import "time"

// Worker is the identity row exposed by the worker endpoints.
type Worker struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Flags marks attendance incidents attached to a rating record.
type Flags struct {
	Late bool `json:"late"`
	NCNS bool `json:"ncns"` // no call, no show
}

// RatingRecord is a persisted rating as exposed by the rating endpoints.
type RatingRecord struct {
	ID           int64     `json:"id"`
	WorkerID     int64     `json:"workerId"`
	WorkerName   string    `json:"workerName,omitempty"`
	Date         time.Time `json:"date"`
	JobCategory  string    `json:"jobCategory"`
	OverallScore float64   `json:"overallScore"`
	Flags        Flags     `json:"flags"`
	Reviewer     string    `json:"reviewer,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Rating converts the record into the core rating shape.
func (r RatingRecord) Rating() Rating {
	return Rating{
		WorkerName: r.WorkerName,
		Category:   r.JobCategory,
		Score:      r.OverallScore,
		Reviewer:   r.Reviewer,
		Note:       r.Notes,
		RatedAt:    r.Date,
	}
}
