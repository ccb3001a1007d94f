// Package seed loads generated demo ratings into a running server over
// its HTTP API.
package seed

import (
	"runtime"
	"time"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultWorkers  = 12
	DefaultRatings  = 120
	DefaultDays     = 60
	DefaultTimeout  = 10 * time.Second
	scoreStep       = 0.5
	progressEvery   = time.Second
	maxResponseBody = 1 << 20
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Workers     int           // Number of distinct workers to rate
	Ratings     int           // Number of ratings to submit
	Days        int           // Ratings are spread over this many past days
	Concurrency int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	Seed        uint64        // Random seed; zero picks a random one
	OutputFile  string        // Optional JSON file receiving the generated ratings
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Ratings <= 0 {
		c.Ratings = DefaultRatings
	}
	if c.Days <= 0 {
		c.Days = DefaultDays
	}
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.NumCPU() * 2
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Rating is one generated submission, shaped like POST /api/profiles.
type Rating struct {
	WorkerName string  `json:"workerName"`
	Category   string  `json:"category"`
	Score      float64 `json:"score"`
	Reviewer   string  `json:"reviewer"`
	Note       string  `json:"note,omitempty"`
	RatedAt    string  `json:"ratedAt"`
}

// Stats holds the outcome of a run.
type Stats struct {
	Generated     int
	Submitted     int
	Created       int // ratings that created their worker
	Updated       int
	Failed        int
	WorkersBefore int64
	RatingsBefore int64
	WorkersAfter  int64
	RatingsAfter  int64
	StartTime     time.Time
	Duration      time.Duration
}

// Successful is the number of accepted ratings.
func (s Stats) Successful() int { return s.Created + s.Updated }
