// Package report summarizes exported ratings with DuckDB.
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // registers the "duckdb" driver

	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/scoring"
)

// ErrNoRatings is returned when the input holds no ratings.
var ErrNoRatings = errors.New("no ratings to report on")

// Line is one rating in the NDJSON export consumed by the report.
type Line struct {
	Worker   string  `json:"worker" yaml:"worker"`
	Category string  `json:"category" yaml:"category"`
	Score    float64 `json:"score" yaml:"score"`
	Reviewer string  `json:"reviewer" yaml:"reviewer"`
	Note     string  `json:"note,omitempty" yaml:"note,omitempty"`
	RatedAt  string  `json:"ratedAt" yaml:"ratedAt"`
}

// LineFrom converts a rating of worker into an export line.
func LineFrom(worker string, r model.Rating) Line {
	return Line{
		Worker:   worker,
		Category: r.Category,
		Score:    r.Score,
		Reviewer: r.Reviewer,
		Note:     r.Note,
		RatedAt:  r.RatedAt.UTC().Format(time.RFC3339),
	}
}

// WriteNDJSON writes one JSON object per line.
func WriteNDJSON(w io.Writer, lines []Line) error {
	enc := json.NewEncoder(w)
	for i, l := range lines {
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("write line %d: %w", i, err)
		}
	}
	return nil
}

// WorkerSummary aggregates one worker's ratings.
type WorkerSummary struct {
	Worker  string
	Ratings int64
	Mean    float64
	Status  model.Status
	First   string
	Last    string
}

// CategorySummary aggregates one worker's ratings in one category.
type CategorySummary struct {
	Worker   string
	Category string
	Ratings  int64
	Mean     float64
	Min      float64
	Max      float64
}

// Summary is the full report.
type Summary struct {
	Workers    []WorkerSummary
	Categories []CategorySummary
}

// DB is a DuckDB connection used to query NDJSON exports.
type DB struct {
	db *sql.DB
}

// Open starts an in-memory DuckDB with the JSON extension loaded.
func Open(ctx context.Context) (*DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "LOAD json"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load json extension: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// source returns the read_json table expression for an NDJSON file.
func source(path string) string {
	return fmt.Sprintf(`read_json('%s',
		format = 'newline_delimited',
		ignore_errors = true,
		columns = {worker: 'VARCHAR', category: 'VARCHAR', score: 'DOUBLE', reviewer: 'VARCHAR', note: 'VARCHAR', ratedAt: 'VARCHAR'}
	)`, strings.ReplaceAll(path, "'", "''"))
}

// Summarize reads the NDJSON file at path and aggregates it per worker and
// per worker and category. Worker status is classified with th on the
// rounded mean.
func (d *DB) Summarize(ctx context.Context, path string, th scoring.Thresholds) (Summary, error) {
	var out Summary

	rows, err := d.db.QueryContext(ctx, `
		SELECT
			worker,
			count(*) AS ratings,
			avg(score) AS mean,
			min(ratedAt) AS first_rated,
			max(ratedAt) AS last_rated
		FROM `+source(path)+`
		WHERE worker IS NOT NULL AND score IS NOT NULL
		GROUP BY worker
		ORDER BY lower(worker), worker
	`)
	if err != nil {
		return out, fmt.Errorf("query workers: %w", err)
	}
	for rows.Next() {
		var (
			ws          WorkerSummary
			mean        float64
			first, last sql.NullString
		)
		if err := rows.Scan(&ws.Worker, &ws.Ratings, &mean, &first, &last); err != nil {
			_ = rows.Close()
			return out, fmt.Errorf("scan worker row: %w", err)
		}
		ws.Mean = scoring.Round2(mean)
		ws.Status = scoring.Classify(ws.Mean, th)
		ws.First, ws.Last = first.String, last.String
		out.Workers = append(out.Workers, ws)
	}
	if err := rows.Close(); err != nil {
		return out, fmt.Errorf("close worker rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("iterate worker rows: %w", err)
	}
	if len(out.Workers) == 0 {
		return out, ErrNoRatings
	}

	rows, err = d.db.QueryContext(ctx, `
		SELECT
			worker,
			category,
			count(*) AS ratings,
			avg(score) AS mean,
			min(score) AS lowest,
			max(score) AS highest
		FROM `+source(path)+`
		WHERE worker IS NOT NULL AND score IS NOT NULL AND category IS NOT NULL
		GROUP BY worker, category
		ORDER BY lower(worker), worker, category
	`)
	if err != nil {
		return out, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cs CategorySummary
		var mean float64
		if err := rows.Scan(&cs.Worker, &cs.Category, &cs.Ratings, &mean, &cs.Min, &cs.Max); err != nil {
			return out, fmt.Errorf("scan category row: %w", err)
		}
		cs.Mean = scoring.Round2(mean)
		out.Categories = append(out.Categories, cs)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("iterate category rows: %w", err)
	}
	return out, nil
}
