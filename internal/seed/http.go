package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/crewrate/pkg/logger"
)

// client is a small JSON client for the crewrate API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// do sends a request and decodes a 2xx JSON response into out. It returns
// the status code.
func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &e)
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, e.Message)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// settings mirrors GET /api/admin/settings.
type settings struct {
	Categories []string `json:"categories"`
	ScoreMin   float64  `json:"scoreMin"`
	ScoreMax   float64  `json:"scoreMax"`
}

// stats mirrors GET /api/stats.
type stats struct {
	Workers int64 `json:"workers"`
	Ratings int64 `json:"ratings"`
}

// submitRatings posts ratings concurrently using a worker pool.
func submitRatings(ctx context.Context, c *client, cfg Config, ratings []Rating, st *Stats) {
	log := logger.Named("seed")
	log.Info(ctx, "submitting ratings",
		logger.Int("ratings", len(ratings)),
		logger.Int("concurrency", cfg.Concurrency),
	)

	var submitted, created, updated, failed atomic.Int64
	var lastReport atomic.Int64
	jobs := make(chan Rating, cfg.Concurrency*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				if ctx.Err() != nil {
					return
				}
				status, err := c.do(ctx, http.MethodPost, "/api/profiles", r, nil)
				submitted.Add(1)
				switch {
				case err != nil:
					failed.Add(1)
					log.Debug(ctx, "rating rejected", logger.String("worker", r.WorkerName), logger.Error(err))
				case status == http.StatusCreated:
					created.Add(1)
				default:
					updated.Add(1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressEvery) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int64("submitted", submitted.Load()),
						logger.Int("total", len(ratings)),
						logger.Int64("failed", failed.Load()),
					)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, r := range ratings {
			select {
			case <-ctx.Done():
				return
			case jobs <- r:
			}
		}
	}()
	wg.Wait()

	st.Submitted = int(submitted.Load())
	st.Created = int(created.Load())
	st.Updated = int(updated.Load())
	st.Failed = int(failed.Load())
}
