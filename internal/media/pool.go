// Package media runs batches of upload tasks through a bounded worker
// pool with per-task retries, so imports with large galleries do not
// serialize on network round-trips.
package media

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"homeguides/server/internal/storage"
)

// Task is one file to re-host.
type Task struct {
	SrcURL   string
	DestPath string
}

// Pool uploads task batches concurrently. Results keep task order;
// failed tasks yield an empty URL after the retries are exhausted.
type Pool struct {
	uploader   storage.Uploader
	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *logrus.Logger
}

// NewPool builds a pool over an uploader. workers caps concurrent
// transfers, retries and delay mirror the import retry policy.
func NewPool(uploader storage.Uploader, workers, maxRetries int, retryDelay time.Duration, logger *logrus.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Pool{
		uploader:   uploader,
		workers:    workers,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// UploadAll re-hosts every task and returns the public URLs in task
// order, with empty strings where a task failed permanently.
func (p *Pool) UploadAll(ctx context.Context, tasks []Task) []string {
	results := make([]string, len(tasks))
	if p.uploader == nil || len(tasks) == 0 {
		return results
	}

	type job struct {
		idx  int
		task Task
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = p.uploadWithRetry(ctx, j.task)
			}
		}()
	}

	for i, t := range tasks {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		case jobs <- job{idx: i, task: t}:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// uploadWithRetry attempts one task until it succeeds or the retry
// budget runs out.
func (p *Pool) uploadWithRetry(ctx context.Context, t Task) string {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ""
			case <-time.After(p.retryDelay):
			}
		}
		url, err := p.uploader.UploadFromURL(ctx, t.SrcURL, t.DestPath)
		if err == nil {
			return url
		}
		lastErr = err
	}
	p.logger.WithError(lastErr).WithFields(logrus.Fields{
		"src":  t.SrcURL,
		"dest": t.DestPath,
	}).Warn("Upload failed permanently")
	return ""
}
