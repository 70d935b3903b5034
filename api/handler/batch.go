package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/models"
	"github.com/use-agent/serpent/webhook"
)

// maxBatchQueries caps the number of queries accepted in one batch.
const maxBatchQueries = 50

// batchConcurrency bounds how many browsers a batch job runs at once.
const batchConcurrency = 3

// BatchStore tracks batch jobs in memory. Jobs are evicted an hour
// after completion by a background sweep.
type BatchStore struct {
	jobs sync.Map // id -> *models.BatchSearchJob
}

// NewBatchStore creates a BatchStore and starts its eviction sweep.
func NewBatchStore() *BatchStore {
	s := &BatchStore{}
	go s.cleanupLoop()
	return s
}

func (s *BatchStore) cleanupLoop() {
	for range time.Tick(10 * time.Minute) {
		cutoff := time.Now().Add(-time.Hour).UnixMilli()
		s.jobs.Range(func(key, value any) bool {
			job := value.(*models.BatchSearchJob)
			if job.Status != "processing" && job.CreatedAt < cutoff {
				s.jobs.Delete(key)
			}
			return true
		})
	}
}

// BatchSearch handles POST /api/v1/search/batch. The job runs in the
// background; the response carries the job ID for polling.
func BatchSearch(cfg *config.Config, store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchSearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "invalid request: " + err.Error(),
				},
			})
			return
		}
		if len(req.Queries) > maxBatchQueries {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "too many queries in batch (max 50)",
				},
			})
			return
		}
		if req.Engine == "" {
			req.Engine = models.EngineGoogle
		}
		if req.Pages == 0 {
			req.Pages = 1
		}

		job := &models.BatchSearchJob{
			ID:        randomID(),
			Status:    "processing",
			Total:     len(req.Queries),
			Results:   make([]*models.SearchResponse, len(req.Queries)),
			CreatedAt: time.Now().UnixMilli(),
		}
		store.jobs.Store(job.ID, job)

		go runBatch(cfg, store, job, &req)

		c.JSON(http.StatusAccepted, models.BatchSearchResponse{
			ID:     job.ID,
			Status: job.Status,
			Total:  job.Total,
		})
	}
}

// BatchStatus handles GET /api/v1/search/batch/:id.
func BatchStatus(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := store.jobs.Load(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, value.(*models.BatchSearchJob))
	}
}

// runBatch executes every query with bounded concurrency, then fires the
// completion webhook if one was registered.
func runBatch(cfg *config.Config, store *BatchStore, job *models.BatchSearchJob, req *models.BatchSearchRequest) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		sem       = make(chan struct{}, batchConcurrency)
		succeeded int
	)

	for i, query := range req.Queries {
		wg.Add(1)
		go func(idx int, q string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp := runSearch(context.Background(), cfg, &models.SearchRequest{
				Query:  q,
				Engine: req.Engine,
				Pages:  req.Pages,
			})

			mu.Lock()
			job.Results[idx] = resp
			job.Completed++
			if resp.Success {
				succeeded++
			}
			mu.Unlock()
		}(i, query)
	}
	wg.Wait()

	mu.Lock()
	switch {
	case succeeded == job.Total:
		job.Status = "completed"
	case succeeded > 0:
		job.Status = "partial"
	default:
		job.Status = "failed"
	}
	status := job.Status
	mu.Unlock()

	slog.Info("batch job finished",
		"job_id", job.ID,
		"status", status,
		"succeeded", succeeded,
		"total", job.Total,
	)

	if req.Webhook != nil {
		webhook.DeliverAsync(req.Webhook.URL, req.Webhook.Secret, &webhook.Event{
			Type:      "search.batch.completed",
			JobID:     job.ID,
			Timestamp: time.Now().UnixMilli(),
			Data:      job,
		})
	}
}
