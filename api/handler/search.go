package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpent/cache"
	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/models"
	"github.com/use-agent/serpent/search"
)

// Search handles POST /api/v1/search. Each request gets its own session
// with a dedicated browser; the session is disposed when the request ends.
func Search(cfg *config.Config, respCache *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "invalid request: " + err.Error(),
				},
			})
			return
		}
		req.Defaults()

		key := cache.Key(req.Engine, req.Query, req.Pages)
		if cached, hit := respCache.Get(key, req.MaxAge); hit {
			out := *cached
			out.CacheStatus = "hit"
			slog.Debug("search cache hit", "engine", req.Engine, "query", req.Query)
			c.JSON(http.StatusOK, out)
			return
		}

		resp := runSearch(c.Request.Context(), cfg, &req)
		if resp.Success {
			respCache.Set(key, resp)
		}
		if req.MaxAge > 0 {
			resp.CacheStatus = "miss"
		}

		status := http.StatusOK
		if !resp.Success {
			status = mapErrorToStatus(resp.Error.Code)
		}
		c.JSON(status, resp)
	}
}

// runSearch drives one full search: launch, navigate, converge, optionally
// page forward, then extract. Used by both the sync and batch endpoints.
func runSearch(ctx context.Context, cfg *config.Config, req *models.SearchRequest) *models.SearchResponse {
	totalStart := time.Now()

	sess, err := search.New(req.Engine, cfg)
	if err != nil {
		return searchFailure(err, totalStart)
	}

	if err := sess.Init(); err != nil {
		return searchFailure(err, totalStart)
	}
	activeSessions.Add(1)
	defer func() {
		sess.Dispose()
		activeSessions.Add(-1)
	}()

	navStart := time.Now()
	if _, err := sess.Search(ctx, req.Query); err != nil {
		return searchFailure(err, totalStart)
	}

	pagesLoaded := 1
	for i := 1; i < req.Pages; i++ {
		if _, err := sess.NextPage(ctx); err != nil {
			slog.Warn("next page failed, keeping pages loaded so far",
				"engine", req.Engine, "page", i+1, "error", err)
			break
		}
		pagesLoaded++
	}
	navigationMs := time.Since(navStart).Milliseconds()

	extractStart := time.Now()
	result, err := sess.Results(ctx)
	if err != nil {
		return searchFailure(err, totalStart)
	}

	slog.Info("search completed",
		"engine", req.Engine,
		"query", req.Query,
		"results", len(result.Results),
		"pages_loaded", pagesLoaded,
		"converged", sess.Converged(),
	)

	return &models.SearchResponse{
		Success:     true,
		Result:      result,
		PagesLoaded: pagesLoaded,
		Converged:   sess.Converged(),
		Timing: models.TimingInfo{
			TotalMs:      time.Since(totalStart).Milliseconds(),
			NavigationMs: navigationMs,
			ExtractionMs: time.Since(extractStart).Milliseconds(),
		},
	}
}

func searchFailure(err error, start time.Time) *models.SearchResponse {
	return &models.SearchResponse{
		Success: false,
		Error:   toDetail(err),
		Timing: models.TimingInfo{
			TotalMs: time.Since(start).Milliseconds(),
		},
	}
}
