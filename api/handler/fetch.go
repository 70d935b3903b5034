package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpent/cleaner"
	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/fetch"
	"github.com/use-agent/serpent/models"
)

// Fetch handles POST /api/v1/fetch. It retrieves one page through the
// fetch dispatcher and returns its cleaned content.
func Fetch(cfg *config.Config, dispatcher *fetch.Dispatcher, cl *cleaner.Cleaner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FetchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.FetchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "invalid request: " + err.Error(),
				},
			})
			return
		}
		req.Defaults()

		timeout := time.Duration(req.Timeout) * time.Second
		if timeout > cfg.Fetch.MaxTimeout {
			timeout = cfg.Fetch.MaxTimeout
		}

		totalStart := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		result, err := dispatcher.Dispatch(ctx, &fetch.Request{
			URL:     req.URL,
			Timeout: timeout,
		})
		if err != nil {
			detail := toDetail(models.NewSearchError(
				models.ErrCodeFetchFailed, err.Error(), err))
			c.JSON(mapErrorToStatus(detail.Code), models.FetchResponse{
				Success: false,
				Error:   detail,
				Timing: models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				},
			})
			return
		}
		fetchMs := time.Since(totalStart).Milliseconds()

		cleanStart := time.Now()
		cleaned, err := cl.Clean(result.HTML, result.FinalURL, req.OutputFormat, req.CSSSelector)
		if err != nil {
			detail := toDetail(err)
			c.JSON(mapErrorToStatus(detail.Code), models.FetchResponse{
				Success:     false,
				StatusCode:  result.StatusCode,
				FinalURL:    result.FinalURL,
				FetcherUsed: result.FetcherName,
				Error:       detail,
				Timing: models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				},
			})
			return
		}

		title := cleaned.Title
		if title == "" {
			title = result.Title
		}

		slog.Info("fetch completed",
			"url", req.URL,
			"fetcher", result.FetcherName,
			"status", result.StatusCode,
			"tokens", cleaned.Tokens,
		)

		c.JSON(http.StatusOK, models.FetchResponse{
			Success:     true,
			StatusCode:  result.StatusCode,
			FinalURL:    result.FinalURL,
			Content:     cleaned.Content,
			Title:       title,
			FetcherUsed: result.FetcherName,
			Tokens:      cleaned.Tokens,
			Timing: models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				NavigationMs: fetchMs,
				CleaningMs:   time.Since(cleanStart).Milliseconds(),
			},
		})
	}
}
