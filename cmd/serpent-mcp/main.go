package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchResponse mirrors the Serpent API response model.
type searchResponse struct {
	Success bool `json:"success"`
	Result  *struct {
		Query   string `json:"query"`
		Engine  string `json:"search_engine"`
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"result"`
	PagesLoaded int  `json:"pages_loaded"`
	Converged   bool `json:"converged"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// batchResponse mirrors the Serpent batch API response.
type batchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// fetchResponse mirrors the Serpent fetch API response.
type fetchResponse struct {
	Success     bool   `json:"success"`
	Content     string `json:"content"`
	Title       string `json:"title"`
	FinalURL    string `json:"final_url"`
	FetcherUsed string `json:"fetcher_used"`
	Tokens      int    `json:"tokens"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("SERPENT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SERPENT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SERPENT_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"serpent",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	webSearchTool := mcp.NewTool("web_search",
		mcp.WithDescription("Search the web and return result titles, URLs and snippets. Uses a headless browser so it sees the same results a person would."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithString("engine",
			mcp.Description("Search engine to use: 'google' (default), 'bing', or 'duckduckgo'"),
			mcp.Enum("google", "bing", "duckduckgo"),
		),
		mcp.WithNumber("pages",
			mcp.Description("Number of result pages to load (default: 1, max: 10)"),
		),
	)
	s.AddTool(webSearchTool, handleWebSearch(apiURL, apiKey))

	// batch_search tool
	batchSearchTool := mcp.NewTool("batch_search",
		mcp.WithDescription("Run multiple web searches in parallel and return results for each query. Useful when researching a topic from several angles at once."),
		mcp.WithArray("queries",
			mcp.Required(),
			mcp.Description("List of search queries"),
		),
		mcp.WithString("engine",
			mcp.Description("Search engine to use for all queries: 'google' (default), 'bing', or 'duckduckgo'"),
			mcp.Enum("google", "bing", "duckduckgo"),
		),
	)
	s.AddTool(batchSearchTool, handleBatchSearch(apiURL, apiKey))

	// fetch_result tool
	fetchResultTool := mcp.NewTool("fetch_result",
		mcp.WithDescription("Fetch a URL from earlier search results and return its readable content as markdown. Falls back to a headless browser for pages that block plain HTTP."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to fetch"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: 'markdown' (default), 'text', or 'html'"),
			mcp.Enum("markdown", "text", "html"),
		),
		mcp.WithString("css_selector",
			mcp.Description("Optional CSS selector to narrow the page before content extraction"),
		),
	)
	s.AddTool(fetchResultTool, handleFetchResult(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Serpent API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			req.Header.Set("X-API-Key", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}

// formatResults renders one search response as readable markdown.
func formatResults(resp *searchResponse) string {
	if resp.Result == nil || len(resp.Result.Results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search results for %q (%s)\n\n", resp.Result.Query, resp.Result.Engine)
	for i, r := range resp.Result.Results {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Description)
		}
	}
	if !resp.Converged {
		sb.WriteString("\n_Note: the results page may not have fully loaded; the list could be incomplete._\n")
	}
	return sb.String()
}

func handleWebSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		reqBody := map[string]interface{}{
			"query": query,
		}
		if engine := request.GetString("engine", ""); engine != "" {
			reqBody["engine"] = engine
		}
		args := request.GetArguments()
		if pages, ok := args["pages"]; ok {
			reqBody["pages"] = pages
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var searchResp searchResponse
		if err := json.Unmarshal(respBody, &searchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !searchResp.Success {
			errMsg := "search failed"
			if searchResp.Error != nil {
				errMsg = fmt.Sprintf("search failed: %s (%s)", searchResp.Error.Message, searchResp.Error.Code)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatResults(&searchResp)), nil
	}
}

func handleBatchSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		queries, err := request.RequireStringSlice("queries")
		if err != nil {
			return mcp.NewToolResultError("queries is required"), nil
		}

		reqBody := map[string]interface{}{
			"queries": queries,
		}
		if engine := request.GetString("engine", ""); engine != "" {
			reqBody["engine"] = engine
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search/batch", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var batchResp batchResponse
		if err := json.Unmarshal(respBody, &batchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if batchResp.ID == "" {
			return mcp.NewToolResultError("batch search failed: " + string(respBody)), nil
		}

		finalBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/search/batch/"+batchResp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch polling failed: %v", err)), nil
		}

		var job struct {
			Status  string            `json:"status"`
			Results []*searchResponse `json:"results"`
		}
		if err := json.Unmarshal(finalBody, &job); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch results: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch search %s (%d queries)\n\n", job.Status, len(job.Results))
		for _, r := range job.Results {
			if r == nil {
				continue
			}
			sb.WriteString(formatResults(r))
			sb.WriteString("\n---\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleFetchResult(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 150 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := map[string]interface{}{
			"url": url,
		}
		if format := request.GetString("output_format", ""); format != "" {
			reqBody["output_format"] = format
		}
		if sel := request.GetString("css_selector", ""); sel != "" {
			reqBody["css_selector"] = sel
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/fetch", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var fetchResp fetchResponse
		if err := json.Unmarshal(respBody, &fetchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !fetchResp.Success {
			errMsg := "fetch failed"
			if fetchResp.Error != nil {
				errMsg = fmt.Sprintf("fetch failed: %s (%s)", fetchResp.Error.Message, fetchResp.Error.Code)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		if fetchResp.Title != "" {
			fmt.Fprintf(&sb, "# %s\n\n", fetchResp.Title)
		}
		sb.WriteString(fetchResp.Content)
		return mcp.NewToolResultText(sb.String()), nil
	}
}
