package models

// BatchSearchRequest is the payload for POST /api/v1/search/batch.
type BatchSearchRequest struct {
	// Queries lists the search queries to run. Required, max 50.
	Queries []string `json:"queries" binding:"required,min=1"`

	// Engine applies to every query in the batch. Default: "google".
	Engine Engine `json:"engine,omitempty" binding:"omitempty,oneof=google bing duckduckgo"`

	// Pages is how many result pages to load per query. Default: 1.
	Pages int `json:"pages,omitempty" binding:"omitempty,min=1,max=10"`

	// Webhook, when set, receives a signed "search.batch.completed" event.
	Webhook *WebhookTarget `json:"webhook,omitempty"`
}

// WebhookTarget configures batch completion notification.
type WebhookTarget struct {
	URL    string `json:"url" binding:"required,url"`
	Secret string `json:"secret,omitempty"`
}

// BatchSearchJob tracks one in-flight or completed batch job.
type BatchSearchJob struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"` // "processing", "completed", "partial", "failed"
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Results   []*SearchResponse `json:"results"`
	CreatedAt int64             `json:"created_at"`
}

// BatchSearchResponse is the response for POST /api/v1/search/batch.
type BatchSearchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}
