// Package cleaner turns raw fetched HTML into readable markdown, text or
// trimmed HTML for result-page content responses.
package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/serpent/models"
)

// Cleaned is the output of one Clean pass.
type Cleaned struct {
	// Content is the cleaned body in the requested format.
	Content string

	// Title is the readability-extracted title; empty on fallback.
	Title string

	// Tokens is the estimated token count of Content.
	Tokens int
}

// Cleaner holds the reusable markdown converter. Safe for concurrent use.
type Cleaner struct {
	conv *converter.Converter
}

// NewCleaner creates a Cleaner with a shared markdown converter.
func NewCleaner() *Cleaner {
	return &Cleaner{conv: newMarkdownConverter()}
}

// Clean runs the pipeline: optional CSS selector filter → readability →
// format conversion. outputFormat is "markdown", "html" or "text".
func (c *Cleaner) Clean(rawHTML, sourceURL, outputFormat, cssSelector string) (*Cleaned, error) {
	if cssSelector != "" {
		filtered, err := ApplyCSSSelector(rawHTML, cssSelector)
		if err != nil {
			return nil, models.NewSearchError(
				models.ErrCodeInvalidInput, "invalid css selector", err)
		}
		rawHTML = filtered
	}

	article, ok := ExtractContent(rawHTML, sourceURL)
	if !ok {
		slog.Debug("readability fell back to raw HTML", "url", sourceURL)
	}

	var content string
	switch outputFormat {
	case "html":
		content = article.Content
	case "text":
		content = strings.TrimSpace(article.TextContent)
	default:
		md, err := ToMarkdown(c.conv, article.Content, domainOf(sourceURL))
		if err != nil {
			return nil, models.NewSearchError(
				models.ErrCodeExtraction, "markdown conversion failed", err)
		}
		content = md
	}

	return &Cleaned{
		Content: content,
		Title:   article.Title,
		Tokens:  EstimateTokens(content),
	}, nil
}

func domainOf(sourceURL string) string {
	u, err := nurl.Parse(sourceURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
