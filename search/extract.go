package search

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/serpent/models"
)

// extractResults scrapes result anchor elements out of a DOM snapshot.
//
// For each anchor matching the engine's result selector it captures the
// href as-is (relative or malformed URLs pass through unchanged), the
// anchor's visible text as the title, and the anchor's structural
// parent's visible text as the description when it adds anything beyond
// the title. Extraction is read-only and idempotent; it never
// deduplicates, sorts, or validates.
func extractResults(rawHTML, selector string) ([]models.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewSearchError(
			models.ErrCodeExtraction, "failed to parse result page snapshot", err)
	}

	var results []models.SearchResult
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}

		title := squashSpace(a.Text())
		desc := ""
		if parent := a.Parent(); parent.Length() > 0 {
			if pText := squashSpace(parent.Text()); pText != "" && pText != title {
				desc = pText
			}
		}

		results = append(results, models.SearchResult{
			Title:       title,
			URL:         href,
			Description: desc,
		})
	})

	return results, nil
}

// squashSpace collapses runs of whitespace into single spaces and trims,
// normalizing the visible text of markup that nests many inline elements.
func squashSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
