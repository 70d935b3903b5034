package search

import (
	"strings"
	"testing"

	"github.com/use-agent/serpent/models"
)

func TestProfileFor(t *testing.T) {
	for _, kind := range []models.Engine{
		models.EngineGoogle, models.EngineBing, models.EngineDuckDuckGo,
	} {
		prof, ok := profileFor(kind)
		if !ok {
			t.Errorf("no profile for %q", kind)
			continue
		}
		if prof.kind != kind {
			t.Errorf("profile for %q is bound to %q", kind, prof.kind)
		}
		if prof.resultSelector == "" || prof.markerSelector == "" {
			t.Errorf("profile for %q has empty selectors", kind)
		}
	}

	if _, ok := profileFor(models.Engine("lycos")); ok {
		t.Error("unknown engine kind should have no profile")
	}
}

func TestSearchURL_EscapesQuery(t *testing.T) {
	tests := []struct {
		prof  profile
		query string
		want  string
	}{
		{googleProfile, "go http client", "https://www.google.com/search?q=go+http+client"},
		{googleProfile, "site:example.com §", "https://www.google.com/search?q=site%3Aexample.com+%C2%A7"},
		{bingProfile, "a&b=c", "https://www.bing.com/search?q=a%26b%3Dc"},
		{duckduckgoProfile, "ducks", "https://duckduckgo.com/?q=ducks"},
	}

	for _, tt := range tests {
		got := tt.prof.searchURL(tt.query)
		if got != tt.want {
			t.Errorf("searchURL(%q) = %q, want %q", tt.query, got, tt.want)
		}
		if strings.ContainsAny(got, " \n") {
			t.Errorf("searchURL(%q) contains raw whitespace: %q", tt.query, got)
		}
	}
}
