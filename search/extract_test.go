package search

import (
	"reflect"
	"testing"
)

const resultSnippet = `<html><body>
	<div class="result">
		<a jsname="UWckNb" href="https://example.com/one">First <em>hit</em></a>
		<span>Snippet for the first hit.</span>
	</div>
	<div class="result">
		<a jsname="UWckNb" href="/relative/path">Relative link</a>
	</div>
	<div class="result">
		<a jsname="UWckNb" href="not a url at all">Broken href</a>
	</div>
	<a jsname="UWckNb">No href, skipped</a>
</body></html>`

func TestExtractResults(t *testing.T) {
	records, err := extractResults(resultSnippet, googleProfile.resultSelector)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	if records[0].Title != "First hit" {
		t.Errorf("title = %q, want %q (nested markup collapsed)", records[0].Title, "First hit")
	}
	if records[0].URL != "https://example.com/one" {
		t.Errorf("URL = %q", records[0].URL)
	}
	if records[0].Description == "" {
		t.Error("first record should carry the surrounding snippet text")
	}

	// Hrefs pass through untouched: no resolution, no validation.
	if records[1].URL != "/relative/path" {
		t.Errorf("relative href rewritten to %q", records[1].URL)
	}
	if records[2].URL != "not a url at all" {
		t.Errorf("malformed href rewritten to %q", records[2].URL)
	}

	// An anchor whose parent adds nothing beyond the title gets no description.
	if records[1].Description != "" {
		t.Errorf("bare record got description %q", records[1].Description)
	}
}

func TestExtractResults_Idempotent(t *testing.T) {
	first, err := extractResults(resultSnippet, googleProfile.resultSelector)
	if err != nil {
		t.Fatalf("first extract failed: %v", err)
	}
	second, err := extractResults(resultSnippet, googleProfile.resultSelector)
	if err != nil {
		t.Fatalf("second extract failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same snapshot produced different records:\n%v\nvs\n%v", first, second)
	}
}

func TestExtractResults_NoMatches(t *testing.T) {
	records, err := extractResults(`<html><body><p>nothing here</p></body></html>`, googleProfile.resultSelector)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records from a page without results", len(records))
	}
}

func TestSquashSpace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello   world  ", "hello world"},
		{"one\n\ttwo", "one two"},
		{"", ""},
		{"   ", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := squashSpace(tt.in); got != tt.want {
			t.Errorf("squashSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
