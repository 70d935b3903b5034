package simhash

import (
	"testing"
)

func TestFingerprint_IdenticalTexts(t *testing.T) {
	text := "structured records scraped from a search results page"
	fp1 := Fingerprint(text)
	fp2 := Fingerprint(text)

	if fp1 != fp2 {
		t.Errorf("identical texts produced different fingerprints: %064b vs %064b", fp1, fp2)
	}
}

func TestFingerprint_SimilarTexts(t *testing.T) {
	text1 := "structured records scraped from a search results page"
	text2 := "structured records extracted from a search results page"

	fp1 := Fingerprint(text1)
	fp2 := Fingerprint(text2)

	dist := Distance(fp1, fp2)
	if dist > 10 {
		t.Errorf("similar texts have too large distance: %d (fingerprints: %064b, %064b)", dist, fp1, fp2)
	}
}

func TestFingerprint_DifferentTexts(t *testing.T) {
	text1 := "structured records scraped from a search results page"
	text2 := "completely unrelated content about quantum physics and mathematics"

	fp1 := Fingerprint(text1)
	fp2 := Fingerprint(text2)

	dist := Distance(fp1, fp2)
	if dist < 5 {
		t.Errorf("very different texts have too small distance: %d", dist)
	}
}

func TestFingerprint_EmptyInput(t *testing.T) {
	fp := Fingerprint("")
	if fp != 0 {
		t.Errorf("empty input should produce fingerprint 0, got: %064b", fp)
	}
}

func TestFingerprint_WhitespaceOnly(t *testing.T) {
	fp := Fingerprint("   \t\n  ")
	if fp != 0 {
		t.Errorf("whitespace-only input should produce fingerprint 0, got: %064b", fp)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
		{"zero zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFingerprintDOM_StableAcrossIdenticalSnapshots(t *testing.T) {
	page := `<html><body><div id="results"><a href="/a">one</a><a href="/b">two</a></div></body></html>`

	fp1 := FingerprintDOM(page)
	fp2 := FingerprintDOM(page)

	if fp1 != fp2 {
		t.Errorf("identical snapshots produced different fingerprints: %064b vs %064b", fp1, fp2)
	}
}

func TestFingerprintDOM_IgnoresTextChanges(t *testing.T) {
	before := `<html><body><div><a href="/a">first title</a><p>snippet</p></div></body></html>`
	after := `<html><body><div><a href="/a">другое название</a><p>other snippet</p></div></body></html>`

	if FingerprintDOM(before) != FingerprintDOM(after) {
		t.Error("text-only changes should not alter the structural fingerprint")
	}
}

func TestFingerprintDOM_DetectsAppendedResults(t *testing.T) {
	short := `<html><body><div><a href="/a">one</a></div></body></html>`
	long := `<html><body><div><a href="/a">one</a></div>` +
		`<div><a href="/b">two</a><p>snippet</p><span>site</span></div>` +
		`<div><a href="/c">three</a><p>snippet</p><span>site</span></div></body></html>`

	if Similar(FingerprintDOM(short), FingerprintDOM(long), 3) {
		t.Error("appending result blocks should move the fingerprint beyond the plateau threshold")
	}
}

func TestFingerprintDOM_EmptyInput(t *testing.T) {
	if fp := FingerprintDOM(""); fp != 0 {
		t.Errorf("empty snapshot should produce fingerprint 0, got: %064b", fp)
	}
}
