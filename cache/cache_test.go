package cache

import (
	"testing"

	"github.com/use-agent/serpent/models"
)

func TestKey_Distinguishes(t *testing.T) {
	base := Key(models.EngineGoogle, "go http client", 1)

	if Key(models.EngineGoogle, "go http client", 1) != base {
		t.Error("same inputs should produce the same key")
	}
	if Key(models.EngineBing, "go http client", 1) == base {
		t.Error("different engines should produce different keys")
	}
	if Key(models.EngineGoogle, "go http server", 1) == base {
		t.Error("different queries should produce different keys")
	}
	if Key(models.EngineGoogle, "go http client", 2) == base {
		t.Error("different page counts should produce different keys")
	}
}

func TestCache_GetSet(t *testing.T) {
	c := New(10)
	key := Key(models.EngineGoogle, "query", 1)
	resp := &models.SearchResponse{Success: true}

	if _, hit := c.Get(key, 60_000); hit {
		t.Error("unexpected hit on empty cache")
	}

	c.Set(key, resp)

	got, hit := c.Get(key, 60_000)
	if !hit {
		t.Fatal("expected hit after set")
	}
	if got != resp {
		t.Error("got a different response than was stored")
	}
}

func TestCache_MaxAgeZeroDisablesLookup(t *testing.T) {
	c := New(10)
	key := Key(models.EngineGoogle, "query", 1)
	c.Set(key, &models.SearchResponse{Success: true})

	if _, hit := c.Get(key, 0); hit {
		t.Error("maxAge 0 must bypass the cache")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2)
	c.Set("a", &models.SearchResponse{})
	c.Set("b", &models.SearchResponse{})
	c.Set("c", &models.SearchResponse{})

	c.mu.RLock()
	size := len(c.store)
	c.mu.RUnlock()
	if size > 2 {
		t.Errorf("cache grew to %d entries, capacity is 2", size)
	}
}
