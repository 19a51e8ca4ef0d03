package taxonomy

import (
	"testing"

	"github.com/rushteam/venuekit/core"
)

func TestDefinitionsStableIDs(t *testing.T) {
	defs := Definitions()
	if len(defs) == 0 {
		t.Fatal("empty catalog")
	}

	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if d.ID != int64(i+1) {
			t.Errorf("tag %q: id = %d, want %d (enumeration order)", d.Text, d.ID, i+1)
		}
		if seen[d.Text] {
			t.Errorf("duplicate tag text %q", d.Text)
		}
		seen[d.Text] = true
		if d.Color == "" {
			t.Errorf("tag %q has no color", d.Text)
		}
	}

	// Two calls must yield identical ids.
	again := Definitions()
	for i := range defs {
		if defs[i] != again[i] {
			t.Fatalf("catalog not stable at index %d", i)
		}
	}
}

func TestLookupCoversKeywordTags(t *testing.T) {
	lookup := Lookup()
	for tag := range ReviewKeywords {
		if _, ok := lookup[tag]; !ok {
			t.Errorf("review keyword tag %q missing from catalog", tag)
		}
	}
	if lookup["italian"].Category != core.TagCuisine {
		t.Errorf("italian category = %s, want CUISINE", lookup["italian"].Category)
	}
}
