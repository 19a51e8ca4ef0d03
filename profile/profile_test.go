package profile

import (
	"math"
	"testing"
	"time"

	"github.com/rushteam/venuekit/core"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testVenues() []*core.Venue {
	return []*core.Venue{
		{ID: 1, ExternalID: "p1"},
		{ID: 2, ExternalID: "p2"},
	}
}

func testEvidence() []core.TagEvidence {
	return []core.TagEvidence{
		{VenueID: 1, TagID: 10, TagText: "italian", Confidence: 92},
		{VenueID: 1, TagID: 11, TagText: "date_night", Confidence: 50},
		{VenueID: 2, TagID: 12, TagText: "mexican", Confidence: 92},
	}
}

func TestBuildAffinitiesNormalization(t *testing.T) {
	actions := []core.UserAction{
		{UserID: "u1", ExternalID: "p1", Action: core.ActionSave, CreatedAt: now},
		{UserID: "u1", ExternalID: "p2", Action: core.ActionDetailView, CreatedAt: now},
	}
	affinities, history := BuildAffinities(actions, testVenues(), testEvidence(), DefaultConfig(now))

	if len(affinities) != 3 {
		t.Fatalf("got %d affinity rows, want 3", len(affinities))
	}
	// Strongest tag is pinned to exactly 100 for every user.
	if affinities[0].TagText != "italian" || affinities[0].Score != 100 {
		t.Errorf("top tag = %s/%f, want italian/100", affinities[0].TagText, affinities[0].Score)
	}
	for _, af := range affinities {
		if af.Score < 0 || af.Score > 100 {
			t.Errorf("tag %s score %f out of [0,100]", af.TagText, af.Score)
		}
		if _, ok := af.Metadata["raw_score"]; !ok {
			t.Errorf("tag %s missing raw_score metadata", af.TagText)
		}
	}
	// date_night: same action weight, lower confidence -> proportional score.
	for _, af := range affinities {
		if af.TagText == "date_night" {
			want := 50.0 / 92.0 * 100
			if math.Abs(af.Score-want) > 1e-9 {
				t.Errorf("date_night score = %f, want %f", af.Score, want)
			}
		}
	}

	if len(history) != 1 || history[0].ActionCount != 2 {
		t.Fatalf("history = %+v, want u1 with 2 actions", history)
	}
}

func TestBuildAffinitiesRecencyDecay(t *testing.T) {
	actions := []core.UserAction{
		{UserID: "fresh", ExternalID: "p1", Action: core.ActionSave, CreatedAt: now},
		{UserID: "stale", ExternalID: "p1", Action: core.ActionSave, CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}
	affinities, _ := BuildAffinities(actions, testVenues(), testEvidence(), DefaultConfig(now))

	raw := make(map[string]float64)
	for _, af := range affinities {
		if af.TagText == "italian" {
			raw[af.UserID] = af.Metadata["raw_score"].(float64)
		}
	}
	// One half-life of age divides the raw contribution by e.
	want := raw["fresh"] / math.E
	if math.Abs(raw["stale"]-want) > 1e-9 {
		t.Errorf("stale raw = %f, want %f", raw["stale"], want)
	}
	// Normalized scores are identical: each user is scaled by their own max.
	for _, af := range affinities {
		if af.TagText == "italian" && af.Score != 100 {
			t.Errorf("user %s italian score = %f, want 100", af.UserID, af.Score)
		}
	}
}

func TestBuildAffinitiesDropRules(t *testing.T) {
	actions := []core.UserAction{
		// unresolvable place key
		{UserID: "u1", ExternalID: "missing", Action: core.ActionSave, CreatedAt: now},
		// unknown action maps to zero weight
		{UserID: "u1", ExternalID: "p1", Action: "teleport", CreatedAt: now},
	}
	affinities, history := BuildAffinities(actions, testVenues(), testEvidence(), DefaultConfig(now))
	if len(affinities) != 0 || len(history) != 0 {
		t.Errorf("got %d affinities, %d history rows; want none", len(affinities), len(history))
	}
}

func TestBuildAffinitiesDismissOnly(t *testing.T) {
	actions := []core.UserAction{
		{UserID: "u1", ExternalID: "p1", Action: core.ActionDismiss, CreatedAt: now},
	}
	affinities, history := BuildAffinities(actions, testVenues(), testEvidence(), DefaultConfig(now))
	// All contributions negative: max is non-positive, scores collapse to 0,
	// but the rows and the history stay.
	if len(affinities) == 0 {
		t.Fatal("dismiss-only user should still have affinity rows")
	}
	for _, af := range affinities {
		if af.Score != 0 {
			t.Errorf("tag %s score = %f, want 0", af.TagText, af.Score)
		}
	}
	if len(history) != 1 || history[0].ActionCount != 1 {
		t.Errorf("history = %+v", history)
	}
}

func TestBuildAffinitiesTopTagsTruncation(t *testing.T) {
	var venues []*core.Venue
	var evidence []core.TagEvidence
	var actions []core.UserAction
	venues = append(venues, &core.Venue{ID: 1, ExternalID: "p1"})
	for i := 0; i < 40; i++ {
		evidence = append(evidence, core.TagEvidence{
			VenueID: 1, TagID: int64(i + 1), TagText: "t", Confidence: float64(i + 1),
		})
	}
	actions = append(actions, core.UserAction{UserID: "u1", ExternalID: "p1", Action: core.ActionSave, CreatedAt: now})

	affinities, _ := BuildAffinities(actions, venues, evidence, DefaultConfig(now))
	if len(affinities) != 25 {
		t.Fatalf("got %d rows, want 25", len(affinities))
	}
	for i := 1; i < len(affinities); i++ {
		if affinities[i].Score > affinities[i-1].Score {
			t.Fatal("affinities not sorted by score desc")
		}
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	venues := []*core.Venue{
		{ID: 1, ExternalID: "p1"},
		{ID: 2, ExternalID: "p2"},
		{ID: 3, ExternalID: "p3"},
	}
	evidence := []core.TagEvidence{
		{VenueID: 1, TagID: 10, TagText: "italian", Confidence: 92},
		{VenueID: 2, TagID: 11, TagText: "mexican", Confidence: 92},
		{VenueID: 3, TagID: 12, TagText: "cafe", Confidence: 75},
	}
	a := Synthesize(venues, evidence, nil, now)
	b := Synthesize(venues, evidence, nil, now)
	if len(a) == 0 {
		t.Fatal("no synthetic actions generated")
	}
	if len(a) != len(b) {
		t.Fatalf("run sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	for _, act := range a {
		switch act.Action {
		case core.ActionSave, core.ActionLike, core.ActionDetailView:
		default:
			t.Errorf("unexpected synthetic action %s", act.Action)
		}
		if act.CreatedAt.After(now) {
			t.Errorf("synthetic action in the future: %s", act.CreatedAt)
		}
	}
}

func TestEnsureActions(t *testing.T) {
	venues := []*core.Venue{{ID: 1, ExternalID: "p1"}}
	evidence := []core.TagEvidence{{VenueID: 1, TagID: 10, TagText: "italian", Confidence: 92}}

	real := []core.UserAction{{UserID: "u1", ExternalID: "p1", Action: core.ActionSave, CreatedAt: now}}
	got, synthetic := EnsureActions(real, venues, evidence, true, now)
	if synthetic || len(got) != 1 {
		t.Error("real actions must pass through untouched")
	}

	got, synthetic = EnsureActions(nil, venues, evidence, true, now)
	if !synthetic || len(got) == 0 {
		t.Error("empty log with synthesis enabled should produce demo actions")
	}

	got, synthetic = EnsureActions(nil, venues, evidence, false, now)
	if synthetic || len(got) != 0 {
		t.Error("synthesis disabled must return the empty log as-is")
	}
}
