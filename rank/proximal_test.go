package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/venuekit/core"
)

func proximalItem(venueID int64, distanceKm float64) *core.Item {
	it := core.NewItem(venueID)
	it.Meta["distance_km"] = distanceKm
	return it
}

func TestProximalProximityDecay(t *testing.T) {
	snap := core.NewSnapshot([]*core.Venue{{ID: 1}, {ID: 2}, {ID: 3}}, nil, nil, nil, nil)
	n := &Proximal{Snapshot: snap, Weights: DefaultProximalWeights()}
	rctx := &core.RecommendContext{UserID: "u1"}
	rctx.PutParam("effective_radius_km", 2.0)

	items, err := n.Process(context.Background(), rctx, []*core.Item{
		proximalItem(1, 0),
		proximalItem(2, 1),
		proximalItem(3, 2),
	})
	if err != nil {
		t.Fatal(err)
	}

	byID := make(map[int64]*core.Item)
	for _, it := range items {
		byID[it.VenueID] = it
	}
	if got := byID[1].Component("proximity"); got != 1.0 {
		t.Errorf("proximity at distance 0 = %f, want exactly 1.0", got)
	}
	// exp(-2d/R): strictly decreasing, ~0.135 at the radius boundary.
	if !(byID[1].Component("proximity") > byID[2].Component("proximity") &&
		byID[2].Component("proximity") > byID[3].Component("proximity")) {
		t.Error("proximity must strictly decrease with distance")
	}
	if got := byID[3].Component("proximity"); math.Abs(got-math.Exp(-2)) > 1e-9 {
		t.Errorf("boundary proximity = %f, want exp(-2)", got)
	}
}

func TestProximalScoresAgainstEffectiveRadius(t *testing.T) {
	snap := core.NewSnapshot([]*core.Venue{{ID: 1}}, nil, nil, nil, nil)
	n := &Proximal{Snapshot: snap, Weights: DefaultProximalWeights()}

	// Requested 2 km but the search actually ran at 4 km: a 3 km venue
	// is scored against 4, not 2.
	rctx := &core.RecommendContext{UserID: "u1"}
	rctx.PutParam("radius_km", 2.0)
	rctx.PutParam("effective_radius_km", 4.0)

	items, err := n.Process(context.Background(), rctx, []*core.Item{proximalItem(1, 3)})
	if err != nil {
		t.Fatal(err)
	}
	want := math.Exp(-2 * 3 / 4.0)
	if got := items[0].Component("proximity"); math.Abs(got-want) > 1e-9 {
		t.Errorf("proximity = %f, want %f (scored against effective radius)", got, want)
	}
}

func TestProximalTasteClipped(t *testing.T) {
	evidence := []core.TagEvidence{
		{VenueID: 1, TagID: 10, TagText: "italian", Confidence: 92},
		{VenueID: 1, TagID: 11, TagText: "date_night", Confidence: 80},
	}
	snap := core.NewSnapshot([]*core.Venue{{ID: 1}}, evidence, nil, nil, nil)
	n := &Proximal{Snapshot: snap, Weights: DefaultProximalWeights()}
	rctx := &core.RecommendContext{
		UserID:   "u1",
		Affinity: map[int64]float64{10: 100, 11: 100},
	}
	rctx.PutParam("effective_radius_km", 2.0)

	items, err := n.Process(context.Background(), rctx, []*core.Item{proximalItem(1, 0.5)})
	if err != nil {
		t.Fatal(err)
	}
	// Raw overlap is 0.92 + 0.80 = 1.72; proximal taste caps at 1.
	if got := items[0].Component("taste"); got != 1.0 {
		t.Errorf("taste = %f, want clipped to 1.0", got)
	}
}

func TestProximalQuality(t *testing.T) {
	tests := []struct {
		name  string
		venue *core.Venue
		want  float64
	}{
		{
			name:  "rating and reviews",
			venue: &core.Venue{ID: 1, Rating: ratingp(4.5), ReviewCount: 100},
			want:  0.7*(4.5/5) + 0.3*(math.Log1p(100)/10),
		},
		{
			name:  "missing rating defaults to 3",
			venue: &core.Venue{ID: 2},
			want:  0.7 * (3.0 / 5),
		},
		{
			name:  "review term capped at 1",
			venue: &core.Venue{ID: 3, Rating: ratingp(5), ReviewCount: 10_000_000},
			want:  0.7 + 0.3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := proximalQuality(tt.venue); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("quality = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestProximalSortsByScore(t *testing.T) {
	snap := core.NewSnapshot([]*core.Venue{
		{ID: 1, Rating: ratingp(3.0)},
		{ID: 2, Rating: ratingp(5.0), ReviewCount: 1000},
	}, nil, nil, nil, nil)
	n := &Proximal{Snapshot: snap, Weights: ProximalWeights{Taste: 0, Proximity: 0.5, Quality: 0.5}}
	rctx := &core.RecommendContext{UserID: "u1"}
	rctx.PutParam("effective_radius_km", 2.0)

	items, err := n.Process(context.Background(), rctx, []*core.Item{
		proximalItem(1, 0.1),
		proximalItem(2, 0.2),
	})
	if err != nil {
		t.Fatal(err)
	}
	// Venue 2's quality edge outweighs the 100m proximity difference.
	if items[0].VenueID != 2 {
		t.Errorf("top item = %d, want 2", items[0].VenueID)
	}
}
