package recall

import (
	"context"
	"testing"

	"github.com/rushteam/venuekit/core"
)

type stubKV struct {
	core.KeyValueStore
	members []string
}

func (s *stubKV) ZRange(_ context.Context, _ string, _, _ int64) ([]string, error) {
	return s.members, nil
}

func TestTrendingSnapshotFallback(t *testing.T) {
	snap := core.NewSnapshot([]*core.Venue{
		{ID: 1, PopularityScore: 0.2},
		{ID: 2, PopularityScore: 0.9},
		{ID: 3, PopularityScore: 0.9},
	}, nil, nil, nil, nil)

	r := &Trending{Snapshot: snap}
	items, err := r.Recall(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{2, 3, 1} // score desc, ties by id asc
	for i, id := range want {
		if items[i].VenueID != id {
			t.Fatalf("item %d = %d, want %d", i, items[i].VenueID, id)
		}
	}
}

func TestTrendingStoreOverride(t *testing.T) {
	snap := core.NewSnapshot([]*core.Venue{{ID: 1, PopularityScore: 1}}, nil, nil, nil, nil)
	r := &Trending{
		Snapshot: snap,
		Store:    &stubKV{members: []string{"7", "9", "bogus"}},
		Key:      "venuekit:trending",
	}
	items, err := r.Recall(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Unparseable members are skipped, the rest keep ZRange order.
	if len(items) != 2 || items[0].VenueID != 7 || items[1].VenueID != 9 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestHiddenGemFallbackTruncates(t *testing.T) {
	venues := make([]*core.Venue, 300)
	for i := range venues {
		venues[i] = &core.Venue{ID: int64(i + 1), HiddenGemScore: float64(i) / 300}
	}
	snap := core.NewSnapshot(venues, nil, nil, nil, nil)
	r := &HiddenGem{Snapshot: snap}
	items, err := r.Recall(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != topListSize {
		t.Fatalf("got %d items, want %d", len(items), topListSize)
	}
	if items[0].VenueID != 300 {
		t.Errorf("top item = %d, want 300", items[0].VenueID)
	}
}
