package recall

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/venuekit/core"
)

type stubSource struct {
	name string
	ids  []int64
	err  error
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Recall(_ context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return itemsFromIDs(s.ids), nil
}

func TestFanoutMergeOrderDeterministic(t *testing.T) {
	n := &Fanout{Sources: []Source{
		&stubSource{name: "recall.taste", ids: []int64{3, 1}},
		&stubSource{name: "recall.trending", ids: []int64{1, 2}},
		&stubSource{name: "recall.hidden_gem", ids: []int64{2, 4}},
	}}

	for run := 0; run < 5; run++ {
		items, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		want := []int64{3, 1, 2, 4}
		if len(items) != len(want) {
			t.Fatalf("got %d items, want %d", len(items), len(want))
		}
		for i, id := range want {
			if items[i].VenueID != id {
				t.Fatalf("run %d: item %d = %d, want %d", run, i, items[i].VenueID, id)
			}
		}
	}
}

func TestFanoutMergesLabelsOnDedup(t *testing.T) {
	n := &Fanout{Sources: []Source{
		&stubSource{name: "recall.taste", ids: []int64{1}},
		&stubSource{name: "recall.trending", ids: []int64{1}},
	}}
	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	lbl, ok := items[0].Labels["recall_source"]
	if !ok {
		t.Fatal("missing recall_source label")
	}
	// The duplicate's label is merged into the kept item.
	if lbl.Value != "recall.taste|recall.trending" {
		t.Errorf("recall_source = %q", lbl.Value)
	}
}

func TestFanoutPropagatesSourceError(t *testing.T) {
	wantErr := errors.New("boom")
	n := &Fanout{Sources: []Source{
		&stubSource{name: "recall.taste", ids: []int64{1}},
		&stubSource{name: "recall.geo", err: wantErr},
	}}
	_, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
