package recall

import (
	"context"
	"testing"

	"github.com/rushteam/venuekit/core"
)

func coordVenue(id int64, lat, lon float64) *core.Venue {
	return &core.Venue{ID: id, Lat: &lat, Lon: &lon}
}

// Latitude degrees are ~111 km apart, so offsets below place venues at
// roughly known distances from the origin.
func geoSnapshot(venues ...*core.Venue) *core.Snapshot {
	return core.NewSnapshot(venues, nil, nil, nil, nil)
}

func geoContext(lat, lon float64) *core.RecommendContext {
	rctx := &core.RecommendContext{UserID: "u1"}
	rctx.PutParam("latitude", lat)
	rctx.PutParam("longitude", lon)
	return rctx
}

func TestGeoRecallFiltersAndSorts(t *testing.T) {
	snap := geoSnapshot(
		coordVenue(1, 0.010, 0), // ~1.1 km
		coordVenue(2, 0.001, 0), // ~0.1 km
		coordVenue(3, 0.500, 0), // ~55 km, out of range
		&core.Venue{ID: 4},      // no coordinates, excluded
	)
	r := &Geo{Snapshot: snap, RadiusKm: 2, MinResults: 1}
	rctx := geoContext(0, 0)

	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].VenueID != 2 || items[1].VenueID != 1 {
		t.Errorf("items not sorted by distance: %d, %d", items[0].VenueID, items[1].VenueID)
	}
	if eff, _ := rctx.ParamFloat("effective_radius_km"); eff != 2 {
		t.Errorf("effective radius = %f, want 2 (no expansion)", eff)
	}
	for _, it := range items {
		if _, ok := it.Meta["distance_km"].(float64); !ok {
			t.Errorf("item %d missing distance_km meta", it.VenueID)
		}
	}
}

func TestGeoRecallEmptyRetriesOnceAtDouble(t *testing.T) {
	// Nothing within 2 km, three venues within 4 km, nothing further out.
	// The doubled result is below min_results but tripling gains nothing,
	// so it is kept at the doubled radius.
	snap := geoSnapshot(
		coordVenue(1, 0.028, 0), // ~3.1 km
		coordVenue(2, 0.030, 0), // ~3.3 km
		coordVenue(3, 0.032, 0), // ~3.6 km
	)
	r := &Geo{Snapshot: snap, RadiusKm: 2, MinResults: 5}
	rctx := geoContext(0, 0)

	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if eff, _ := rctx.ParamFloat("effective_radius_km"); eff != 4 {
		t.Errorf("effective radius = %f, want 4", eff)
	}
}

func TestGeoRecallEmptyEverywhere(t *testing.T) {
	snap := geoSnapshot(coordVenue(1, 10, 10))
	r := &Geo{Snapshot: snap, RadiusKm: 2, MinResults: 5}
	rctx := geoContext(0, 0)

	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want empty result", len(items))
	}
	if eff, _ := rctx.ParamFloat("effective_radius_km"); eff != 4 {
		t.Errorf("effective radius = %f, want 4 after the empty retry", eff)
	}
}

func TestGeoRecallEmptyRetryThenExpandsForMinResults(t *testing.T) {
	// Nothing within 2 km, three venues within 4 km, six within 6 km.
	// The doubled retry still falls short of min_results, so the triple
	// expansion applies to its output instead of being skipped.
	snap := geoSnapshot(
		coordVenue(1, 0.028, 0), // ~3.1 km
		coordVenue(2, 0.030, 0), // ~3.3 km
		coordVenue(3, 0.032, 0), // ~3.6 km
		coordVenue(4, 0.040, 0), // ~4.4 km
		coordVenue(5, 0.043, 0), // ~4.8 km
		coordVenue(6, 0.047, 0), // ~5.2 km
	)
	r := &Geo{Snapshot: snap, RadiusKm: 2, MinResults: 5}
	rctx := geoContext(0, 0)

	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 6 {
		t.Fatalf("got %d items, want all 6 inside the tripled radius", len(items))
	}
	if eff, _ := rctx.ParamFloat("effective_radius_km"); eff != 6 {
		t.Errorf("effective radius = %f, want 6", eff)
	}
}

func TestGeoRecallInsufficientExpandsToTriple(t *testing.T) {
	snap := geoSnapshot(
		coordVenue(1, 0.005, 0), // ~0.6 km, inside initial radius
		coordVenue(2, 0.045, 0), // ~5 km, inside 3x only
		coordVenue(3, 0.050, 0), // ~5.5 km, inside 3x only
	)
	r := &Geo{Snapshot: snap, RadiusKm: 2, MinResults: 3}
	rctx := geoContext(0, 0)

	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 after expansion", len(items))
	}
	if eff, _ := rctx.ParamFloat("effective_radius_km"); eff != 6 {
		t.Errorf("effective radius = %f, want 6", eff)
	}
}

func TestGeoRecallExpansionRejectedWhenNoGain(t *testing.T) {
	// Too few results, but tripling the radius finds nothing new:
	// keep the original result and the original radius.
	snap := geoSnapshot(coordVenue(1, 0.005, 0))
	r := &Geo{Snapshot: snap, RadiusKm: 2, MinResults: 3}
	rctx := geoContext(0, 0)

	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if eff, _ := rctx.ParamFloat("effective_radius_km"); eff != 2 {
		t.Errorf("effective radius = %f, want 2 (expansion rejected)", eff)
	}
}

func TestGeoRecallMissingCenter(t *testing.T) {
	r := &Geo{Snapshot: geoSnapshot(), RadiusKm: 2}
	_, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err == nil {
		t.Fatal("expected error for missing center coordinates")
	}
	if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT domain error, got %v", err)
	}
}
