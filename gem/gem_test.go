package gem

import (
	"fmt"
	"testing"

	"github.com/rushteam/venuekit/core"
)

func ratingp(f float64) *float64 { return &f }

// makeVenues builds a training set where rating is a pure function of cuisine
// and features only distinguish small groups. An over-performer planted inside
// a group then carries a residual the model cannot explain away.
func makeVenues(n int) []*core.Venue {
	ratingByCuisine := map[string]float64{"italian": 4.0, "thai": 3.5, "mexican": 3.0}
	venues := make([]*core.Venue, 0, n)
	for i := 0; i < n; i++ {
		cuisine := []string{"italian", "thai", "mexican"}[i%3]
		count := 100
		if i%2 == 1 {
			count = 20
		}
		venues = append(venues, &core.Venue{
			ID:             int64(i + 1),
			CuisinePrimary: cuisine,
			GridCell:       fmt.Sprintf("g%d", i%4),
			BusinessStatus: "operational",
			TypeCodes:      []string{"restaurant"},
			ReviewCount:    count,
			Rating:         ratingp(ratingByCuisine[cuisine]),
		})
	}
	return venues
}

func TestScoreRatingModelPath(t *testing.T) {
	venues := makeVenues(84)
	// Venue 1 dramatically out-rates its feature group with solid review evidence.
	venues[0].Rating = ratingp(4.9)

	Score(venues, DefaultConfig())

	for _, v := range venues {
		if v.GemSource != core.GemSourceRatingModel {
			t.Fatalf("venue %d source = %s, want rating_model", v.ID, v.GemSource)
		}
		if v.HiddenGemScore < 0 || v.HiddenGemScore > 1 {
			t.Errorf("venue %d score %f out of [0,1]", v.ID, v.HiddenGemScore)
		}
		if v.ExpectedRating == nil || v.HypeResidual == nil {
			t.Errorf("venue %d missing model outputs", v.ID)
		}
	}
	if venues[0].HiddenGemScore != 1 {
		t.Errorf("over-performer should top the normalized scale, got %f", venues[0].HiddenGemScore)
	}
	if *venues[0].HypeResidual <= 0 {
		t.Errorf("over-performer residual = %f, want > 0", *venues[0].HypeResidual)
	}
}

func TestScoreMinReviewsGate(t *testing.T) {
	venues := makeVenues(84)
	venues[0].Rating = ratingp(4.9) // count 100: enough evidence
	venues[1].Rating = ratingp(4.9) // count 20: gated out

	cfg := DefaultConfig()
	cfg.MinReviews = 40
	Score(venues, cfg)

	if venues[0].GemSource != core.GemSourceRatingModel {
		t.Fatalf("expected rating_model path, got %s", venues[0].GemSource)
	}
	if venues[0].HiddenGemScore != 1 {
		t.Errorf("well-reviewed over-performer score = %f, want 1", venues[0].HiddenGemScore)
	}
	if venues[1].HiddenGemScore != 0 {
		t.Errorf("venue below review threshold must have zero signal, got %f", venues[1].HiddenGemScore)
	}
}

func TestScoreFallbackTooFewRows(t *testing.T) {
	venues := []*core.Venue{
		{ID: 1, Rating: ratingp(4.0), ReviewCount: 50, PopularityResidual: -1.2},
		{ID: 2, Rating: ratingp(3.0), ReviewCount: 500, PopularityResidual: 0.8},
		{ID: 3, ReviewCount: 5, PopularityResidual: -0.3},
	}
	Score(venues, DefaultConfig())

	for _, v := range venues {
		if v.GemSource != core.GemSourcePopularityResidual {
			t.Fatalf("venue %d source = %s, want popularity_residual", v.ID, v.GemSource)
		}
		if v.ExpectedRating != nil || v.HypeResidual != nil {
			t.Errorf("venue %d should have no model outputs on the fallback path", v.ID)
		}
	}
	// Only negative residuals carry signal; the most under-visited wins.
	if venues[0].HiddenGemScore != 1 {
		t.Errorf("venue 1 score = %f, want 1", venues[0].HiddenGemScore)
	}
	if venues[1].HiddenGemScore != 0 {
		t.Errorf("positive residual must score 0, got %f", venues[1].HiddenGemScore)
	}
}

func TestScoreDeterministic(t *testing.T) {
	a := makeVenues(84)
	b := makeVenues(84)
	a[0].Rating = ratingp(4.9)
	b[0].Rating = ratingp(4.9)
	Score(a, DefaultConfig())
	Score(b, DefaultConfig())
	for i := range a {
		if a[i].HiddenGemScore != b[i].HiddenGemScore {
			t.Fatalf("venue %d scores differ: %f vs %f", a[i].ID, a[i].HiddenGemScore, b[i].HiddenGemScore)
		}
	}
}
