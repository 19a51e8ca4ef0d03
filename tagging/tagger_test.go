package tagging

import (
	"testing"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/taxonomy"
)

func evidenceFor(evidence []core.TagEvidence, venueID int64, tag string) []core.TagEvidence {
	var out []core.TagEvidence
	for _, ev := range evidence {
		if ev.VenueID == venueID && ev.TagText == tag {
			out = append(out, ev)
		}
	}
	return out
}

func TestDeterministicRules(t *testing.T) {
	intp := func(i int) *int { return &i }
	venues := []*core.Venue{
		{
			ID:             1,
			CuisinePrimary: "italian",
			TypeCodes:      []string{"restaurant", "meal_takeaway", "night_club"},
			PriceLevel:     intp(1),
			PriceBucket:    core.PriceValue,
			OpenLate:       true,
			SundayOpen:     true,
		},
		{
			ID:             2,
			CuisinePrimary: "unknown",
			PriceBucket:    core.PricePremium,
		},
	}

	evidence := Build(venues, nil, DefaultConfig())

	checks := []struct {
		venueID    int64
		tag        string
		confidence float64
	}{
		{1, "italian", 92},
		{1, "restaurant", 75},
		{1, "takeaway", 75},
		{1, "great_value", 80},
		{1, "open_late", 70},
		{1, "sunday_open", 65},
		{2, "pricey", 80},
	}
	for _, c := range checks {
		rows := evidenceFor(evidence, c.venueID, c.tag)
		if len(rows) != 1 {
			t.Errorf("venue %d tag %q: got %d rows, want 1", c.venueID, c.tag, len(rows))
			continue
		}
		if rows[0].Confidence != c.confidence {
			t.Errorf("venue %d tag %q: confidence %f, want %f", c.venueID, c.tag, rows[0].Confidence, c.confidence)
		}
		if rows[0].Source != core.EvidenceStructured {
			t.Errorf("venue %d tag %q: source %s", c.venueID, c.tag, rows[0].Source)
		}
	}

	// unknown cuisine yields no cuisine evidence, unrecognized type codes dropped
	if rows := evidenceFor(evidence, 2, "unknown"); len(rows) != 0 {
		t.Error("unknown cuisine must not produce evidence")
	}
	if rows := evidenceFor(evidence, 1, "night_club"); len(rows) != 0 {
		t.Error("unrecognized type code must not produce evidence")
	}
}

func TestReviewMiningORGate(t *testing.T) {
	cfg := Config{MinUniqueAuthors: 2, MinMentions: 3, ScoreFloor: 20, ScoreCap: 100}

	// Two distinct authors, two mentions: passes the author leg only.
	// The OR gate keeps it even though mentions < MinMentions.
	reviews := []core.Review{
		{VenueID: 1, Language: "en", AuthorName: "a", Text: "Very cozy room"},
		{VenueID: 1, Language: "en", AuthorName: "b", Text: "cozy and snug, snug indeed"},
	}
	evidence := Build(nil, reviews, cfg)
	rows := evidenceFor(evidence, 1, "cozy")
	if len(rows) != 1 {
		t.Fatalf("expected cozy evidence via OR gate, got %d rows", len(rows))
	}
	if rows[0].Source != core.EvidenceReviews {
		t.Errorf("source = %s, want review-text", rows[0].Source)
	}
	if got := rows[0].Metadata["mentions"]; got != 2 {
		t.Errorf("mentions = %v, want 2 (one hit per review regardless of keyword count)", got)
	}
	if got := rows[0].Metadata["unique_authors"]; got != 2 {
		t.Errorf("unique_authors = %v, want 2", got)
	}

	// One author, one mention: fails both legs, dropped.
	evidence = Build(nil, []core.Review{
		{VenueID: 2, Language: "en", AuthorName: "a", Text: "so romantic"},
	}, cfg)
	if rows := evidenceFor(evidence, 2, "romantic"); len(rows) != 0 {
		t.Error("single mention by single author must be dropped")
	}
}

func TestReviewMiningEnglishOnly(t *testing.T) {
	cfg := Config{MinUniqueAuthors: 1, MinMentions: 1, EnglishOnly: true, ScoreFloor: 20, ScoreCap: 100}
	reviews := []core.Review{
		{VenueID: 1, Language: "fr", AuthorName: "a", Text: "tres cozy"},
		{VenueID: 1, Language: "en-GB", AuthorName: "b", Text: "lively spot"},
	}
	evidence := Build(nil, reviews, cfg)
	if rows := evidenceFor(evidence, 1, "cozy"); len(rows) != 0 {
		t.Error("non-english review must be skipped when EnglishOnly is set")
	}
	if rows := evidenceFor(evidence, 1, "lively"); len(rows) != 1 {
		t.Error("en-GB review must pass the english filter")
	}
}

func TestReviewConfidenceCap(t *testing.T) {
	cfg := Config{MinUniqueAuthors: 1, MinMentions: 1, ScoreFloor: 20, ScoreCap: 60}
	var reviews []core.Review
	for i := 0; i < 50; i++ {
		reviews = append(reviews, core.Review{
			VenueID: 1, Language: "en",
			AuthorName: string(rune('a' + i%26)),
			Text:       "perfect date night here",
		})
	}
	evidence := Build(nil, reviews, cfg)
	rows := evidenceFor(evidence, 1, "date_night")
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Confidence != 60 {
		t.Errorf("confidence %f, want clamp to cap 60", rows[0].Confidence)
	}
}

func TestUnknownTagTextDropped(t *testing.T) {
	// Sanity: every keyword tag resolves, so review evidence always joins the catalog.
	lookup := taxonomy.Lookup()
	for tag := range taxonomy.ReviewKeywords {
		if _, ok := lookup[tag]; !ok {
			t.Fatalf("keyword tag %q not in catalog", tag)
		}
	}
}
