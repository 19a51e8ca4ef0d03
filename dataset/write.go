package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rushteam/venuekit/core"
)

// 输出文件名，与消费侧（BI 报表、服务态回灌）约定保持稳定。
const (
	VenuesFile          = "locations.csv"
	TagsFile            = "tags.csv"
	EvidenceFile        = "location_tags.csv"
	AffinitiesFile      = "user_tag_affinities.csv"
	HistoryFile         = "user_history.csv"
	RecommendationsFile = "user_recommendations.csv"
	MetadataFile        = "metadata.json"
)

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("dataset: write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// fmtFloatPtr 缺失值写空串，读回时与 parseFloat 对称。
func fmtFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return fmtFloat(*f)
}

func fmtIntPtr(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func fmtMetadata(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// WriteArtifacts 把一次跑批的全部产物写到 outputDir：
// 六张 CSV（门店 / 标签目录 / 门店标签 / 用户口味 / 用户历史 / 推荐结果）
// 加一份 metadata.json 运行摘要。目录不存在时创建。
func WriteArtifacts(
	outputDir string,
	city string,
	snap *core.Snapshot,
	tags []core.TagDefinition,
	recs []core.Recommendation,
	summary core.RunSummary,
) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("dataset: create output dir: %w", err)
	}

	venueRows := make([][]string, 0, len(snap.Venues))
	for _, v := range snap.Venues {
		venueRows = append(venueRows, []string{
			strconv.FormatInt(v.ID, 10),
			v.ExternalID,
			v.Name,
			v.Address,
			fmtFloatPtr(v.Lat),
			fmtFloatPtr(v.Lon),
			fmtFloatPtr(v.Rating),
			strconv.Itoa(v.ReviewCount),
			fmtIntPtr(v.PriceLevel),
			string(v.PriceBucket),
			v.CuisinePrimary,
			v.GridCell,
			v.BusinessStatus,
			strconv.FormatBool(v.OpenLate),
			strconv.FormatBool(v.OpenEarly),
			strconv.FormatBool(v.SundayOpen),
			fmtFloat(v.LogReviews),
			fmtFloat(v.PopularityScore),
			fmtFloat(v.ExpectedPopularity),
			fmtFloat(v.PopularityResidual),
			fmtFloat(v.HiddenGemScore),
			string(v.GemSource),
			fmtFloat(v.QualityScore),
		})
	}
	err := writeCSV(filepath.Join(outputDir, VenuesFile),
		[]string{
			"location_id", "google_place_id", "name", "vicinity", "lat", "lon",
			"rating", "user_ratings_total", "price_level", "price_bucket",
			"cuisine_primary", "grid_id", "business_status",
			"is_open_late", "is_open_early", "is_sunday_open",
			"log_reviews", "popularity_score", "expected_popularity",
			"residual_popularity", "hidden_gem_score", "gem_source", "quality_score",
		}, venueRows)
	if err != nil {
		return err
	}

	tagRows := make([][]string, 0, len(tags))
	for _, t := range tags {
		tagRows = append(tagRows, []string{
			strconv.FormatInt(t.ID, 10), t.Text, string(t.Category), t.PromptText, t.Color,
		})
	}
	err = writeCSV(filepath.Join(outputDir, TagsFile),
		[]string{"tag_id", "text", "category", "prompt_text", "color"}, tagRows)
	if err != nil {
		return err
	}

	evidenceRows := make([][]string, 0, len(snap.Evidence))
	for _, ev := range snap.Evidence {
		evidenceRows = append(evidenceRows, []string{
			strconv.FormatInt(ev.VenueID, 10),
			strconv.FormatInt(ev.TagID, 10),
			ev.TagText,
			fmtFloat(ev.Confidence),
			string(ev.Source),
			fmtMetadata(ev.Metadata),
		})
	}
	err = writeCSV(filepath.Join(outputDir, EvidenceFile),
		[]string{"location_id", "tag_id", "tag_text", "score", "source", "metadata"}, evidenceRows)
	if err != nil {
		return err
	}

	affinityRows := make([][]string, 0, len(snap.Affinities))
	for _, af := range snap.Affinities {
		affinityRows = append(affinityRows, []string{
			af.UserID,
			strconv.FormatInt(af.TagID, 10),
			af.TagText,
			fmtFloat(af.Score),
			fmtMetadata(af.Metadata),
		})
	}
	err = writeCSV(filepath.Join(outputDir, AffinitiesFile),
		[]string{"user_id", "tag_id", "tag_text", "score", "metadata"}, affinityRows)
	if err != nil {
		return err
	}

	historyRows := make([][]string, 0, len(snap.History))
	for _, h := range snap.History {
		historyRows = append(historyRows, []string{h.UserID, strconv.Itoa(h.ActionCount)})
	}
	err = writeCSV(filepath.Join(outputDir, HistoryFile),
		[]string{"user_id", "n_actions"}, historyRows)
	if err != nil {
		return err
	}

	recRows := make([][]string, 0, len(recs))
	for _, r := range recs {
		recRows = append(recRows, []string{
			r.UserID,
			strconv.FormatInt(r.VenueID, 10),
			strconv.Itoa(r.Rank),
			fmtFloat(r.FinalScore),
			fmtFloat(r.Taste),
			fmtFloat(r.Trend),
			fmtFloat(r.HiddenGem),
			fmtFloat(r.Quality),
			r.Reason,
		})
	}
	err = writeCSV(filepath.Join(outputDir, RecommendationsFile),
		[]string{
			"user_id", "location_id", "rank", "score",
			"taste_score", "trend_score", "hidden_gem_score", "quality_score", "reason",
		}, recRows)
	if err != nil {
		return err
	}

	meta := struct {
		City string `json:"city"`
		core.RunSummary
	}{City: city, RunSummary: summary}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, MetadataFile), append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("dataset: write metadata: %w", err)
	}
	return nil
}
