package tagging

import (
	"math"
	"sort"
	"strings"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/taxonomy"
)

// Config 是评论挖掘的参数。
type Config struct {
	// MinUniqueAuthors / MinMentions 组成保留门槛：
	// unique_authors >= MinUniqueAuthors 或 mentions >= MinMentions
	// 二者满足其一即保留（OR 门，按既有线上行为保留）
	MinUniqueAuthors int
	MinMentions      int

	// EnglishOnly 只统计 language 以 "en" 开头的评论
	EnglishOnly bool

	// 置信度 = ScoreFloor + 15·ln(1+authors) + 10·ln(1+mentions)，封顶 ScoreCap
	ScoreFloor float64
	ScoreCap   float64
}

// DefaultConfig 返回线上默认参数。
func DefaultConfig() Config {
	return Config{
		MinUniqueAuthors: 2,
		MinMentions:      3,
		EnglishOnly:      true,
		ScoreFloor:       20,
		ScoreCap:         100,
	}
}

// 确定性规则的固定置信度
const (
	cuisineConfidence  = 92
	typeConfidence     = 75
	priceConfidence    = 80
	lateConfidence     = 70
	earlyConfidence    = 70
	sundayConfidence   = 65
)

// categoryByTypeCode 把外部 place type 代码映射到类别标签。
var categoryByTypeCode = map[string]string{
	"restaurant":    "restaurant",
	"meal_delivery": "takeaway",
	"meal_takeaway": "takeaway",
	"cafe":          "cafe",
	"bar":           "bar",
}

// Build 为全量门店生成标签证据：确定性规则 + 评论挖掘。
// 产出的 tag text 会 join 静态目录，目录里不存在的 text 被静默丢弃。
// 同一 (venue, tag) 允许不同 source 的多条证据，这里不做去重。
func Build(venues []*core.Venue, reviews []core.Review, cfg Config) []core.TagEvidence {
	lookup := taxonomy.Lookup()
	out := deterministicEvidence(venues, lookup)
	out = append(out, reviewEvidence(reviews, cfg, lookup)...)
	return out
}

func appendEvidence(out []core.TagEvidence, lookup map[string]core.TagDefinition,
	venueID int64, tagText string, confidence float64, source core.EvidenceSource, meta map[string]any) []core.TagEvidence {
	def, ok := lookup[tagText]
	if !ok {
		// 目录外的标签直接丢弃
		return out
	}
	return append(out, core.TagEvidence{
		VenueID:    venueID,
		TagID:      def.ID,
		TagText:    def.Text,
		Confidence: confidence,
		Source:     source,
		Metadata:   meta,
	})
}

// deterministicEvidence 按门店逐条应用结构化规则。
func deterministicEvidence(venues []*core.Venue, lookup map[string]core.TagDefinition) []core.TagEvidence {
	out := make([]core.TagEvidence, 0, len(venues)*2)
	for _, v := range venues {
		if v.CuisinePrimary != "" && v.CuisinePrimary != "unknown" {
			out = appendEvidence(out, lookup, v.ID, v.CuisinePrimary, cuisineConfidence,
				core.EvidenceStructured, map[string]any{"field": "cuisine_primary"})
		}

		for _, t := range v.TypeCodes {
			if tag, ok := categoryByTypeCode[t]; ok {
				out = appendEvidence(out, lookup, v.ID, tag, typeConfidence,
					core.EvidenceStructured, map[string]any{"type": t})
			}
		}

		switch v.PriceBucket {
		case core.PriceValue:
			out = appendEvidence(out, lookup, v.ID, "great_value", priceConfidence,
				core.EvidenceStructured, map[string]any{"price_level": v.PriceLevel})
		case core.PricePremium:
			out = appendEvidence(out, lookup, v.ID, "pricey", priceConfidence,
				core.EvidenceStructured, map[string]any{"price_level": v.PriceLevel})
		}

		if v.OpenLate {
			out = appendEvidence(out, lookup, v.ID, "open_late", lateConfidence, core.EvidenceStructured, nil)
		}
		if v.OpenEarly {
			out = appendEvidence(out, lookup, v.ID, "open_early", earlyConfidence, core.EvidenceStructured, nil)
		}
		if v.SundayOpen {
			out = appendEvidence(out, lookup, v.ID, "sunday_open", sundayConfidence, core.EvidenceStructured, nil)
		}
	}
	return out
}

type mentionGroup struct {
	mentions int
	authors  map[string]bool
}

// reviewEvidence 对评论文本做关键词挖掘并按 (venue, tag) 聚合。
// 一条评论对一个标签最多算一次命中，与命中几个关键词无关。
func reviewEvidence(reviews []core.Review, cfg Config, lookup map[string]core.TagDefinition) []core.TagEvidence {
	if len(reviews) == 0 {
		return nil
	}

	type groupKey struct {
		venueID int64
		tag     string
	}
	grouped := make(map[groupKey]*mentionGroup)

	for _, r := range reviews {
		if cfg.EnglishOnly && !strings.HasPrefix(r.Language, "en") {
			continue
		}
		text := strings.ToLower(r.Text)
		if text == "" {
			continue
		}
		author := r.AuthorName
		if author == "" {
			author = "anon"
		}
		for tag, keywords := range taxonomy.ReviewKeywords {
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					k := groupKey{r.VenueID, tag}
					g, ok := grouped[k]
					if !ok {
						g = &mentionGroup{authors: make(map[string]bool)}
						grouped[k] = g
					}
					g.mentions++
					g.authors[author] = true
					break
				}
			}
		}
	}

	// map 遍历无序，先收集再排序，保证产出稳定
	keys := make([]groupKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].venueID != keys[j].venueID {
			return keys[i].venueID < keys[j].venueID
		}
		return keys[i].tag < keys[j].tag
	})

	out := make([]core.TagEvidence, 0, len(keys))
	for _, k := range keys {
		g := grouped[k]
		uniqueAuthors := len(g.authors)
		if uniqueAuthors < cfg.MinUniqueAuthors && g.mentions < cfg.MinMentions {
			continue
		}
		score := cfg.ScoreFloor + 15*math.Log1p(float64(uniqueAuthors)) + 10*math.Log1p(float64(g.mentions))
		if score > cfg.ScoreCap {
			score = cfg.ScoreCap
		}
		out = appendEvidence(out, lookup, k.venueID, k.tag, score, core.EvidenceReviews,
			map[string]any{"mentions": g.mentions, "unique_authors": uniqueAuthors})
	}
	return out
}
