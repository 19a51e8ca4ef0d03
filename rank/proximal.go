package rank

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
	"github.com/rushteam/venuekit/pkg/conv"
)

// ProximalWeights 是地理排序的权重，由调用方提供。
type ProximalWeights struct {
	Taste     float64
	Proximity float64
	Quality   float64
}

// DefaultProximalWeights 返回地理推荐默认权重：邻近度主导。
func DefaultProximalWeights() ProximalWeights {
	return ProximalWeights{Taste: 0.2, Proximity: 0.6, Quality: 0.2}
}

// Proximal 是地理排序 Node，消费地理召回的产出。
//
// 分量：
//   - taste: 与全局混排同一套标签匹配公式，但截断到 [0,1]
//   - proximity: exp(-2·d / R)，R 为召回实际生效的半径——
//     扩张过的搜索按扩张后的半径打分，距离 0 恰为 1.0，半径边界约 0.14
//   - quality: 0.7·(rating/5，缺失按 3/5) + 0.3·min(1, log1p(reviews)/10)
//
// 产出按加权总分降序，同分保持召回的距离升序。
type Proximal struct {
	Snapshot *core.Snapshot
	Weights  ProximalWeights
}

func (n *Proximal) Name() string        { return "rank.proximal" }
func (n *Proximal) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Proximal) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	radius, ok := rctx.ParamFloat("effective_radius_km")
	if !ok || radius <= 0 {
		if radius, ok = rctx.ParamFloat("radius_km"); !ok || radius <= 0 {
			radius = 2.0
		}
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		v, ok := n.Snapshot.VenueByID(it.VenueID)
		if !ok {
			continue
		}
		distance, _ := conv.ToFloat64(it.Meta["distance_km"])

		taste, contribs := n.Snapshot.TasteScore(rctx.Affinity, v.ID, topTasteTags)
		if taste > 1 {
			taste = 1
		}
		proximity := math.Exp(-2 * distance / radius)
		quality := proximalQuality(v)

		it.PutComponent("taste", taste)
		it.PutComponent("proximity", proximity)
		it.PutComponent("quality", quality)
		it.Score = n.Weights.Taste*taste +
			n.Weights.Proximity*proximity +
			n.Weights.Quality*quality

		it.Meta["taste_tags"] = contribs
		it.Meta["weights"] = map[string]float64{
			"taste":     n.Weights.Taste,
			"proximity": n.Weights.Proximity,
			"quality":   n.Weights.Quality,
		}
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// proximalQuality 由评分与评论量组合：评分占 70%（缺失按中位 3 分），
// 评论量走 log 刻度占 30%，整体落在 [0,1]。
func proximalQuality(v *core.Venue) float64 {
	rating := 3.0
	if v.Rating != nil {
		rating = *v.Rating
	}
	ratingScore := rating / 5.0
	reviewScore := math.Log1p(float64(v.ReviewCount)) / 10.0
	if reviewScore > 1 {
		reviewScore = 1
	}
	q := 0.7*ratingScore + 0.3*reviewScore
	if q > 1 {
		q = 1
	}
	return q
}
