// Package rank 实现两种排序策略：
// 全局混排（口味/热门/宝藏/质量的自适应加权）与地理排序（口味/邻近度/质量）。
package rank

import (
	"context"
	"sort"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
)

// 解释信息里保留的口味标签条数
const topTasteTags = 3

// 冷启动阈值：有效行为数低于它时口味权重按比例衰减
const coldStartActions = 5

// BlendWeights 是全局混排的基础权重。
type BlendWeights struct {
	Taste     float64
	Trend     float64
	HiddenGem float64
	Quality   float64
}

// DefaultBlendWeights 返回线上默认权重。
func DefaultBlendWeights() BlendWeights {
	return BlendWeights{Taste: 0.5, Trend: 0.15, HiddenGem: 0.2, Quality: 0.15}
}

// AdaptiveWeights 按冷启动规则调整并归一化权重。
//
// 有效行为数 n < 5 时口味权重乘 n/5，被挪走的权重 60% 给热门、
// 40% 给质量，最后整体归一化为和为 1。n=0 的新用户口味权重为 0，
// 排序完全由热门/宝藏/质量决定。
func AdaptiveWeights(base BlendWeights, actionCount int) map[string]float64 {
	w := map[string]float64{
		"taste":      base.Taste,
		"trend":      base.Trend,
		"hidden_gem": base.HiddenGem,
		"quality":    base.Quality,
	}
	if actionCount < coldStartActions {
		ratio := float64(actionCount) / coldStartActions
		reduction := w["taste"] * (1 - ratio)
		w["taste"] *= ratio
		w["trend"] += reduction * 0.6
		w["quality"] += reduction * 0.4
	}
	var total float64
	for _, v := range w {
		total += v
	}
	if total == 0 {
		return w
	}
	for k := range w {
		w[k] /= total
	}
	return w
}

// Blend 是全局混排 Node。
//
// 对每个候选计算四个分量并做加权求和：
//   - taste: 口味匹配分，不截断（强匹配可超过 1）
//   - trend: 全城热度分
//   - hidden_gem: 宝藏分
//   - quality: 质量分
//
// 权重按用户冷启动状态自适应。产出按总分降序，同分保持候选集顺序。
type Blend struct {
	Snapshot *core.Snapshot
	Weights  BlendWeights
}

func (n *Blend) Name() string        { return "rank.blend" }
func (n *Blend) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Blend) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	weights := AdaptiveWeights(n.Weights, rctx.ActionCount)

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		v, ok := n.Snapshot.VenueByID(it.VenueID)
		if !ok {
			continue
		}
		taste, contribs := n.Snapshot.TasteScore(rctx.Affinity, v.ID, topTasteTags)

		it.PutComponent("taste", taste)
		it.PutComponent("trend", v.PopularityScore)
		it.PutComponent("hidden_gem", v.HiddenGemScore)
		it.PutComponent("quality", v.QualityScore)
		it.Score = weights["taste"]*taste +
			weights["trend"]*v.PopularityScore +
			weights["hidden_gem"]*v.HiddenGemScore +
			weights["quality"]*v.QualityScore

		it.Meta["taste_tags"] = contribs
		it.Meta["weights"] = weights
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}
