package rerank

import (
	"context"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
)

// Diversity 限制同一菜系在榜单中的出现次数，防止口味强匹配的用户
// 拿到一页全是同一种菜的结果。MaxPerCuisine <= 0 时默认 3。
// 菜系未知（"unknown" 或空）的门店不受限制。
type Diversity struct {
	Snapshot      *core.Snapshot
	MaxPerCuisine int
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	max := n.MaxPerCuisine
	if max <= 0 {
		max = 3
	}

	counts := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		cuisine := ""
		if v, ok := n.Snapshot.VenueByID(it.VenueID); ok {
			cuisine = v.CuisinePrimary
		}
		if cuisine == "" || cuisine == "unknown" {
			out = append(out, it)
			continue
		}
		if counts[cuisine] >= max {
			continue
		}
		counts[cuisine]++
		out = append(out, it)
	}
	return out, nil
}
