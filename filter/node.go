package filter

import (
	"context"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
	"github.com/rushteam/venuekit/pkg/utils"
)

// FilterNode 组合多个过滤器：任何一个返回 true，候选即被移除。
// 过滤器报错会中断整条链路——排除是硬约束，静默放行比失败更糟。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		keep := true
		for _, f := range n.Filters {
			drop, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				return nil, err
			}
			if drop {
				item.PutLabel("filtered", utils.Label{Value: "true", Source: f.Name()})
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out, nil
}
