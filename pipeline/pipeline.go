// Package pipeline 把单个用户的推荐拆成可组合的 Node 链：
// 召回 -> 过滤 -> 排序 -> 重排。批跑引擎对每个用户执行一次完整链路。
package pipeline

import (
	"context"

	"github.com/rushteam/venuekit/core"
)

// Pipeline 按声明顺序串行执行各 Node。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
