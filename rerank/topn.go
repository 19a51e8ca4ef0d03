// Package rerank 在排序结果上做截断与多样性调优。
package rerank

import (
	"context"
	"strconv"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
	"github.com/rushteam/venuekit/pkg/utils"
)

// TopN 截取排序后的前 N 个候选，并写入稠密名次（从 1 起、无空洞）。
// N <= 0 表示不截断、只标名次。
type TopN struct {
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopN) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := items
	if n.N > 0 && len(out) > n.N {
		out = out[:n.N]
	}
	for i, it := range out {
		it.Meta["rank"] = i + 1
		it.PutLabel("rank", utils.Label{Value: strconv.Itoa(i + 1), Source: "rerank"})
	}
	return out, nil
}
