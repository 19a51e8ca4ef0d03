package filter

import (
	"context"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pkg/dsl"
)

// RuleFilter 按 CEL 表达式过滤候选，表达式由配置下发。
// 表达式返回 true 表示命中规则、候选被移除，例如：
//
//	label.recall_source == "recall.trending" && item.components.quality < 0.1
//	rctx.action_count == 0 && label.cuisine == "unknown"
//
// 空表达式不过滤任何候选。
type RuleFilter struct {
	Expr string
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" {
		return false, nil
	}
	return dsl.NewEval(item, rctx).Evaluate(f.Expr)
}
