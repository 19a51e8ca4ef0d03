package pipeline

import (
	"context"

	"github.com/rushteam/venuekit/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回阶段：生成候选门店
	KindFilter      Kind = "filter"      // 过滤阶段：剔除已交互/不符合规则的候选
	KindRank        Kind = "rank"        // 排序阶段：对候选打分并排序
	KindReRank      Kind = "rerank"      // 重排阶段：截断/多样性调优
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充解释或最终修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 items -> 输出 items"的形态，召回生成、过滤截断、排序重排都走同一签名。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
