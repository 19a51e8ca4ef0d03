// Package recall 提供候选门店的召回源：口味匹配、热门榜、宝藏榜与地理半径。
// 各 Source 可被 Fanout 并发执行后合并，也可作为 Node 单独挂进 Pipeline。
package recall

import (
	"context"

	"github.com/rushteam/venuekit/core"
)

// Source 表示一个可复用的召回源（口味/热门/宝藏/地理/...）。
// 可以把它理解为"可并发 fan-out 的策略单元"。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
