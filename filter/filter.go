// Package filter 提供候选过滤：已交互门店排除与配置驱动的规则过滤。
package filter

import (
	"context"

	"github.com/rushteam/venuekit/core"
)

// Filter 判断一个候选是否应该被过滤掉。
// 返回 true 表示过滤（移除），false 表示保留。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
