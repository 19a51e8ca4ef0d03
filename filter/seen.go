package filter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/venuekit/core"
)

// SeenFilter 排除用户交互过的门店。
// 排除是全量的：只要行为日志里能解析到该门店，无论动作类型
// （包括 dismiss 和 impression），都不再推荐。
//
// 快照里的 seen 集合是权威来源；配置了 Store 时额外叠加服务态的
// 实时交互集合（key 为 {KeyPrefix}:{user_id} 的 JSON id 数组），
// 读取失败按不存在处理，不影响快照判断。
type SeenFilter struct {
	Snapshot  *core.Snapshot
	Store     core.Store
	KeyPrefix string
}

func (f *SeenFilter) Name() string { return "filter.seen" }

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}
	if f.Snapshot != nil && f.Snapshot.Seen(rctx.UserID, item.VenueID) {
		return true, nil
	}
	if f.Store != nil {
		prefix := f.KeyPrefix
		if prefix == "" {
			prefix = "seen"
		}
		data, err := f.Store.Get(ctx, fmt.Sprintf("%s:%s", prefix, rctx.UserID))
		if err == nil {
			var ids []int64
			if json.Unmarshal(data, &ids) == nil {
				for _, id := range ids {
					if id == item.VenueID {
						return true, nil
					}
				}
			}
		}
	}
	return false, nil
}
