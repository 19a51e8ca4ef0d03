package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
)

// 热门榜与宝藏榜的候选截断长度
const topListSize = 250

// Trending 召回全城热度榜前 250 的门店，与用户无关。
// 配置了 KeyValueStore 时优先走有序集合（服务态由刷新任务预热），
// 读取失败或为空时回退到快照内排序。
type Trending struct {
	Snapshot *core.Snapshot
	Store    core.KeyValueStore
	Key      string // 有序集合 key，例如 "venuekit:trending"
}

func (r *Trending) Name() string        { return "recall.trending" }
func (r *Trending) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口。
func (r *Trending) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Trending) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if ids := zrangeIDs(ctx, r.Store, r.Key); len(ids) > 0 {
		return itemsFromIDs(ids), nil
	}
	ids := topVenueIDs(r.Snapshot.Venues, func(v *core.Venue) float64 { return v.PopularityScore })
	return itemsFromIDs(ids), nil
}

// HiddenGem 召回宝藏分榜前 250 的门店，与用户无关。
type HiddenGem struct {
	Snapshot *core.Snapshot
	Store    core.KeyValueStore
	Key      string // 有序集合 key，例如 "venuekit:gems"
}

func (r *HiddenGem) Name() string        { return "recall.hidden_gem" }
func (r *HiddenGem) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口。
func (r *HiddenGem) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *HiddenGem) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if ids := zrangeIDs(ctx, r.Store, r.Key); len(ids) > 0 {
		return itemsFromIDs(ids), nil
	}
	ids := topVenueIDs(r.Snapshot.Venues, func(v *core.Venue) float64 { return v.HiddenGemScore })
	return itemsFromIDs(ids), nil
}

// zrangeIDs 从有序集合读取 TopN，Store 未配置或读取失败返回 nil。
func zrangeIDs(ctx context.Context, kv core.KeyValueStore, key string) []int64 {
	if kv == nil || key == "" {
		return nil
	}
	members, err := kv.ZRange(ctx, key, 0, topListSize-1)
	if err != nil || len(members) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// topVenueIDs 按 score 降序取前 250；同分按门店 id 升序，排序稳定。
func topVenueIDs(venues []*core.Venue, score func(*core.Venue) float64) []int64 {
	sorted := make([]*core.Venue, len(venues))
	copy(sorted, venues)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := score(sorted[i]), score(sorted[j])
		if si != sj {
			return si > sj
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > topListSize {
		sorted = sorted[:topListSize]
	}
	ids := make([]int64, len(sorted))
	for i, v := range sorted {
		ids[i] = v.ID
	}
	return ids
}

func itemsFromIDs(ids []int64) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out
}
