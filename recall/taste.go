package recall

import (
	"context"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
)

// TasteMatch 召回与用户口味向量有标签交集的门店。
// 冷启动用户（口味向量为空）召回为空，候选完全由热门/宝藏榜托底。
type TasteMatch struct {
	Snapshot *core.Snapshot
}

func (r *TasteMatch) Name() string        { return "recall.taste" }
func (r *TasteMatch) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口。
func (r *TasteMatch) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。按快照门店顺序遍历，产出顺序稳定。
func (r *TasteMatch) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if len(rctx.Affinity) == 0 {
		return nil, nil
	}
	var out []*core.Item
	for _, v := range r.Snapshot.Venues {
		score, _ := r.Snapshot.TasteScore(rctx.Affinity, v.ID, 0)
		if score == 0 {
			continue
		}
		it := core.NewItem(v.ID)
		it.PutComponent("taste", score)
		out = append(out, it)
	}
	return out, nil
}
