package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
	"github.com/rushteam/venuekit/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源并合并结果。
//
// 结果按源声明顺序合并、按 venue id 首次出现去重（口味 -> 热门 -> 宝藏
// 的优先级即源顺序），被去重的候选把 labels 并入保留者。
// 并发只影响执行，不影响产出顺序：同一输入必得同一候选序列。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 每个源写自己的槽位，合并时按声明顺序读取
	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		slot, s := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}
			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				return err
			}
			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
			}
			results[slot] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return mergeFirst(results), nil
}

// mergeFirst 按槽位顺序合并，保留首次出现的候选并并入后续 labels。
func mergeFirst(results [][]*core.Item) []*core.Item {
	var total int
	for _, items := range results {
		total += len(items)
	}
	seen := make(map[int64]*core.Item, total)
	out := make([]*core.Item, 0, total)
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if old, ok := seen[it.VenueID]; ok {
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			seen[it.VenueID] = it
			out = append(out, it)
		}
	}
	return out
}
