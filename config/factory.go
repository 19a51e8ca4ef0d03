// Package config 把 YAML/JSON 节点配置翻译成可执行的 Pipeline。
// 快照与存储是运行期对象，不进配置文件，由调用方在构建工厂时绑定。
package config

import (
	"fmt"
	"time"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/filter"
	"github.com/rushteam/venuekit/pipeline"
	"github.com/rushteam/venuekit/pkg/conv"
	"github.com/rushteam/venuekit/rank"
	"github.com/rushteam/venuekit/recall"
	"github.com/rushteam/venuekit/rerank"
)

// NewFactory 返回绑定到给定快照/存储的 NodeFactory，注册全部内置 Node 类型：
// recall.fanout / recall.taste / recall.trending / recall.hidden_gem / recall.geo、
// filter、rank.blend / rank.proximal、rerank.topn / rerank.diversity。
func NewFactory(snap *core.Snapshot, store core.KeyValueStore) *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()

	f.Register("recall.fanout", func(c map[string]any) (pipeline.Node, error) {
		return buildFanout(snap, store, c)
	})
	f.Register("recall.taste", func(c map[string]any) (pipeline.Node, error) {
		return &recall.TasteMatch{Snapshot: snap}, nil
	})
	f.Register("recall.trending", func(c map[string]any) (pipeline.Node, error) {
		return &recall.Trending{Snapshot: snap, Store: store, Key: conv.ConfigGet(c, "key", "")}, nil
	})
	f.Register("recall.hidden_gem", func(c map[string]any) (pipeline.Node, error) {
		return &recall.HiddenGem{Snapshot: snap, Store: store, Key: conv.ConfigGet(c, "key", "")}, nil
	})
	f.Register("recall.geo", func(c map[string]any) (pipeline.Node, error) {
		return &recall.Geo{
			Snapshot:   snap,
			RadiusKm:   conv.ConfigGetFloat(c, "radius_km", recall.DefaultRadiusKm),
			MinResults: conv.ConfigGetInt(c, "min_results", recall.DefaultMinResults),
		}, nil
	})

	f.Register("filter", func(c map[string]any) (pipeline.Node, error) {
		return buildFilter(snap, store, c)
	})

	f.Register("rank.blend", func(c map[string]any) (pipeline.Node, error) {
		return &rank.Blend{Snapshot: snap, Weights: blendWeights(c)}, nil
	})
	f.Register("rank.proximal", func(c map[string]any) (pipeline.Node, error) {
		return &rank.Proximal{Snapshot: snap, Weights: proximalWeights(c)}, nil
	})

	f.Register("rerank.topn", func(c map[string]any) (pipeline.Node, error) {
		return &rerank.TopN{N: conv.ConfigGetInt(c, "n", 0)}, nil
	})
	f.Register("rerank.diversity", func(c map[string]any) (pipeline.Node, error) {
		return &rerank.Diversity{
			Snapshot:      snap,
			MaxPerCuisine: conv.ConfigGetInt(c, "max_per_cuisine", 0),
		}, nil
	})

	return f
}

func buildFanout(snap *core.Snapshot, store core.KeyValueStore, c map[string]any) (pipeline.Node, error) {
	rawSources, ok := c["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(rawSources))
	for _, rs := range rawSources {
		m, ok := rs.(map[string]any)
		if !ok {
			continue
		}
		switch t := conv.ConfigGet(m, "type", ""); t {
		case "taste":
			sources = append(sources, &recall.TasteMatch{Snapshot: snap})
		case "trending":
			sources = append(sources, &recall.Trending{Snapshot: snap, Store: store, Key: conv.ConfigGet(m, "key", "")})
		case "hidden_gem":
			sources = append(sources, &recall.HiddenGem{Snapshot: snap, Store: store, Key: conv.ConfigGet(m, "key", "")})
		default:
			return nil, fmt.Errorf("unknown source type: %s", t)
		}
	}

	fanout := &recall.Fanout{Sources: sources}
	if sec := conv.ConfigGetInt(c, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	fanout.MaxConcurrent = conv.ConfigGetInt(c, "max_concurrent", 0)
	return fanout, nil
}

func buildFilter(snap *core.Snapshot, store core.KeyValueStore, c map[string]any) (pipeline.Node, error) {
	rawFilters, ok := c["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(rawFilters))
	for _, rf := range rawFilters {
		m, ok := rf.(map[string]any)
		if !ok {
			continue
		}
		switch t := conv.ConfigGet(m, "type", ""); t {
		case "seen":
			filters = append(filters, &filter.SeenFilter{
				Snapshot:  snap,
				Store:     store,
				KeyPrefix: conv.ConfigGet(m, "key_prefix", ""),
			})
		case "rule":
			expr := conv.ConfigGet(m, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("rule filter requires expr")
			}
			filters = append(filters, &filter.RuleFilter{Expr: expr})
		default:
			return nil, fmt.Errorf("unknown filter type: %s", t)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func blendWeights(c map[string]any) rank.BlendWeights {
	w := rank.DefaultBlendWeights()
	m, ok := c["weights"].(map[string]any)
	if !ok {
		return w
	}
	w.Taste = conv.ConfigGetFloat(m, "taste", w.Taste)
	w.Trend = conv.ConfigGetFloat(m, "trend", w.Trend)
	w.HiddenGem = conv.ConfigGetFloat(m, "hidden_gem", w.HiddenGem)
	w.Quality = conv.ConfigGetFloat(m, "quality", w.Quality)
	return w
}

func proximalWeights(c map[string]any) rank.ProximalWeights {
	w := rank.DefaultProximalWeights()
	m, ok := c["weights"].(map[string]any)
	if !ok {
		return w
	}
	w.Taste = conv.ConfigGetFloat(m, "taste", w.Taste)
	w.Proximity = conv.ConfigGetFloat(m, "proximity", w.Proximity)
	w.Quality = conv.ConfigGetFloat(m, "quality", w.Quality)
	return w
}
