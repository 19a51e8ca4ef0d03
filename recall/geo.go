package recall

import (
	"context"
	"sort"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/pipeline"
	"github.com/rushteam/venuekit/pkg/geo"
)

// 地理召回的默认参数
const (
	DefaultRadiusKm   = 2.0
	DefaultMinResults = 10
)

// Geo 按大圆距离召回中心点附近的门店，带半径扩张状态机：
//
//	initial    在 radius_km 内过滤；无坐标的门店视为无限远，直接排除
//	empty      初始半径内一无所有 -> 以 2x 半径重试一次，仍为空则返回空
//	too-few    非空但不足 min_results -> 以 3x 半径扩张一次，
//	           仅当扩张确实带来更多门店才采用；此后不再扩张
//
// 两个阶段依次独立判定：空结果重试后的产物仍不足 min_results 时照样扩张。
// 实际生效的半径写回 rctx 的 effective_radius_km，
// 下游按生效半径计算邻近度，扩张不是静默行为。
type Geo struct {
	Snapshot   *core.Snapshot
	RadiusKm   float64
	MinResults int
}

func (r *Geo) Name() string        { return "recall.geo" }
func (r *Geo) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口。
func (r *Geo) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。中心点从 rctx 的 latitude/longitude 读取，
// radius_km 参数可按请求覆盖默认半径。
func (r *Geo) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	lat, okLat := rctx.ParamFloat("latitude")
	lon, okLon := rctx.ParamFloat("longitude")
	if !okLat || !okLon {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "geo recall: missing center coordinates")
	}

	radius := r.RadiusKm
	if v, ok := rctx.ParamFloat("radius_km"); ok && v > 0 {
		radius = v
	}
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	minResults := r.MinResults
	if minResults <= 0 {
		minResults = DefaultMinResults
	}

	effective := radius
	nearby := r.within(lat, lon, effective)

	if len(nearby) == 0 {
		// 空结果重试一次，合法地可能仍为空
		effective = radius * 2
		nearby = r.within(lat, lon, effective)
	}
	if len(nearby) > 0 && len(nearby) < minResults {
		// 结果不足时扩张一次；扩张带不来更多门店就保留原结果。
		// 空结果重试后的产物同样适用这条规则
		expanded := r.within(lat, lon, radius*3)
		if len(expanded) > len(nearby) {
			effective = radius * 3
			nearby = expanded
		}
	}

	rctx.PutParam("effective_radius_km", effective)

	out := make([]*core.Item, 0, len(nearby))
	for _, c := range nearby {
		it := core.NewItem(c.venueID)
		it.Meta["distance_km"] = c.distanceKm
		out = append(out, it)
	}
	return out, nil
}

type geoCandidate struct {
	venueID    int64
	distanceKm float64
}

// within 返回半径内的门店，按距离升序（同距按 id 升序）。
func (r *Geo) within(lat, lon, radiusKm float64) []geoCandidate {
	var out []geoCandidate
	for _, v := range r.Snapshot.Venues {
		if !v.HasCoordinates() {
			continue
		}
		d := geo.HaversineKm(lat, lon, *v.Lat, *v.Lon)
		if d <= radiusKm {
			out = append(out, geoCandidate{venueID: v.ID, distanceKm: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].distanceKm != out[j].distanceKm {
			return out[i].distanceKm < out[j].distanceKm
		}
		return out[i].venueID < out[j].venueID
	})
	return out
}
