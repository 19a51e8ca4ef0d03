// Package engine 编排一次完整的批处理：加载 -> 归一化 -> 打标 -> 宝藏分 ->
// 画像 -> 逐用户推荐 -> 产物汇总。打分阶段对快照只读，按用户并行。
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/dataset"
	"github.com/rushteam/venuekit/filter"
	"github.com/rushteam/venuekit/gem"
	"github.com/rushteam/venuekit/pipeline"
	"github.com/rushteam/venuekit/profile"
	"github.com/rushteam/venuekit/rank"
	"github.com/rushteam/venuekit/recall"
	"github.com/rushteam/venuekit/rerank"
	"github.com/rushteam/venuekit/tagging"
	"github.com/rushteam/venuekit/taxonomy"
)

const (
	// DefaultTopK 是每个用户保留的全局推荐条数
	DefaultTopK = 30
	// DefaultMaxResults 是地理推荐的单次上限
	DefaultMaxResults = 50

	// 服务态榜单的有序集合 key，刷新任务写、召回读
	TrendingKey = "venuekit:trending"
	GemKey      = "venuekit:gems"
)

// Config 是一次批处理的全部参数。零值字段在 Run 入口补默认值。
type Config struct {
	ReviewTagging  tagging.Config
	ActionWeights  map[core.ActionType]float64
	HalflifeDays   float64
	BlendWeights   rank.BlendWeights
	TopK           int
	MinReviews     int
	AllowSynthetic bool

	// Now 显式传入：同一输入同一 Now，两次运行产出完全一致
	Now time.Time

	// Concurrency 是逐用户打分的并行度，0 按 CPU 数
	Concurrency int

	// Store 可选：配置后召回优先读服务态榜单
	Store core.KeyValueStore

	// AffinitySource 可选：服务态按需打分时优先从在线特征库读口味向量，
	// 读不到或出错回落到快照。批跑不读在线库。
	AffinitySource profile.AffinitySource

	Logger *zap.Logger
}

// DefaultConfig 返回线上默认参数。
func DefaultConfig(now time.Time) Config {
	return Config{
		ReviewTagging:  tagging.DefaultConfig(),
		ActionWeights:  profile.DefaultActionWeights(),
		HalflifeDays:   profile.DefaultHalflifeDays,
		BlendWeights:   rank.DefaultBlendWeights(),
		TopK:           DefaultTopK,
		MinReviews:     gem.DefaultMinReviews,
		AllowSynthetic: true,
		Now:            now,
		Logger:         zap.NewNop(),
	}
}

func (cfg *Config) normalize() {
	if cfg.ActionWeights == nil {
		cfg.ActionWeights = profile.DefaultActionWeights()
	}
	if cfg.HalflifeDays <= 0 {
		cfg.HalflifeDays = profile.DefaultHalflifeDays
	}
	if cfg.BlendWeights == (rank.BlendWeights{}) {
		cfg.BlendWeights = rank.DefaultBlendWeights()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MinReviews <= 0 {
		cfg.MinReviews = gem.DefaultMinReviews
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// Result 是一次批处理的全部产物。
type Result struct {
	Snapshot        *core.Snapshot
	Tags            []core.TagDefinition
	Recommendations []core.Recommendation
	Summary         core.RunSummary
}

// Run 从 CSV 输入执行完整批处理。
func Run(ctx context.Context, paths dataset.Paths, cfg Config) (*Result, error) {
	venues, err := dataset.LoadVenues(paths)
	if err != nil {
		return nil, err
	}
	venueByExternal := make(map[string]int64, len(venues))
	for _, v := range venues {
		if v.ExternalID != "" {
			venueByExternal[v.ExternalID] = v.ID
		}
	}
	reviews, err := dataset.LoadReviews(paths, venueByExternal)
	if err != nil {
		return nil, err
	}
	actions, err := dataset.LoadActions(paths)
	if err != nil {
		return nil, err
	}
	return RunWithData(ctx, venues, reviews, actions, cfg)
}

// RunWithData 对已加载的数据执行批处理，是 Run 的内存入口（服务态刷新复用）。
func RunWithData(
	ctx context.Context,
	venues []*core.Venue,
	reviews []core.Review,
	actions []core.UserAction,
	cfg Config,
) (*Result, error) {
	cfg.normalize()
	log := cfg.Logger

	tagging.DeriveStats(venues)
	evidence := tagging.Build(venues, reviews, cfg.ReviewTagging)
	log.Info("venues tagged",
		zap.Int("venues", len(venues)),
		zap.Int("reviews", len(reviews)),
		zap.Int("evidence_rows", len(evidence)))

	gem.Score(venues, gem.Config{MinReviews: cfg.MinReviews, Logger: log})

	actions, synthetic := profile.EnsureActions(actions, venues, evidence, cfg.AllowSynthetic, cfg.Now)
	if synthetic {
		log.Info("no action log found, synthesized demo personas",
			zap.Int("actions", len(actions)))
	}
	affinities, history := profile.BuildAffinities(actions, venues, evidence, profile.Config{
		ActionWeights: cfg.ActionWeights,
		HalflifeDays:  cfg.HalflifeDays,
		Now:           cfg.Now,
	})

	snap := core.NewSnapshot(venues, evidence, affinities, history, actions)
	recs, err := Recommend(ctx, snap, cfg)
	if err != nil {
		return nil, err
	}

	users := make(map[string]bool)
	for _, af := range affinities {
		users[af.UserID] = true
	}
	tags := taxonomy.Definitions()
	result := &Result{
		Snapshot:        snap,
		Tags:            tags,
		Recommendations: recs,
		Summary: core.RunSummary{
			Venues:           len(venues),
			Tags:             len(tags),
			EvidenceRows:     len(evidence),
			Users:            len(users),
			Recommendations:  len(recs),
			SyntheticActions: synthetic,
		},
	}
	log.Info("run complete",
		zap.Int("users", result.Summary.Users),
		zap.Int("recommendations", result.Summary.Recommendations))
	return result, nil
}

// globalPipeline 组装全局推荐链：三路召回扇出 -> 已交互过滤 -> 混排 -> 截断。
// 所有 Node 对快照只读，多个用户可共用同一条链。
func globalPipeline(snap *core.Snapshot, cfg Config) *pipeline.Pipeline {
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Fanout{
			Sources: []recall.Source{
				&recall.TasteMatch{Snapshot: snap},
				&recall.Trending{Snapshot: snap, Store: cfg.Store, Key: TrendingKey},
				&recall.HiddenGem{Snapshot: snap, Store: cfg.Store, Key: GemKey},
			},
		},
		&filter.FilterNode{Filters: []filter.Filter{
			&filter.SeenFilter{Snapshot: snap, Store: cfg.Store},
		}},
		&rank.Blend{Snapshot: snap, Weights: cfg.BlendWeights},
		&rerank.TopN{N: cfg.TopK},
	}}
}

// Recommend 对快照里的每个已知用户跑一遍全局推荐链。
// 用户顺序与单用户产出都是确定的，并行只加速不改变结果。
func Recommend(ctx context.Context, snap *core.Snapshot, cfg Config) ([]core.Recommendation, error) {
	cfg.normalize()
	users := snap.UserIDs()
	if len(users) == 0 {
		return nil, nil
	}

	p := globalPipeline(snap, cfg)
	results := make([][]core.Recommendation, len(users))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Concurrency)
	for i, userID := range users {
		slot, u := i, userID
		eg.Go(func() error {
			rctx := &core.RecommendContext{
				UserID:      u,
				Affinity:    snap.AffinityMap(u),
				ActionCount: snap.ActionCount(u),
			}
			items, err := p.Run(egCtx, rctx, nil)
			if err != nil {
				return fmt.Errorf("engine: recommend for %s: %w", u, err)
			}
			results[slot] = globalRecommendations(u, items)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []core.Recommendation
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}

// affinityFor 解析用户口味向量：优先在线特征库，失败或为空回落快照。
func affinityFor(ctx context.Context, snap *core.Snapshot, userID string, cfg Config) map[int64]float64 {
	if cfg.AffinitySource != nil {
		m, err := cfg.AffinitySource.Affinities(ctx, userID)
		if err != nil {
			cfg.Logger.Warn("affinity source failed, using snapshot",
				zap.String("user", userID), zap.Error(err))
		} else if len(m) > 0 {
			return m
		}
	}
	return snap.AffinityMap(userID)
}

// RecommendUser 对单个用户跑一遍全局推荐链（服务态按需打分）。
func RecommendUser(ctx context.Context, snap *core.Snapshot, userID string, cfg Config) ([]core.Recommendation, error) {
	cfg.normalize()
	rctx := &core.RecommendContext{
		UserID:      userID,
		Affinity:    affinityFor(ctx, snap, userID, cfg),
		ActionCount: snap.ActionCount(userID),
	}
	items, err := globalPipeline(snap, cfg).Run(ctx, rctx, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: recommend for %s: %w", userID, err)
	}
	return globalRecommendations(userID, items), nil
}

// ProximalRequest 是一次地理推荐请求。
type ProximalRequest struct {
	UserIDs    []string // 为空时对快照里所有已知用户跑批
	Lat, Lon   float64
	RadiusKm   float64
	MinResults int
	MaxResults int
	Weights    rank.ProximalWeights
}

func (req *ProximalRequest) normalize() {
	if req.RadiusKm <= 0 {
		req.RadiusKm = recall.DefaultRadiusKm
	}
	if req.MinResults <= 0 {
		req.MinResults = recall.DefaultMinResults
	}
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.Weights == (rank.ProximalWeights{}) {
		req.Weights = rank.DefaultProximalWeights()
	}
}

// RecommendProximal 围绕一个坐标对一批用户跑地理推荐链：
// 半径召回（带扩张状态机）-> 已交互过滤 -> 地理排序 -> 截断。
func RecommendProximal(
	ctx context.Context,
	snap *core.Snapshot,
	req ProximalRequest,
	cfg Config,
) ([]core.Recommendation, error) {
	cfg.normalize()
	req.normalize()
	users := req.UserIDs
	if len(users) == 0 {
		users = snap.UserIDs()
	}
	sorted := make([]string, len(users))
	copy(sorted, users)
	sort.Strings(sorted)

	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Geo{Snapshot: snap, RadiusKm: req.RadiusKm, MinResults: req.MinResults},
		&filter.FilterNode{Filters: []filter.Filter{
			&filter.SeenFilter{Snapshot: snap, Store: cfg.Store},
		}},
		&rank.Proximal{Snapshot: snap, Weights: req.Weights},
		&rerank.TopN{N: req.MaxResults},
	}}

	results := make([][]core.Recommendation, len(sorted))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Concurrency)
	for i, userID := range sorted {
		slot, u := i, userID
		eg.Go(func() error {
			rctx := &core.RecommendContext{
				UserID:      u,
				Affinity:    affinityFor(egCtx, snap, u, cfg),
				ActionCount: snap.ActionCount(u),
			}
			rctx.PutParam("latitude", req.Lat)
			rctx.PutParam("longitude", req.Lon)
			rctx.PutParam("radius_km", req.RadiusKm)
			items, err := p.Run(egCtx, rctx, nil)
			if err != nil {
				return fmt.Errorf("engine: proximal recommend for %s: %w", u, err)
			}
			results[slot] = proximalRecommendations(u, items)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []core.Recommendation
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}

func globalRecommendations(userID string, items []*core.Item) []core.Recommendation {
	out := make([]core.Recommendation, 0, len(items))
	for i, it := range items {
		rec := core.Recommendation{
			UserID:     userID,
			VenueID:    it.VenueID,
			Rank:       rankOf(it, i),
			FinalScore: it.Score,
			Taste:      it.Component("taste"),
			Trend:      it.Component("trend"),
			HiddenGem:  it.Component("hidden_gem"),
			Quality:    it.Component("quality"),
		}
		rec.Reason = reasonJSON(it, map[string]float64{
			"taste":      rec.Taste,
			"trend":      rec.Trend,
			"hidden_gem": rec.HiddenGem,
			"quality":    rec.Quality,
		})
		out = append(out, rec)
	}
	return out
}

func proximalRecommendations(userID string, items []*core.Item) []core.Recommendation {
	out := make([]core.Recommendation, 0, len(items))
	for i, it := range items {
		distance := 0.0
		if d, ok := it.Meta["distance_km"].(float64); ok {
			distance = d
		}
		rec := core.Recommendation{
			UserID:     userID,
			VenueID:    it.VenueID,
			Rank:       rankOf(it, i),
			FinalScore: it.Score,
			Taste:      it.Component("taste"),
			Proximity:  it.Component("proximity"),
			Quality:    it.Component("quality"),
			DistanceKm: distance,
		}
		rec.Reason = reasonJSON(it, map[string]float64{
			"taste":     rec.Taste,
			"proximity": rec.Proximity,
			"quality":   rec.Quality,
		})
		out = append(out, rec)
	}
	return out
}

func rankOf(it *core.Item, idx int) int {
	if r, ok := it.Meta["rank"].(int); ok && r > 0 {
		return r
	}
	return idx + 1
}

// reasonJSON 把解释信息序列化为稳定的 JSON：标签贡献、生效权重、四位小数的分量。
func reasonJSON(it *core.Item, components map[string]float64) string {
	reason := core.Reason{
		TasteTags:  []core.TagContribution{},
		Components: make(map[string]float64, len(components)),
	}
	if contribs, ok := it.Meta["taste_tags"].([]core.TagContribution); ok && contribs != nil {
		reason.TasteTags = contribs
	}
	if weights, ok := it.Meta["weights"].(map[string]float64); ok {
		reason.Weights = weights
	}
	for k, v := range components {
		reason.Components[k] = round4(v)
	}
	b, err := json.Marshal(reason)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
