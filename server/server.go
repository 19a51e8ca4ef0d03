package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/dataset"
	"github.com/rushteam/venuekit/engine"
	"github.com/rushteam/venuekit/feast"
	"github.com/rushteam/venuekit/profile"
	"github.com/rushteam/venuekit/rank"
	"github.com/rushteam/venuekit/store"
	"github.com/rushteam/venuekit/taxonomy"
)

// Server 持有最近一次跑批的快照与逐用户推荐缓存。
// 快照整体替换、读写用 RWMutex 隔离，handler 之间无共享写。
type Server struct {
	cfg *Config
	log *zap.Logger

	paths     dataset.Paths
	engineCfg engine.Config

	mu      sync.RWMutex
	snap    *core.Snapshot
	batch   map[string][]core.Recommendation
	summary core.RunSummary

	inflight sync.Mutex // Refresh 单飞
}

// New 组装服务：可选 Redis 承载榜单/已交互集合，可选 Feast 在线口味向量。
// 两者都没配置时退化为纯内存，行为不变。
func New(cfg *Config, log *zap.Logger) (*Server, error) {
	ecfg := engine.DefaultConfig(time.Now().UTC())
	ecfg.TopK = cfg.TopK
	ecfg.AllowSynthetic = cfg.AllowSynthetic
	ecfg.Logger = log

	if cfg.RedisAddr != "" {
		rs, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		ecfg.Store = rs
		log.Info("redis store connected", zap.String("addr", cfg.RedisAddr))
	} else {
		ecfg.Store = store.NewMemoryStore()
	}

	if cfg.FeastHost != "" {
		client, err := feast.NewGrpcClient(cfg.FeastHost, cfg.FeastPort, cfg.FeastProject)
		if err != nil {
			return nil, err
		}
		ecfg.AffinitySource = profile.NewFeastAffinitySource(client, cfg.FeastFeatureView, taxonomy.Definitions())
		log.Info("feast online store connected",
			zap.String("host", cfg.FeastHost),
			zap.String("feature_view", cfg.FeastFeatureView))
	}

	return &Server{
		cfg: cfg,
		log: log,
		paths: dataset.Paths{
			DataDir:    cfg.DataDir,
			City:       cfg.City,
			ActionsCSV: cfg.ActionsCSV,
		},
		engineCfg: ecfg,
	}, nil
}

// current 返回当前快照与推荐缓存，未完成首次刷新时快照为 nil。
func (s *Server) current() (*core.Snapshot, map[string][]core.Recommendation) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.batch
}

// Router 装配全部路由。
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", s.handleHealth)
	router.POST("/refresh", s.handleRefresh)

	api := router.Group("/api/v1")
	api.POST("/recommendations", s.handleRecommend)
	api.GET("/users", s.handleUsers)
	api.GET("/users/:id/profile", s.handleProfile)
	api.GET("/venues/:id", s.handleVenue)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	snap, _ := s.current()
	s.mu.RLock()
	summary := s.summary
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"ready":   snap != nil,
		"summary": summary,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	go func() {
		if err := s.Refresh(context.Background()); err != nil {
			s.log.Error("manual refresh failed", zap.Error(err))
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"message": "refresh triggered"})
}

type centerParam struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type recommendRequest struct {
	UserID string `json:"user_id" binding:"required"`
	TopK   int    `json:"top_k"`

	// Center 非空走地理推荐，其余地理参数才生效
	Center     *centerParam       `json:"center"`
	RadiusKm   float64            `json:"radius_km"`
	MinResults int                `json:"min_results"`
	MaxResults int                `json:"max_results"`
	Weights    map[string]float64 `json:"weights"`
}

func (req *recommendRequest) validate() string {
	if req.TopK < 0 {
		return "top_k must be >= 0"
	}
	for name, w := range req.Weights {
		if w < 0 || w > 1 {
			return "weight " + name + " must be within [0,1]"
		}
	}
	if req.Center == nil {
		return ""
	}
	if req.Center.Lat == nil || req.Center.Lon == nil {
		return "center requires both lat and lon"
	}
	if *req.Center.Lat < -90 || *req.Center.Lat > 90 {
		return "center.lat must be within [-90,90]"
	}
	if *req.Center.Lon < -180 || *req.Center.Lon > 180 {
		return "center.lon must be within [-180,180]"
	}
	if req.RadiusKm < 0 {
		return "radius_km must be > 0"
	}
	return ""
}

// recommendationView 是推荐行的 API 形态，reason 原样透传 JSON。
type recommendationView struct {
	VenueID    int64           `json:"location_id"`
	Name       string          `json:"name"`
	Rank       int             `json:"rank"`
	Score      float64         `json:"score"`
	Taste      float64         `json:"taste_score"`
	Trend      float64         `json:"trend_score,omitempty"`
	HiddenGem  float64         `json:"hidden_gem_score,omitempty"`
	Quality    float64         `json:"quality_score"`
	Proximity  float64         `json:"proximity_score,omitempty"`
	DistanceKm float64         `json:"distance_km,omitempty"`
	Reason     json.RawMessage `json:"reason"`
}

func (s *Server) views(snap *core.Snapshot, recs []core.Recommendation) []recommendationView {
	out := make([]recommendationView, 0, len(recs))
	for _, r := range recs {
		view := recommendationView{
			VenueID:    r.VenueID,
			Rank:       r.Rank,
			Score:      r.FinalScore,
			Taste:      r.Taste,
			Trend:      r.Trend,
			HiddenGem:  r.HiddenGem,
			Quality:    r.Quality,
			Proximity:  r.Proximity,
			DistanceKm: r.DistanceKm,
			Reason:     json.RawMessage(r.Reason),
		}
		if v, ok := snap.VenueByID(r.VenueID); ok {
			view.Name = v.Name
		}
		out = append(out, view)
	}
	return out
}

func (s *Server) handleRecommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, user_id required"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	snap, batch := s.current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot not ready"})
		return
	}

	if req.Center != nil {
		s.recommendProximal(c, snap, req)
		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = s.engineCfg.TopK
	}

	// 跑批缓存覆盖请求时直接截断返回，否则按需重跑一遍该用户
	if rows, ok := batch[req.UserID]; ok && topK <= len(rows) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":         req.UserID,
			"recommendations": s.views(snap, rows[:topK]),
		})
		return
	}

	cfg := s.engineCfg
	cfg.TopK = topK
	recs, err := engine.RecommendUser(c.Request.Context(), snap, req.UserID, cfg)
	if err != nil {
		s.log.Error("recommend failed", zap.String("user", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":         req.UserID,
		"recommendations": s.views(snap, recs),
	})
}

func (s *Server) recommendProximal(c *gin.Context, snap *core.Snapshot, req recommendRequest) {
	preq := engine.ProximalRequest{
		UserIDs:    []string{req.UserID},
		Lat:        *req.Center.Lat,
		Lon:        *req.Center.Lon,
		RadiusKm:   req.RadiusKm,
		MinResults: req.MinResults,
		MaxResults: req.MaxResults,
	}
	if len(req.Weights) > 0 {
		w := rank.DefaultProximalWeights()
		if v, ok := req.Weights["taste"]; ok {
			w.Taste = v
		}
		if v, ok := req.Weights["proximity"]; ok {
			w.Proximity = v
		}
		if v, ok := req.Weights["quality"]; ok {
			w.Quality = v
		}
		preq.Weights = w
	}

	recs, err := engine.RecommendProximal(c.Request.Context(), snap, preq, s.engineCfg)
	if err != nil {
		s.log.Error("proximal recommend failed", zap.String("user", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":         req.UserID,
		"recommendations": s.views(snap, recs),
	})
}

func (s *Server) handleUsers(c *gin.Context) {
	snap, _ := s.current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot not ready"})
		return
	}
	users := snap.UserIDs()
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func (s *Server) handleProfile(c *gin.Context) {
	snap, _ := s.current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot not ready"})
		return
	}

	userID := c.Param("id")
	rows := snap.AffinitiesForUser(userID)
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user profile not found"})
		return
	}

	type affinityView struct {
		TagID   int64   `json:"tag_id"`
		TagText string  `json:"tag_text"`
		Score   float64 `json:"score"`
	}
	out := make([]affinityView, 0, len(rows))
	for _, af := range rows {
		out = append(out, affinityView{TagID: af.TagID, TagText: af.TagText, Score: af.Score})
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"action_count": snap.ActionCount(userID),
		"affinities":   out,
	})
}

func (s *Server) handleVenue(c *gin.Context) {
	snap, _ := s.current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot not ready"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue id"})
		return
	}
	v, ok := snap.VenueByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
		return
	}
	if !v.HasCoordinates() {
		c.JSON(http.StatusNotFound, gin.H{"error": "venue has no coordinates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location_id":      v.ID,
		"name":             v.Name,
		"lat":              *v.Lat,
		"lon":              *v.Lon,
		"cuisine":          v.CuisinePrimary,
		"price_bucket":     v.PriceBucket,
		"rating":           v.Rating,
		"review_count":     v.ReviewCount,
		"popularity_score": v.PopularityScore,
		"hidden_gem_score": v.HiddenGemScore,
		"quality_score":    v.QualityScore,
	})
}
