package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/engine"
)

// Refresh 重新跑一次批处理并整体替换快照与推荐缓存。
// 同一时刻只允许一次刷新在跑，并发触发直接返回。
func (s *Server) Refresh(ctx context.Context) error {
	if !s.inflight.TryLock() {
		s.log.Info("refresh already in flight, skipping")
		return nil
	}
	defer s.inflight.Unlock()

	started := time.Now()
	ecfg := s.engineCfg
	ecfg.Now = time.Now().UTC()

	result, err := engine.Run(ctx, s.paths, ecfg)
	if err != nil {
		return err
	}

	if err := s.reheat(ctx, result.Snapshot); err != nil {
		// 榜单回灌失败不致命：召回会回落到快照排序
		s.log.Warn("leaderboard reheat failed", zap.Error(err))
	}

	batch := make(map[string][]core.Recommendation)
	for _, r := range result.Recommendations {
		batch[r.UserID] = append(batch[r.UserID], r)
	}

	s.mu.Lock()
	s.snap = result.Snapshot
	s.batch = batch
	s.summary = result.Summary
	s.mu.Unlock()

	s.log.Info("snapshot refreshed",
		zap.Int("venues", result.Summary.Venues),
		zap.Int("users", result.Summary.Users),
		zap.Int("recommendations", result.Summary.Recommendations),
		zap.Duration("took", time.Since(started)))
	return nil
}

// reheat 把热门榜/宝藏榜回灌进存储，先清空再全量重写。
func (s *Server) reheat(ctx context.Context, snap *core.Snapshot) error {
	kv := s.engineCfg.Store
	if kv == nil {
		return nil
	}
	for _, key := range []string{engine.TrendingKey, engine.GemKey} {
		if err := kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	for _, v := range snap.Venues {
		member := strconv.FormatInt(v.ID, 10)
		if err := kv.ZAdd(ctx, engine.TrendingKey, v.PopularityScore, member); err != nil {
			return err
		}
		if err := kv.ZAdd(ctx, engine.GemKey, v.HiddenGemScore, member); err != nil {
			return err
		}
	}
	return nil
}

// Run 完成首次刷新、挂上定时刷新，然后阻塞在 HTTP 服务上。
func (s *Server) Run() error {
	if err := s.Refresh(context.Background()); err != nil {
		return err
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(s.cfg.RefreshSchedule, func() {
		if err := s.Refresh(context.Background()); err != nil {
			s.log.Error("scheduled refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	s.log.Info("starting server", zap.String("port", s.cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + s.cfg.HTTPPort,
		Handler:           s.Router(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv.ListenAndServe()
}
