// venuekitd 服务态入口：启动时跑一次批处理建快照，之后按计划周期刷新，
// 对外提供推荐与画像查询接口。
package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/rushteam/venuekit/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := server.Load()
	if err != nil {
		logger.Fatal("config load error", zap.Error(err))
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("server setup failed", zap.Error(err))
	}
	if err := srv.Run(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
