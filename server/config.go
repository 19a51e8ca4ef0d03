// Package server 是服务态外壳：持有最近一次批处理的快照，
// 对外提供推荐/画像查询接口，并按计划周期性重建快照。
package server

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 来自环境变量（可选 .env 文件）。
type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	// 批处理输入
	DataDir    string `envconfig:"DATA_DIR" default:"data/raw"`
	City       string `envconfig:"CITY" default:"london"`
	ActionsCSV string `envconfig:"ACTIONS_CSV"`

	TopK           int  `envconfig:"TOP_K" default:"30"`
	AllowSynthetic bool `envconfig:"ALLOW_SYNTHETIC" default:"true"`

	// 快照重建计划，robfig/cron 语法
	RefreshSchedule string `envconfig:"REFRESH_SCHEDULE" default:"@hourly"`

	// 可选 Redis：配置后榜单与已交互集合走服务态缓存
	RedisAddr string `envconfig:"REDIS_ADDR"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	// 可选 Feast：配置后用户口味向量优先走在线特征库
	FeastHost        string `envconfig:"FEAST_HOST"`
	FeastPort        int    `envconfig:"FEAST_PORT" default:"6565"`
	FeastProject     string `envconfig:"FEAST_PROJECT" default:"venuekit"`
	FeastFeatureView string `envconfig:"FEAST_FEATURE_VIEW" default:"user_tag_affinity"`
}

// Load 读取 .env（存在时）与环境变量。
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}
