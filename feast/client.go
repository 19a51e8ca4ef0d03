// Package feast 封装 Feast Feature Store 的在线特征读取。
// 打分核心自身离线闭环，这个客户端只服务于在线侧：
// 把已物化的用户口味向量从 feature server 读回来。
package feast

import (
	"context"
	"time"
)

// Client 是在线特征读取的最小接口。
type Client interface {
	// GetOnlineFeatures 按实体行批量读取在线特征。
	// features 形如 ["user_tag_affinity:italian"]，entityRows 形如 [{"user_id": "u1"}]。
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	Close() error
}

// GetOnlineFeaturesRequest 在线特征请求。
type GetOnlineFeaturesRequest struct {
	Features   []string
	EntityRows []map[string]interface{}
	Project    string
}

// GetOnlineFeaturesResponse 在线特征响应，向量与请求的实体行一一对应。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体行的特征值集合。
type FeatureVector struct {
	Values    map[string]interface{}
	EntityRow map[string]interface{}
}

// ClientOption 客户端配置选项。
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置。
type ClientConfig struct {
	Project string
	Timeout time.Duration

	// StaticToken 非空时使用静态 Token 认证
	StaticToken string
}

// WithTimeout 设置请求超时。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithStaticToken 设置静态 Token 认证。
func WithStaticToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.StaticToken = token
	}
}
