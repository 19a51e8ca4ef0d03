package core

// RecommendContext 承载单个用户一次推荐请求的上下文，贯穿整个 Pipeline 透传。
// 数据集本身在 Snapshot 里（各 Node 构造时持有），这里只放用户维度的信息。
type RecommendContext struct {
	UserID string

	// Affinity 是用户口味向量：tag_id -> 0-100 分
	Affinity map[int64]float64

	// ActionCount 是有效行为条数，驱动冷启动自适应调权
	ActionCount int

	// Params 请求级参数：latitude / longitude / radius_km / effective_radius_km 等
	Params map[string]any
}

// ParamFloat 读取 float 参数，缺失或类型不符返回 (0, false)。
func (rctx *RecommendContext) ParamFloat(key string) (float64, bool) {
	if rctx.Params == nil {
		return 0, false
	}
	switch v := rctx.Params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// PutParam 写入请求级参数（例如地理召回回写实际生效半径）。
func (rctx *RecommendContext) PutParam(key string, val any) {
	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[key] = val
}
