package core

// TagContribution 是一条口味解释：哪个标签贡献了多少口味分。
type TagContribution struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}

// Reason 是推荐结果的机器可读打分明细，整体序列化进 Recommendation.Reason。
type Reason struct {
	TasteTags  []TagContribution  `json:"taste_tags"`
	Weights    map[string]float64 `json:"weights"`
	Components map[string]float64 `json:"components"`
}

// Recommendation 是一条排好序的推荐输出。
// Rank 从 1 起、稠密无空洞；同分按候选集稳定顺序排。
// 仅是本次运行的产物，没有跨运行的生命周期。
type Recommendation struct {
	UserID     string
	VenueID    int64
	Rank       int
	FinalScore float64

	// 分量得分；全局推荐填 Taste/Trend/HiddenGem/Quality，
	// 地理推荐填 Taste/Proximity/Quality 以及 DistanceKm
	Taste      float64
	Trend      float64
	HiddenGem  float64
	Quality    float64
	Proximity  float64
	DistanceKm float64

	Reason string // Reason 结构的 JSON
}

// RunSummary 是一次跑批的汇总记录，随输出表一起落盘。
type RunSummary struct {
	Venues           int  `json:"n_venues"`
	Tags             int  `json:"n_tags"`
	EvidenceRows     int  `json:"n_venue_tags"`
	Users            int  `json:"n_users"`
	Recommendations  int  `json:"n_recommendations"`
	SyntheticActions bool `json:"synthetic_user_actions"`
}
