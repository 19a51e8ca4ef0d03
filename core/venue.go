package core

// PriceBucket 是价格档位（由 price_level 归一化得到）。
type PriceBucket string

const (
	PriceValue   PriceBucket = "value"   // price_level <= 1
	PriceMid     PriceBucket = "mid"     // price_level == 2
	PricePremium PriceBucket = "premium" // price_level >= 3
	PriceUnknown PriceBucket = "unknown" // price_level 缺失
)

// HiddenGemSource 标记宝藏分数来自哪条路径（模型 or 热度残差兜底）。
// 作为显式字段暴露，便于观测"是否发生了降级"。
type HiddenGemSource string

const (
	GemSourceRatingModel        HiddenGemSource = "rating_model"
	GemSourcePopularityResidual HiddenGemSource = "popularity_residual"
)

// Venue 是一条可被推荐的实体门店记录。
//
// 字段分三层：
//   - 原始字段：从数据源加载，缺失用指针 nil 表达（rating/price_level/经纬度）
//   - 归一化字段：加载时派生（price_bucket、schedule flags、cuisine_primary）
//   - 派生分数：每次跑批全量重算，不存在"部分过期"的状态
type Venue struct {
	ID         int64  // 本次运行内唯一且不变
	ExternalID string // 外部 place key，用于与评论/行为日志 join
	Name       string
	Address    string

	Lat *float64
	Lon *float64

	Rating      *float64 // 0-5，缺失为 nil
	ReviewCount int      // >= 0
	PriceLevel  *int     // 0-4，缺失为 nil

	CuisinePrimary string   // 小写；缺失为 "unknown"
	TypeCodes      []string // 外部 place type 代码
	GridCell       string   // 空间网格（可为空）
	BusinessStatus string   // 小写；缺失为 "unknown"

	PriceBucket PriceBucket

	// 营业时间派生标记；解析失败时全为 false
	OpenLate   bool
	OpenEarly  bool
	SundayOpen bool

	// 派生分数，除注明外均在 [0,1]
	LogReviews         float64
	PopularityScore    float64
	ExpectedPopularity float64 // 同 cuisine×price_bucket 组的 log_reviews 均值
	PopularityResidual float64 // log_reviews - expected，可为负
	QualityScore       float64

	HiddenGemScore float64
	GemSource      HiddenGemSource
	ExpectedRating *float64 // 模型路径下的预期评分；兜底路径为 nil
	HypeResidual   *float64 // rating - expected_rating；兜底路径为 nil
}

// HasCoordinates 判断门店是否有可用坐标（地理召回时无坐标视为无限远）。
func (v *Venue) HasCoordinates() bool {
	return v.Lat != nil && v.Lon != nil
}

// Review 是一条评论文本，仅被打标器消费，不进入任何输出表。
type Review struct {
	VenueID    int64
	Language   string
	AuthorName string
	Text       string
}
