package core

// TagCategory 是标签大类：菜系 / 氛围 / 场合 / 日程等。
type TagCategory string

const (
	TagCuisine   TagCategory = "CUISINE"
	TagDietary   TagCategory = "DIETARY"
	TagVibe      TagCategory = "VIBE"
	TagOccasion  TagCategory = "OCCASION"
	TagDrinks    TagCategory = "DRINKS"
	TagSchedule  TagCategory = "SCHEDULE"
	TagValue     TagCategory = "VALUE"
	TagVenueKind TagCategory = "CATEGORY"
)

// TagDefinition 是静态标签目录里的一条定义。
// TagID 按目录枚举顺序分配（从 1 开始），同一目录内稳定；目录不会从数据中派生。
type TagDefinition struct {
	ID         int64
	Text       string // 唯一 key，例如 "italian" / "date_night"
	Category   TagCategory
	PromptText string
	Color      string
}

// EvidenceSource 标记标签证据来自结构化字段还是评论文本。
type EvidenceSource string

const (
	EvidenceStructured EvidenceSource = "structured-field"
	EvidenceReviews    EvidenceSource = "review-text"
)

// TagEvidence 是"某门店具备某标签"的一条打分断言。
// 同一 (venue, tag) 允许来自不同 source 的多条记录，不做去重，由下游自行聚合。
type TagEvidence struct {
	VenueID    int64
	TagID      int64
	TagText    string
	Confidence float64 // 0-100
	Source     EvidenceSource
	Metadata   map[string]any // 例如 {"mentions": 4, "unique_authors": 3}
}

// TagAffinity 是"某用户喜欢某标签"的一条打分断言，由加权行为历史推出。
// 每个用户最多保留 25 条，分数按该用户最大值归一到 0-100。
type TagAffinity struct {
	UserID   string
	TagID    int64
	TagText  string
	Score    float64 // 0-100
	Metadata map[string]any
}
