package core

import "time"

// ActionType 是行为日志中的动作类型。
type ActionType string

const (
	ActionSave       ActionType = "save"
	ActionLike       ActionType = "like"
	ActionShare      ActionType = "share"
	ActionDetailView ActionType = "detail_view"
	ActionImpression ActionType = "impression"
	ActionDismiss    ActionType = "dismiss"
)

// UserAction 是行为日志里的一条原始事件。
// ExternalID 指向门店外部 key；无法 join 到门店的行会被静默丢弃。
type UserAction struct {
	UserID     string
	ExternalID string
	Action     ActionType
	CreatedAt  time.Time
}

// HistorySummary 记录用户的有效行为条数，仅用于冷启动自适应调权。
type HistorySummary struct {
	UserID      string
	ActionCount int
}
