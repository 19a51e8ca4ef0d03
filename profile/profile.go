// Package profile 从行为日志构建用户口味画像：
// 行为加权 + 时间衰减，经门店标签证据传导为 (user, tag) 亲和度，
// 按用户归一到 0-100 并截断为每人前 25 条。
package profile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/venuekit/core"
)

// 每个用户最多保留的口味标签数
const topTagsPerUser = 25

// DefaultHalflifeDays 是行为时间衰减的半衰期（天）。
const DefaultHalflifeDays = 30.0

// DefaultActionWeights 返回各动作的基础权重。
// dismiss 为负：用户明确表示不感兴趣会压低相关标签。
func DefaultActionWeights() map[core.ActionType]float64 {
	return map[core.ActionType]float64{
		core.ActionSave:       3.0,
		core.ActionLike:       2.0,
		core.ActionShare:      2.5,
		core.ActionDetailView: 0.5,
		core.ActionImpression: 0.1,
		core.ActionDismiss:    -1.5,
	}
}

// Config 是画像构建的参数。Now 显式传入，同一输入同一 Now 必产出同一画像。
type Config struct {
	ActionWeights map[core.ActionType]float64
	HalflifeDays  float64
	Now           time.Time
}

func DefaultConfig(now time.Time) Config {
	return Config{
		ActionWeights: DefaultActionWeights(),
		HalflifeDays:  DefaultHalflifeDays,
		Now:           now,
	}
}

type weightedAction struct {
	userID  string
	venueID int64
	weight  float64
}

// weigh 解析、加权并衰减行为日志。
// 规则：
//   - ExternalID 解析不到门店的行丢弃
//   - 动作小写匹配权重表，未知动作权重 0
//   - 权重乘 exp(-age_days / halflife)，age 为负（未来时间戳）按 0 处理
//   - 加权后权重为 0 的行丢弃（负权重保留）
func weigh(actions []core.UserAction, venueByExternal map[string]int64, cfg Config) []weightedAction {
	out := make([]weightedAction, 0, len(actions))
	for _, a := range actions {
		venueID, ok := venueByExternal[a.ExternalID]
		if !ok {
			continue
		}
		w := cfg.ActionWeights[core.ActionType(strings.ToLower(string(a.Action)))]
		if !a.CreatedAt.IsZero() && cfg.HalflifeDays > 0 {
			ageDays := cfg.Now.Sub(a.CreatedAt).Hours() / 24
			if ageDays < 0 {
				ageDays = 0
			}
			w *= math.Exp(-ageDays / cfg.HalflifeDays)
		}
		if w == 0 {
			continue
		}
		out = append(out, weightedAction{userID: a.UserID, venueID: venueID, weight: w})
	}
	return out
}

// BuildAffinities 产出用户口味表与历史摘要。
//
// 亲和度原始分 = Σ 行为权重 × (标签置信度 / 100)，按 (user, tag) 累加；
// 每个用户按自身最大值归一到 0-100（最大值非正时全部置 0），
// 降序截断为前 25 条。历史摘要只统计有效（加权后非零）的行为条数。
func BuildAffinities(
	actions []core.UserAction,
	venues []*core.Venue,
	evidence []core.TagEvidence,
	cfg Config,
) ([]core.TagAffinity, []core.HistorySummary) {
	if len(actions) == 0 || len(evidence) == 0 {
		return nil, nil
	}

	venueByExternal := make(map[string]int64, len(venues))
	for _, v := range venues {
		if v.ExternalID != "" {
			venueByExternal[v.ExternalID] = v.ID
		}
	}
	weighted := weigh(actions, venueByExternal, cfg)
	if len(weighted) == 0 {
		return nil, nil
	}

	evidenceByVenue := make(map[int64][]core.TagEvidence)
	for _, ev := range evidence {
		evidenceByVenue[ev.VenueID] = append(evidenceByVenue[ev.VenueID], ev)
	}

	type tagKey struct {
		userID string
		tagID  int64
	}
	contrib := make(map[tagKey]float64)
	tagText := make(map[int64]string)
	actionCount := make(map[string]int)

	for _, wa := range weighted {
		actionCount[wa.userID]++
		for _, ev := range evidenceByVenue[wa.venueID] {
			contrib[tagKey{wa.userID, ev.TagID}] += wa.weight * (ev.Confidence / 100.0)
			tagText[ev.TagID] = ev.TagText
		}
	}

	// 按用户分组归一
	byUser := make(map[string][]core.TagAffinity)
	for k, raw := range contrib {
		byUser[k.userID] = append(byUser[k.userID], core.TagAffinity{
			UserID:   k.userID,
			TagID:    k.tagID,
			TagText:  tagText[k.tagID],
			Score:    raw, // 暂存原始分，下面归一
			Metadata: map[string]any{"raw_score": raw},
		})
	}

	userIDs := make([]string, 0, len(byUser))
	for u := range byUser {
		userIDs = append(userIDs, u)
	}
	sort.Strings(userIDs)

	var affinities []core.TagAffinity
	for _, u := range userIDs {
		rows := byUser[u]
		maxRaw := 0.0
		for _, r := range rows {
			if r.Score > maxRaw {
				maxRaw = r.Score
			}
		}
		for i := range rows {
			if maxRaw <= 0 {
				rows[i].Score = 0
			} else {
				rows[i].Score = rows[i].Score / maxRaw * 100
			}
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Score != rows[j].Score {
				return rows[i].Score > rows[j].Score
			}
			return rows[i].TagID < rows[j].TagID
		})
		if len(rows) > topTagsPerUser {
			rows = rows[:topTagsPerUser]
		}
		affinities = append(affinities, rows...)
	}

	history := make([]core.HistorySummary, 0, len(actionCount))
	for u, n := range actionCount {
		history = append(history, core.HistorySummary{UserID: u, ActionCount: n})
	}
	sort.Slice(history, func(i, j int) bool {
		if history[i].ActionCount != history[j].ActionCount {
			return history[i].ActionCount > history[j].ActionCount
		}
		return history[i].UserID < history[j].UserID
	})

	return affinities, history
}
