package profile

import (
	"math/rand"
	"sort"
	"time"

	"github.com/rushteam/venuekit/core"
)

// Persona 是演示用的合成用户画像：一个用户 id 加一组偏好标签。
type Persona struct {
	UserID string
	Tags   []string
}

// SyntheticPersonas 是缺少真实行为日志时的默认演示画像。
func SyntheticPersonas() []Persona {
	return []Persona{
		{UserID: "demo_date_night", Tags: []string{"date_night", "italian", "wine_bar"}},
		{UserID: "demo_vegan", Tags: []string{"vegan_vegetarian", "vegan_friendly", "cafe"}},
		{UserID: "demo_group_hang", Tags: []string{"group_hang", "mexican", "cocktails"}},
	}
}

const (
	syntheticSeed      = 42
	venuesPerPersona   = 12
	syntheticAgeDaysUB = 90
)

// Synthesize 为每个画像生成合成行为日志。
//
// 每个画像取证据里命中其偏好标签的门店（按门店 id 升序取前 12 个），
// 对每个门店随机生成一条动作：save/like/detail_view 按 0.4/0.4/0.2 抽样，
// 时间戳在过去 0-89 天内均匀抽样。随机源固定种子，整体可复现。
func Synthesize(venues []*core.Venue, evidence []core.TagEvidence, personas []Persona, now time.Time) []core.UserAction {
	if len(personas) == 0 {
		personas = SyntheticPersonas()
	}
	externalByVenue := make(map[int64]string, len(venues))
	for _, v := range venues {
		externalByVenue[v.ID] = v.ExternalID
	}
	tagVenues := make(map[string]map[int64]bool)
	for _, ev := range evidence {
		set, ok := tagVenues[ev.TagText]
		if !ok {
			set = make(map[int64]bool)
			tagVenues[ev.TagText] = set
		}
		set[ev.VenueID] = true
	}

	rng := rand.New(rand.NewSource(syntheticSeed))
	var out []core.UserAction
	for _, p := range personas {
		matched := make(map[int64]bool)
		for _, tag := range p.Tags {
			for venueID := range tagVenues[tag] {
				matched[venueID] = true
			}
		}
		if len(matched) == 0 {
			continue
		}
		venueIDs := make([]int64, 0, len(matched))
		for id := range matched {
			venueIDs = append(venueIDs, id)
		}
		sort.Slice(venueIDs, func(i, j int) bool { return venueIDs[i] < venueIDs[j] })
		if len(venueIDs) > venuesPerPersona {
			venueIDs = venueIDs[:venuesPerPersona]
		}

		for _, venueID := range venueIDs {
			externalID := externalByVenue[venueID]
			if externalID == "" {
				continue
			}
			var action core.ActionType
			switch r := rng.Float64(); {
			case r < 0.4:
				action = core.ActionSave
			case r < 0.8:
				action = core.ActionLike
			default:
				action = core.ActionDetailView
			}
			daysAgo := rng.Intn(syntheticAgeDaysUB)
			out = append(out, core.UserAction{
				UserID:     p.UserID,
				ExternalID: externalID,
				Action:     action,
				CreatedAt:  now.Add(-time.Duration(daysAgo) * 24 * time.Hour),
			})
		}
	}
	return out
}

// EnsureActions 在真实日志为空且允许合成时回填演示画像的行为。
// 返回值第二项标记本次是否使用了合成数据。
func EnsureActions(
	actions []core.UserAction,
	venues []*core.Venue,
	evidence []core.TagEvidence,
	allowSynthetic bool,
	now time.Time,
) ([]core.UserAction, bool) {
	if len(actions) > 0 || !allowSynthetic {
		return actions, false
	}
	return Synthesize(venues, evidence, nil, now), true
}
