package core

import "sort"

// Snapshot 是一次运行加载/派生出的全量只读数据集。
//
// 设计要点：
//   - 显式构造、按引用传入各 Node 与 handler，不存在包级全局缓存
//   - 构造完成后只读；打分阶段没有任何共享写，按用户并行是安全的
type Snapshot struct {
	Venues []*Venue

	Evidence   []TagEvidence
	Affinities []TagAffinity
	History    []HistorySummary
	Actions    []UserAction

	venueByID       map[int64]*Venue
	venueByExternal map[string]*Venue
	evidenceByVenue map[int64][]TagEvidence
	affinityByUser  map[string][]TagAffinity
	historyByUser   map[string]int
	seenByUser      map[string]map[int64]bool
}

// NewSnapshot 组装快照并建好全部索引。
func NewSnapshot(
	venues []*Venue,
	evidence []TagEvidence,
	affinities []TagAffinity,
	history []HistorySummary,
	actions []UserAction,
) *Snapshot {
	s := &Snapshot{
		Venues:     venues,
		Evidence:   evidence,
		Affinities: affinities,
		History:    history,
		Actions:    actions,

		venueByID:       make(map[int64]*Venue, len(venues)),
		venueByExternal: make(map[string]*Venue, len(venues)),
		evidenceByVenue: make(map[int64][]TagEvidence),
		affinityByUser:  make(map[string][]TagAffinity),
		historyByUser:   make(map[string]int, len(history)),
		seenByUser:      make(map[string]map[int64]bool),
	}
	for _, v := range venues {
		s.venueByID[v.ID] = v
		if v.ExternalID != "" {
			s.venueByExternal[v.ExternalID] = v
		}
	}
	for _, ev := range evidence {
		s.evidenceByVenue[ev.VenueID] = append(s.evidenceByVenue[ev.VenueID], ev)
	}
	for _, af := range affinities {
		s.affinityByUser[af.UserID] = append(s.affinityByUser[af.UserID], af)
	}
	for _, h := range history {
		s.historyByUser[h.UserID] = h.ActionCount
	}
	// 已交互门店：行为日志里所有能解析到门店的行，不看权重
	for _, a := range actions {
		v, ok := s.venueByExternal[a.ExternalID]
		if !ok {
			continue
		}
		set, ok := s.seenByUser[a.UserID]
		if !ok {
			set = make(map[int64]bool)
			s.seenByUser[a.UserID] = set
		}
		set[v.ID] = true
	}
	return s
}

// VenueByID 按内部 id 查门店。
func (s *Snapshot) VenueByID(id int64) (*Venue, bool) {
	v, ok := s.venueByID[id]
	return v, ok
}

// VenueByExternalID 按外部 place key 查门店。
func (s *Snapshot) VenueByExternalID(key string) (*Venue, bool) {
	v, ok := s.venueByExternal[key]
	return v, ok
}

// EvidenceForVenue 返回门店的全部标签证据。
func (s *Snapshot) EvidenceForVenue(venueID int64) []TagEvidence {
	return s.evidenceByVenue[venueID]
}

// AffinitiesForUser 返回用户的口味向量（已按分数降序）。
func (s *Snapshot) AffinitiesForUser(userID string) []TagAffinity {
	return s.affinityByUser[userID]
}

// AffinityMap 把用户口味向量转成 tag_id -> score 的 map，供 RecommendContext 使用。
func (s *Snapshot) AffinityMap(userID string) map[int64]float64 {
	rows := s.affinityByUser[userID]
	if len(rows) == 0 {
		return nil
	}
	out := make(map[int64]float64, len(rows))
	for _, af := range rows {
		out[af.TagID] = af.Score
	}
	return out
}

// ActionCount 返回用户的有效行为条数，没有历史返回 0。
func (s *Snapshot) ActionCount(userID string) int {
	return s.historyByUser[userID]
}

// Seen 判断用户是否与门店有过任意交互。
func (s *Snapshot) Seen(userID string, venueID int64) bool {
	set, ok := s.seenByUser[userID]
	return ok && set[venueID]
}

// UserIDs 返回所有已知用户（口味表 ∪ 历史表 ∪ 行为日志），排序保证遍历稳定。
func (s *Snapshot) UserIDs() []string {
	set := make(map[string]bool)
	for u := range s.affinityByUser {
		set[u] = true
	}
	for u := range s.historyByUser {
		set[u] = true
	}
	for _, a := range s.Actions {
		set[a.UserID] = true
	}
	out := make([]string, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// TasteScore 计算用户口味与门店标签证据的匹配分，并返回贡献最高的前 topTags 条解释。
//
// 公式：对用户口味表与门店证据共有的每个 tag，累加
// (affinity/100) × (confidence/100)。此处不封顶——强匹配可以超过 1，
// 是否截断由调用方决定（全局混排不截断，地理推荐截到 [0,1]）。
func (s *Snapshot) TasteScore(affinity map[int64]float64, venueID int64, topTags int) (float64, []TagContribution) {
	if len(affinity) == 0 {
		return 0, nil
	}
	evidence := s.evidenceByVenue[venueID]
	if len(evidence) == 0 {
		return 0, nil
	}

	var total float64
	contribs := make([]TagContribution, 0, 4)
	for _, ev := range evidence {
		score, ok := affinity[ev.TagID]
		if !ok {
			continue
		}
		c := (score / 100.0) * (ev.Confidence / 100.0)
		total += c
		contribs = append(contribs, TagContribution{Tag: ev.TagText, Score: c})
	}
	if total == 0 {
		return 0, nil
	}

	sort.SliceStable(contribs, func(i, j int) bool {
		return contribs[i].Score > contribs[j].Score
	})
	if topTags > 0 && len(contribs) > topTags {
		contribs = contribs[:topTags]
	}
	return total, contribs
}
