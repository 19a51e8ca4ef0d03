package core

import "github.com/rushteam/venuekit/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选门店 + 分量得分 + 解释信息。
// Components 存各分量（taste/trend/hidden_gem/quality/proximity），Score 用于排序决策。
type Item struct {
	VenueID    int64
	Score      float64
	Components map[string]float64
	Meta       map[string]any
	Labels     map[string]utils.Label
}

func NewItem(venueID int64) *Item {
	return &Item{
		VenueID:    venueID,
		Score:      0,
		Components: make(map[string]float64),
		Meta:       make(map[string]any),
		Labels:     make(map[string]utils.Label),
	}
}

// PutComponent 写入分量得分。
func (it *Item) PutComponent(key string, val float64) {
	if it.Components == nil {
		it.Components = make(map[string]float64)
	}
	it.Components[key] = val
}

// Component 读取分量得分，缺失返回 0。
func (it *Item) Component(key string) float64 {
	if it.Components == nil {
		return 0
	}
	return it.Components[key]
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
