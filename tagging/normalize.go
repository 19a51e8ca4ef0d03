// Package tagging 实现门店打标：结构化字段的确定性规则 + 评论文本的关键词挖掘，
// 以及打标前的门店归一化（价格档位、营业时间标记、热度/质量派生分）。
package tagging

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rushteam/venuekit/core"
)

// openPeriod 是结构化营业时间里的一段：{open:{day,time}, close:{day,time}}。
// day 0 为周日，time 为 "HHMM"。
type openPeriod struct {
	Open  periodPoint `json:"open"`
	Close periodPoint `json:"close"`
}

type periodPoint struct {
	Day  *int   `json:"day"`
	Time string `json:"time"`
}

// hhmmToMinutes 将 "HHMM" 转为当日分钟数，解析失败返回 (0, false)。
func hhmmToMinutes(v string) (int, bool) {
	if len(v) != 4 {
		return 0, false
	}
	h, err := strconv.Atoi(v[:2])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(v[2:])
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

// ScheduleFlags 从营业时间 JSON 推导三个日程标记。
// 载荷缺失或无法解析时全部为 false，从不报错。
//
// 规则：
//   - open_early: 任意一段在 08:00（含）之前开门
//   - open_late: 任意一段跨天关门，或关门时间不早于 23:00
//   - sunday_open: 任意一段的开/关落在周日（day == 0）
func ScheduleFlags(periodsRaw string) (openLate, openEarly, sundayOpen bool) {
	raw := strings.TrimSpace(periodsRaw)
	if raw == "" {
		return false, false, false
	}
	var periods []openPeriod
	if err := json.Unmarshal([]byte(raw), &periods); err != nil {
		return false, false, false
	}
	for _, p := range periods {
		if openTime, ok := hhmmToMinutes(p.Open.Time); ok && openTime <= 8*60 {
			openEarly = true
		}
		if closeTime, ok := hhmmToMinutes(p.Close.Time); ok {
			if p.Open.Day != nil && p.Close.Day != nil && *p.Open.Day != *p.Close.Day {
				openLate = true
			} else if closeTime >= 23*60 {
				openLate = true
			}
		}
		if (p.Open.Day != nil && *p.Open.Day == 0) || (p.Close.Day != nil && *p.Close.Day == 0) {
			sundayOpen = true
		}
	}
	return openLate, openEarly, sundayOpen
}

// PriceBucketFor 将 0-4 的 price_level 归一到四档。
func PriceBucketFor(priceLevel *int) core.PriceBucket {
	if priceLevel == nil {
		return core.PriceUnknown
	}
	switch {
	case *priceLevel <= 1:
		return core.PriceValue
	case *priceLevel == 2:
		return core.PriceMid
	default:
		return core.PricePremium
	}
}

// minMaxScale 就地把 values 缩放到 [0,1]；极差退化（min == max）时全部置 0。
func minMaxScale(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}
	vMin, vMax := values[0], values[0]
	for _, v := range values[1:] {
		if v < vMin {
			vMin = v
		}
		if v > vMax {
			vMax = v
		}
	}
	out := make([]float64, len(values))
	if math.Abs(vMax-vMin) < 1e-12 {
		return out
	}
	for i, v := range values {
		out[i] = (v - vMin) / (vMax - vMin)
	}
	return out
}

// DeriveStats 为整张门店表重算派生分数：
// log_reviews、popularity（min-max 后的 log_reviews）、同 cuisine×price_bucket
// 组的期望热度与残差、quality（min-max 后的 rating，缺失补全表均值）。
// 每次运行全量重算，不存在部分过期。
func DeriveStats(venues []*core.Venue) {
	if len(venues) == 0 {
		return
	}

	logReviews := make([]float64, len(venues))
	for i, v := range venues {
		logReviews[i] = math.Log1p(float64(v.ReviewCount))
		v.LogReviews = logReviews[i]
	}
	for i, p := range minMaxScale(logReviews) {
		venues[i].PopularityScore = p
	}

	// 组内期望热度：cuisine×price_bucket 的 log_reviews 均值；单元素组退化为自身
	type groupKey struct {
		cuisine string
		bucket  core.PriceBucket
	}
	sums := make(map[groupKey]float64)
	counts := make(map[groupKey]int)
	var globalSum float64
	for _, v := range venues {
		k := groupKey{v.CuisinePrimary, v.PriceBucket}
		sums[k] += v.LogReviews
		counts[k]++
		globalSum += v.LogReviews
	}
	globalMean := globalSum / float64(len(venues))
	for _, v := range venues {
		k := groupKey{v.CuisinePrimary, v.PriceBucket}
		if counts[k] > 0 {
			v.ExpectedPopularity = sums[k] / float64(counts[k])
		} else {
			v.ExpectedPopularity = globalMean
		}
		v.PopularityResidual = v.LogReviews - v.ExpectedPopularity
	}

	// quality: rating 缺失补均值后 min-max
	var ratingSum float64
	var rated int
	for _, v := range venues {
		if v.Rating != nil {
			ratingSum += *v.Rating
			rated++
		}
	}
	ratingMean := 0.0
	if rated > 0 {
		ratingMean = ratingSum / float64(rated)
	}
	ratings := make([]float64, len(venues))
	for i, v := range venues {
		if v.Rating != nil {
			ratings[i] = *v.Rating
		} else {
			ratings[i] = ratingMean
		}
	}
	for i, q := range minMaxScale(ratings) {
		venues[i].QualityScore = q
	}
}
