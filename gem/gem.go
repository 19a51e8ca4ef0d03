// Package gem 实现宝藏小店 (hidden gem) 打分：
// 用 GBRT 学习「这类门店通常会有什么评分」，再把实际评分减去期望得到热度残差，
// 正残差经证据加权与归一化后成为 hidden_gem_score。
// 模型不可用时退化为热度残差兜底，来源字段显式区分两条路径。
package gem

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/model"
)

// 模型特征里参与 one-hot 的重点门店类型
var importantTypes = []string{
	"restaurant",
	"cafe",
	"bar",
	"meal_takeaway",
	"meal_delivery",
	"bakery",
	"night_club",
	"store",
}

const (
	// 有评分的行数低于该值时不训练，直接走兜底
	minModelRows = 50
	// DefaultMinReviews 是评论数证据门槛：低于它的残差信号直接置 0
	DefaultMinReviews = 40
)

// Config 是宝藏分计算的参数。
type Config struct {
	MinReviews int
	Logger     *zap.Logger
}

func DefaultConfig() Config {
	return Config{MinReviews: DefaultMinReviews, Logger: zap.NewNop()}
}

// Score 就地为全量门店写入 HiddenGemScore / GemSource / ExpectedRating / HypeResidual。
// 每次运行全量重算。
func Score(venues []*core.Venue, cfg Config) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MinReviews <= 0 {
		cfg.MinReviews = DefaultMinReviews
	}

	rated := ratedRows(venues)
	signal, ok := fitAndSignal(venues, rated, cfg)
	if !ok {
		fallbackScores(venues)
		return
	}

	maxSignal := 0.0
	for _, s := range signal {
		if s > maxSignal {
			maxSignal = s
		}
	}
	// 模型拟合成功但全体信号非正：证据不足，仍走兜底
	if maxSignal <= 0 {
		fallbackScores(venues)
		return
	}
	for i, s := range minMaxScale(signal) {
		venues[i].HiddenGemScore = s
		venues[i].GemSource = core.GemSourceRatingModel
	}
}

// ratedRows 返回 rating 非空的下标集合，即模型训练帧。
func ratedRows(venues []*core.Venue) []int {
	var idx []int
	for i, v := range venues {
		if v.Rating != nil {
			idx = append(idx, i)
		}
	}
	return idx
}

// fitAndSignal 训练期望评分模型并返回逐门店的原始宝藏信号。
// 返回 false 表示需要走热度残差兜底。
func fitAndSignal(venues []*core.Venue, rated []int, cfg Config) ([]float64, bool) {
	if len(rated) < minModelRows {
		return nil, false
	}

	x, err := buildFeatures(venues, rated)
	if err != nil {
		cfg.Logger.Warn("hidden gem feature frame failed", zap.Error(err))
		return nil, false
	}
	y := make([]float64, len(rated))
	for j, i := range rated {
		y[j] = ratingLogit(*venues[i].Rating)
	}

	gbrt := model.NewGBRT()
	if err := gbrt.Fit(x, y); err != nil {
		cfg.Logger.Warn("hidden gem model failed to fit", zap.Error(err))
		return nil, false
	}

	// 证据权重只在训练帧内做 min-max
	logCounts := make([]float64, len(rated))
	for j, i := range rated {
		logCounts[j] = math.Log1p(float64(venues[i].ReviewCount))
	}
	reviewWeight := minMaxScale(logCounts)

	signal := make([]float64, len(venues))
	for j, i := range rated {
		v := venues[i]
		expected := inverseRatingLogit(gbrt.Predict(x[j]))
		residual := *v.Rating - expected
		v.ExpectedRating = &expected
		r := residual
		v.HypeResidual = &r

		s := math.Max(0, residual) * (0.35 + 0.65*reviewWeight[j])
		if v.ReviewCount < cfg.MinReviews {
			s = 0
		}
		signal[i] = s
	}
	return signal, true
}

// fallbackScores 是热度残差兜底：只有负残差（比同组冷清）才算宝藏信号。
func fallbackScores(venues []*core.Venue) {
	raw := make([]float64, len(venues))
	for i, v := range venues {
		raw[i] = math.Abs(math.Min(0, v.PopularityResidual))
	}
	for i, s := range minMaxScale(raw) {
		venues[i].HiddenGemScore = s
		venues[i].GemSource = core.GemSourcePopularityResidual
	}
}

// ratingLogit 把 [1,5] 评分压到 (1.01,4.99) 后做 logit，作为回归目标。
func ratingLogit(rating float64) float64 {
	clamped := math.Min(4.99, math.Max(1.01, rating))
	norm := (clamped - 1) / 4
	return model.Logit(norm)
}

func inverseRatingLogit(z float64) float64 {
	return model.Sigmoid(z)*4 + 1
}

// buildFeatures 构造训练帧的稠密特征矩阵：
// 数值列（log_reviews、价格档中位数填充、重点类型 one-hot）
// + 类别列 one-hot（cuisine / grid / business_status，词表取自训练帧并排序）。
func buildFeatures(venues []*core.Venue, rated []int) ([][]float64, error) {
	if len(rated) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "gem: no rated venues")
	}

	priceMedian := medianPrice(venues, rated)

	cuisineVocab := vocab(venues, rated, func(v *core.Venue) string { return orUnknown(v.CuisinePrimary) })
	gridVocab := vocab(venues, rated, func(v *core.Venue) string { return orUnknown(v.GridCell) })
	statusVocab := vocab(venues, rated, func(v *core.Venue) string { return orUnknown(v.BusinessStatus) })

	x := make([][]float64, len(rated))
	for j, i := range rated {
		v := venues[i]
		row := make([]float64, 0, 2+len(importantTypes)+len(cuisineVocab)+len(gridVocab)+len(statusVocab))
		row = append(row, math.Log1p(float64(v.ReviewCount)))
		if v.PriceLevel != nil {
			row = append(row, float64(*v.PriceLevel))
		} else {
			row = append(row, priceMedian)
		}
		typeSet := make(map[string]bool, len(v.TypeCodes))
		for _, t := range v.TypeCodes {
			typeSet[t] = true
		}
		for _, t := range importantTypes {
			if typeSet[t] {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
		row = appendOneHot(row, cuisineVocab, orUnknown(v.CuisinePrimary))
		row = appendOneHot(row, gridVocab, orUnknown(v.GridCell))
		row = appendOneHot(row, statusVocab, orUnknown(v.BusinessStatus))
		x[j] = row
	}
	return x, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func vocab(venues []*core.Venue, rated []int, key func(*core.Venue) string) []string {
	set := make(map[string]bool)
	for _, i := range rated {
		set[key(venues[i])] = true
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func appendOneHot(row []float64, vocab []string, value string) []float64 {
	for _, v := range vocab {
		if v == value {
			row = append(row, 1)
		} else {
			row = append(row, 0)
		}
	}
	return row
}

func medianPrice(venues []*core.Venue, rated []int) float64 {
	var levels []float64
	for _, i := range rated {
		if venues[i].PriceLevel != nil {
			levels = append(levels, float64(*venues[i].PriceLevel))
		}
	}
	if len(levels) == 0 {
		return 0
	}
	sort.Float64s(levels)
	mid := len(levels) / 2
	if len(levels)%2 == 1 {
		return levels[mid]
	}
	return (levels[mid-1] + levels[mid]) / 2
}

// minMaxScale 把 values 缩放到 [0,1]；极差退化时全部置 0。
func minMaxScale(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
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
	if math.Abs(vMax-vMin) < 1e-12 {
		return out
	}
	for i, v := range values {
		out[i] = (v - vMin) / (vMax - vMin)
	}
	return out
}
