package model

import (
	"math"
	"sort"

	"github.com/rushteam/venuekit/core"
)

// GBRT 实现梯度提升回归树 (Gradient Boosted Regression Trees)。
//
// 训练原理：
// 1. 基准值取目标均值: F_0 = mean(y)
// 2. 每轮对当前残差 r = y - F 拟合一棵 CART 回归树
// 3. 按学习率累加: F <- F + lr * tree(x)
//
// 全流程确定性：特征按下标顺序枚举、阈值取相邻样本中点、
// 只有严格更优的切分才会替换当前最优。
type GBRT struct {
	Trees        int     // 提升轮数
	LearningRate float64 // 学习率 (shrinkage)
	MaxDepth     int     // 单棵树最大深度
	MinLeaf      int     // 叶子最少样本数

	base  float64
	trees []*treeNode
}

// NewGBRT 返回带默认超参的模型：300 轮、lr 0.05、深度 6。
func NewGBRT() *GBRT {
	return &GBRT{
		Trees:        300,
		LearningRate: 0.05,
		MaxDepth:     6,
		MinLeaf:      1,
	}
}

func (m *GBRT) Name() string { return "gbrt" }

// treeNode 同时承载内部节点与叶子：feature < 0 时为叶子。
type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(row []float64) float64 {
	for n.feature >= 0 {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// Fit 在 (x, y) 上训练。样本为空或特征为空时返回 INVALID_INPUT。
func (m *GBRT) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "gbrt: empty or mismatched training set")
	}
	if len(x[0]) == 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "gbrt: no features")
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	m.base = sum / float64(len(y))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.base
	}
	residual := make([]float64, len(y))
	idx := make([]int, len(y))

	m.trees = m.trees[:0]
	for t := 0; t < m.Trees; t++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
			idx[i] = i
		}
		root := m.buildTree(x, residual, idx, 0)
		m.trees = append(m.trees, root)
		for i := range pred {
			pred[i] += m.LearningRate * root.predict(x[i])
		}
	}
	return nil
}

// Predict 输出反变换前的原始回归分。未训练时退化为 0。
func (m *GBRT) Predict(row []float64) float64 {
	score := m.base
	for _, tree := range m.trees {
		score += m.LearningRate * tree.predict(row)
	}
	return score
}

func mean(y []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func (m *GBRT) buildTree(x [][]float64, y []float64, idx []int, depth int) *treeNode {
	leaf := &treeNode{feature: -1, value: mean(y, idx)}
	if depth >= m.MaxDepth || len(idx) < 2*m.MinLeaf || len(idx) < 2 {
		return leaf
	}

	feature, threshold, ok := m.bestSplit(x, y, idx)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < m.MinLeaf || len(right) < m.MinLeaf {
		return leaf
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      m.buildTree(x, y, left, depth+1),
		right:     m.buildTree(x, y, right, depth+1),
	}
}

// bestSplit 对每个特征做排序扫描，用前缀和求使 SSE 最小的切分点。
func (m *GBRT) bestSplit(x [][]float64, y []float64, idx []int) (int, float64, bool) {
	n := len(idx)
	var total, totalSq float64
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	baseSSE := totalSq - total*total/float64(n)

	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, n)
	for f := 0; f < len(x[idx[0]]); f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			if x[order[a]][f] != x[order[b]][f] {
				return x[order[a]][f] < x[order[b]][f]
			}
			return order[a] < order[b]
		})

		var leftSum, leftSq float64
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			cur, next := x[i][f], x[order[pos+1]][f]
			if cur == next {
				continue
			}
			nl := float64(pos + 1)
			nr := float64(n - pos - 1)
			if pos+1 < m.MinLeaf || n-pos-1 < m.MinLeaf {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			gain := baseSSE - sse
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// Sigmoid 与 Logit 互为反函数，供调用方在 (0,1) 区间目标上做变换。
func Sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func Logit(p float64) float64 { return math.Log(p / (1 - p)) }
