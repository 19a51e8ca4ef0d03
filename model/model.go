// Package model 提供本地纯 Go 的回归模型实现。
// 训练与预测都在进程内完成，无外部 serving 依赖。
package model

// Regressor 是批量训练回归器的最小抽象：拟合一个数值目标，再对单行特征打分。
type Regressor interface {
	Name() string
	Fit(x [][]float64, y []float64) error
	Predict(row []float64) float64
}
