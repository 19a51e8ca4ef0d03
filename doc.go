// Package venuekit 是一个门店推荐工具包：从原始门店/评论/行为日志出发，
// 产出标签证据、用户口味画像与排好序的推荐表。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - Snapshot-first: 一次运行的全量数据构成只读快照，打分阶段按用户安全并行
// - 确定性: 同一输入同一时钟，两次运行产出完全一致
package venuekit

import "github.com/rushteam/venuekit/pipeline"

// 轻量 facade：便于用户直接 import "venuekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
