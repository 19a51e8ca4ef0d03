// Package dsl 基于 CEL (Common Expression Language) 实现候选过滤规则的解释执行。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/venuekit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 对单个候选 Item 执行 CEL 表达式，返回布尔结果。
//
// 表达式语法（CEL 标准语法）：
//   - label.recall_source == "trending"
//   - item.score > 0.7
//   - item.components.quality < 0.2 && label.cuisine == "unknown"
//   - label.cuisine != null（存在性检查）
//
// 典型用途是配置驱动的候选排除规则（filter.RuleFilter）。
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{item: item, rctx: rctx, env: env}
}

// Evaluate 编译并执行表达式。空表达式恒为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("cel env not initialized")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		// 不存在的 key 在 CEL 里是错误；规则应使用 label.key != null 检查存在性
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
func (e *Eval) buildInput() map[string]any {
	labels := make(map[string]any, len(e.item.Labels))
	labelAccessor := make(map[string]any, len(e.item.Labels))
	for k, v := range e.item.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
		// label.recall_source 直接取 value，简化常见写法
		labelAccessor[k] = v.Value
	}

	item := map[string]any{
		"venue_id":   e.item.VenueID,
		"score":      e.item.Score,
		"components": e.item.Components,
		"meta":       e.item.Meta,
		"labels":     labels,
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		rctx["user_id"] = e.rctx.UserID
		rctx["action_count"] = e.rctx.ActionCount
		rctx["params"] = e.rctx.Params
	}

	return map[string]any{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rctx,
	}
}
