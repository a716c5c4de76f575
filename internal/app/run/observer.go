package run

import (
	"time"

	"github.com/John-Robertt/epfetch/internal/config"
)

// Observer 用于把“阶段进度”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 失败的阶段同样会回调 OnStageDone，fields 中带 error_code。
type Observer interface {
	// OnStart 在 Execute 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnStageDone 在每个阶段结束时调用（用于打印阶段结果与耗时）。
	OnStageDone(name string, fields map[string]any, dur time.Duration)
}

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig)                     {}
func (nopObserver) OnStageDone(string, map[string]any, time.Duration) {}
