// Package log 是 logrus 的薄封装：统一输出位置、格式与级别，业务代码只用这里的函数打日志。
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	logrus "github.com/sirupsen/logrus"
)

// Fields 与 logrus.Fields 相同，避免调用方直接依赖 logrus。
type Fields = logrus.Fields

var std = newLogger(os.Stderr)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Setup 配置日志级别、格式与输出；w 为 nil 时输出到 stderr。
// level 为空时使用 info；无法识别的级别返回错误（不静默降级）。
func Setup(level string, json bool, w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}
	lvl := logrus.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := logrus.ParseLevel(s)
		if err != nil {
			return fmt.Errorf("日志级别无效 %q：%w", level, err)
		}
		lvl = parsed
	}

	std.SetOutput(w)
	if json {
		std.SetFormatter(&logrus.JSONFormatter{})
	} else {
		std.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	std.SetLevel(lvl)
	return nil
}

// Discard 关闭所有日志输出（测试用）。
func Discard() {
	std.SetOutput(io.Discard)
}

// Stage 返回带 stage 字段的 entry，用于阶段内的日志。
func Stage(name string) *logrus.Entry {
	return std.WithField("stage", name)
}
