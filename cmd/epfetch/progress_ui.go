package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/epfetch/internal/app/run"
	"github.com/John-Robertt/epfetch/internal/config"
	"github.com/John-Robertt/epfetch/internal/domain"
	"github.com/John-Robertt/epfetch/internal/provider"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的阶段输出。
//
// 所有过程信息写到 stderr，不污染 stdout 的 JSON 输出契约；run 层只发事件，CLI 决定如何展示。
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
	dir       string
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.startedAt = now
	p.dir = eff.Directory

	mode := "download"
	if eff.DryRun {
		mode = "dry-run"
	}
	baseURL := eff.BaseURL
	if baseURL == "" {
		baseURL = provider.DefaultBaseURL
	}

	fmt.Fprintf(p.w, "[%s] epfetch (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  directory: %s\n", eff.Directory)
	fmt.Fprintf(p.w, "  base_url: %s\n", truncate(baseURL, 120))
	if !eff.DryRun {
		fmt.Fprintf(p.w, "  downloader: %s\n", truncate(eff.Downloader, 120))
	}
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnStageDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ec := stringField(fields, "error_code"); ec != "" {
		fmt.Fprintf(p.w, "%s FAIL %s: %s (%s)\n", name, ec, truncate(stringField(fields, "error_msg"), 160), formatShortDuration(dur))
		return
	}

	switch name {
	case domain.StageResolve:
		fmt.Fprintf(p.w, "剧集: show=%d episode=%d mode=%s (%s)\n",
			intField(fields, "show"), intField(fields, "episode"), stringField(fields, "mode"), formatShortDuration(dur),
		)
		if p.dir != "" {
			fmt.Fprintf(p.w, "准备下载 show %d 第 %d 集到 %s\n", intField(fields, "show"), intField(fields, "episode"), p.dir)
		}
	case domain.StageLocate:
		fmt.Fprintf(p.w, "定位: %s ext=%s (%s)\n",
			truncate(stringField(fields, "stream_url"), 160), stringField(fields, "extension"), formatShortDuration(dur),
		)
	case domain.StageDownload:
		fmt.Fprintf(p.w, "下载: %s exit=%d (%s)\n",
			stringField(fields, "output"), intField(fields, "exit_code"), formatShortDuration(dur),
		)
	default:
		// 兜底：未知阶段也不要静默。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
