package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/epfetch/internal/config"
	"github.com/John-Robertt/epfetch/internal/domain"
)

func TestProgressUI_Stages(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart(config.EffectiveConfig{Directory: "/videos", Downloader: "/usr/bin/dl", Concurrency: 16})
	p.OnStageDone(domain.StageResolve, map[string]any{"show": 100, "episode": 5, "mode": domain.ModeExplicit}, 10*time.Millisecond)
	p.OnStageDone(domain.StageLocate, map[string]any{"stream_url": "http://x/y.mp4", "extension": "mp4"}, 200*time.Millisecond)
	p.OnStageDone(domain.StageDownload, map[string]any{"error_code": domain.ErrCodeDownloadFailed, "error_msg": "退出码 3"}, time.Second)

	out := buf.String()
	for _, want := range []string{
		"directory: /videos",
		"proxy: off",
		"剧集: show=100 episode=5 mode=explicit",
		"准备下载 show 100 第 5 集到 /videos",
		"定位: http://x/y.mp4 ext=mp4 (0.2s)",
		"download FAIL download_failed: 退出码 3 (1.0s)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestFormatProxy(t *testing.T) {
	cases := map[string]string{
		"":                             "off",
		"http://127.0.0.1:7890":        "on (http://127.0.0.1:7890, auth=off)",
		"socks5://u:p@proxy.test:1080": "on (socks5://proxy.test:1080, auth=on)",
		"not a url":                    "on (not a url)",
	}
	for in, want := range cases {
		if got := formatProxy(in); got != want {
			t.Fatalf("formatProxy(%q) 期望 %q，实际 %q", in, want, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("期望 abc...，实际 %q", got)
	}
	if got := truncate(" ab ", 6); got != "ab" {
		t.Fatalf("期望 ab，实际 %q", got)
	}
}
