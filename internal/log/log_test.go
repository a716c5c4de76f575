package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetup_TextLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("warn", false, &buf); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	t.Cleanup(func() { _ = Setup("info", false, nil) })

	Stage("resolve").Info("不应输出")
	Stage("resolve").Warnf("共 %d 个文件", 3)

	out := buf.String()
	if strings.Contains(out, "不应输出") {
		t.Fatalf("info 级别在 warn 下不应输出：%q", out)
	}
	if !strings.Contains(out, "共 3 个文件") || !strings.Contains(out, "level=warning") || !strings.Contains(out, "stage=resolve") {
		t.Fatalf("输出不符合预期：%q", out)
	}
}

func TestSetup_JSONWithStage(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("debug", true, &buf); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	t.Cleanup(func() { _ = Setup("info", false, nil) })

	Stage("locate").WithField("page_url", "http://h/v/1-2.html").Debug("请求页面")

	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("输出不是 JSON：%v (%q)", err, buf.String())
	}
	if m["stage"] != "locate" || m["page_url"] != "http://h/v/1-2.html" || m["level"] != "debug" {
		t.Fatalf("字段不符合预期：%v", m)
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	if err := Setup("loud", false, nil); err == nil {
		t.Fatalf("期望无效级别返回错误")
	}
}
