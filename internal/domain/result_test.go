package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestResult_Finalize_UTC(t *testing.T) {
	r := Result{
		Directory:  "/abs/path",
		DryRun:     true,
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Status:     StatusLocated,
	}

	r.Finalize()

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
	// 未解析出 episode 时输出 null，而不是零值对象。
	if !bytes.Contains(b, []byte("\"episode\":null")) {
		t.Fatalf("episode 应为 null：%s", string(b))
	}
}

func TestResult_Fail_UsesErrorCode(t *testing.T) {
	var r Result
	r.Fail(&Error{Code: ErrCodeNotFound, Stage: StageLocate, Input: "1-2", Err: errors.New("no playbox")}, ErrCodeIOFailed)

	if r.Status != StatusFailed || r.ErrorCode != ErrCodeNotFound {
		t.Fatalf("结果不符合预期：%+v", r)
	}
	if r.OK() {
		t.Fatalf("失败结果不应 OK()")
	}
}

func TestResult_Fail_FallbackCode(t *testing.T) {
	var r Result
	r.Fail(errors.New("boom"), ErrCodeDownloadFailed)

	if r.ErrorCode != ErrCodeDownloadFailed {
		t.Fatalf("期望 fallback code=%q，实际=%q", ErrCodeDownloadFailed, r.ErrorCode)
	}
	if r.ErrorMsg != "boom" {
		t.Fatalf("期望 error_msg=boom，实际=%q", r.ErrorMsg)
	}
}

func TestError_CodeAndStageThroughWrap(t *testing.T) {
	base := errors.New("no VID")
	err := &Error{Code: ErrCodeNotFound, Stage: StageLocate, Input: "http://h/v/1-2.html", Err: base}
	wrapped := errors.Join(errors.New("ctx"), err)

	if Code(wrapped) != ErrCodeNotFound {
		t.Fatalf("期望 code=%q，实际=%q", ErrCodeNotFound, Code(wrapped))
	}
	if Stage(wrapped) != StageLocate {
		t.Fatalf("期望 stage=%q，实际=%q", StageLocate, Stage(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("期望 errors.Is 能穿透到底层错误")
	}
	if Code(base) != "" {
		t.Fatalf("非 *Error 应返回空 code")
	}
}
