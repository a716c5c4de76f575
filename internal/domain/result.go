package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusDownloaded = "downloaded"
	StatusLocated    = "located" // dry-run：只解析出视频地址，不下载
	StatusFailed     = "failed"
)

const (
	ModeExplicit = "explicit"
	ModeInferred = "inferred"
)

// Result 是一次运行对外稳定输出（stdout JSON）的结构。
type Result struct {
	Directory string `json:"directory"`
	DryRun    bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Mode    string     `json:"mode"`
	Episode *EpisodeID `json:"episode"`

	PageURL   string `json:"page_url"`
	StreamURL string `json:"stream_url"`
	Extension string `json:"extension"`
	Output    string `json:"output"`
	ExitCode  int    `json:"exit_code"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Fail 把 err 记录为最终失败。error_code 优先取 *Error 中的值，取不到时用 fallbackCode。
func (r *Result) Fail(err error, fallbackCode string) {
	r.Status = StatusFailed
	r.ErrorCode = Code(err)
	if r.ErrorCode == "" {
		r.ErrorCode = fallbackCode
	}
	r.ErrorMsg = err.Error()
}

// Finalize 统一时间为 UTC（确保 JSON 为 RFC3339 且后缀 Z）。
func (r *Result) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
}

// OK 表示本次运行没有失败。
func (r Result) OK() bool { return r.Status != StatusFailed }

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
func (r Result) MarshalJSON() ([]byte, error) {
	type Alias Result
	return json.Marshal(Alias(r))
}
