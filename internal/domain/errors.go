package domain

import (
	"errors"
	"fmt"
)

const (
	ErrCodeIOFailed       = "io_failed"
	ErrCodeNotFound       = "not_found"
	ErrCodeFormatInvalid  = "format_invalid"
	ErrCodeFetchFailed    = "fetch_failed"
	ErrCodeParseFailed    = "parse_failed"
	ErrCodeDownloadFailed = "download_failed"
)

const (
	StageResolve  = "resolve"
	StageLocate   = "locate"
	StageDownload = "download"
)

// Error 是核心流程的结构化错误：哪个阶段、什么输入、哪类失败。
// 核心层不做面向用户的格式化，由上层根据 Code 决定如何呈现。
type Error struct {
	Code  string
	Stage string
	Input string
	Err   error
}

func (e *Error) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s (%s): %v", e.Stage, e.Code, e.Input, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Stage 从 error 中提取失败阶段；若不是 *Error 则返回空串。
func Stage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
