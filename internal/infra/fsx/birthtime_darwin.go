//go:build darwin

package fsx

import (
	"fmt"
	"io/fs"
	"syscall"
	"time"
)

// BirthTime 直接读取 lstat 结果里的 Birthtimespec（ReadDir 已经做过 stat，无需再次系统调用）。
func BirthTime(path string, fi fs.FileInfo) (time.Time, error) {
	if fi == nil {
		return time.Time{}, fmt.Errorf("%q: %w", path, fs.ErrNotExist)
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return time.Time{}, fmt.Errorf("%q: %w", path, ErrBirthTimeUnavailable)
	}
	return time.Unix(st.Birthtimespec.Unix()), nil
}
