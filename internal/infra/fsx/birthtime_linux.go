//go:build linux

package fsx

import (
	"fmt"
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// BirthTime 通过 statx(STATX_BTIME) 读取创建时间。
// 内核或文件系统不支持 btime 时返回 ErrBirthTimeUnavailable。
func BirthTime(path string, _ fs.FileInfo) (time.Time, error) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, fmt.Errorf("statx %q: %w", path, err)
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, fmt.Errorf("%q: %w", path, ErrBirthTimeUnavailable)
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), nil
}
