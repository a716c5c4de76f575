//go:build windows

package fsx

import (
	"fmt"
	"io/fs"
	"syscall"
	"time"
)

func BirthTime(path string, fi fs.FileInfo) (time.Time, error) {
	if fi == nil {
		return time.Time{}, fmt.Errorf("%q: %w", path, fs.ErrNotExist)
	}
	d, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok || d == nil {
		return time.Time{}, fmt.Errorf("%q: %w", path, ErrBirthTimeUnavailable)
	}
	return time.Unix(0, d.CreationTime.Nanoseconds()), nil
}
