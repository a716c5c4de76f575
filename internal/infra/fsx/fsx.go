package fsx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// ErrBirthTimeUnavailable 表示平台/文件系统没有提供文件创建时间。
// 推断模式把它视为 IO 失败，不做静默跳过（否则“最新文件”的判断不可信）。
var ErrBirthTimeUnavailable = errors.New("文件系统未提供创建时间")

// BirthTimeFunc 读取 path 的创建时间；fi 是目录枚举得到的 FileInfo（可能带平台原始 stat）。
// 通过函数注入，让扫描逻辑可以在内存文件系统上测试。
type BirthTimeFunc func(path string, fi fs.FileInfo) (time.Time, error)

// PathTypeConflictError 表示目标路径类型冲突（例如期望目录但实际是文件）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// EnsureDir 保证 dir 存在且是目录；不存在则创建（含父目录）。
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
