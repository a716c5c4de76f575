package scan

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// stubBirth 按文件名返回预设的创建时间；未登记的文件视为读取失败。
func stubBirth(times map[string]time.Time) func(string, fs.FileInfo) (time.Time, error) {
	return func(path string, _ fs.FileInfo) (time.Time, error) {
		bt, ok := times[filepath.Base(path)]
		if !ok {
			return time.Time{}, errors.New("no btime")
		}
		return bt, nil
	}
}

func TestScanFiles_RegularFilesOnlyNonRecursive(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/dl/0001-0002.mp4")
	touch(t, fsys, "/dl/notes.txt")
	touch(t, fsys, "/dl/sub/0009-0009.mp4")

	got, err := ScanFiles(fsys, "/dl", stubBirth(map[string]time.Time{
		"0001-0002.mp4": t0,
		"notes.txt":     t0.Add(time.Second),
	}))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个文件（子目录不递归），实际 %d：%+v", len(got), got)
	}
	if got[0].Name != "0001-0002.mp4" || got[0].Stem != "0001-0002" {
		t.Fatalf("条目[0] 不符合预期：%+v", got[0])
	}
	if got[1].Stem != "notes" {
		t.Fatalf("条目[1] 不符合预期：%+v", got[1])
	}
}

func TestScanFiles_BirthTimeFailureIsError(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/dl/a.mp4")

	_, err := ScanFiles(fsys, "/dl", stubBirth(nil))
	if err == nil {
		t.Fatalf("期望创建时间读取失败时报错，但得到 nil")
	}
}

func TestScanFiles_MissingDir(t *testing.T) {
	_, err := ScanFiles(afero.NewMemMapFs(), "/nope", stubBirth(nil))
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestLatest_TieKeepsFirst(t *testing.T) {
	fsys := afero.NewMemMapFs()
	touch(t, fsys, "/dl/0001-0001.mp4")
	touch(t, fsys, "/dl/0001-0002.mp4")
	touch(t, fsys, "/dl/0001-0003.mp4")

	entries, err := ScanFiles(fsys, "/dl", stubBirth(map[string]time.Time{
		"0001-0001.mp4": t0,
		"0001-0002.mp4": t0.Add(time.Hour),
		"0001-0003.mp4": t0.Add(time.Hour),
	}))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	e, ok := Latest(entries)
	if !ok {
		t.Fatalf("期望 ok=true")
	}
	if e.Name != "0001-0002.mp4" {
		t.Fatalf("期望并列时取先出现的 0001-0002.mp4，实际 %q", e.Name)
	}
}

func TestLatest_Empty(t *testing.T) {
	if _, ok := Latest(nil); ok {
		t.Fatalf("空列表应返回 ok=false")
	}
}

func touch(t *testing.T, fsys afero.Fs, path string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := afero.WriteFile(fsys, path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
