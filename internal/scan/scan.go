package scan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/John-Robertt/epfetch/internal/domain"
	"github.com/John-Robertt/epfetch/internal/infra/fsx"
)

// ScanFiles 列出 dir 下的普通文件（不递归），并读取每个文件的创建时间。
//
// 规则（硬约束）：
// - 只看直接子项；目录、符号链接等非普通文件直接忽略
// - 输出顺序即目录枚举顺序（afero.ReadDir 按文件名排序），保证同一目录多次扫描结果一致
// - 任一文件读取创建时间失败即整体失败，不做跳过
func ScanFiles(fsys afero.Fs, dir string, birth fsx.BirthTimeFunc) ([]domain.DirEntry, error) {
	if fsys == nil {
		return nil, fmt.Errorf("filesystem 不能为空")
	}
	if birth == nil {
		return nil, fmt.Errorf("birth time func 不能为空")
	}

	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.DirEntry, 0, len(infos))
	for _, fi := range infos {
		if !fi.Mode().IsRegular() {
			continue
		}
		name := fi.Name()
		bt, err := birth(filepath.Join(dir, name), fi)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.DirEntry{
			Name:      name,
			Stem:      strings.TrimSuffix(name, filepath.Ext(name)),
			BirthTime: bt,
		})
	}
	return entries, nil
}

// Latest 返回创建时间最晚的条目；创建时间相同则保留先出现的那个。
// entries 为空时 ok=false。
func Latest(entries []domain.DirEntry) (domain.DirEntry, bool) {
	if len(entries) == 0 {
		return domain.DirEntry{}, false
	}
	return lo.MaxBy(entries, func(a, b domain.DirEntry) bool {
		return a.BirthTime.After(b.BirthTime)
	}), true
}
