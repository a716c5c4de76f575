package domain

import "time"

// DirEntry 描述一次目录扫描得到的普通文件（只做 stat，不读内容）。
//
// 仅用于挑选“最近创建”的文件；推断结束即丢弃。
type DirEntry struct {
	Name      string
	Stem      string // filename without ext
	BirthTime time.Time
}
