package domain

import "fmt"

// EpisodeID 是一次运行的目标（show, episode）。
//
// 约束：解析完成后不再修改；只在单次运行内存活，不落盘。
type EpisodeID struct {
	Show    int `json:"show"`
	Episode int `json:"episode"`
}

func (id EpisodeID) String() string {
	return fmt.Sprintf("%d-%d", id.Show, id.Episode)
}
