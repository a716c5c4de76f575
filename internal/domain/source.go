package domain

// SourceReference 是从播放页提取出的视频引用。
// 不落盘，直接交给下载步骤消费。
type SourceReference struct {
	StreamURL string `json:"stream_url"`
	Extension string `json:"extension"`
}
