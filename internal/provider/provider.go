package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/epfetch/internal/domain"
)

const (
	// DefaultBaseURL 是播放页所在站点；可通过配置 base_url 切换镜像域名。
	DefaultBaseURL = "http://www.yinghuacd.com"

	PlayboxSelector = "#playbox"
	VIDAttr         = "data-vid"
	VIDDelimiter    = "$"
)

var (
	ErrNoPlaybox   = errors.New("no playbox")
	ErrNoVID       = errors.New("no VID")
	ErrNoDelimiter = errors.New("VID 缺少 '$' 分隔符")
)

// Locator 定位某一集的视频地址：抓取播放页，再从 #playbox 的 data-vid 中解析。
//
// 约束：
// - 只发一次 GET；不做缓存、不做重试
// - Parse 是纯函数：相同 HTML => 相同结果
// - 页面结构漂移（找不到元素/属性）是 not_found，而不是 parse_failed
type Locator struct {
	BaseURL string
	Client  *http.Client
}

func (l Locator) baseURL() string {
	u := strings.TrimSpace(l.BaseURL)
	if u == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

// PageURL 返回 <base>/v/<show>-<episode>.html。
func (l Locator) PageURL(id domain.EpisodeID) string {
	return fmt.Sprintf("%s/v/%d-%d.html", l.baseURL(), id.Show, id.Episode)
}

// Locate 抓取并解析播放页，返回视频引用与播放页 URL（pageURL 在失败时同样返回，便于追溯）。
func (l Locator) Locate(ctx context.Context, id domain.EpisodeID) (domain.SourceReference, string, error) {
	pageURL := l.PageURL(id)

	html, err := l.Fetch(ctx, pageURL)
	if err != nil {
		return domain.SourceReference{}, pageURL, err
	}

	ref, err := Parse(html)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Input == "" {
			de.Input = pageURL
		}
		return domain.SourceReference{}, pageURL, err
	}
	return ref, pageURL, nil
}

// Fetch 读取 pageURL 的完整响应体。传输失败、非 2xx、读 body 失败都归为 fetch_failed。
func (l Locator) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if l.Client == nil {
		return nil, errors.New("http client 不能为空")
	}

	b, err := fetchURL(ctx, l.Client, pageURL)
	if err != nil {
		return nil, &domain.Error{Code: domain.ErrCodeFetchFailed, Stage: domain.StageLocate, Input: pageURL, Err: err}
	}
	return b, nil
}

// Parse 从播放页 HTML 中解析出视频引用。
//
// 两段式：先尽力建树（容忍残缺标记），再做可失败的选择器查询。
func Parse(html []byte) (domain.SourceReference, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.SourceReference{}, &domain.Error{Code: domain.ErrCodeParseFailed, Stage: domain.StageLocate, Err: err}
	}

	box := doc.Find(PlayboxSelector).First()
	if box.Length() == 0 {
		return domain.SourceReference{}, &domain.Error{Code: domain.ErrCodeNotFound, Stage: domain.StageLocate, Err: ErrNoPlaybox}
	}

	raw, ok := box.Attr(VIDAttr)
	if !ok {
		return domain.SourceReference{}, &domain.Error{Code: domain.ErrCodeNotFound, Stage: domain.StageLocate, Err: ErrNoVID}
	}
	return ParseDescriptor(raw)
}

// ParseDescriptor 把 "<stream url>$<ext>[$...]" 拆成 SourceReference。
// 只看前两段；第二个 '$' 之后的内容忽略。
func ParseDescriptor(raw string) (domain.SourceReference, error) {
	raw = strings.TrimSpace(raw)
	streamURL, rest, ok := strings.Cut(raw, VIDDelimiter)
	if !ok {
		return domain.SourceReference{}, &domain.Error{Code: domain.ErrCodeParseFailed, Stage: domain.StageLocate, Err: fmt.Errorf("%w：%q", ErrNoDelimiter, raw)}
	}
	ext, _, _ := strings.Cut(rest, VIDDelimiter)
	return domain.SourceReference{StreamURL: streamURL, Extension: ext}, nil
}

func fetchURL(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}
	return io.ReadAll(resp.Body)
}
