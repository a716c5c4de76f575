// Package httpx 构造抓取播放页用的 HTTP client：每次运行只发一个 GET，失败不重试。
package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout 是整个 GET（连接、响应头与读 body）的上限。
const DefaultTimeout = 30 * time.Second

// desktopUAs 是随机挑选的桌面浏览器 UA；播放页站点会拒绝 Go 默认 UA。
var desktopUAs = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

func pickUA() string {
	return desktopUAs[rand.Intn(len(desktopUAs))]
}

// Transport 给播放页请求补上 UA，并在走代理时要求短连接。
// 一次 RoundTrip 对应一次真实请求。
type Transport struct {
	Base *http.Transport

	// DisableKeepAlives 为 true 时给请求设置 Close=true（与 Base.DisableKeepAlives 一起生效）。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// RoundTripper 不得修改调用方的 request。
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", pickUA())
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

// NewClient 构造播放页 client。
//
// proxyURL 为空时直连（不读取环境变量代理）；非空时必须带 scheme 与 host，且禁用 keep-alive。
// timeout<=0 时使用 DefaultTimeout。
func NewClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	tr := &Transport{Base: base}

	if p := strings.TrimSpace(proxyURL); p != "" {
		u, err := url.Parse(p)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy url 缺少 scheme 或 host")
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		tr.DisableKeepAlives = true
	}

	return &http.Client{Transport: tr, Timeout: timeout}, nil
}
