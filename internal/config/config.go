package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// ErrCodeNotFound 表示显式指定（--config 或 EPFETCH_CONFIG）的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingDownloader 表示需要下载但没有任何来源给出下载器路径。
	ErrCodeMissingDownloader = "config_missing_downloader"
)

const (
	AppName  = "epfetch"
	FileName = "config.toml"

	// EnvConfigPath 指向配置文件（优先级低于 --config）。
	EnvConfigPath = "EPFETCH_CONFIG"

	DefaultConcurrency    = 16
	MaxConcurrency        = 64
	DefaultTimeoutSeconds = 30
	DefaultLogLevel       = "info"
)

// 通过可替换的函数指针，让测试不依赖真实的用户配置目录。
var userConfigDir = os.UserConfigDir

// CLIArgs 是命令行能覆盖的配置项，保留“是否显式指定”的信息，保证覆盖优先级可实现。
type CLIArgs struct {
	ConfigPath string
	Directory  string

	Downloader string
	BaseURL    string
	LogLevel   string

	Concurrency    int
	ConcurrencySet bool

	DryRun bool
}

// FileConfig 对应 config.toml 的解析结构。
type FileConfig struct {
	Downloader     string       `toml:"downloader"`
	Args           []string     `toml:"args"`
	Concurrency    int          `toml:"concurrency"`
	BaseURL        string       `toml:"base_url"`
	TimeoutSeconds int          `toml:"timeout_seconds"`
	Proxy          *ProxyConfig `toml:"proxy"`
	Log            LogConfig    `toml:"log"`
}

type ProxyConfig struct {
	URL string `toml:"url"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未读取任何文件时为空。
	ConfigPath string

	Directory string
	DryRun    bool

	Downloader     string
	DownloaderArgs []string
	Concurrency    int

	BaseURL  string
	Timeout  time.Duration
	ProxyURL string

	LogLevel string
	LogJSON  bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingDownloader:
		return fmt.Sprintf("%s：未配置下载器路径（config.toml 的 downloader 或 --downloader）", e.Code)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// DefaultPath 返回 <UserConfigDir>/epfetch/config.toml；无法确定用户配置目录时返回空串。
func DefaultPath() string {
	base, err := userConfigDir()
	if err != nil || base == "" {
		return ""
	}
	return filepath.Join(base, AppName, FileName)
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) --config：必须存在
// 2) 环境变量 EPFETCH_CONFIG：必须存在
// 3) <UserConfigDir>/epfetch/config.toml：可选
//
// 覆盖优先级（固定）：CLI > 配置文件 > 内置默认。directory 只来自 CLI，缺省为 cwd。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath, required := discover(cwdAbs, cli.ConfigPath)

	var fc FileConfig
	loaded := ""
	if cfgPath != "" {
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists && required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		if exists {
			loaded = cfgPath
		}
	}

	eff, err := merge(cwdAbs, cli, fc, cfgPath)
	if err != nil {
		return EffectiveConfig{}, err
	}
	eff.ConfigPath = loaded
	return eff, nil
}

func discover(cwdAbs, cliPath string) (path string, required bool) {
	if p := strings.TrimSpace(cliPath); p != "" {
		return absCleanFrom(cwdAbs, p), true
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return absCleanFrom(cwdAbs, p), true
	}
	return DefaultPath(), false
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	dir := cwdAbs
	if strings.TrimSpace(cli.Directory) != "" {
		dir = absCleanFrom(cwdAbs, cli.Directory)
	}

	downloader := strings.TrimSpace(fc.Downloader)
	if strings.TrimSpace(cli.Downloader) != "" {
		downloader = strings.TrimSpace(cli.Downloader)
	}
	// dry-run 不调用下载器，因此允许缺省。
	if downloader == "" && !cli.DryRun {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingDownloader, Path: cfgPath}
	}

	concurrency := fc.Concurrency
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 超出范围截断，而不是报错：该值只透传给下载器。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}

	baseURL := strings.TrimSpace(fc.BaseURL)
	if strings.TrimSpace(cli.BaseURL) != "" {
		baseURL = strings.TrimSpace(cli.BaseURL)
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("base_url 必须是 http/https 绝对地址：%q", baseURL)}
		}
	}

	if fc.TimeoutSeconds < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("timeout_seconds 不能为负数：%d", fc.TimeoutSeconds)}
	}
	timeout := time.Duration(fc.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = DefaultTimeoutSeconds * time.Second
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
		}
	}

	level := strings.TrimSpace(fc.Log.Level)
	if strings.TrimSpace(cli.LogLevel) != "" {
		level = strings.TrimSpace(cli.LogLevel)
	}
	if level == "" {
		level = DefaultLogLevel
	}

	return EffectiveConfig{
		Directory:      dir,
		DryRun:         cli.DryRun,
		Downloader:     downloader,
		DownloaderArgs: append([]string(nil), fc.Args...),
		Concurrency:    concurrency,
		BaseURL:        baseURL,
		Timeout:        timeout,
		ProxyURL:       proxyURL,
		LogLevel:       level,
		LogJSON:        fc.Log.JSON,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件；未知字段视为错误（拼错的键不应被静默忽略）。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
