package run

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/samber/mo"

	"github.com/John-Robertt/epfetch/internal/config"
	"github.com/John-Robertt/epfetch/internal/domain"
	"github.com/John-Robertt/epfetch/internal/download"
	"github.com/John-Robertt/epfetch/internal/infra/fsx"
	"github.com/John-Robertt/epfetch/internal/infra/httpx"
	"github.com/John-Robertt/epfetch/internal/log"
	"github.com/John-Robertt/epfetch/internal/provider"
	"github.com/John-Robertt/epfetch/internal/resolve"
)

// Request 是本次运行要处理的剧集；show/episode 任一缺省时从目录推断。
type Request struct {
	Show    mo.Option[int]
	Episode mo.Option[int]
}

// Deps 是 Execute 的外部能力（测试中可替换为 httptest / 假下载器）。
type Deps struct {
	Resolver   resolve.Resolver
	Locator    provider.Locator
	Downloader download.Downloader
}

// NewDeps 按最终配置构造真实依赖。下载器的输出转发到 out（stdout 保留给 JSON 结果）。
func NewDeps(eff config.EffectiveConfig, out io.Writer) (Deps, error) {
	client, err := httpx.NewClient(eff.ProxyURL, eff.Timeout)
	if err != nil {
		return Deps{}, &config.Error{Code: config.ErrCodeInvalid, Path: eff.ConfigPath, Err: err}
	}
	return Deps{
		Resolver: resolve.New(),
		Locator:  provider.Locator{BaseURL: eff.BaseURL, Client: client},
		Downloader: download.Exec{
			Path:   eff.Downloader,
			Args:   eff.DownloaderArgs,
			Stdout: out,
			Stderr: out,
		},
	}, nil
}

// Execute 执行一次 resolve -> locate -> download（dry-run 时止于 locate），返回对外稳定的 Result。
//
// 顺序、同步执行；任何阶段失败即结束，不重试、不回退到其他剧集。
func Execute(ctx context.Context, eff config.EffectiveConfig, req Request, deps Deps, obs Observer) (res domain.Result) {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	res = domain.Result{
		Directory: eff.Directory,
		DryRun:    eff.DryRun,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		res.FinishedAt = time.Now().UTC()
		res.Finalize()
	}()

	res.Mode = domain.ModeInferred
	if resolve.Explicit(req.Show, req.Episode) {
		res.Mode = domain.ModeExplicit
	} else if req.Show.IsPresent() || req.Episode.IsPresent() {
		log.Stage(domain.StageResolve).Warn("只给出了 show/episode 其中之一，将从目录推断（两者都取自文件名）")
	}

	// resolve
	started := time.Now()
	id, err := deps.Resolver.Resolve(req.Show, req.Episode, eff.Directory)
	if err != nil {
		fail(&res, obs, domain.StageResolve, err, domain.ErrCodeIOFailed, started)
		return res
	}
	res.Episode = &id
	log.Stage(domain.StageResolve).WithFields(log.Fields{"mode": res.Mode, "episode": id.String()}).Debug("剧集已确定")
	obs.OnStageDone(domain.StageResolve, map[string]any{
		"mode":    res.Mode,
		"show":    id.Show,
		"episode": id.Episode,
	}, time.Since(started))

	// locate
	started = time.Now()
	ref, pageURL, err := deps.Locator.Locate(ctx, id)
	res.PageURL = pageURL
	if err != nil {
		fail(&res, obs, domain.StageLocate, err, domain.ErrCodeFetchFailed, started)
		return res
	}
	res.StreamURL = ref.StreamURL
	res.Extension = ref.Extension
	log.Stage(domain.StageLocate).WithFields(log.Fields{"page_url": pageURL, "stream_url": ref.StreamURL}).Debug("视频地址已解析")
	obs.OnStageDone(domain.StageLocate, map[string]any{
		"page_url":   pageURL,
		"stream_url": ref.StreamURL,
		"extension":  ref.Extension,
	}, time.Since(started))

	if eff.DryRun {
		res.Status = domain.StatusLocated
		return res
	}

	// download
	started = time.Now()
	if err := fsx.EnsureDir(eff.Directory); err != nil {
		de := &domain.Error{Code: domain.ErrCodeIOFailed, Stage: domain.StageDownload, Input: eff.Directory, Err: err}
		fail(&res, obs, domain.StageDownload, de, domain.ErrCodeIOFailed, started)
		return res
	}
	res.Output = filepath.Join(eff.Directory, download.OutputName(id, ref.Extension))

	log.Stage(domain.StageDownload).WithFields(log.Fields{
		"output":      res.Output,
		"concurrency": eff.Concurrency,
	}).Infof("下载第 %d 集（show %d）到 %s", id.Episode, id.Show, eff.Directory)

	code, err := deps.Downloader.Fetch(ctx, ref.StreamURL, res.Output, eff.Concurrency)
	res.ExitCode = code
	if err != nil {
		fail(&res, obs, domain.StageDownload, err, domain.ErrCodeDownloadFailed, started)
		return res
	}
	obs.OnStageDone(domain.StageDownload, map[string]any{
		"output":    res.Output,
		"exit_code": code,
	}, time.Since(started))

	res.Status = domain.StatusDownloaded
	return res
}

func fail(res *domain.Result, obs Observer, stage string, err error, fallbackCode string, started time.Time) {
	res.Fail(err, fallbackCode)
	log.Stage(stage).WithField("error_code", res.ErrorCode).Error(err)
	obs.OnStageDone(stage, map[string]any{
		"error_code": res.ErrorCode,
		"error_msg":  res.ErrorMsg,
	}, time.Since(started))
}
