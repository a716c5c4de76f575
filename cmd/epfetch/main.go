package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/epfetch/internal/app/run"
	"github.com/John-Robertt/epfetch/internal/config"
	"github.com/John-Robertt/epfetch/internal/domain"
	"github.com/John-Robertt/epfetch/internal/log"
	"github.com/John-Robertt/epfetch/internal/provider"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliOptions struct {
	show        int
	episode     int
	directory   string
	configPath  string
	downloader  string
	concurrency int
	baseURL     string
	dryRun      bool
	logLevel    string
}

// execute 解析参数并执行一次运行，返回进程退出码。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts cliOptions
	code := exitOK

	root := &cobra.Command{
		Use:   "epfetch",
		Short: "按 show/episode 定位剧集视频地址，并调用外部下载器下载",
		Long: `epfetch 根据 show 与 episode 抓取播放页，解析出视频地址并交给外部下载器。

未同时给出 --show 与 --episode 时，从目录中创建时间最晚的文件名（<show>-<episode>.<ext>）推断。`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := run.Request{Show: mo.None[int](), Episode: mo.None[int]()}
			if cmd.Flags().Changed("show") {
				if opts.show < 1 {
					return fmt.Errorf("--show 必须是正整数，实际是 %d", opts.show)
				}
				req.Show = mo.Some(opts.show)
			}
			if cmd.Flags().Changed("episode") {
				if opts.episode < 1 {
					return fmt.Errorf("--episode 必须是正整数，实际是 %d", opts.episode)
				}
				req.Episode = mo.Some(opts.episode)
			}
			code = runOnce(ctx, cmd, opts, req, stdout, stderr)
			return nil
		},
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.Flags()
	f.IntVarP(&opts.show, "show", "s", 0, "show 编号（与 --episode 同时给出时不做推断）")
	f.IntVarP(&opts.episode, "episode", "e", 0, "episode 编号")
	f.StringVarP(&opts.directory, "directory", "d", "", "推断与下载所用目录（默认当前目录）")
	f.StringVar(&opts.configPath, "config", "", "配置文件路径（默认 $"+config.EnvConfigPath+" 或用户配置目录下的 epfetch/config.toml）")
	f.StringVar(&opts.downloader, "downloader", "", "外部下载器可执行文件（覆盖配置文件的 downloader）")
	f.IntVar(&opts.concurrency, "concurrency", config.DefaultConcurrency, "透传给下载器的并发数（1-64）")
	f.StringVar(&opts.baseURL, "base-url", "", "播放页站点（默认 "+provider.DefaultBaseURL+"）")
	f.BoolVar(&opts.dryRun, "dry-run", false, "只定位视频地址，不下载")
	f.StringVar(&opts.logLevel, "log-level", "", "日志级别：debug|info|warn|error")
	lo.Must0(root.MarkFlagDirname("directory"))
	lo.Must0(root.MarkFlagFilename("config", "toml"))

	// RunE 只在参数校验失败时返回 error；运行期失败通过 code 返回。
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		fmt.Fprint(stderr, root.UsageString())
		return exitUsage
	}
	return code
}

func runOnce(ctx context.Context, cmd *cobra.Command, opts cliOptions, req run.Request, stdout, stderr io.Writer) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return exitFail
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath:     opts.configPath,
		Directory:      opts.directory,
		Downloader:     opts.downloader,
		BaseURL:        opts.baseURL,
		LogLevel:       opts.logLevel,
		Concurrency:    opts.concurrency,
		ConcurrencySet: cmd.Flags().Changed("concurrency"),
		DryRun:         opts.dryRun,
	})
	if err != nil {
		emitResult(stdout, stderr, failedResult(cwd, opts, err, config.Code(err)))
		return exitFail
	}

	if err := log.Setup(eff.LogLevel, eff.LogJSON, stderr); err != nil {
		ce := &config.Error{Code: config.ErrCodeInvalid, Path: eff.ConfigPath, Err: err}
		emitResult(stdout, stderr, failedResult(eff.Directory, opts, ce, ce.Code))
		return exitFail
	}

	deps, err := run.NewDeps(eff, stderr)
	if err != nil {
		emitResult(stdout, stderr, failedResult(eff.Directory, opts, err, config.Code(err)))
		return exitFail
	}

	var obs run.Observer
	if isTTY(stderr) {
		obs = newProgressUI(stderr)
	}

	res := run.Execute(ctx, eff, req, deps, obs)
	emitResult(stdout, stderr, res)
	if errors.Is(ctx.Err(), context.Canceled) {
		fmt.Fprintln(stderr, "已中断")
	}
	if res.OK() {
		return exitOK
	}
	return exitFail
}

// failedResult 为 Execute 之前的失败（配置等）构造一个对外结果，保证 stdout 契约不变。
func failedResult(dir string, opts cliOptions, err error, code string) domain.Result {
	now := time.Now().UTC()
	if abs, e := filepath.Abs(dir); e == nil {
		dir = abs
	}
	res := domain.Result{
		Directory:  dir,
		DryRun:     opts.dryRun,
		StartedAt:  now,
		FinishedAt: now,
	}
	res.Fail(err, code)
	res.Finalize()
	return res
}

func emitResult(stdout, stderr io.Writer, res domain.Result) {
	if isTTY(stdout) {
		fmt.Fprintln(stdout, summaryLine(res))
		if !res.OK() {
			fmt.Fprintf(stderr, "%s: %s\n", res.ErrorCode, res.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 Result JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(stdout)
	_ = enc.Encode(res)
	fmt.Fprintln(stderr, summaryLine(res))
}

func summaryLine(res domain.Result) string {
	switch res.Status {
	case domain.StatusDownloaded:
		return fmt.Sprintf("完成：%s -> %s", res.StreamURL, res.Output)
	case domain.StatusLocated:
		return fmt.Sprintf("完成（dry-run）：%s ext=%s", res.StreamURL, res.Extension)
	default:
		return fmt.Sprintf("失败：%s", res.ErrorCode)
	}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
