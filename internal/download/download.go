package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/John-Robertt/epfetch/internal/domain"
)

// DefaultArgs 是外部下载器的默认参数模板。
// 每个参数中的 {url} / {output} / {concurrency} 会被替换。
var DefaultArgs = []string{"{url}", "-o", "{output}", "-n", "{concurrency}"}

// Downloader 把真正的分段下载交给外部进程；核心流程只提供三个输入并拿回退出码。
type Downloader interface {
	Fetch(ctx context.Context, url, outputPath string, concurrency int) (exitCode int, err error)
}

// OutputName 返回 <show>-<episode>.<ext> 形式的文件名（四位补零）。
// 该形态同时也是下次推断时可识别的文件名。
func OutputName(id domain.EpisodeID, ext string) string {
	return fmt.Sprintf("%04d-%04d.%s", id.Show, id.Episode, ext)
}

// ExitError 表示下载器进程以非 0 退出码结束。
type ExitError struct {
	Path string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("下载器 %q 退出码 %d", e.Path, e.Code)
}

// Exec 通过 os/exec 调用外部下载器。
type Exec struct {
	Path string
	Args []string // 参数模板；为空时使用 DefaultArgs
	Env  []string // 追加到当前进程环境变量之后

	Stdout io.Writer
	Stderr io.Writer
}

var _ Downloader = Exec{}

// ExpandArgs 按模板展开参数。
func ExpandArgs(tmpl []string, url, outputPath string, concurrency int) []string {
	r := strings.NewReplacer(
		"{url}", url,
		"{output}", outputPath,
		"{concurrency}", strconv.Itoa(concurrency),
	)
	out := make([]string, 0, len(tmpl))
	for _, a := range tmpl {
		out = append(out, r.Replace(a))
	}
	return out
}

// Command 构造（但不运行）下载器进程。
func (e Exec) Command(ctx context.Context, url, outputPath string, concurrency int) *exec.Cmd {
	tmpl := e.Args
	if len(tmpl) == 0 {
		tmpl = DefaultArgs
	}
	cmd := exec.CommandContext(ctx, e.Path, ExpandArgs(tmpl, url, outputPath, concurrency)...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	return cmd
}

// Fetch 运行下载器并等待结束。
//
// 返回值：
// - 0, nil：下载器正常退出
// - code, *domain.Error(download_failed, 包含 *ExitError)：非 0 退出
// - -1, *domain.Error(download_failed)：进程无法启动（例如路径不存在）
func (e Exec) Fetch(ctx context.Context, url, outputPath string, concurrency int) (int, error) {
	if strings.TrimSpace(e.Path) == "" {
		return -1, &domain.Error{Code: domain.ErrCodeDownloadFailed, Stage: domain.StageDownload, Input: outputPath, Err: errors.New("下载器路径为空")}
	}

	err := e.Command(ctx, url, outputPath, concurrency).Run()
	if err == nil {
		return 0, nil
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		code := ee.ExitCode()
		return code, &domain.Error{Code: domain.ErrCodeDownloadFailed, Stage: domain.StageDownload, Input: outputPath, Err: &ExitError{Path: e.Path, Code: code}}
	}
	return -1, &domain.Error{Code: domain.ErrCodeDownloadFailed, Stage: domain.StageDownload, Input: outputPath, Err: err}
}
