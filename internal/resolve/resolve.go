package resolve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/mo"
	"github.com/spf13/afero"

	"github.com/John-Robertt/epfetch/internal/domain"
	"github.com/John-Robertt/epfetch/internal/infra/fsx"
	"github.com/John-Robertt/epfetch/internal/scan"
)

var (
	// ErrNoEligibleFile 表示推断目录下没有任何普通文件。
	ErrNoEligibleFile = errors.New("目录中没有可用于推断的文件")
	// ErrNoHyphen 表示最新文件的文件名不是 <show>-<episode> 形态。
	ErrNoHyphen = errors.New("文件名缺少 '-'，无法拆分为 show-episode")
	// ErrNonPositive 表示文件名中的 show 或 episode 不是正整数。
	ErrNonPositive = errors.New("show 与 episode 必须是正整数")
)

// Resolver 决定本次运行的 (show, episode)。
//
// 约束：
// - 显式给出 show 与 episode 时原样返回，不访问文件系统
// - 否则从目录中“创建时间最晚”的文件名推断（只读：列目录 + stat）
type Resolver struct {
	FS        afero.Fs
	BirthTime fsx.BirthTimeFunc
}

// New 返回基于真实文件系统的 Resolver。
func New() Resolver {
	return Resolver{FS: afero.NewOsFs(), BirthTime: fsx.BirthTime}
}

// Explicit 报告 show/episode 是否都已显式给出（此时不需要推断）。
func Explicit(show, episode mo.Option[int]) bool {
	return show.IsPresent() && episode.IsPresent()
}

func (r Resolver) Resolve(show, episode mo.Option[int], dir string) (domain.EpisodeID, error) {
	if Explicit(show, episode) {
		return domain.EpisodeID{Show: show.MustGet(), Episode: episode.MustGet()}, nil
	}
	return r.Infer(dir)
}

// Infer 从 dir 中最近创建的文件推断 (show, episode)。
func (r Resolver) Infer(dir string) (domain.EpisodeID, error) {
	entries, err := scan.ScanFiles(r.FS, dir, r.BirthTime)
	if err != nil {
		return domain.EpisodeID{}, &domain.Error{Code: domain.ErrCodeIOFailed, Stage: domain.StageResolve, Input: dir, Err: err}
	}

	latest, ok := scan.Latest(entries)
	if !ok {
		return domain.EpisodeID{}, &domain.Error{Code: domain.ErrCodeNotFound, Stage: domain.StageResolve, Input: dir, Err: ErrNoEligibleFile}
	}

	id, err := ParseStem(latest.Stem)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			de.Input = latest.Name
		}
		return domain.EpisodeID{}, err
	}
	return id, nil
}

// ParseStem 把 "<show>-<episode>" 形态的文件名（不含扩展名）解析为 EpisodeID。
//
// 规则：按第一个 '-' 拆分；缺少 '-' => not_found；任一段不是整数或不是正数 => format_invalid。
func ParseStem(stem string) (domain.EpisodeID, error) {
	left, right, ok := strings.Cut(stem, "-")
	if !ok {
		return domain.EpisodeID{}, &domain.Error{Code: domain.ErrCodeNotFound, Stage: domain.StageResolve, Input: stem, Err: ErrNoHyphen}
	}

	show, err := strconv.Atoi(left)
	if err != nil {
		return domain.EpisodeID{}, &domain.Error{Code: domain.ErrCodeFormatInvalid, Stage: domain.StageResolve, Input: stem, Err: fmt.Errorf("show 段不是整数：%w", err)}
	}
	ep, err := strconv.Atoi(right)
	if err != nil {
		return domain.EpisodeID{}, &domain.Error{Code: domain.ErrCodeFormatInvalid, Stage: domain.StageResolve, Input: stem, Err: fmt.Errorf("episode 段不是整数：%w", err)}
	}
	if show < 1 || ep < 1 {
		return domain.EpisodeID{}, &domain.Error{Code: domain.ErrCodeFormatInvalid, Stage: domain.StageResolve, Input: stem, Err: fmt.Errorf("%w：show=%d episode=%d", ErrNonPositive, show, ep)}
	}
	return domain.EpisodeID{Show: show, Episode: ep}, nil
}
