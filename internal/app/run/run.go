package run

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/nfo2html/internal/config"
	"github.com/John-Robertt/nfo2html/internal/convert"
	"github.com/John-Robertt/nfo2html/internal/domain"
	"github.com/John-Robertt/nfo2html/internal/scan"
)

// Execute 执行一次批量转换（dry-run/apply），并返回对外稳定的 RunReport。
// 单条失败只影响该条目，不影响其他条目。
func Execute(ctx context.Context, eff config.EffectiveConfig, conv convert.Converter) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, conv, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
//
// 并发模型：按 NFO 并发（worker pool，eff.Concurrency 个 worker），每个 NFO 内部串行。
// 不同 NFO 的输入/输出路径互不相交，因此无需加锁。
// ctx 取消后不再派发新条目，未派发的条目记为 canceled 失败。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, conv convert.Converter, obs Observer) domain.RunReport {
	started := time.Now().UTC()
	log := conv.Logger().WithField("path", eff.Path)

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Path:      eff.Path,
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 32),
	}

	scanStarted := time.Now()
	files, err := scan.ScanShows(eff.Path, eff.NFOName, eff.ExcludeDirs)
	if err != nil {
		log.WithError(err).Warn("scan failed")
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeScanFailed, fmt.Sprintf("扫描失败：%v", err)))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	scanDur := time.Since(scanStarted)
	log.WithFields(logrus.Fields{"files": len(files), "took": scanDur}).Debug("scan done")

	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}

	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{
			"files": len(files),
		}, scanDur)
		obs.OnPhaseDone("exec", map[string]any{
			"workers":     workers,
			"total_items": len(files),
		}, 0)
	}

	type execResult struct {
		res domain.ItemResult
		dur time.Duration
	}

	jobs := make(chan domain.ShowFile)
	results := make(chan execResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				oneStarted := time.Now()
				r := execOne(eff, conv, f)
				results <- execResult{res: r, dur: time.Since(oneStarted)}
			}
		}()
	}

	go func() {
		for _, f := range files {
			if ctx.Err() != nil {
				results <- execResult{res: canceledItem(eff, f)}
				continue
			}
			select {
			case jobs <- f:
			case <-ctx.Done():
				results <- execResult{res: canceledItem(eff, f)}
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for it := range results {
		done++
		rr.Items = append(rr.Items, it.res)
		if obs != nil {
			obs.OnItemDone(done, len(files), it.res, it.dur)
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	log.WithFields(logrus.Fields{
		"processed": rr.Summary.Processed,
		"failed":    rr.Summary.Failed,
		"dry_run":   rr.DryRun,
	}).Info("batch done")
	return rr
}

// execOne 处理单个 NFO：apply 时写入同目录的 HTML；dry-run 只解析+渲染，不落盘。
func execOne(eff config.EffectiveConfig, conv convert.Converter, f domain.ShowFile) domain.ItemResult {
	item := baseItem(eff, f)
	out := filepath.Join(f.Dir, eff.HTMLName)

	var (
		res convert.Result
		err error
	)
	if eff.Apply {
		res, err = conv.Convert(f.AbsPath, out)
	} else {
		res, err = conv.Build(f.AbsPath)
	}

	item.Title = res.Meta.Title
	item.Actors = len(res.Meta.Actors)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrorCode(err)
		item.ErrorMsg = err.Error()
	}
	return item
}

func baseItem(eff config.EffectiveConfig, f domain.ShowFile) domain.ItemResult {
	return domain.ItemResult{
		NFO:    f.RelPath,
		Output: filepath.Join(filepath.Dir(f.RelPath), eff.HTMLName),
		Status: domain.StatusProcessed, // 失败时覆盖
	}
}

func canceledItem(eff config.EffectiveConfig, f domain.ShowFile) domain.ItemResult {
	item := baseItem(eff, f)
	item.Status = domain.StatusFailed
	item.ErrorCode = domain.ErrCodeCanceled
	item.ErrorMsg = "已取消，未处理"
	return item
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}
