package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/nfo2html/internal/app/run"
	"github.com/John-Robertt/nfo2html/internal/config"
	"github.com/John-Robertt/nfo2html/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的逐行进度输出。
//
// 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约。
type progressUI struct {
	w io.Writer

	mu   sync.Mutex
	ok   int
	fail int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mode := "dry-run"
	modeHint := " (只解析与渲染，不写入)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] nfo2html batch (%s)\n", time.Now().Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  files: %s -> %s\n", eff.NFOName, eff.HTMLName)
	fmt.Fprintf(p.w, "  exclude_dirs: %s + 隐藏目录\n", formatStringListJSON(eff.ExcludeDirs))
	fmt.Fprintf(p.w, "  lang: %s\n", orDefault(eff.Render.Lang, "default"))
	if eff.Apply {
		fmt.Fprintf(p.w, "  report: %s\n", filepath.Join(eff.Path, reportName))
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
	case "exec":
		fmt.Fprintf(p.w, "执行: workers=%d total_items=%d\n\n",
			intField(fields, "workers"), intField(fields, "total_items"),
		)
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if res.Status == domain.StatusFailed {
		p.fail++
	} else {
		p.ok++
	}
	fmt.Fprintln(p.w, formatItemLine(idx, total, res, dur))
}

// formatItemLine 生成单条结果的一行输出。
func formatItemLine(idx, total int, res domain.ItemResult, dur time.Duration) string {
	key := res.NFO
	if key == "" {
		key = "<unknown>"
	}
	if res.Status == domain.StatusFailed {
		return fmt.Sprintf("[%d/%d] %s FAIL %s: %s (%s)",
			idx, total, key, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	}
	return fmt.Sprintf("[%d/%d] %s OK title=%q actors=%d (%s)",
		idx, total, key, truncate(res.Title, 60), res.Actors, formatShortDuration(dur),
	)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
