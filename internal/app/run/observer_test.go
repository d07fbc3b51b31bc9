package run

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/nfo2html/internal/config"
	"github.com/John-Robertt/nfo2html/internal/convert"
	"github.com/John-Robertt/nfo2html/internal/domain"
)

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
	items      []string
	lastTotal  int
}

func (o *recordObserver) OnStart(eff config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

func (o *recordObserver) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, res.NFO)
	o.lastTotal = total
}

func TestExecuteWithObserver_EmitsPhaseAndItemEvents(t *testing.T) {
	root := newLibrary(t)

	obs := &recordObserver{}
	_ = ExecuteWithObserver(context.Background(), effFor(root, false), convert.Converter{}, obs)

	if obs.startCalls != 1 {
		t.Fatalf("期望 OnStart 调用 1 次，实际 %d", obs.startCalls)
	}
	wantPhases := []string{"scan", "exec"}
	if !reflect.DeepEqual(obs.phases, wantPhases) {
		t.Fatalf("阶段事件不符合预期：got=%v want=%v", obs.phases, wantPhases)
	}
	if len(obs.items) != 2 || obs.lastTotal != 2 {
		t.Fatalf("条目事件不符合预期：items=%v total=%d", obs.items, obs.lastTotal)
	}
}

func TestExecuteWithObserver_NilObserver_SameResultAsExecute(t *testing.T) {
	root := newLibrary(t)
	cfg := effFor(root, false)

	a := Execute(context.Background(), cfg, convert.Converter{})
	b := ExecuteWithObserver(context.Background(), cfg, convert.Converter{}, nil)

	// 时间字段本身允许有微小差异；对比时归零。
	a.StartedAt, a.FinishedAt = time.Time{}, time.Time{}
	b.StartedAt, b.FinishedAt = time.Time{}, time.Time{}

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("nil observer 不应改变结果：\nExecute=%+v\nWithObs=%+v", a, b)
	}
}
