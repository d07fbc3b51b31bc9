package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/nfo2html/internal/domain"
)

const integrationNFO = `<?xml version="1.0" encoding="UTF-8"?>
<tvshow>
  <title>Andor</title>
  <genre>Sci-Fi</genre>
  <actor><name>Diego Luna</name><role>Cassian Andor</role></actor>
</tvshow>`

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func TestCLI_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	// 锁定对外契约：stdout 非 TTY 时只能输出一个 RunReport JSON（进度/配置必须走 stderr 或直接禁用）。
	root := t.TempDir()
	show := filepath.Join(root, "Andor")
	if err := os.MkdirAll(show, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(show, "tvshow.nfo"), []byte(integrationNFO), 0o644); err != nil {
		t.Fatalf("写入 nfo 失败：%v", err)
	}

	cmd := exec.Command("go", "run", "./cmd/nfo2html", "batch", root)
	cmd.Dir = repoRoot(t)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if !rr.DryRun || rr.Summary.Processed != 1 || rr.Summary.Failed != 0 {
		t.Fatalf("报告不一致：%+v", rr)
	}
	if strings.Contains(stdout.String(), "配置（生效）") || strings.Contains(stdout.String(), "扫描:") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "完成：processed=") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}

	// dry-run 不写 HTML 也不写报告。
	if _, err := os.Stat(filepath.Join(show, "tvshow_details.html")); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应写入 HTML：%v", err)
	}
	if _, err := os.Stat(filepath.Join(root, reportName)); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应写入报告：%v", err)
	}
}

func TestCLI_Convert_WritesHTML(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tvshow.nfo")
	out := filepath.Join(dir, "out.html")
	if err := os.WriteFile(in, []byte(integrationNFO), 0o644); err != nil {
		t.Fatalf("写入 nfo 失败：%v", err)
	}

	cmd := exec.Command("go", "run", "./cmd/nfo2html", "convert", in, out)
	cmd.Dir = repoRoot(t)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s", err, stderr.String())
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("读取输出失败：%v", err)
	}
	if !strings.Contains(string(b), "<strong>Diego Luna</strong> as Cassian Andor") {
		t.Fatalf("输出缺少演员行：%s", b)
	}
	if !strings.Contains(stdout.String(), "已转换") {
		t.Fatalf("stdout 缺少成功提示：%q", stdout.String())
	}
}

func TestCLI_Convert_MissingInputFails(t *testing.T) {
	dir := t.TempDir()

	cmd := exec.Command("go", "run", "./cmd/nfo2html", "convert", filepath.Join(dir, "missing.nfo"), filepath.Join(dir, "out.html"))
	cmd.Dir = repoRoot(t)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		t.Fatalf("期望非零退出码")
	}
	if !strings.Contains(stderr.String(), "转换失败") {
		t.Fatalf("stderr 缺少失败提示：%q", stderr.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "out.html")); !os.IsNotExist(err) {
		t.Fatalf("失败时不应创建输出：%v", err)
	}
}
