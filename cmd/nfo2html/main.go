package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/nfo2html/internal/app/run"
	"github.com/John-Robertt/nfo2html/internal/config"
	"github.com/John-Robertt/nfo2html/internal/convert"
	"github.com/John-Robertt/nfo2html/internal/domain"
	"github.com/John-Robertt/nfo2html/internal/infra/fsx"
	"github.com/John-Robertt/nfo2html/internal/render"
)

// reportName 是 batch --apply 时写入 <path>/ 的报告文件名。
const reportName = "nfo2html-report.json"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		// 无参：按约定读取 cwd 下的 tvshow.nfo，写出 tvshow_details.html。
		os.Exit(convertCmd(nil))
	}
	if isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "convert":
		if code := convertCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "batch":
		if code := batchCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

type convertArgs struct {
	Input   string
	Output  string
	Verbose bool
}

func parseConvertArgs(args []string) (convertArgs, error) {
	ca := convertArgs{}
	var pos []string
	for _, a := range args {
		switch {
		case a == "-v" || a == "--verbose":
			ca.Verbose = true
		case strings.HasPrefix(a, "-"):
			return convertArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			pos = append(pos, a)
		}
	}
	if len(pos) > 2 {
		return convertArgs{}, fmt.Errorf("最多两个路径参数（input output），实际 %d 个", len(pos))
	}
	if len(pos) > 0 {
		ca.Input = pos[0]
	}
	if len(pos) > 1 {
		ca.Output = pos[1]
	}
	return ca, nil
}

func convertCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printConvertUsage()
			return 0
		}
	}

	ca, err := parseConvertArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printConvertUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	// convert 只从 cwd 读取可选配置（渲染选项/文件名/日志级别）。
	eff, err := config.LoadEffective(cwd, config.CLIArgs{Verbose: ca.Verbose})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	in, out := ca.Input, ca.Output
	if in == "" {
		in = eff.NFOName
	}
	if out == "" {
		out = eff.HTMLName
	}

	conv := convert.New(render.New(eff.Render), newLogger(os.Stderr, eff.LogLevel))
	if _, err := conv.Convert(in, out); err != nil {
		fmt.Fprintf(os.Stderr, "转换失败：%v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "已转换 %q -> %q\n", in, out)
	return 0
}

type batchArgs struct {
	Path           string
	Apply          bool
	ApplySet       bool
	Concurrency    int
	ConcurrencySet bool
	Verbose        bool
}

func parseBatchArgs(args []string) (batchArgs, error) {
	ba := batchArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--apply":
			ba.Apply = true
			ba.ApplySet = true
		case strings.HasPrefix(a, "--apply="):
			v := strings.TrimPrefix(a, "--apply=")
			switch v {
			case "true":
				ba.Apply = true
			case "false":
				ba.Apply = false
			default:
				return batchArgs{}, fmt.Errorf("--apply 只能是 true 或 false，实际是 %q", v)
			}
			ba.ApplySet = true
		case a == "--concurrency":
			if i+1 >= len(args) {
				return batchArgs{}, fmt.Errorf("--concurrency 需要一个值")
			}
			i++
			n, err := parseConcurrency(args[i])
			if err != nil {
				return batchArgs{}, err
			}
			ba.Concurrency = n
			ba.ConcurrencySet = true
		case strings.HasPrefix(a, "--concurrency="):
			n, err := parseConcurrency(strings.TrimPrefix(a, "--concurrency="))
			if err != nil {
				return batchArgs{}, err
			}
			ba.Concurrency = n
			ba.ConcurrencySet = true
		case a == "-v" || a == "--verbose":
			ba.Verbose = true
		case strings.HasPrefix(a, "-"):
			return batchArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ba.Path != "" {
				return batchArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ba.Path, a)
			}
			ba.Path = a
		}
	}
	return ba, nil
}

func parseConcurrency(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("--concurrency 必须是正整数，实际是 %q", s)
	}
	return n, nil
}

func batchCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printBatchUsage()
			return 0
		}
	}

	ba, err := parseBatchArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printBatchUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:           ba.Path,
		Apply:          ba.Apply,
		ApplySet:       ba.ApplySet,
		Concurrency:    ba.Concurrency,
		ConcurrencySet: ba.ConcurrencySet,
		Verbose:        ba.Verbose,
	})
	if err != nil {
		rr := reportForConfigError(cwd, ba, err)
		emitReport(rr)
		return 1
	}

	conv := convert.New(render.New(eff.Render), newLogger(os.Stderr, eff.LogLevel))

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rr := run.ExecuteWithObserver(ctx, eff, conv, obs)

	// apply：写入 <path>/nfo2html-report.json；dry-run 不落盘。
	if eff.Apply {
		if err := writeReportFile(eff.Path, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 %s 失败：%v\n", reportName, err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if interactive && eff.Apply {
		fmt.Fprintf(progressW, "report: %s\n", filepath.Join(eff.Path, reportName))
	}
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  nfo2html                              转换 ./tvshow.nfo -> ./tvshow_details.html
  nfo2html convert [input] [output] [-v]
  nfo2html batch [path] [--apply[=true|false]] [--concurrency N] [-v]

命令：
  convert  转换单个 NFO 文件
  batch    扫描目录下所有 tvshow.nfo，并在同目录生成 HTML（默认 dry-run）

使用 "nfo2html <命令> --help" 查看详细说明。
`)
}

func printConvertUsage() {
	fmt.Fprint(os.Stdout, `用法：
  nfo2html convert [input] [output] [-v]

参数：
  input       NFO 文件路径（默认 ./tvshow.nfo，可由配置 nfo_name 修改）
  output      HTML 输出路径（默认 ./tvshow_details.html，可由配置 html_name 修改；已存在则覆盖）
  -v          输出 debug 日志到 stderr
  -h, --help  显示帮助
`)
}

func printBatchUsage() {
	fmt.Fprint(os.Stdout, `用法：
  nfo2html batch [path] [--apply[=true|false]] [--concurrency N] [-v]

参数：
  --apply        写入 HTML 与报告（默认 dry-run：只解析与渲染）；支持 --apply=false 覆盖配置中的 apply=true
  --concurrency  并发 worker 数（默认 4，范围 1-32）
  -v             输出 debug 日志到 stderr
  -h, --help     显示帮助
`)
}

func newLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：processed=%d failed=%d\n", rr.Summary.Processed, rr.Summary.Failed)
		for _, it := range rr.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			key := it.NFO
			if key == "" {
				key = "<unknown>"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：processed=%d failed=%d\n", rr.Summary.Processed, rr.Summary.Failed)
}

func reportForConfigError(cwd string, ba batchArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	path, _ := filepath.Abs(cwd)
	rr := domain.RunReport{
		Path:       path,
		DryRun:     !(ba.ApplySet && ba.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(root string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(root, reportName, b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
