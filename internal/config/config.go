package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/John-Robertt/nfo2html/internal/render"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是配置文件名（位于 <path>/ 或 <cwd>/）。
	FileName = "nfo2html.json"

	DefaultConcurrency = 4
	DefaultNFOName     = "tvshow.nfo"
	DefaultHTMLName    = "tvshow_details.html"
	DefaultLogLevel    = logrus.WarnLevel
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string

	Apply    bool
	ApplySet bool

	Concurrency    int
	ConcurrencySet bool

	// Verbose 为 true 时日志级别强制为 debug（覆盖 log_level）。
	Verbose bool
}

// FileConfig 对应 nfo2html.json 的解析结构。
type FileConfig struct {
	Path           string   `json:"path"`
	Apply          *bool    `json:"apply"`
	Concurrency    int      `json:"concurrency"`
	ExcludeDirs    []string `json:"exclude_dirs"`
	NFOName        string   `json:"nfo_name"`
	HTMLName       string   `json:"html_name"`
	Lang           string   `json:"lang"`
	Stylesheet     string   `json:"stylesheet"`
	FolderImage    string   `json:"folder_image"`
	PlaceholderURL string   `json:"placeholder_url"`
	LogLevel       string   `json:"log_level"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string

	Apply       bool
	Concurrency int
	ExcludeDirs []string

	NFOName  string
	HTMLName string

	Render   render.Options
	LogLevel logrus.Level
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
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

// LoadEffective 发现并读取配置文件（可选），然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/nfo2html.json
// 2) CLI 未提供 path：尝试读取 <cwd>/nfo2html.json；其中的 path 缺省为 cwd
//
// 覆盖优先级（固定）：
// - path：CLI path > config path > cwd
// - apply：CLI --apply/--apply=false > config > 默认 false
// - concurrency：CLI --concurrency > config > 默认 4
// - 日志级别：CLI -v（debug）> config log_level > 默认 warn
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, FileName)
		fc, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(absPath, cli, fc, cfgPath)
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	absPath := cwdAbs
	if strings.TrimSpace(fc.Path) != "" {
		absPath = absCleanFrom(cwdAbs, fc.Path)
	}
	return merge(absPath, cli, fc, cfgPath)
}

func merge(absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	concurrency := fc.Concurrency
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	nfoName, err := baseName(fc.NFOName, DefaultNFOName)
	if err != nil {
		return invalid("nfo_name 无效：%v", err)
	}
	htmlName, err := baseName(fc.HTMLName, DefaultHTMLName)
	if err != nil {
		return invalid("html_name 无效：%v", err)
	}
	if strings.EqualFold(nfoName, htmlName) {
		return invalid("html_name 不能与 nfo_name 相同：%q", htmlName)
	}

	lang := strings.TrimSpace(fc.Lang)
	if lang != "" {
		if _, err := language.Parse(lang); err != nil {
			return invalid("lang 不是合法的 BCP 47 语言标签：%q", lang)
		}
	}

	placeholder := strings.TrimSpace(fc.PlaceholderURL)
	if placeholder != "" {
		u, err := url.Parse(placeholder)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return invalid("placeholder_url 必须是 http/https URL：%q", placeholder)
		}
	}

	level := DefaultLogLevel
	if s := strings.TrimSpace(fc.LogLevel); s != "" {
		lv, err := logrus.ParseLevel(s)
		if err != nil {
			return invalid("log_level 无效：%q", s)
		}
		level = lv
	}
	if cli.Verbose {
		level = logrus.DebugLevel
	}

	return EffectiveConfig{
		Path:        absPath,
		Apply:       apply,
		Concurrency: concurrency,
		ExcludeDirs: append([]string(nil), fc.ExcludeDirs...),
		NFOName:     nfoName,
		HTMLName:    htmlName,
		Render: render.Options{
			Lang:           lang,
			Stylesheet:     strings.TrimSpace(fc.Stylesheet),
			FolderImage:    strings.TrimSpace(fc.FolderImage),
			PlaceholderURL: placeholder,
		},
		LogLevel: level,
	}, nil
}

// baseName 校验文件名只包含单个路径段（不允许目录分隔符与 . / ..）。
func baseName(name, def string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return def, nil
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("必须是文件名而不是路径：%q", name)
	}
	return name, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件；文件不存在不算错误（返回零值）。
func readFileConfig(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, err
	}
	var fc FileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}
