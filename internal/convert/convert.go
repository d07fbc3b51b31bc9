package convert

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/nfo2html/internal/domain"
	"github.com/John-Robertt/nfo2html/internal/infra/fsx"
	"github.com/John-Robertt/nfo2html/internal/nfo"
	"github.com/John-Robertt/nfo2html/internal/render"
)

const (
	// DefaultInput / DefaultOutput 是无参调用时 cwd 下的固定文件名。
	DefaultInput  = "tvshow.nfo"
	DefaultOutput = "tvshow_details.html"
)

// Result 是一次转换的中间产物（解析结果 + 渲染结果）。
type Result struct {
	Meta domain.ShowMeta
	HTML string
}

// Converter 串联 Parser -> Renderer -> Writer。
//
// 约束：
// - 解析失败直接终止，不渲染、不写入（不会创建或修改输出文件）
// - 渲染没有失败路径
// - 写入失败映射为 write_failed，不重试
// - 无共享可变状态：不同输入/输出对可以并发调用
type Converter struct {
	Renderer render.Renderer
	Log      logrus.FieldLogger
}

func New(r render.Renderer, log logrus.FieldLogger) Converter {
	return Converter{Renderer: r, Log: log}
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Logger 返回 Converter 使用的 logger；未设置时返回丢弃一切输出的 logger。
func (c Converter) Logger() logrus.FieldLogger {
	if c.Log == nil {
		return discard
	}
	return c.Log
}

// Convert 使用零值 Converter（缺省渲染选项、不打日志）完成一次转换。
func Convert(inputPath, outputPath string) error {
	_, err := Converter{}.Convert(inputPath, outputPath)
	return err
}

// Build 只做解析与渲染，不落盘（用于 dry-run）。
func (c Converter) Build(inputPath string) (Result, error) {
	log := c.Logger().WithField("input", inputPath)

	m, err := nfo.Parse(inputPath)
	if err != nil {
		log.WithError(err).WithField("code", domain.ErrorCode(err)).Debug("parse nfo failed")
		return Result{}, err
	}
	log.WithFields(logrus.Fields{
		"title":   m.Title,
		"studios": len(m.Studios),
		"genres":  len(m.Genres),
		"tags":    len(m.Tags),
		"actors":  len(m.Actors),
	}).Debug("nfo parsed")

	return Result{Meta: m, HTML: c.Renderer.Render(m)}, nil
}

// Convert 解析 inputPath、渲染并原子写入 outputPath（覆盖已存在的文件）。
func (c Converter) Convert(inputPath, outputPath string) (Result, error) {
	res, err := c.Build(inputPath)
	if err != nil {
		return Result{}, err
	}

	log := c.Logger().WithFields(logrus.Fields{"input": inputPath, "output": outputPath})
	if err := fsx.WriteFile(outputPath, []byte(res.HTML)); err != nil {
		werr := &domain.Error{Code: domain.ErrCodeWriteFailed, Path: outputPath, Err: err}
		log.WithError(err).WithField("code", werr.Code).Debug("write html failed")
		return res, werr
	}
	log.WithField("bytes", len(res.HTML)).Info("html written")
	return res, nil
}
