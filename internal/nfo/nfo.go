package nfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/net/html/charset"

	"github.com/John-Robertt/nfo2html/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// document 只描述根元素的直接子元素；根元素名不做约束（tvshow/movie/... 均可）。
//
// 标量字段也用 []string 接收：encoding/xml 对非切片字段会被后出现的同名元素覆盖，
// 而约定是“取第一个”；切片还能区分“元素缺失”与“元素存在但为空”。
type document struct {
	Title         []string `xml:"title"`
	OriginalTitle []string `xml:"originaltitle"`
	Plot          []string `xml:"plot"`
	Premiered     []string `xml:"premiered"`
	MPAA          []string `xml:"mpaa"`

	Studios []string `xml:"studio"`
	Genres  []string `xml:"genre"`
	Tags    []string `xml:"tag"`

	Actors []actor `xml:"actor"`
}

type actor struct {
	Name  []string `xml:"name"`
	Role  []string `xml:"role"`
	Thumb []string `xml:"thumb"`
}

// Parse 读取并解析 path 指向的 NFO 文件。
//
// 错误（均为 *domain.Error）：
// - nfo_not_found：路径不存在
// - read_failed：存在但无法读取（权限、目录等）
// - nfo_malformed：内容不是格式良好的 XML
func Parse(path string) (domain.ShowMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ShowMeta{}, &domain.Error{Code: domain.ErrCodeNotFound, Path: path, Err: err}
		}
		return domain.ShowMeta{}, &domain.Error{Code: domain.ErrCodeReadFailed, Path: path, Err: err}
	}

	m, err := Decode(b)
	if err != nil {
		return domain.ShowMeta{}, &domain.Error{Code: domain.ErrCodeMalformed, Path: path, Err: err}
	}
	return m, nil
}

// Decode 把 NFO 内容解析为 ShowMeta。
//
// 规则：
// - 必须是格式良好的 XML：恰好一个根元素，根元素前后只允许空白/注释/处理指令
// - 允许 UTF-8 BOM；prolog 声明了非 UTF-8 编码时按声明解码
// - 文本原样保留（不 TrimSpace）
func Decode(b []byte) (domain.ShowMeta, error) {
	b = bytes.TrimPrefix(b, utf8BOM)

	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.CharsetReader = charset.NewReaderLabel

	start, err := rootElement(dec)
	if err != nil {
		return domain.ShowMeta{}, err
	}

	var doc document
	if err := dec.DecodeElement(&doc, &start); err != nil {
		return domain.ShowMeta{}, err
	}
	if err := expectEnd(dec); err != nil {
		return domain.ShowMeta{}, err
	}
	return doc.meta(), nil
}

func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, errors.New("缺少根元素")
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, fmt.Errorf("根元素之前出现文本：%q", truncate(string(t), 40))
			}
		}
	}
}

// expectEnd 要求根元素之后只剩空白/注释/处理指令。
func expectEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("根元素之后出现多余元素 <%s>", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("根元素之后出现文本：%q", truncate(string(t), 40))
			}
		}
	}
}

func (d document) meta() domain.ShowMeta {
	m := domain.ShowMeta{
		Title:         first(d.Title, domain.DefaultTitle),
		OriginalTitle: first(d.OriginalTitle, domain.DefaultOriginalTitle),
		Plot:          first(d.Plot, domain.DefaultPlot),
		Premiered:     first(d.Premiered, domain.DefaultPremiered),
		MPAA:          first(d.MPAA, domain.DefaultMPAA),

		Studios: nonEmpty(d.Studios),
		Genres:  nonEmpty(d.Genres),
		Tags:    nonEmpty(d.Tags),
	}

	for _, a := range d.Actors {
		name := first(a.Name, "")
		if name == "" {
			// 没有 name 的 actor 整条丢弃，不保留部分字段。
			continue
		}
		m.Actors = append(m.Actors, domain.Actor{
			Name:  name,
			Role:  firstPtr(a.Role),
			Thumb: firstPtr(a.Thumb),
		})
	}
	return m
}

func first(vals []string, def string) string {
	if len(vals) == 0 {
		return def
	}
	return vals[0]
}

func firstPtr(vals []string) *string {
	if len(vals) == 0 {
		return nil
	}
	s := vals[0]
	return &s
}

func nonEmpty(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
