package render

import (
	"html/template"
	"strings"

	"github.com/John-Robertt/nfo2html/internal/domain"
)

const (
	DefaultLang           = "pt-br"
	DefaultStylesheet     = "style.css"
	DefaultFolderImage    = "./folder.jpg"
	DefaultPlaceholderURL = "https://via.placeholder.com/50"
)

// Options 控制页面外壳中的固定引用；零值字段使用缺省值。
// style.css / folder.jpg 只是被引用，由使用者放在输出 HTML 同目录，本工具不管理它们。
type Options struct {
	Lang           string
	Stylesheet     string
	FolderImage    string
	PlaceholderURL string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Lang) == "" {
		o.Lang = DefaultLang
	}
	if strings.TrimSpace(o.Stylesheet) == "" {
		o.Stylesheet = DefaultStylesheet
	}
	if strings.TrimSpace(o.FolderImage) == "" {
		o.FolderImage = DefaultFolderImage
	}
	if strings.TrimSpace(o.PlaceholderURL) == "" {
		o.PlaceholderURL = DefaultPlaceholderURL
	}
	return o
}

// Renderer 把 ShowMeta 渲染为单个自包含的 HTML5 文档。
// 纯函数：相同输入 => 字节级相同输出；可并发使用。零值可用（全部取缺省值）。
type Renderer struct {
	opts Options
}

func New(opts Options) Renderer {
	return Renderer{opts: opts}
}

// Render 使用缺省 Options 渲染。
func Render(m domain.ShowMeta) string {
	return New(Options{}).Render(m)
}

type pageData struct {
	Options
	Show domain.ShowMeta
}

// Render 渲染完整文档。
//
// 字段值经 html/template 做上下文转义（正文/属性/URL/JS 字符串各自按上下文处理），
// 因此 NFO 中的 "<"、"&" 等字符不会破坏页面结构。
func (r Renderer) Render(m domain.ShowMeta) string {
	var sb strings.Builder
	if err := pageTpl.Execute(&sb, pageData{Options: r.opts.withDefaults(), Show: m}); err != nil {
		// 模板在 init 时已校验，strings.Builder 也不会写失败；走到这里只可能是模板本身的 bug。
		panic("render: " + err.Error())
	}
	return sb.String()
}

// joinOrNA 按原顺序用 ", " 连接；空列表渲染为字面量 N/A。
func joinOrNA(xs []string) string {
	if len(xs) == 0 {
		return "N/A"
	}
	return strings.Join(xs, ", ")
}

var pageTpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"list": joinOrNA,
}).Parse(pageSrc))

const pageSrc = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Show.Title}} - TV Show Details</title>
    <link rel="stylesheet" href="{{.Stylesheet}}">
</head>
<body>
    <header>
        <h1>{{.Show.Title}}</h1>
        <p class="originaltitle">Título Original: {{.Show.OriginalTitle}}</p>
        <p class="premiered">Premiered: {{.Show.Premiered}}</p>
    </header>

    <main>
        <section class="folder">
            <img src="{{.FolderImage}}" align="left">
        </section>
        <section class="overview">
            <h2>Sinopse:</h2>
            <p>{{.Show.Plot}}</p>
            <p><strong>Clasificação:</strong> {{.Show.MPAA}}</p>
            <p><strong>Estudios:</strong> {{list .Show.Studios}}</p>
            <p><strong>Gêneros:</strong> {{list .Show.Genres}}</p>
            <p><strong>Tags:</strong> {{list .Show.Tags}}</p>
        </section>
{{- if .Show.Actors}}
        <section class="cast">
            <h2>Elenco:</h2>
            <div class="actor-list">
{{- range .Show.Actors}}
                <div class="actor">
{{- if .HasThumb}}
                    <img src="{{.ThumbURL}}" alt="{{.Name}}" onerror="this.onerror=null;this.src='{{$.PlaceholderURL}}';">
{{- end}}
                    <p><strong>{{.Name}}</strong> as {{.RoleText}}</p>
                </div>
{{- end}}
            </div>
        </section>
{{- end}}
    </main>

    <footer>
        <p>&copy; 2025 TV Show Converter. Data parsed from NFO file.</p>
    </footer>
</body>
</html>
`
