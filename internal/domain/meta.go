package domain

// 标量字段的缺省值：NFO 中完全缺少对应元素时使用。
// 元素存在但文本为空时保留空串，不回退到缺省值。
const (
	DefaultTitle         = "Unknown Title"
	DefaultOriginalTitle = "Unknown originaltitle"
	DefaultPlot          = "No plot available."
	DefaultPremiered     = "N/A"
	DefaultMPAA          = "Not Rated"
)

// ShowMeta 是从 tvshow.nfo 解析得到的剧集元数据。
//
// 约束：
// - Studios/Genres/Tags/Actors 的顺序与 NFO 文档顺序一致
// - 列表中不出现空串；没有 name 的 actor 整条丢弃
// - 每次转换构造一次，渲染后丢弃，不做修改
type ShowMeta struct {
	Title         string
	OriginalTitle string
	Plot          string
	Premiered     string
	MPAA          string

	Studios []string
	Genres  []string
	Tags    []string

	Actors []Actor
}

// Actor 是 <actor> 元素的结构化结果。
// Role/Thumb 为 nil 表示元素缺失；指向 "" 表示元素存在但为空，两者在渲染时需要区分。
type Actor struct {
	Name  string
	Role  *string
	Thumb *string
}

// RoleText 返回 role 文本；缺失时为空串（渲染为 "as " 后面留空）。
func (a Actor) RoleText() string {
	if a.Role == nil {
		return ""
	}
	return *a.Role
}

// HasThumb 表示是否应渲染头像：缺失与空串都视为没有头像。
func (a Actor) HasThumb() bool {
	return a.Thumb != nil && *a.Thumb != ""
}

// ThumbURL 返回 thumb 文本（缺失时为空串）。
func (a Actor) ThumbURL() string {
	if a.Thumb == nil {
		return ""
	}
	return *a.Thumb
}

// ShowFile 描述批量扫描得到的一个 NFO 文件（只做 stat，不读内容）。
type ShowFile struct {
	AbsPath string
	RelPath string
	Dir     string // AbsPath 所在目录（输出 HTML 写在这里）
}
