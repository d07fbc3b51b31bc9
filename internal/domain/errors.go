package domain

import (
	"errors"
	"fmt"
)

const (
	// ErrCodeNotFound 表示输入 NFO 路径不存在。
	ErrCodeNotFound = "nfo_not_found"
	// ErrCodeMalformed 表示输入不是格式良好的 XML。
	ErrCodeMalformed = "nfo_malformed"
	// ErrCodeReadFailed 表示输入存在但无法读取（权限不足、是目录等）。
	ErrCodeReadFailed = "read_failed"
	// ErrCodeWriteFailed 表示输出 HTML 无法写入。
	ErrCodeWriteFailed = "write_failed"
	// ErrCodeScanFailed 表示批量模式扫描目录失败。
	ErrCodeScanFailed = "scan_failed"
	// ErrCodeCanceled 表示批量执行被取消，条目未被处理。
	ErrCodeCanceled = "canceled"
)

// Error 是一次转换的终止性错误（带 error_code）。所有错误都不重试。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到 NFO 文件 %q", e.Code, e.Path)
	case ErrCodeMalformed:
		return fmt.Sprintf("%s：NFO 文件 %q 不是合法的 XML：%v", e.Code, e.Path, e.Err)
	case ErrCodeReadFailed:
		return fmt.Sprintf("%s：读取 NFO 文件 %q 失败：%v", e.Code, e.Path, e.Err)
	case ErrCodeWriteFailed:
		return fmt.Sprintf("%s：写入 HTML 文件 %q 失败：%v", e.Code, e.Path, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode 从 error 中提取 error_code；若不是 *Error 则返回空串。
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
