package cache

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrEmptyFilename 表示标识符清洗后不剩任何合法字符。
var ErrEmptyFilename = errors.New("invalid cache filename: sanitization resulted in empty string")

// ErrOutsideRoot 表示解析后的路径不在缓存根目录之内。
var ErrOutsideRoot = errors.New("path outside cache root")

// ValidationError 描述无法作为缓存文件名使用的标识符，Input 保留原始输入便于排查。
type ValidationError struct {
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Input == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("cache identifier %q: %v", e.Input, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ErrorKind 对读取失败做粗粒度分类，仅用于日志。
type ErrorKind string

const (
	KindOutsideRoot  ErrorKind = "outside_root"
	KindNotFound     ErrorKind = "not_found"
	KindAccessDenied ErrorKind = "access_denied"
	KindIO           ErrorKind = "io"
)

// CacheError 是包内读取路径的失败结果；对外一律折叠为 miss。
type CacheError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func classifyError(path string, err error) *CacheError {
	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindAccessDenied
	}
	return &CacheError{Kind: kind, Path: path, Err: err}
}
