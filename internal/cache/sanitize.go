package cache

import "strings"

// SanitizeFilename 去掉 [A-Za-z0-9_-] 之外的所有字节，结果可直接拼接到缓存根目录下。
// 百分号编码不会被解码：`%2F` 只会丢掉 `%`，留下 `2F`。
func SanitizeFilename(input string) (string, error) {
	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); i++ {
		if c := input[i]; isFilenameByte(c) {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return "", &ValidationError{Err: ErrEmptyFilename}
	}
	return b.String(), nil
}

func isFilenameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}
