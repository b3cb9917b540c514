package cache

import (
	"os"
	"path/filepath"
	"strings"
)

// Read 读取 root 下的缓存文件，与具体 Manager 无关。path 会先规范化为绝对路径
// （消解 . 与 ..），越出 root 或读取失败时返回 nil, false，不暴露原因。
//
// 前缀比较忽略大小写：部署环境为 Linux，根目录固定为小写的 /tmp。
// 在区分大小写的文件系统上这会略微放宽包含检查，例如仅根前缀大小写不同的路径。
func Read(root, path string) ([]byte, bool) {
	data, err := readEntry(root, path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func readEntry(root, path string) ([]byte, error) {
	base, err := resolveRoot(root)
	if err != nil {
		return nil, &CacheError{Kind: KindIO, Path: root, Err: err}
	}

	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, &CacheError{Kind: KindIO, Path: path, Err: err}
	}
	if !withinRoot(base, resolved) {
		return nil, &CacheError{Kind: KindOutsideRoot, Path: resolved, Err: ErrOutsideRoot}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, classifyError(resolved, err)
	}
	return data, nil
}

// withinRoot 要求 target 等于 root 或位于 root/ 之下，两者都是已 Clean 的绝对路径。
func withinRoot(root, target string) bool {
	root = strings.ToLower(root)
	target = strings.ToLower(target)
	if target == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}
