package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString 返回 message 的 SHA-256 十六进制摘要，常用作缓存标识符。
func HashString(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}
