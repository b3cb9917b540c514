package cache

import (
	"bytes"
	"io"
	"net/http"
)

// CloneBody 读出完整响应体，并把 resp.Body 换成内容相同的新 Reader，
// 避免单次读取的流被缓存写入耗尽。读取失败时 resp.Body 保留已读到的部分。
func CloneBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil || resp.Body == http.NoBody {
		return []byte{}, nil
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return data, nil
}
