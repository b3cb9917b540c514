// Package render fetches pages from the origin renderer. The regeneration
// cache never renders anything itself; it forwards misses to the configured
// origin and stores what comes back.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request 描述一次需要渲染源处理的页面请求。
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// Origin 通过共享 http.Client 向渲染源发起请求。
type Origin struct {
	base   *url.URL
	client *http.Client
}

// NewOrigin 以 base 为渲染源根地址构造 Origin，client 为空时使用 http.DefaultClient。
func NewOrigin(base *url.URL, client *http.Client) (*Origin, error) {
	if base == nil || base.Host == "" {
		return nil, errors.New("origin url required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Origin{base: base, client: client}, nil
}

// Render 把请求转发给渲染源并返回原始响应，调用方负责关闭 Body。
func (o *Origin) Render(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	target := o.URL(req.Path, req.RawQuery)
	outbound, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}

	CopyHeaders(outbound.Header, req.Header)
	outbound.Header.Del("Host")
	// 缓存保存解码后的正文，压缩交给 Transport 透明处理。
	outbound.Header.Del("Accept-Encoding")

	resp, err := o.client.Do(outbound)
	if err != nil {
		return nil, fmt.Errorf("origin request: %w", err)
	}
	return resp, nil
}

// URL 拼接渲染源根路径与请求路径。
func (o *Origin) URL(path, rawQuery string) *url.URL {
	target := *o.base
	target.Path = joinURLPath(o.base.Path, path)
	target.RawPath = ""
	target.RawQuery = rawQuery
	return &target
}

func joinURLPath(base, path string) string {
	if path == "" {
		path = "/"
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
