package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// DefaultRoot 返回默认缓存根目录。Serverless 运行环境里只有系统临时目录
// 能保证在多次调用之间可写，因此缓存文件全部落在这里，清理交给平台。
func DefaultRoot() string {
	return os.TempDir()
}

// ManagerOptions 描述单个缓存条目的构造参数，Logger/Now 为空时使用默认值。
type ManagerOptions struct {
	Root       string
	TTL        time.Duration
	Identifier string
	Logger     *logrus.Logger
	Now        func() time.Time
}

// Manager 绑定一个已清洗的文件名，负责新鲜度判断与后台写入。
// 每个请求构造一个实例即可，多个实例共享根目录但互不协调。
type Manager struct {
	root     string
	ttl      time.Duration
	filename string
	logger   *logrus.Logger
	now      func() time.Time

	saves conc.WaitGroup
}

// NewManager 清洗标识符并解析根目录；清洗结果为空时返回带原始输入的 ValidationError。
func NewManager(opts ManagerOptions) (*Manager, error) {
	filename, err := SanitizeFilename(opts.Identifier)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			withInput := *verr
			withInput.Input = opts.Identifier
			return nil, &withInput
		}
		return nil, err
	}

	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		root:     root,
		ttl:      opts.TTL,
		filename: filename,
		logger:   logger,
		now:      now,
	}, nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = DefaultRoot()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve cache root: %w", err)
	}
	return abs, nil
}

// Root 返回解析后的绝对根目录。
func (m *Manager) Root() string {
	return m.root
}

// Filename 返回清洗后的文件名。
func (m *Manager) Filename() string {
	return m.filename
}

// Path 返回 <root>/<filename>，不做任何 I/O。
func (m *Manager) Path() string {
	return filepath.Join(m.root, m.filename)
}

// Exists 报告缓存文件是否存在；任何 stat 失败都视为不存在。
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.Path())
	return err == nil
}

// LastModified 返回缓存文件的修改时间，文件不存在时 ok 为 false。
func (m *Manager) LastModified() (time.Time, bool) {
	info, err := os.Stat(m.Path())
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// IsValid 判断条目是否仍在 TTL 窗口内：now - mtime < ttl。
func (m *Manager) IsValid() bool {
	modTime, ok := m.LastModified()
	if !ok {
		return false
	}
	return m.now().Sub(modTime) < m.ttl
}

// Read 读取当前条目。失败原因只在 debug 日志中出现，调用方只看到 miss。
func (m *Manager) Read() ([]byte, bool) {
	data, err := readEntry(m.root, m.Path())
	if err != nil {
		var cacheErr *CacheError
		if errors.As(err, &cacheErr) {
			m.logger.WithFields(logrus.Fields{
				"action": "cache_read",
				"kind":   cacheErr.Kind,
				"path":   cacheErr.Path,
			}).Debug("cache miss")
		}
		return nil, false
	}
	return data, true
}

// Save 在后台 goroutine 中写入 content，立即返回。写入失败只记录 warn 日志，
// 缓存是尽力而为的，绝不能影响正在返回的响应。
func (m *Manager) Save(content []byte) {
	data := append([]byte(nil), content...)
	m.saves.Go(func() {
		if err := m.write(context.Background(), data); err != nil {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_save",
				"path":   m.Path(),
			}).Warn("Failed to save cache file")
		}
	})
}

// SaveResponse 复制响应体后调用 Save，resp.Body 会被替换为等价的新 Reader，
// 调用方仍可照常读取。resp 为 nil 时直接返回。
func (m *Manager) SaveResponse(resp *http.Response) {
	if resp == nil {
		return
	}
	data, err := CloneBody(resp)
	if err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"action": "cache_save",
			"path":   m.Path(),
		}).Warn("Failed to read response body for cache")
		return
	}
	m.Save(data)
}

// Wait 阻塞到该实例发起的所有写入结束；请求路径不调用它，只用于测试与停机。
func (m *Manager) Wait() {
	if recovered := m.saves.WaitAndRecover(); recovered != nil {
		m.logger.WithFields(logrus.Fields{
			"action": "cache_save",
			"path":   m.Path(),
		}).Error(recovered.String())
	}
}

// write 先写临时文件再 rename，读者永远不会看到写了一半的条目。
// 并发写同一文件时最后一次 rename 生效。
func (m *Manager) write(ctx context.Context, content []byte) error {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(m.root, ".regen-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = copyWithContext(ctx, tempFile, bytes.NewReader(content))
	if err == nil {
		err = tempFile.Chmod(0o644)
	}
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, m.Path()); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
