package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// New 以 storagePath 为根目录构建注册表，整个进程复用一份实例。
// 两个 provider 均为必选；logger 为 nil 时退回 logrus 全局实例。
func New(storagePath string, metadata MetadataProvider, content ContentProvider, logger *logrus.Logger) (*Registry, error) {
	if storagePath == "" {
		return nil, errors.New("storage path required")
	}
	if metadata == nil {
		return nil, errors.New("metadata provider required")
	}
	if content == nil {
		return nil, errors.New("content provider required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	abs, err := filepath.Abs(storagePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	return &Registry{
		root:     abs,
		metadata: metadata,
		content:  content,
		logger:   logger,
		locks:    make(map[string]*entryLock),
	}, nil
}

// Registry 通过 entryLock 合并同进程内对同一 CacheKey 的并发下载；跨进程安全
// 完全依赖 rename 的原子性，不使用任何锁文件。
type Registry struct {
	root     string
	metadata MetadataProvider
	content  ContentProvider
	logger   *logrus.Logger

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

// Root 返回解析后的存储根目录绝对路径。
func (r *Registry) Root() string {
	return r.root
}

// Register 确保 (id, version, fileType) 对应的本体文件存在于本地缓存并返回其
// 绝对路径。命中时不触发任何 provider 调用；未命中时经由 ContentProvider 拉取，
// 先写入同目录下的临时文件，再 rename 到规范路径。并发调用（无论线程还是
// 进程）最终收敛到同一份文件，竞争失败方静默丢弃自己的临时文件。
func (r *Registry) Register(ctx context.Context, ontologyID string, version Version, fileType FileType) (string, error) {
	// 先校验 id，保证恶意标识符在任何网络/文件系统操作之前就被拒绝。
	if err := validateSegment(ontologyID); err != nil {
		return "", fmt.Errorf("ontology id %q: %w", ontologyID, err)
	}

	resolved, err := r.resolveVersion(ctx, ontologyID, version)
	if err != nil {
		return "", err
	}

	path, err := r.entryPath(ontologyID, resolved, fileType)
	if err != nil {
		return "", err
	}

	if entryExists(path) {
		r.logger.WithFields(logrus.Fields{
			"action":   "register",
			"ontology": ontologyID,
			"version":  resolved,
			"format":   string(fileType),
		}).Debug("已注册，直接返回缓存路径")
		return path, nil
	}

	unlock := r.lockEntry(path)
	defer unlock()

	// 拿到锁后重查：同进程竞争者可能刚刚完成发布。
	if entryExists(path) {
		return path, nil
	}

	if err := r.materialize(ctx, ontologyID, resolved, fileType, path); err != nil {
		return "", err
	}

	r.logger.WithFields(logrus.Fields{
		"action":   "register",
		"ontology": ontologyID,
		"version":  resolved,
		"format":   string(fileType),
		"path":     path,
	}).Info("本体注册完成")
	return path, nil
}

// Unregister 删除对应的缓存条目，条目不存在时返回 ErrNotRegistered。
// 该操作面向人工维护，注册表自身永远不会主动删除任何条目。
func (r *Registry) Unregister(ctx context.Context, ontologyID string, version Version, fileType FileType) error {
	resolved, err := r.resolveVersion(ctx, ontologyID, version)
	if err != nil {
		return err
	}
	path, err := r.entryPath(ontologyID, resolved, fileType)
	if err != nil {
		return err
	}

	unlock := r.lockEntry(path)
	defer unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s %s (%s): %w", ontologyID, resolved, fileType, ErrNotRegistered)
		}
		return fmt.Errorf("%w: remove cache entry: %s", ErrIoFailure, err)
	}

	r.logger.WithFields(logrus.Fields{
		"action":   "unregister",
		"ontology": ontologyID,
		"version":  resolved,
		"format":   string(fileType),
	}).Info("本体已注销")
	return nil
}

// Lookup 返回已缓存条目的绝对路径，缺失时返回 ErrNotRegistered，绝不触发下载。
func (r *Registry) Lookup(ctx context.Context, ontologyID string, version Version, fileType FileType) (string, error) {
	resolved, err := r.resolveVersion(ctx, ontologyID, version)
	if err != nil {
		return "", err
	}
	path, err := r.entryPath(ontologyID, resolved, fileType)
	if err != nil {
		return "", err
	}
	if !entryExists(path) {
		return "", fmt.Errorf("%s %s (%s): %w", ontologyID, resolved, fileType, ErrNotRegistered)
	}
	return path, nil
}

// List 返回存储根目录下所有已发布条目的相对路径（slash 风格），按字典序排序。
// 以点开头的临时文件不会出现在结果中。
func (r *Registry) List() ([]string, error) {
	var entries []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, relErr := filepath.Rel(r.root, path)
		if relErr != nil {
			return relErr
		}
		entries = append(entries, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk storage path: %w", err)
	}
	sort.Strings(entries)
	return entries, nil
}

// resolveVersion 把版本选择器解析为具体版本串。Declared 原样返回；Latest 通过
// MetadataProvider 查询，任何失败统一归类为 ErrMetadataUnavailable。
func (r *Registry) resolveVersion(ctx context.Context, ontologyID string, version Version) (string, error) {
	if !version.IsLatest() {
		if version.declared == "" {
			return "", fmt.Errorf("%w: empty declared version", ErrInvalidIdentifier)
		}
		return version.declared, nil
	}

	meta, err := r.metadata.ProvideMetadata(ctx, ontologyID)
	if err != nil {
		if errors.Is(err, ErrMetadataUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s", ErrMetadataUnavailable, err)
	}
	if meta == nil || strings.TrimSpace(meta.Version) == "" {
		return "", fmt.Errorf("%w: no version published for %q", ErrMetadataUnavailable, ontologyID)
	}
	return meta.Version, nil
}

// materialize 执行“拉取 → 临时文件 → rename 发布”。临时文件建在目标目录内，
// 保证 rename 发生在同一文件系统上。rename 前规范路径已经出现时，丢弃本次
// 下载并视为成功。
func (r *Registry) materialize(ctx context.Context, ontologyID, resolvedVersion string, fileType FileType, path string) error {
	body, err := r.content.FetchOntology(ctx, ontologyID, resolvedVersion, fileType)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrFetchFailed) {
			return err
		}
		return fmt.Errorf("%w: %s", ErrFetchFailed, err)
	}
	defer body.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create entry dir: %s", ErrIoFailure, err)
	}

	tempFile, err := os.CreateTemp(dir, ".onto-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %s", ErrIoFailure, err)
	}
	tempName := tempFile.Name()

	_, copyErr := copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(tempName)
		return fmt.Errorf("%w: write temp file: %s", ErrIoFailure, copyErr)
	}

	// 另一个进程可能已在 fetch 窗口内完成发布：丢弃冗余下载即可，内容按
	// CacheKey 约定是逐字节一致的。
	if entryExists(path) {
		os.Remove(tempName)
		r.logger.WithFields(logrus.Fields{
			"action":   "register",
			"ontology": ontologyID,
			"version":  resolvedVersion,
			"path":     path,
		}).Debug("条目已被并发调用方发布，丢弃本次下载")
		return nil
	}

	if err := os.Rename(tempName, path); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("%w: publish cache entry: %s", ErrIoFailure, err)
	}
	return nil
}

func (r *Registry) lockEntry(key string) func() {
	r.mu.Lock()
	lock := r.locks[key]
	if lock == nil {
		lock = &entryLock{}
		r.locks[key] = lock
	}
	lock.refs++
	r.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		r.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}

// entryExists 仅把常规文件视为已发布条目。
func entryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
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
