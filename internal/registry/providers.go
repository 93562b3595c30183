package registry

import (
	"context"
	"io"
)

// MetadataProvider 解析某个本体当前发布的元信息，Latest 选择器依赖它取得具体版本。
// 实现（HTTP 客户端、测试桩等）返回的任何错误都会被注册表统一归类为
// ErrMetadataUnavailable。
type MetadataProvider interface {
	ProvideMetadata(ctx context.Context, ontologyID string) (*Metadata, error)
}

// ContentProvider 按 (id, version, fileType) 拉取本体文件正文。实现应在上游
// 明确不提供该格式时返回 ErrUnsupportedFormat，其余失败返回 ErrFetchFailed
// 或任意错误（注册表会包装为 ErrFetchFailed）。
type ContentProvider interface {
	FetchOntology(ctx context.Context, ontologyID, version string, fileType FileType) (io.ReadCloser, error)
}
