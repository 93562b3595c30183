package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/onto-hub/onto-hub/internal/registry"
)

// OBOLibrary 从 OBO PURL 服务下载指定版本的发布文件，
// 路径布局为 <base>/<id>/releases/<version>/<id>.<ext>。
type OBOLibrary struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

var _ registry.ContentProvider = (*OBOLibrary)(nil)

// NewOBOLibrary 构造内容 provider，baseURL 末尾的 "/" 会被去除。
func NewOBOLibrary(baseURL string, client *http.Client, userAgent string) *OBOLibrary {
	if client == nil {
		client = http.DefaultClient
	}
	return &OBOLibrary{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    client,
		userAgent: userAgent,
	}
}

// FetchOntology 以流式方式返回发布文件正文，调用方负责 Close。
// 404 视为上游不提供该格式（ErrUnsupportedFormat），其余失败为 ErrFetchFailed。
func (p *OBOLibrary) FetchOntology(ctx context.Context, ontologyID, version string, fileType registry.FileType) (io.ReadCloser, error) {
	fileName := ontologyID + fileType.Extension()
	endpoint := fmt.Sprintf("%s/%s/releases/%s/%s",
		p.baseURL, url.PathEscape(ontologyID), url.PathEscape(version), url.PathEscape(fileName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %s", registry.ErrFetchFailed, err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", registry.ErrFetchFailed, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s not available as %s (version %s)",
			registry.ErrUnsupportedFormat, ontologyID, fileType, version)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: obo library returned %s for %s", registry.ErrFetchFailed, resp.Status, fileName)
	}
}
