package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/onto-hub/onto-hub/internal/registry"
)

// bioRegistryResource 对应 bioregistry.io /api/registry/<id> 的响应体，
// 只解码需要的字段。
type bioRegistryResource struct {
	Prefix       string `json:"prefix"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	DownloadOWL  string `json:"download_owl"`
	DownloadOBO  string `json:"download_obo"`
	DownloadJSON string `json:"download_json"`
}

// BioRegistry 通过 bioregistry.io 的注册表 API 解析本体元信息。
type BioRegistry struct {
	apiURL    string
	client    *http.Client
	userAgent string
}

var _ registry.MetadataProvider = (*BioRegistry)(nil)

// NewBioRegistry 构造元信息 provider，apiURL 会被规范化为以 "/" 结尾。
func NewBioRegistry(apiURL string, client *http.Client, userAgent string) *BioRegistry {
	if client == nil {
		client = http.DefaultClient
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	return &BioRegistry{
		apiURL:    apiURL,
		client:    client,
		userAgent: userAgent,
	}
}

// ProvideMetadata 查询 <api>/registry/<id> 并返回当前发布版本等元信息。
// 任何网络、解码或缺失版本字段的失败都归类为 ErrMetadataUnavailable。
func (p *BioRegistry) ProvideMetadata(ctx context.Context, ontologyID string) (*registry.Metadata, error) {
	endpoint := p.apiURL + "registry/" + url.PathEscape(ontologyID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %s", registry.ErrMetadataUnavailable, err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", registry.ErrMetadataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bioregistry returned %s for %q", registry.ErrMetadataUnavailable, resp.Status, ontologyID)
	}

	var resource bioRegistryResource
	if err := json.NewDecoder(resp.Body).Decode(&resource); err != nil {
		return nil, fmt.Errorf("%w: decode response for %q: %s", registry.ErrMetadataUnavailable, ontologyID, err)
	}
	if strings.TrimSpace(resource.Version) == "" {
		return nil, fmt.Errorf("%w: no version published for %q", registry.ErrMetadataUnavailable, ontologyID)
	}

	return &registry.Metadata{
		Prefix:       resource.Prefix,
		Title:        resource.Name,
		Version:      resource.Version,
		DownloadJSON: resource.DownloadJSON,
		DownloadOWL:  resource.DownloadOWL,
		DownloadOBO:  resource.DownloadOBO,
	}, nil
}
