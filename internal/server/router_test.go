package server

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/onto-hub/onto-hub/internal/registry"
)

type stubMetadata struct {
	versions map[string]string
}

func (m *stubMetadata) ProvideMetadata(_ context.Context, ontologyID string) (*registry.Metadata, error) {
	version, ok := m.versions[ontologyID]
	if !ok {
		return nil, errors.New("unknown ontology")
	}
	return &registry.Metadata{Prefix: ontologyID, Version: version}, nil
}

type stubContent struct {
	payload map[string]string
	fetches int32
}

func (c *stubContent) FetchOntology(_ context.Context, ontologyID, _ string, _ registry.FileType) (io.ReadCloser, error) {
	atomic.AddInt32(&c.fetches, 1)
	body, ok := c.payload[ontologyID]
	if !ok {
		return nil, registry.ErrUnsupportedFormat
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func newTestApp(t *testing.T, metadata *stubMetadata, content *stubContent) *fiber.App {
	t.Helper()

	if metadata == nil {
		metadata = &stubMetadata{versions: map[string]string{}}
	}
	if content == nil {
		content = &stubContent{payload: map[string]string{}}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reg, err := registry.New(t.TempDir(), metadata, content, logger)
	if err != nil {
		t.Fatalf("构建注册表失败: %v", err)
	}

	app, err := NewApp(AppOptions{
		Logger:     logger,
		Registry:   reg,
		ListenPort: 5800,
	})
	if err != nil {
		t.Fatalf("构建应用失败: %v", err)
	}
	return app
}

func TestFetchMaterializesAndServes(t *testing.T) {
	content := &stubContent{payload: map[string]string{"hp": `{"graphs":[]}`}}
	app := newTestApp(t, nil, content)

	req := httptest.NewRequest("GET", "/ontologies/hp/2026-01-16/json", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("期望 200，得到 %d (body=%s)", resp.StatusCode, body)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"graphs":[]}` {
		t.Fatalf("响应正文不符: %s", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("缺少 X-Request-ID 头")
	}
	if resp.Header.Get("X-Onto-Hub-Cache-Hit") != "false" {
		t.Fatalf("首次请求应为缓存未命中")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/ontologies/hp/2026-01-16/json", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.Header.Get("X-Onto-Hub-Cache-Hit") != "true" {
		t.Fatalf("二次请求应命中缓存")
	}
	if n := atomic.LoadInt32(&content.fetches); n != 1 {
		t.Fatalf("期望仅回源一次，实际 %d 次", n)
	}
}

func TestFetchLatestResolvesVersion(t *testing.T) {
	metadata := &stubMetadata{versions: map[string]string{"uo": "2026-01-16"}}
	content := &stubContent{payload: map[string]string{"uo": "unit ontology"}}
	app := newTestApp(t, metadata, content)

	resp, err := app.Test(httptest.NewRequest("GET", "/ontologies/uo/latest/json", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("期望 200，得到 %d", resp.StatusCode)
	}

	// 固定版本路径应命中 latest 请求落盘的同一条目。
	resp, err = app.Test(httptest.NewRequest("GET", "/ontologies/uo/2026-01-16/json", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.Header.Get("X-Onto-Hub-Cache-Hit") != "true" {
		t.Fatalf("声明版本请求应命中缓存")
	}
	if n := atomic.LoadInt32(&content.fetches); n != 1 {
		t.Fatalf("期望仅回源一次，实际 %d 次", n)
	}
}

func TestFetchUnknownFormat(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/ontologies/hp/1.0/ttl", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Fatalf("未知格式应返回 415，得到 %d", resp.StatusCode)
	}
}

func TestFetchMetadataUnavailable(t *testing.T) {
	app := newTestApp(t, &stubMetadata{versions: map[string]string{}}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/ontologies/hp/latest/json", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("元信息解析失败应返回 502，得到 %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "metadata_unavailable") {
		t.Fatalf("错误码不符: %s", body)
	}
}

func TestFetchUpstreamMissingOntology(t *testing.T) {
	app := newTestApp(t, nil, &stubContent{payload: map[string]string{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/ontologies/nope/1.0/json", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Fatalf("上游不提供该格式应返回 415，得到 %d", resp.StatusCode)
	}
}

func TestRemoveOntology(t *testing.T) {
	content := &stubContent{payload: map[string]string{"hp": "x"}}
	app := newTestApp(t, nil, content)

	if _, err := app.Test(httptest.NewRequest("GET", "/ontologies/hp/1.0/json", nil)); err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("DELETE", "/ontologies/hp/1.0/json", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("注销应返回 204，得到 %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("DELETE", "/ontologies/hp/1.0/json", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("重复注销应返回 404，得到 %d", resp.StatusCode)
	}
}
