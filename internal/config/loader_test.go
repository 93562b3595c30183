package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onto-hub/onto-hub/internal/registry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置 fixture 失败: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
ListenPort = 6001
LogLevel = "debug"
StoragePath = "./ontologies"
UpstreamTimeout = "45s"
MetadataAPI = "https://bioregistry.io/api/"
ContentBaseURL = "https://purl.obolibrary.org/obo"
UserAgent = "onto-hub-test"

[[Pin]]
Ontology = "hp"
Version = "2026-01-16"
Format = "json"

[[Pin]]
Ontology = "uo"
Format = "obo"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	if cfg.Global.ListenPort != 6001 {
		t.Fatalf("ListenPort 不符: %d", cfg.Global.ListenPort)
	}
	if cfg.Global.UpstreamTimeout.DurationValue() != 45*time.Second {
		t.Fatalf("UpstreamTimeout 不符: %v", cfg.Global.UpstreamTimeout.DurationValue())
	}
	if !filepath.IsAbs(cfg.Global.StoragePath) {
		t.Fatalf("StoragePath 应转换为绝对路径: %s", cfg.Global.StoragePath)
	}

	if len(cfg.Pins) != 2 {
		t.Fatalf("Pin 数量不符: %d", len(cfg.Pins))
	}
	if cfg.Pins[0].Format != registry.FileTypeJSON {
		t.Fatalf("Pin[0].Format 不符: %s", cfg.Pins[0].Format)
	}
	if cfg.Pins[0].Selector().IsLatest() {
		t.Fatalf("声明版本的 Pin 不应解析为 Latest")
	}
	if !cfg.Pins[1].Selector().IsLatest() {
		t.Fatalf("未声明版本的 Pin 应解析为 Latest")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
StoragePath = "./storage"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Global.ListenPort != 5800 {
		t.Fatalf("默认端口不符: %d", cfg.Global.ListenPort)
	}
	if cfg.Global.LogLevel != "info" {
		t.Fatalf("默认日志级别不符: %s", cfg.Global.LogLevel)
	}
	if cfg.Global.MetadataAPI == "" || cfg.Global.ContentBaseURL == "" {
		t.Fatalf("上游端点应有默认值")
	}
	if cfg.Global.UserAgent != "onto-hub" {
		t.Fatalf("默认 UA 不符: %s", cfg.Global.UserAgent)
	}
}

func TestLoadDurationAsSeconds(t *testing.T) {
	path := writeConfig(t, `
StoragePath = "./storage"
UpstreamTimeout = 90
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Global.UpstreamTimeout.DurationValue() != 90*time.Second {
		t.Fatalf("纯数字秒值解析错误: %v", cfg.Global.UpstreamTimeout.DurationValue())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatalf("缺失配置文件应返回错误")
	}
}

func TestLoadRejectsBadListenPort(t *testing.T) {
	path := writeConfig(t, `
ListenPort = 70000
StoragePath = "./storage"
`)

	_, err := Load(path)
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "Global.ListenPort" {
		t.Fatalf("期望 Global.ListenPort 字段错误，得到 %v", err)
	}
}

func TestLoadRejectsBadEndpoint(t *testing.T) {
	path := writeConfig(t, `
StoragePath = "./storage"
MetadataAPI = "ftp://example.com/api"
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("非 http/https 端点应被拒绝")
	}
}

func TestLoadRejectsBadPin(t *testing.T) {
	cases := map[string]string{
		"empty ontology": `
StoragePath = "./storage"
[[Pin]]
Ontology = ""
Format = "json"
`,
		"separator in ontology": `
StoragePath = "./storage"
[[Pin]]
Ontology = "a/b"
Format = "json"
`,
		"unknown format": `
StoragePath = "./storage"
[[Pin]]
Ontology = "hp"
Format = "ttl"
`,
		"duplicate pin": `
StoragePath = "./storage"
[[Pin]]
Ontology = "hp"
Version = "1.0"
Format = "json"
[[Pin]]
Ontology = "hp"
Version = "1.0"
Format = "json"
`,
	}

	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("%s: 应返回错误", name)
		}
	}
}
