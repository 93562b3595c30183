package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/onto-hub/onto-hub/internal/registry"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述全局运行时行为：缓存根目录、HTTP 服务端口、日志与上游端点。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	StoragePath     string   `mapstructure:"StoragePath"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	MetadataAPI     string   `mapstructure:"MetadataAPI"`
	ContentBaseURL  string   `mapstructure:"ContentBaseURL"`
	UserAgent       string   `mapstructure:"UserAgent"`
}

// PinConfig 声明一条启动时预取的本体，Version 为空或 "latest" 时动态解析。
type PinConfig struct {
	Ontology string            `mapstructure:"Ontology"`
	Version  string            `mapstructure:"Version"`
	Format   registry.FileType `mapstructure:"Format"`
}

// Selector 把配置里的版本串转换为注册表的版本选择器。
func (p PinConfig) Selector() registry.Version {
	if strings.TrimSpace(p.Version) == "" {
		return registry.Latest
	}
	return registry.ParseVersion(p.Version)
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Pins   []PinConfig  `mapstructure:"Pin"`
}
