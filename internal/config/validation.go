package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.StoragePath == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if err := validateEndpoint(g.MetadataAPI); err != nil {
		return fmt.Errorf("Global.MetadataAPI: %w", err)
	}
	if err := validateEndpoint(g.ContentBaseURL); err != nil {
		return fmt.Errorf("Global.ContentBaseURL: %w", err)
	}

	seen := map[string]struct{}{}
	for i := range c.Pins {
		pin := &c.Pins[i]
		if strings.TrimSpace(pin.Ontology) == "" {
			return newFieldError(pinField("", "Ontology"), "不能为空")
		}
		if strings.ContainsAny(pin.Ontology, `/\`) {
			return newFieldError(pinField(pin.Ontology, "Ontology"), "不允许包含路径分隔符")
		}
		if !pin.Format.Valid() {
			return newFieldError(pinField(pin.Ontology, "Format"), "仅支持 json/obo/owl")
		}

		key := pin.Ontology + "@" + pin.Selector().String() + "." + string(pin.Format)
		if _, exists := seen[key]; exists {
			return newFieldError(pinField(pin.Ontology, "Ontology"), "重复")
		}
		seen[key] = struct{}{}
	}

	return nil
}

// validateEndpoint 确保上游端点是合法的 http/https 地址。
func validateEndpoint(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("不是合法的 URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("仅支持 http/https")
	}
	if parsed.Host == "" {
		return errors.New("缺少主机名")
	}
	return nil
}
