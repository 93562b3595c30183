package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// FetchFields 提供本体/版本/格式与命中状态字段，供注册与 HTTP 请求日志复用。
func FetchFields(ontology, version, format string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"ontology":  ontology,
		"version":   version,
		"format":    format,
		"cache_hit": cacheHit,
	}
}
