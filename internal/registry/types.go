package registry

import (
	"fmt"
	"strings"
)

// Version 表示调用方的版本选择器，区分动态解析与显式固定两种语义：
// Latest 在每次调用时通过 MetadataProvider 重新解析；Declared 则原样作为缓存键，
// 不会向远端校验。两者之间不做任何隐式转换，需要稳定 pin 的调用方应保存一次
// 解析结果后改用 Declared。
type Version struct {
	latest   bool
	declared string
}

// Latest 在调用时动态解析为当前发布版本。
var Latest = Version{latest: true}

// Declared 构造一个固定版本选择器，payload 原样用作缓存键。
func Declared(v string) Version {
	return Version{declared: v}
}

// IsLatest 返回该选择器是否需要动态解析。
func (v Version) IsLatest() bool {
	return v.latest
}

// String 渲染选择器，Latest 输出字面量 "latest"，Declared 输出其 payload。
func (v Version) String() string {
	if v.latest {
		return "latest"
	}
	return v.declared
}

// ParseVersion 将 URL/配置中的版本串转换为选择器，字面量 "latest"（不区分大小写）
// 映射为 Latest，其余字符串视为 Declared。
func ParseVersion(raw string) Version {
	if strings.EqualFold(strings.TrimSpace(raw), "latest") {
		return Latest
	}
	return Declared(strings.TrimSpace(raw))
}

// FileType 枚举受支持的本体序列化格式，决定缓存文件扩展名与上游请求的文件名。
type FileType string

const (
	FileTypeJSON FileType = "json"
	FileTypeOBO  FileType = "obo"
	FileTypeOWL  FileType = "owl"
)

// Extension 返回带点的文件扩展名，例如 ".json"。
func (t FileType) Extension() string {
	return "." + string(t)
}

// Valid 判断是否为受支持的格式。
func (t FileType) Valid() bool {
	switch t {
	case FileTypeJSON, FileTypeOBO, FileTypeOWL:
		return true
	}
	return false
}

// ParseFileType 解析配置或 URL 中的格式串，未知格式返回 ErrUnsupportedFormat。
func ParseFileType(raw string) (FileType, error) {
	t := FileType(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "."))))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
	return t, nil
}

// Metadata 描述注册表上游返回的本体元信息，Version 为当前发布版本，
// Download* 字段给出各格式的发布地址（可能为空）。
type Metadata struct {
	Prefix       string
	Title        string
	Version      string
	DownloadJSON string
	DownloadOWL  string
	DownloadOBO  string
}
